package usecase

import (
	"image"

	"github.com/nfnt/resize"
)

// MaxImageSide は処理する画像の長辺の上限（ピクセル）です。
const MaxImageSide = 2048

// FitWithin は長辺がmaxSide以下になるようアスペクト比を保った寸法を返します。
// 長辺はちょうどmaxSideになるよう整数演算で計算します。短辺は最低1ピクセルです。
func FitWithin(width, height, maxSide int) (int, int) {
	longer := max(width, height)
	if longer <= maxSide {
		return width, height
	}
	return max(1, width*maxSide/longer), max(1, height*maxSide/longer)
}

// ResizeIfNeeded は長辺がMaxImageSideを超える画像をLanczos3で縮小します。
// 以降の座標はすべて縮小後の画像を基準にします。
func ResizeIfNeeded(img image.Image) image.Image {
	b := img.Bounds()
	w, h := FitWithin(b.Dx(), b.Dy(), MaxImageSide)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	return resize.Resize(uint(w), uint(h), img, resize.Lanczos3)
}
