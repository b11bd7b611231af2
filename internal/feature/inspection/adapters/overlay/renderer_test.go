package overlay

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabric_backend/internal/feature/inspection/domain/entity"
)

func rgbaAt(img image.Image, x, y int) color.RGBA {
	r, g, b, a := img.At(x, y).RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}

func newCanvas(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

func TestLabel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		det  entity.Detection
		want string
	}{
		{det: entity.Detection{Class: entity.ClassHole, Score: 0.9}, want: "hole 90%"},
		{det: entity.Detection{Class: entity.ClassWeaveDefect, Score: 0.875}, want: "weave_defect 88%"},
		{det: entity.Detection{Class: entity.ClassOther, Score: 1}, want: "other 100%"},
		{det: entity.Detection{Class: entity.ClassStain, Score: 0.004}, want: "stain 0%"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, Label(tc.det))
	}
}

func TestColorFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, color.RGBA{R: 255, A: 255}, ColorFor(entity.ClassHole))
	assert.Equal(t, color.RGBA{R: 255, G: 165, A: 255}, ColorFor(entity.ClassStain))
	assert.Equal(t, color.RGBA{B: 255, A: 255}, ColorFor(entity.ClassScratch))
	assert.Equal(t, fallbackColor, ColorFor(entity.Class("unknown")))
}

func TestRenderer_Render_FallbackSizing(t *testing.T) {
	t.Parallel()

	r := NewRenderer("/nonexistent/font.ttf")
	require.False(t, r.HasFont())

	src := newCanvas(200, 120)
	det := entity.Detection{
		Class: entity.ClassHole,
		Score: 0.9,
		BBox:  entity.BBox{X: 20, Y: 40, Width: 60, Height: 50},
	}

	out := r.Render(src, []entity.Detection{det})
	require.Equal(t, src.Bounds(), out.Bounds())

	red := color.RGBA{R: 255, A: 255}
	black := color.RGBA{A: 255}

	// 矩形の左辺
	assert.Equal(t, red, rgbaAt(out, 20, 70))
	// 矩形の内側は塗らない
	assert.Equal(t, black, rgbaAt(out, 50, 70))
	// チップは"hole 90%"の8文字×8px+8px幅、16px+4px高さ
	assert.Equal(t, red, rgbaAt(out, 21, 22))
	assert.Equal(t, red, rgbaAt(out, 90, 30))
	assert.Equal(t, black, rgbaAt(out, 94, 30))
	assert.Equal(t, black, rgbaAt(out, 50, 18))

	// 入力画像は変更されない
	assert.Equal(t, black, rgbaAt(src, 20, 70))
	assert.Equal(t, black, rgbaAt(src, 21, 22))
}

func TestRenderer_Render_Polygon(t *testing.T) {
	t.Parallel()

	r := &Renderer{}
	src := newCanvas(100, 100)
	det := entity.Detection{
		Class: entity.ClassWeaveDefect,
		Score: 0.5,
		BBox:  entity.BBox{X: 30, Y: 40, Width: 40, Height: 40},
		Mask:  []entity.Point{{X: 30, Y: 60}, {X: 70, Y: 60}, {X: 70, Y: 80}, {X: 30, Y: 80}},
	}

	out := r.Render(src, []entity.Detection{det})

	green := color.RGBA{G: 255, A: 255}
	black := color.RGBA{A: 255}

	// マスクの上辺(y=60)は描かれ、bboxの下辺ではなくマスクの輪郭になる
	assert.Equal(t, green, rgbaAt(out, 50, 60))
	assert.Equal(t, black, rgbaAt(out, 50, 70))
	// マスクがあれば矩形は描かない（bboxの左辺上）
	assert.Equal(t, black, rgbaAt(out, 30, 50))
}

func TestRenderer_Render_NoDetections(t *testing.T) {
	t.Parallel()

	src := newCanvas(10, 10)
	out := (&Renderer{}).Render(src, nil)
	assert.Equal(t, src.Bounds(), out.Bounds())
	assert.Equal(t, color.RGBA{A: 255}, rgbaAt(out, 5, 5))
}
