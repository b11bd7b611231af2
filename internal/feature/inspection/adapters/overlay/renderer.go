// Package overlay は検出結果を画像に描き込むレンダラーを提供します。
package overlay

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"fabric_backend/internal/feature/inspection/domain/entity"
	"fabric_backend/internal/feature/inspection/usecase"
)

const (
	DefaultFontPath = "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"

	fontSize      = 16
	boxLineWidth  = 3
	maskLineWidth = 2
	fallbackCharW = 8
	fallbackTextH = 16
	chipPaddingX  = 8
	chipPaddingY  = 4
	textOffsetX   = 4
	textOffsetY   = 2
)

// classColors はクラスごとの描画色です。
var classColors = map[entity.Class]color.RGBA{
	entity.ClassHole:         {R: 255, G: 0, B: 0, A: 255},
	entity.ClassStain:        {R: 255, G: 165, B: 0, A: 255},
	entity.ClassWeaveDefect:  {R: 0, G: 255, B: 0, A: 255},
	entity.ClassScratch:      {R: 0, G: 0, B: 255, A: 255},
	entity.ClassForeignFiber: {R: 255, G: 255, B: 0, A: 255},
	entity.ClassOther:        {R: 128, G: 128, B: 128, A: 255},
}

var (
	fallbackColor = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	textColor     = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Renderer は検出ごとに矩形またはマスク輪郭とラベルチップを描画します。
// フォントは起動時に一度だけ解析し、描画ごとにフェイスを生成します。
type Renderer struct {
	font *truetype.Font // 読み込めなかった場合はnil
}

// RendererがOverlayRendererを実装していることをコンパイル時に検証します。
var _ usecase.OverlayRenderer = (*Renderer)(nil)

// NewRenderer はフォントファイルを読み込んでRendererを生成します。
// フォントが読めなくてもエラーにはせず、固定幅の見積もりで描画します。
func NewRenderer(fontPath string) *Renderer {
	f, err := loadFont(fontPath)
	if err != nil {
		slog.Warn("overlay font unavailable, using fallback sizing", "path", fontPath, "error", err)
		return &Renderer{}
	}
	return &Renderer{font: f}
}

func loadFont(path string) (*truetype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return truetype.Parse(data)
}

// HasFont はフォントが利用可能かを返します。
func (r *Renderer) HasFont() bool {
	return r.font != nil
}

// Render は入力画像のコピーに検出結果を描き込んで返します。入力画像は変更しません。
func (r *Renderer) Render(img image.Image, dets []entity.Detection) image.Image {
	dc := gg.NewContextForImage(img)

	face := r.labelFace()
	if face != nil {
		dc.SetFontFace(face)
		defer func() {
			if err := face.Close(); err != nil {
				slog.Debug("failed to close font face", "error", err)
			}
		}()
	}

	for _, d := range dets {
		c := ColorFor(d.Class)
		dc.SetColor(c)

		if d.HasPolygon() {
			dc.SetLineWidth(maskLineWidth)
			dc.MoveTo(d.Mask[0].X, d.Mask[0].Y)
			for _, p := range d.Mask[1:] {
				dc.LineTo(p.X, p.Y)
			}
			dc.ClosePath()
			dc.Stroke()
		} else {
			dc.SetLineWidth(boxLineWidth)
			dc.DrawRectangle(float64(d.BBox.X), float64(d.BBox.Y), float64(d.BBox.Width), float64(d.BBox.Height))
			dc.Stroke()
		}

		drawChip(dc, face != nil, Label(d), float64(d.BBox.X), float64(d.BBox.Y), c)
	}
	return dc.Image()
}

// labelFace はフォントがあれば描画用フェイスを、なければnilを返します。
func (r *Renderer) labelFace() font.Face {
	if r.font == nil {
		return nil
	}
	return truetype.NewFace(r.font, &truetype.Options{Size: fontSize})
}

// drawChip は図形の左上のすぐ上にラベルチップを描画します。
func drawChip(dc *gg.Context, measured bool, label string, x, y float64, c color.Color) {
	tw, th := float64(len(label)*fallbackCharW), float64(fallbackTextH)
	if measured {
		tw, th = dc.MeasureString(label)
	}

	dc.SetColor(c)
	dc.DrawRectangle(x, y-th-chipPaddingY, tw+chipPaddingX, th+chipPaddingY)
	dc.Fill()

	dc.SetColor(textColor)
	dc.DrawStringAnchored(label, x+textOffsetX, y-th-textOffsetY, 0, 1)
}

// ColorFor はクラスの描画色を返します。未知のクラスは灰色です。
func ColorFor(c entity.Class) color.RGBA {
	if col, ok := classColors[c]; ok {
		return col
	}
	return fallbackColor
}

// Label はチップに表示する"<class> <score%>"形式の文字列を返します。
func Label(d entity.Detection) string {
	return fmt.Sprintf("%s %d%%", d.Class, int(math.Round(d.Score*100)))
}
