// Package entity はinspectionフィーチャーのドメインモデルを定義します。
package entity

// Class は布地欠陥の分類名です。固定のタクソノミーに属する値のみを取ります。
type Class string

const (
	ClassHole         Class = "hole"
	ClassStain        Class = "stain"
	ClassWeaveDefect  Class = "weave_defect"
	ClassScratch      Class = "scratch"
	ClassForeignFiber Class = "foreign_fiber"
	ClassOther        Class = "other"
)

// Taxonomy は認識可能な欠陥クラスの一覧です。順序はYOLOモデルのクラスインデックスに対応します。
var Taxonomy = []Class{
	ClassHole,
	ClassStain,
	ClassWeaveDefect,
	ClassScratch,
	ClassForeignFiber,
	ClassOther,
}

// IsKnown はクラス名がタクソノミーに含まれるかを返します。
func IsKnown(name string) bool {
	for _, c := range Taxonomy {
		if string(c) == name {
			return true
		}
	}
	return false
}

// ClassOf はラベルをタクソノミーのクラスに変換します。未知のラベルは"other"になります。
func ClassOf(label string) Class {
	if IsKnown(label) {
		return Class(label)
	}
	return ClassOther
}

// BBox は(x, y, width, height)形式の軸平行矩形です（処理後画像のピクセル座標）。
type BBox struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Area は矩形の面積を返します。幅または高さが0以下なら0です。
func (b BBox) Area() int {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// Point はマスク多角形の頂点です。
type Point struct {
	X float64
	Y float64
}

// Detection は検出された欠陥1件を表します。
type Detection struct {
	Class Class   // タクソノミー内のクラス
	Score float64 // 信頼度（0.0 ~ 1.0）
	BBox  BBox    // 処理後画像座標系の矩形
	Mask  []Point // インスタンスセグメンテーションの輪郭（バックエンドが返した場合のみ）
}

// HasPolygon はマスクを多角形として描画できるか（3点以上か）を返します。
func (d Detection) HasPolygon() bool {
	return len(d.Mask) > 2
}

// ClampTo は矩形を[0,width]x[0,height]の範囲に収めます。はみ出した分は幅・高さから削ります。
func (b BBox) ClampTo(width, height int) BBox {
	x1 := clampInt(b.X, 0, width)
	y1 := clampInt(b.Y, 0, height)
	x2 := clampInt(b.X+b.Width, 0, width)
	y2 := clampInt(b.Y+b.Height, 0, height)
	return BBox{X: x1, Y: y1, Width: max(0, x2-x1), Height: max(0, y2-y1)}
}

// ClampTo は頂点を[0,width]x[0,height]の範囲に収めます。
func (p Point) ClampTo(width, height int) Point {
	return Point{
		X: min(max(p.X, 0), float64(width)),
		Y: min(max(p.Y, 0), float64(height)),
	}
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}
