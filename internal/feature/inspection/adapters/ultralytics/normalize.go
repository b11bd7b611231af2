// Package ultralytics はYOLO系（矩形＋任意のマスク）バックエンドのアダプタを提供します。
package ultralytics

import (
	"fabric_backend/internal/feature/inspection/domain/entity"
)

// Row はYOLOバックエンドが返す生の検出1件です。
type Row struct {
	ClassID    int          `json:"cls"`
	Confidence float64      `json:"conf"`
	XYXY       [4]float64   `json:"xyxy"` // x1, y1, x2, y2（絶対ピクセル）
	Mask       [][2]float64 `json:"mask,omitempty"`
}

// ResolveClass はクラスインデックスをタクソノミーのクラスに変換します。
//
// まずバックエンド自身のラベル表を引き、その結果がタクソノミー外で
// インデックスがタクソノミーの範囲内なら位置で対応付け、それ以外は"other"にします。
func ResolveClass(classID int, names map[int]string) entity.Class {
	label, ok := names[classID]
	if !ok {
		label = string(entity.ClassOther)
	}
	if entity.IsKnown(label) {
		return entity.Class(label)
	}
	if classID >= 0 && classID < len(entity.Taxonomy) {
		return entity.Taxonomy[classID]
	}
	return entity.ClassOther
}

// Normalize は生の行を共通の検出形式に変換します。
// 信頼度による再フィルタや重なりの抑制は行いません。
func Normalize(rows []Row, names map[int]string, width, height int) []entity.Detection {
	out := make([]entity.Detection, 0, len(rows))
	for _, r := range rows {
		x1, y1, x2, y2 := r.XYXY[0], r.XYXY[1], r.XYXY[2], r.XYXY[3]
		bbox := entity.BBox{
			X:      int(x1),
			Y:      int(y1),
			Width:  int(x2 - x1),
			Height: int(y2 - y1),
		}
		det := entity.Detection{
			Class: ResolveClass(r.ClassID, names),
			Score: r.Confidence,
			BBox:  bbox.ClampTo(width, height),
		}
		if len(r.Mask) > 0 {
			det.Mask = make([]entity.Point, 0, len(r.Mask))
			for _, p := range r.Mask {
				det.Mask = append(det.Mask, entity.Point{X: p[0], Y: p[1]}.ClampTo(width, height))
			}
		}
		out = append(out, det)
	}
	return out
}

// TaxonomyNames はタクソノミーをインデックス→ラベルの表にしたものです。
// 独自のラベル表を持たないソース（ONNXモデル）で使います。
func TaxonomyNames() map[int]string {
	names := make(map[int]string, len(entity.Taxonomy))
	for i, c := range entity.Taxonomy {
		names[i] = string(c)
	}
	return names
}
