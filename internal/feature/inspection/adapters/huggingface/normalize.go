// Package huggingface はラベル＋矩形系（HuggingFace物体検出）バックエンドのアダプタを提供します。
package huggingface

import (
	"fabric_backend/internal/feature/inspection/domain/entity"
)

// Box はmin/max形式の矩形です（絶対ピクセル）。
type Box struct {
	XMin float64 `json:"xmin"`
	YMin float64 `json:"ymin"`
	XMax float64 `json:"xmax"`
	YMax float64 `json:"ymax"`
}

// Row はバックエンドが返す生の検出1件です。
type Row struct {
	Score float64 `json:"score"`
	Label string  `json:"label"`
	Box   Box     `json:"box"`
}

// Normalize は生の行を共通の検出形式に変換します。
// ラベルがタクソノミー外なら"other"にします。スコアによる再フィルタは行いません。
func Normalize(rows []Row, width, height int) []entity.Detection {
	out := make([]entity.Detection, 0, len(rows))
	for _, r := range rows {
		bbox := entity.BBox{
			X:      int(r.Box.XMin),
			Y:      int(r.Box.YMin),
			Width:  int(r.Box.XMax - r.Box.XMin),
			Height: int(r.Box.YMax - r.Box.YMin),
		}
		out = append(out, entity.Detection{
			Class: entity.ClassOf(r.Label),
			Score: r.Score,
			BBox:  bbox.ClampTo(width, height),
		})
	}
	return out
}
