package usecase

import (
	"sort"

	"fabric_backend/internal/feature/inspection/domain/entity"
)

// IoU は2つの矩形のIntersection-over-Unionを返します。
// 和集合の面積が0の場合（両方が退化矩形など）は0を返します。
func IoU(a, b entity.BBox) float64 {
	ix1 := max(a.X, b.X)
	iy1 := max(a.Y, b.Y)
	ix2 := min(a.X+a.Width, b.X+b.Width)
	iy2 := min(a.Y+a.Height, b.Y+b.Height)

	inter := max(0, ix2-ix1) * max(0, iy2-iy1)
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// Suppress はクラスを区別しない貪欲法のNon-Max Suppressionを行います。
//
// スコアの降順（同点は入力順）に検出を採用し、採用した検出とのIoUが
// iouThresholdを超える残りの検出を破棄します。戻り値は採用順（スコア降順）です。
func Suppress(dets []entity.Detection, iouThreshold float64) []entity.Detection {
	if len(dets) == 0 {
		return []entity.Detection{}
	}

	order := make([]int, len(dets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return dets[order[i]].Score > dets[order[j]].Score
	})

	suppressed := make([]bool, len(dets))
	kept := make([]entity.Detection, 0, len(dets))
	for pos, i := range order {
		if suppressed[i] {
			continue
		}
		kept = append(kept, dets[i])
		for _, j := range order[pos+1:] {
			if suppressed[j] {
				continue
			}
			if IoU(dets[i].BBox, dets[j].BBox) > iouThreshold {
				suppressed[j] = true
			}
		}
	}
	return kept
}
