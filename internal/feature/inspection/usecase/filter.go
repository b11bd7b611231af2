package usecase

import (
	"strings"

	"fabric_backend/internal/feature/inspection/domain/entity"
)

// ParseClassFilter はカンマ区切りのクラス名リストを分解します。
// 各要素は前後の空白を除去し、空要素は捨てます。有効な要素がなければnilを返します。
func ParseClassFilter(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// FilterByClasses はclassFilterに含まれるクラスの検出だけを残し、破棄した件数を返します。
// classFilterが空なら入力をそのまま返します。タクソノミー外の名前は何にも一致しません。
func FilterByClasses(dets []entity.Detection, classFilter []string) ([]entity.Detection, int) {
	if len(classFilter) == 0 {
		return dets, 0
	}

	allowed := make(map[string]struct{}, len(classFilter))
	for _, name := range classFilter {
		allowed[name] = struct{}{}
	}

	kept := make([]entity.Detection, 0, len(dets))
	for _, d := range dets {
		if _, ok := allowed[string(d.Class)]; ok {
			kept = append(kept, d)
		}
	}
	return kept, len(dets) - len(kept)
}
