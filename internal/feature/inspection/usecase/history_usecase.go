package usecase

import (
	"context"
	"fmt"
	"time"

	"fabric_backend/internal/feature/inspection/domain/entity"
)

const (
	// DefaultHistoryLimit は履歴取得件数のデフォルトです。
	DefaultHistoryLimit = 20
	// MaxHistoryLimit は履歴取得件数の上限です。
	MaxHistoryLimit = 100
)

// InspectionRepository は検査履歴の永続化層を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type InspectionRepository interface {
	// Create は履歴1件を保存します。
	Create(ctx context.Context, rec *entity.InspectionRecord) error
	// ListRecent は新しい順に最大limit件の履歴を返します。
	ListRecent(ctx context.Context, limit int) ([]entity.InspectionRecord, error)
}

// historyUsecase は検査履歴の記録と参照を提供します。
type historyUsecase struct {
	repo InspectionRepository
	now  func() time.Time
}

// NewHistoryUsecase はhistoryUsecaseの新しいインスタンスを生成します。
func NewHistoryUsecase(repo InspectionRepository) *historyUsecase {
	return &historyUsecase{repo: repo, now: time.Now}
}

// Record はパイプライン結果のメタデータを履歴として保存します。
func (u *historyUsecase) Record(ctx context.Context, modelID string, result *entity.InspectionResult) error {
	if result == nil {
		return fmt.Errorf("inspection result is nil")
	}
	rec := &entity.InspectionRecord{
		ModelID:     modelID,
		Width:       result.Width,
		Height:      result.Height,
		InferenceMs: result.InferenceMs,
		Kept:        result.Kept,
		Discarded:   result.Discarded,
		ClassCounts: entity.CountByClass(result.Detections),
		CreatedAt:   u.now(),
	}
	if err := u.repo.Create(ctx, rec); err != nil {
		return fmt.Errorf("record inspection: %w", err)
	}
	return nil
}

// Recent は新しい順に履歴を返します。limitが0以下ならデフォルト件数、上限超過なら上限に丸めます。
func (u *historyUsecase) Recent(ctx context.Context, limit int) ([]entity.InspectionRecord, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}
	return u.repo.ListRecent(ctx, limit)
}
