// Package adapters はinspectionフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"fabric_backend/internal/feature/inspection/domain/entity"
	"fabric_backend/internal/feature/inspection/usecase"
)

// inspectionGorm はInspectionRepositoryインターフェースのGORM実装です。
type inspectionGorm struct {
	db *gorm.DB
}

var _ usecase.InspectionRepository = (*inspectionGorm)(nil)

// NewInspectionRepository は指定されたDB接続でinspectionGormリポジトリの新しいインスタンスを生成します。
func NewInspectionRepository(db *gorm.DB) *inspectionGorm {
	return &inspectionGorm{db: db}
}

// Create は履歴1件を保存し、採番されたIDをrecに反映します。
func (r *inspectionGorm) Create(ctx context.Context, rec *entity.InspectionRecord) error {
	m, err := InspectionModelFromEntity(rec)
	if err != nil {
		return fmt.Errorf("encode class counts: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	rec.ID = m.ID
	return nil
}

// ListRecent は作成日時の新しい順に最大limit件を返します。
func (r *inspectionGorm) ListRecent(ctx context.Context, limit int) ([]entity.InspectionRecord, error) {
	var rows []InspectionModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.InspectionRecord, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToEntity())
	}
	return out, nil
}
