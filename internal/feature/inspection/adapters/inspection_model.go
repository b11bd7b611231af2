package adapters

import (
	"encoding/json"
	"time"

	"fabric_backend/internal/feature/inspection/domain/entity"
)

// InspectionModel is the GORM model for the inspections table.
type InspectionModel struct {
	ID          uint      `gorm:"primaryKey"`
	ModelID     string    `gorm:"size:32;not null"`
	Width       int       `gorm:"not null"`
	Height      int       `gorm:"not null"`
	InferenceMs int64     `gorm:"not null"`
	Kept        int       `gorm:"not null"`
	Discarded   int       `gorm:"not null"`
	ClassCounts string    `gorm:"type:text;not null"` // JSON object: class -> count
	CreatedAt   time.Time `gorm:"index;not null"`
}

// TableName returns the table name for GORM.
func (InspectionModel) TableName() string {
	return "inspections"
}

// ToEntity converts the GORM model to a domain entity.
// A malformed class_counts column yields an empty map.
func (m *InspectionModel) ToEntity() entity.InspectionRecord {
	counts := make(map[entity.Class]int)
	_ = json.Unmarshal([]byte(m.ClassCounts), &counts)
	return entity.InspectionRecord{
		ID:          m.ID,
		ModelID:     m.ModelID,
		Width:       m.Width,
		Height:      m.Height,
		InferenceMs: m.InferenceMs,
		Kept:        m.Kept,
		Discarded:   m.Discarded,
		ClassCounts: counts,
		CreatedAt:   m.CreatedAt,
	}
}

// InspectionModelFromEntity converts a domain entity to a GORM model.
func InspectionModelFromEntity(r *entity.InspectionRecord) (*InspectionModel, error) {
	counts := r.ClassCounts
	if counts == nil {
		counts = map[entity.Class]int{}
	}
	b, err := json.Marshal(counts)
	if err != nil {
		return nil, err
	}
	return &InspectionModel{
		ID:          r.ID,
		ModelID:     r.ModelID,
		Width:       r.Width,
		Height:      r.Height,
		InferenceMs: r.InferenceMs,
		Kept:        r.Kept,
		Discarded:   r.Discarded,
		ClassCounts: string(b),
		CreatedAt:   r.CreatedAt,
	}, nil
}
