package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"chainverify/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SpecRepository struct {
	db *gorm.DB
}

func NewSpecRepository(db *gorm.DB) *SpecRepository {
	return &SpecRepository{db: db}
}

// Upsert replaces the stored document wholesale. Re-ingesting a spec
// under the same key never merges with the previous version.
func (r *SpecRepository) Upsert(ctx context.Context, specID string, spec domain.CanonicalSpec) error {
	if r.db == nil {
		return errDBUnavailable
	}
	specJSON, err := json.Marshal(spec)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	model := SpecModel{
		ID:            specID,
		Title:         spec.Title,
		Version:       spec.Version,
		SpecJSON:      specJSON,
		EndpointCount: len(spec.Endpoints),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "version", "spec_json", "endpoint_count", "updated_at"}),
	}).Create(&model).Error
}

func (r *SpecRepository) GetByID(ctx context.Context, specID string) (*domain.CanonicalSpec, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model SpecModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", specID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var spec domain.CanonicalSpec
	if err := json.Unmarshal(model.SpecJSON, &spec); err != nil {
		return nil, err
	}
	return &spec, nil
}
