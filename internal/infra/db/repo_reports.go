package db

import (
	"context"
	"encoding/json"
	"errors"

	"chainverify/internal/domain"

	"gorm.io/gorm"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, report domain.VerificationReport) error {
	if r.db == nil {
		return errDBUnavailable
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return err
	}
	model := ReportModel{
		ID:          report.ReportID,
		TenantID:    report.TenantID,
		Grade:       string(report.Summary.Grade),
		FinalScore:  report.Summary.FinalScore,
		ReportJSON:  reportJSON,
		GeneratedAt: report.GeneratedAt.UTC(),
		ExpiresAt:   report.ExpiresAt.UTC(),
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *ReportRepository) GetByID(ctx context.Context, reportID string) (*domain.VerificationReport, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model ReportModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", reportID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var report domain.VerificationReport
	if err := json.Unmarshal(model.ReportJSON, &report); err != nil {
		return nil, err
	}
	return &report, nil
}
