package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"chainverify/internal/domain"

	"gorm.io/gorm"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Create(ctx context.Context, tenant domain.TenantContext) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model, err := tenantModelFromDomain(tenant)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *TenantRepository) Update(ctx context.Context, tenant domain.TenantContext) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model, err := tenantModelFromDomain(tenant)
	if err != nil {
		return err
	}
	model.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&TenantModel{}).
		Where("id = ?", tenant.ID).
		Updates(map[string]any{
			"status":      model.Status,
			"quota_json":  model.QuotaJSON,
			"usage_json":  model.UsageJSON,
			"kill_switch": model.KillSwitch,
			"is_active":   model.IsActive,
			"updated_at":  model.UpdatedAt,
		}).Error
}

func (r *TenantRepository) GetByID(ctx context.Context, tenantID string) (*domain.TenantContext, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model TenantModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", tenantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTenantNotFound
		}
		return nil, err
	}
	tenant, err := tenantFromModel(model)
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func tenantModelFromDomain(tenant domain.TenantContext) (TenantModel, error) {
	quotaJSON, err := json.Marshal(tenant.Quota)
	if err != nil {
		return TenantModel{}, err
	}
	usageJSON, err := json.Marshal(tenant.Usage)
	if err != nil {
		return TenantModel{}, err
	}
	return TenantModel{
		ID:             tenant.ID,
		Name:           tenant.Name,
		Status:         string(tenant.Status),
		IsolationLevel: string(tenant.IsolationLevel),
		Namespace:      tenant.Namespace,
		BoundarySeal:   tenant.BoundarySeal,
		QuotaJSON:      quotaJSON,
		UsageJSON:      usageJSON,
		KillSwitch:     tenant.KillSwitch,
		IsActive:       tenant.IsActive,
		CreatedAt:      tenant.CreatedAt.UTC(),
		UpdatedAt:      time.Now().UTC(),
	}, nil
}

func tenantFromModel(model TenantModel) (domain.TenantContext, error) {
	var quota, usage domain.ResourceQuota
	if err := json.Unmarshal(model.QuotaJSON, &quota); err != nil {
		return domain.TenantContext{}, err
	}
	if err := json.Unmarshal(model.UsageJSON, &usage); err != nil {
		return domain.TenantContext{}, err
	}
	return domain.TenantContext{
		ID:             model.ID,
		Name:           model.Name,
		Status:         domain.TenantStatus(model.Status),
		IsolationLevel: domain.IsolationLevel(model.IsolationLevel),
		Namespace:      model.Namespace,
		BoundarySeal:   model.BoundarySeal,
		Quota:          quota,
		Usage:          usage,
		KillSwitch:     model.KillSwitch,
		IsActive:       model.IsActive,
		CreatedAt:      model.CreatedAt.UTC(),
	}, nil
}
