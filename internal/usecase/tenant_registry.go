package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"chainverify/internal/domain"

	"github.com/google/uuid"
)

// TenantRegistry owns every tenant context. All mutation goes through it;
// tenants are never deleted, only transitioned.
type TenantRegistry struct {
	mu      sync.RWMutex
	tenants map[string]*domain.TenantContext

	Repo  TenantRepository
	Audit *AuditEmitter
	Clock Clock
}

func NewTenantRegistry() *TenantRegistry {
	return &TenantRegistry{
		tenants: make(map[string]*domain.TenantContext),
		Clock:   time.Now,
	}
}

// CreateTenant provisions an isolated tenant context. The namespace is
// derived deterministically from the random tenant id, and the boundary
// seal binds id, namespace, and creation time.
func (r *TenantRegistry) CreateTenant(ctx context.Context, name string, level domain.IsolationLevel, quota domain.ResourceQuota) (*domain.TenantContext, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: tenant name required", domain.ErrInvalidTransition)
	}
	if level == "" {
		level = domain.IsolationShared
	}
	if quota == nil {
		quota = domain.DefaultQuota()
	}

	id := uuid.NewString()
	namespace := deriveNamespace(id)
	createdAt := r.now().UTC()

	tenant := &domain.TenantContext{
		ID:             id,
		Name:           name,
		Status:         domain.TenantPending,
		IsolationLevel: level,
		Namespace:      namespace,
		BoundarySeal:   domain.ComputeBoundarySeal(id, namespace, createdAt),
		Quota:          cloneQuota(quota),
		Usage:          domain.ResourceQuota{},
		IsActive:       false,
		CreatedAt:      createdAt,
	}

	// The durable write gates the in-memory commit; a tenant the store
	// rejected must not exist in the registry either.
	if r.Repo != nil {
		if err := r.Repo.Create(ctx, *tenant); err != nil {
			return nil, fmt.Errorf("persist tenant: %w", err)
		}
	}

	r.mu.Lock()
	r.tenants[id] = tenant
	r.mu.Unlock()
	if r.Audit != nil {
		_ = r.Audit.EmitTenantLifecycle(ctx, domain.AuditEventTenantCreated, id, domain.AuditResultSuccess, "")
	}

	copied := *tenant
	return &copied, nil
}

func (r *TenantRegistry) Get(tenantID string) (*domain.TenantContext, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tenant, ok := r.tenants[tenantID]
	if !ok {
		return nil, domain.ErrTenantNotFound
	}
	copied := *tenant
	return &copied, nil
}

// CheckQuota is a pure read: live usage plus the requested amount against
// the quota map. It never errors; unknown resources are unlimited.
func (r *TenantRegistry) CheckQuota(tenantID string, resource domain.QuotaResource, requested int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tenant, ok := r.tenants[tenantID]
	if !ok {
		return false
	}
	limit, ok := tenant.Quota[resource]
	if !ok {
		return true
	}
	return tenant.Usage[resource]+requested <= limit
}

// RecordUsage bumps a live usage counter after the work was admitted.
func (r *TenantRegistry) RecordUsage(tenantID string, resource domain.QuotaResource, amount int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tenant, ok := r.tenants[tenantID]
	if !ok {
		return domain.ErrTenantNotFound
	}
	tenant.Usage[resource] += amount
	return nil
}

func (r *TenantRegistry) SuspendTenant(ctx context.Context, tenantID string) error {
	return r.transition(ctx, tenantID, domain.TenantSuspended, domain.AuditEventTenantSuspended, func(t *domain.TenantContext) error {
		if t.Status != domain.TenantActive {
			return fmt.Errorf("%w: %s -> SUSPENDED", domain.ErrInvalidTransition, t.Status)
		}
		t.IsActive = false
		return nil
	})
}

func (r *TenantRegistry) ActivateTenant(ctx context.Context, tenantID string) error {
	return r.transition(ctx, tenantID, domain.TenantActive, domain.AuditEventTenantActivated, func(t *domain.TenantContext) error {
		if t.KillSwitch || t.Status == domain.TenantKilled {
			return domain.ErrTenantKilled
		}
		if t.Status != domain.TenantSuspended && t.Status != domain.TenantPending {
			return fmt.Errorf("%w: %s -> ACTIVE", domain.ErrInvalidTransition, t.Status)
		}
		t.IsActive = true
		return nil
	})
}

func (r *TenantRegistry) TerminateTenant(ctx context.Context, tenantID string) error {
	return r.transition(ctx, tenantID, domain.TenantTerminated, domain.AuditEventTenantEnded, func(t *domain.TenantContext) error {
		if t.Status == domain.TenantKilled {
			return domain.ErrTenantKilled
		}
		t.IsActive = false
		return nil
	})
}

// KillTenant arms the kill switch. The transition is irreversible: no
// later call can reactivate the tenant.
func (r *TenantRegistry) KillTenant(ctx context.Context, tenantID string) error {
	return r.transition(ctx, tenantID, domain.TenantKilled, domain.AuditEventTenantKilled, func(t *domain.TenantContext) error {
		t.KillSwitch = true
		t.IsActive = false
		return nil
	})
}

// KillSwitchArmed is the cheap mid-batch check the executor polls.
func (r *TenantRegistry) KillSwitchArmed(tenantID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tenant, ok := r.tenants[tenantID]
	if !ok {
		return true
	}
	return tenant.KillSwitch
}

// ValidateAccess is the cross-tenant isolation guarantee: exact namespace
// equality for that exact tenant, never prefix matching.
func (r *TenantRegistry) ValidateAccess(tenantID, namespace string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tenant, ok := r.tenants[tenantID]
	if !ok {
		return false
	}
	return tenant.Namespace == namespace
}

// VerifySeal recomputes the boundary seal on demand.
func (r *TenantRegistry) VerifySeal(tenantID string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tenant, ok := r.tenants[tenantID]
	if !ok {
		return domain.ErrTenantNotFound
	}
	if !tenant.SealValid() {
		return domain.ErrSealInvalid
	}
	return nil
}

func (r *TenantRegistry) transition(ctx context.Context, tenantID string, target domain.TenantStatus, event domain.AuditEventType, apply func(*domain.TenantContext) error) error {
	r.mu.Lock()
	tenant, ok := r.tenants[tenantID]
	if !ok {
		r.mu.Unlock()
		return domain.ErrTenantNotFound
	}
	// apply works on a copy so a rejected or unpersisted transition
	// leaves the live entry untouched.
	updated := *tenant
	if err := apply(&updated); err != nil {
		r.mu.Unlock()
		if r.Audit != nil {
			_ = r.Audit.EmitTenantLifecycle(ctx, event, tenantID, domain.AuditResultFailure, err.Error())
		}
		return err
	}
	updated.Status = target

	if r.Repo != nil {
		if err := r.Repo.Update(ctx, updated); err != nil {
			r.mu.Unlock()
			return fmt.Errorf("persist tenant transition: %w", err)
		}
	}
	*tenant = updated
	r.mu.Unlock()

	if r.Audit != nil {
		_ = r.Audit.EmitTenantLifecycle(ctx, event, tenantID, domain.AuditResultSuccess, "")
	}
	return nil
}

func (r *TenantRegistry) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now()
}

func deriveNamespace(tenantID string) string {
	sum := sha256.Sum256([]byte("ns:" + tenantID))
	return "tenant-" + hex.EncodeToString(sum[:8])
}

func cloneQuota(q domain.ResourceQuota) domain.ResourceQuota {
	out := make(domain.ResourceQuota, len(q))
	for k, v := range q {
		out[k] = v
	}
	return out
}
