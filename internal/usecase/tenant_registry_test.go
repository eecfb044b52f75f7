package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chainverify/internal/domain"
)

func newTestRegistry() *TenantRegistry {
	r := NewTenantRegistry()
	r.Clock = func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}
	return r
}

func mustCreateTenant(t *testing.T, r *TenantRegistry) *domain.TenantContext {
	t.Helper()
	tenant, err := r.CreateTenant(context.Background(), "acme", domain.IsolationShared, nil)
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return tenant
}

func TestCreateTenant_StartsPending(t *testing.T) {
	r := newTestRegistry()
	tenant := mustCreateTenant(t, r)

	if tenant.Status != domain.TenantPending {
		t.Fatalf("new tenants start PENDING, got %s", tenant.Status)
	}
	if tenant.IsActive {
		t.Fatal("pending tenant must not be active")
	}
	if !strings.HasPrefix(tenant.Namespace, "tenant-") {
		t.Fatalf("unexpected namespace %q", tenant.Namespace)
	}
	if !tenant.SealValid() {
		t.Fatal("boundary seal must verify at creation")
	}
	if tenant.Quota[domain.QuotaEndpoints] != 100 {
		t.Fatalf("expected default endpoint quota, got %d", tenant.Quota[domain.QuotaEndpoints])
	}
}

func TestTenantLifecycle_Transitions(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()
	tenant := mustCreateTenant(t, r)

	if err := r.SuspendTenant(ctx, tenant.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("PENDING -> SUSPENDED should be invalid, got %v", err)
	}
	if err := r.ActivateTenant(ctx, tenant.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	got, err := r.Get(tenant.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.TenantActive || !got.IsActive {
		t.Fatalf("expected ACTIVE tenant, got %+v", got)
	}

	if err := r.SuspendTenant(ctx, tenant.ID); err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if err := r.ActivateTenant(ctx, tenant.ID); err != nil {
		t.Fatalf("reactivate from suspension: %v", err)
	}
	if err := r.TerminateTenant(ctx, tenant.ID); err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if err := r.ActivateTenant(ctx, tenant.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("TERMINATED -> ACTIVE should be invalid, got %v", err)
	}
}

func TestKillTenant_Irreversible(t *testing.T) {
	r := newTestRegistry()
	ctx := context.Background()
	tenant := mustCreateTenant(t, r)

	if err := r.ActivateTenant(ctx, tenant.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := r.KillTenant(ctx, tenant.ID); err != nil {
		t.Fatalf("kill: %v", err)
	}
	if !r.KillSwitchArmed(tenant.ID) {
		t.Fatal("kill switch must be armed")
	}
	if err := r.ActivateTenant(ctx, tenant.ID); !errors.Is(err, domain.ErrTenantKilled) {
		t.Fatalf("killed tenant must never reactivate, got %v", err)
	}
	if err := r.TerminateTenant(ctx, tenant.ID); !errors.Is(err, domain.ErrTenantKilled) {
		t.Fatalf("killed tenant must not transition again, got %v", err)
	}
}

func TestValidateAccess_ExactNamespaceOnly(t *testing.T) {
	r := newTestRegistry()
	a := mustCreateTenant(t, r)
	b := mustCreateTenant(t, r)

	if !r.ValidateAccess(a.ID, a.Namespace) {
		t.Fatal("tenant must access its own namespace")
	}
	if r.ValidateAccess(a.ID, b.Namespace) {
		t.Fatal("cross-tenant namespace access must be denied")
	}
	if r.ValidateAccess(a.ID, a.Namespace+"-suffix") {
		t.Fatal("namespace prefix matching must be denied")
	}
	if r.ValidateAccess("no-such-tenant", a.Namespace) {
		t.Fatal("unknown tenant must be denied")
	}
}

func TestQuota_CheckAndRecord(t *testing.T) {
	r := newTestRegistry()
	tenant, err := r.CreateTenant(context.Background(), "acme", domain.IsolationShared, domain.ResourceQuota{
		domain.QuotaTests: 10,
	})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}

	if !r.CheckQuota(tenant.ID, domain.QuotaTests, 10) {
		t.Fatal("request at the limit should pass")
	}
	if r.CheckQuota(tenant.ID, domain.QuotaTests, 11) {
		t.Fatal("request over the limit should fail")
	}
	if err := r.RecordUsage(tenant.ID, domain.QuotaTests, 7); err != nil {
		t.Fatalf("record usage: %v", err)
	}
	if r.CheckQuota(tenant.ID, domain.QuotaTests, 4) {
		t.Fatal("usage plus request over the limit should fail")
	}
	if !r.CheckQuota(tenant.ID, domain.QuotaTests, 3) {
		t.Fatal("usage plus request within the limit should pass")
	}
	// Resources without a configured limit are unconstrained.
	if !r.CheckQuota(tenant.ID, domain.QuotaExecutions, 1<<40) {
		t.Fatal("unconfigured resource should be unlimited")
	}
}

func TestVerifySeal_DetectsTampering(t *testing.T) {
	r := newTestRegistry()
	tenant := mustCreateTenant(t, r)

	if err := r.VerifySeal(tenant.ID); err != nil {
		t.Fatalf("fresh seal should verify: %v", err)
	}

	r.mu.Lock()
	r.tenants[tenant.ID].Namespace = "tenant-hijacked"
	r.mu.Unlock()

	if err := r.VerifySeal(tenant.ID); !errors.Is(err, domain.ErrSealInvalid) {
		t.Fatalf("tampered namespace must invalidate the seal, got %v", err)
	}
}

type tenantRepoStub struct {
	createErr error
	updateErr error
	created   int
	updated   int
}

func (s *tenantRepoStub) Create(ctx context.Context, tenant domain.TenantContext) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created++
	return nil
}

func (s *tenantRepoStub) Update(ctx context.Context, tenant domain.TenantContext) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated++
	return nil
}

func (s *tenantRepoStub) GetByID(ctx context.Context, tenantID string) (*domain.TenantContext, error) {
	return nil, domain.ErrTenantNotFound
}

func TestCreateTenant_RepoFailureLeavesNoTenant(t *testing.T) {
	r := newTestRegistry()
	r.Repo = &tenantRepoStub{createErr: errors.New("db down")}

	if _, err := r.CreateTenant(context.Background(), "acme", domain.IsolationShared, nil); err == nil {
		t.Fatal("expected error when the store rejects the tenant")
	}

	r.mu.RLock()
	count := len(r.tenants)
	r.mu.RUnlock()
	if count != 0 {
		t.Fatalf("rejected tenant must not live in the registry, got %d entries", count)
	}
}

func TestTransition_RepoFailureRollsBack(t *testing.T) {
	r := newTestRegistry()
	repo := &tenantRepoStub{}
	r.Repo = repo
	ctx := context.Background()
	tenant := mustCreateTenant(t, r)

	repo.updateErr = errors.New("db down")
	if err := r.ActivateTenant(ctx, tenant.ID); err == nil {
		t.Fatal("expected error when the store rejects the transition")
	}

	got, err := r.Get(tenant.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.TenantPending || got.IsActive {
		t.Fatalf("failed transition must leave the tenant unchanged, got %+v", got)
	}

	// Once the store recovers the same transition goes through.
	repo.updateErr = nil
	if err := r.ActivateTenant(ctx, tenant.ID); err != nil {
		t.Fatalf("activate after recovery: %v", err)
	}
	if repo.updated != 1 {
		t.Fatalf("expected a single persisted update, got %d", repo.updated)
	}
}

func TestRegistry_AuditEmission(t *testing.T) {
	repo := &auditRepoStub{}
	r := newTestRegistry()
	r.Audit = NewAuditEmitter(repo)
	ctx := context.Background()

	tenant := mustCreateTenant(t, r)
	if err := r.ActivateTenant(ctx, tenant.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if err := r.KillTenant(ctx, tenant.ID); err != nil {
		t.Fatalf("kill: %v", err)
	}

	if len(repo.events) != 3 {
		t.Fatalf("expected 3 lifecycle events, got %d", len(repo.events))
	}
	wantTypes := []domain.AuditEventType{
		domain.AuditEventTenantCreated,
		domain.AuditEventTenantActivated,
		domain.AuditEventTenantKilled,
	}
	for i, want := range wantTypes {
		if repo.events[i].EventType != want {
			t.Fatalf("event %d: expected %s, got %s", i, want, repo.events[i].EventType)
		}
		if repo.events[i].TenantID != tenant.ID {
			t.Fatalf("event %d: expected tenant %s, got %s", i, tenant.ID, repo.events[i].TenantID)
		}
	}
}
