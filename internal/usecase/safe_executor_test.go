package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"chainverify/internal/domain"
)

type dispatcherStub struct {
	status   int
	err      error
	requests []DispatchRequest
	onCall   func(n int)
}

func (d *dispatcherStub) Dispatch(ctx context.Context, req DispatchRequest) (DispatchResult, error) {
	d.requests = append(d.requests, req)
	if d.onCall != nil {
		d.onCall(len(d.requests))
	}
	if d.err != nil {
		return DispatchResult{}, d.err
	}
	return DispatchResult{
		StatusCode:   d.status,
		Latency:      2 * time.Millisecond,
		ResponseSize: 64,
		ContentType:  "application/json",
	}, nil
}

type limiterStub struct {
	counts map[string]int
}

func (l *limiterStub) Allow(ctx context.Context, key string, limit int) (domain.RateLimitDecision, error) {
	if l.counts == nil {
		l.counts = map[string]int{}
	}
	if l.counts[key] >= limit {
		return domain.RateLimitDecision{Allowed: false, Limit: limit}, nil
	}
	l.counts[key]++
	return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit - l.counts[key]}, nil
}

func (l *limiterStub) Reset(ctx context.Context, key string) error {
	delete(l.counts, key)
	return nil
}

type safetyStub struct {
	allow bool
	err   error
}

func (s *safetyStub) Evaluate(ctx context.Context, input domain.SafetyInput) (domain.SafetyEvaluation, error) {
	if s.err != nil {
		return domain.SafetyEvaluation{}, s.err
	}
	result := domain.SafetyResult{Allow: s.allow}
	if !s.allow {
		result.Deny = []domain.SafetyDeny{{Code: "method_not_allowed", Message: "denied"}}
	}
	return domain.SafetyEvaluation{BundleID: "test", Result: result}, nil
}

func activeTenant(t *testing.T, r *TenantRegistry) *domain.TenantContext {
	t.Helper()
	tenant := mustCreateTenant(t, r)
	if err := r.ActivateTenant(context.Background(), tenant.ID); err != nil {
		t.Fatalf("activate tenant: %v", err)
	}
	return tenant
}

func suiteOf(methods ...domain.HTTPMethod) domain.FuzzSuite {
	suite := domain.FuzzSuite{SuiteID: "suite-test"}
	for i, m := range methods {
		suite.TestCases = append(suite.TestCases, domain.FuzzTestCase{
			TestID:     fmt.Sprintf("FZ-%06d", i),
			EndpointID: string(m) + ":/pets",
			Path:       "/pets",
			Method:     m,
			Parameters: map[string]domain.FuzzInput{
				"limit": {OriginalType: domain.TypeInteger, Strategy: domain.StrategyBoundary, Value: int64(-1)},
			},
		})
	}
	return suite
}

func TestExecuteBatch_ReadOnlyBlocksUnsafeMethods(t *testing.T) {
	registry := newTestRegistry()
	tenant := activeTenant(t, registry)
	dispatcher := &dispatcherStub{status: 200}
	executor := &SafeExecutor{Registry: registry, Dispatcher: dispatcher}

	batch, err := executor.ExecuteBatch(context.Background(), ExecuteBatchRequest{
		TenantID: tenant.ID,
		Suite:    suiteOf(domain.MethodGet, domain.MethodPost, domain.MethodDelete),
		Mode:     domain.ModeReadOnly,
		BaseURL:  "http://api.test",
	})
	if err != nil {
		t.Fatalf("execute batch: %v", err)
	}
	if batch.TotalCount() != 3 {
		t.Fatalf("expected 3 results, got %d", batch.TotalCount())
	}
	if len(dispatcher.requests) != 1 {
		t.Fatalf("only the GET should reach the wire, got %d dispatches", len(dispatcher.requests))
	}
	if dispatcher.requests[0].Method != domain.MethodGet {
		t.Fatalf("dispatched method %s", dispatcher.requests[0].Method)
	}

	for _, result := range batch.Results[1:] {
		if !result.Blocked || result.Passed {
			t.Fatalf("unsafe method must be blocked and failed: %+v", result)
		}
		if len(result.SafetyViolations) != 1 || result.SafetyViolations[0].Kind != domain.ViolationUnsafeMethod {
			t.Fatalf("expected UNSAFE_METHOD violation, got %+v", result.SafetyViolations)
		}
		if result.StatusCode != nil {
			t.Fatal("blocked result must carry no status code")
		}
	}
}

func TestExecuteBatch_MockSimulatesUnsafeMethods(t *testing.T) {
	registry := newTestRegistry()
	tenant := activeTenant(t, registry)
	dispatcher := &dispatcherStub{status: 200}
	executor := &SafeExecutor{Registry: registry, Dispatcher: dispatcher}

	batch, err := executor.ExecuteBatch(context.Background(), ExecuteBatchRequest{
		TenantID: tenant.ID,
		Suite:    suiteOf(domain.MethodPut),
		Mode:     domain.ModeMock,
	})
	if err != nil {
		t.Fatalf("execute batch: %v", err)
	}
	if len(dispatcher.requests) != 0 {
		t.Fatal("mock mode must never dispatch")
	}
	result := batch.Results[0]
	if !result.Passed || result.Blocked {
		t.Fatalf("mock unsafe method should pass unblocked: %+v", result)
	}
	if result.StatusCode == nil || *result.StatusCode != 200 {
		t.Fatalf("expected synthetic 200, got %v", result.StatusCode)
	}
	if len(result.SafetyViolations) != 1 || result.SafetyViolations[0].Kind != domain.ViolationUnsafeMethod {
		t.Fatalf("simulated unsafe method still records the violation: %+v", result.SafetyViolations)
	}
}

func TestExecuteBatch_DryRunNeverDispatches(t *testing.T) {
	registry := newTestRegistry()
	tenant := activeTenant(t, registry)
	dispatcher := &dispatcherStub{status: 200}
	executor := &SafeExecutor{Registry: registry, Dispatcher: dispatcher}

	batch, err := executor.ExecuteBatch(context.Background(), ExecuteBatchRequest{
		TenantID: tenant.ID,
		Suite:    suiteOf(domain.MethodGet, domain.MethodDelete),
		Mode:     domain.ModeDryRun,
	})
	if err != nil {
		t.Fatalf("execute batch: %v", err)
	}
	if len(dispatcher.requests) != 0 {
		t.Fatal("dry run must never dispatch")
	}
	for _, result := range batch.Results {
		if !result.Passed || result.Blocked || result.StatusCode != nil {
			t.Fatalf("dry run results pass without a status: %+v", result)
		}
	}
}

func TestExecuteBatch_TenantGuards(t *testing.T) {
	registry := newTestRegistry()
	ctx := context.Background()
	executor := &SafeExecutor{Registry: registry}

	pending := mustCreateTenant(t, registry)
	if _, err := executor.ExecuteBatch(ctx, ExecuteBatchRequest{TenantID: pending.ID, Suite: suiteOf(domain.MethodGet)}); !errors.Is(err, domain.ErrTenantNotActive) {
		t.Fatalf("pending tenant should be refused, got %v", err)
	}

	killed := activeTenant(t, registry)
	if err := registry.KillTenant(ctx, killed.ID); err != nil {
		t.Fatalf("kill: %v", err)
	}
	if _, err := executor.ExecuteBatch(ctx, ExecuteBatchRequest{TenantID: killed.ID, Suite: suiteOf(domain.MethodGet)}); !errors.Is(err, domain.ErrTenantKilled) {
		t.Fatalf("killed tenant should be refused, got %v", err)
	}

	if _, err := executor.ExecuteBatch(ctx, ExecuteBatchRequest{TenantID: "missing", Suite: suiteOf(domain.MethodGet)}); !errors.Is(err, domain.ErrTenantNotFound) {
		t.Fatalf("unknown tenant should be refused, got %v", err)
	}
}

func TestExecuteBatch_QuotaExceeded(t *testing.T) {
	registry := newTestRegistry()
	tenant, err := registry.CreateTenant(context.Background(), "acme", domain.IsolationShared, domain.ResourceQuota{
		domain.QuotaExecutions: 1,
	})
	if err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	if err := registry.ActivateTenant(context.Background(), tenant.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	executor := &SafeExecutor{Registry: registry, Dispatcher: &dispatcherStub{status: 200}}
	_, err = executor.ExecuteBatch(context.Background(), ExecuteBatchRequest{
		TenantID: tenant.ID,
		Suite:    suiteOf(domain.MethodGet, domain.MethodGet),
	})
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected quota refusal, got %v", err)
	}
}

func TestExecuteBatch_KillSwitchMidBatch(t *testing.T) {
	registry := newTestRegistry()
	tenant := activeTenant(t, registry)

	dispatcher := &dispatcherStub{status: 200}
	dispatcher.onCall = func(n int) {
		if n == 1 {
			if err := registry.KillTenant(context.Background(), tenant.ID); err != nil {
				t.Fatalf("kill mid-batch: %v", err)
			}
		}
	}
	executor := &SafeExecutor{Registry: registry, Dispatcher: dispatcher}

	batch, err := executor.ExecuteBatch(context.Background(), ExecuteBatchRequest{
		TenantID: tenant.ID,
		Suite:    suiteOf(domain.MethodGet, domain.MethodGet, domain.MethodGet),
	})
	if err != nil {
		t.Fatalf("execute batch: %v", err)
	}
	if len(dispatcher.requests) != 1 {
		t.Fatalf("dispatch must stop once the kill switch arms, got %d", len(dispatcher.requests))
	}
	if batch.TotalCount() != 3 {
		t.Fatalf("batch keeps every case, got %d", batch.TotalCount())
	}
	for _, result := range batch.Results[1:] {
		if !result.Blocked {
			t.Fatalf("post-kill case must be blocked: %+v", result)
		}
		if len(result.SafetyViolations) != 1 || result.SafetyViolations[0].Kind != domain.ViolationTenantKilled {
			t.Fatalf("expected TENANT_KILLED violation, got %+v", result.SafetyViolations)
		}
	}
}

func TestExecuteBatch_RateLimit(t *testing.T) {
	registry := newTestRegistry()
	tenant := activeTenant(t, registry)
	limiter := &limiterStub{}
	executor := &SafeExecutor{
		Registry:       registry,
		Dispatcher:     &dispatcherStub{status: 200},
		Limiter:        limiter,
		ExecutionLimit: 2,
	}

	batch, err := executor.ExecuteBatch(context.Background(), ExecuteBatchRequest{
		TenantID: tenant.ID,
		Suite:    suiteOf(domain.MethodGet, domain.MethodGet, domain.MethodGet),
	})
	if err != nil {
		t.Fatalf("execute batch: %v", err)
	}
	third := batch.Results[2]
	if !third.Blocked || len(third.SafetyViolations) != 1 || third.SafetyViolations[0].Kind != domain.ViolationRateLimitAbuse {
		t.Fatalf("expected RATE_LIMIT_ABUSE on the third case, got %+v", third)
	}

	// Counters never decay; a fresh batch stays limited until reset.
	batch, err = executor.ExecuteBatch(context.Background(), ExecuteBatchRequest{
		TenantID: tenant.ID,
		Suite:    suiteOf(domain.MethodGet),
	})
	if err != nil {
		t.Fatalf("execute batch: %v", err)
	}
	if !batch.Results[0].Blocked {
		t.Fatal("limit must persist across batches")
	}

	if err := executor.ResetRateLimit(context.Background(), tenant.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	batch, err = executor.ExecuteBatch(context.Background(), ExecuteBatchRequest{
		TenantID: tenant.ID,
		Suite:    suiteOf(domain.MethodGet),
	})
	if err != nil {
		t.Fatalf("execute batch: %v", err)
	}
	if batch.Results[0].Blocked {
		t.Fatal("reset must clear the counter")
	}
}

func TestExecuteBatch_UnsafeMethodsBypassRateLimit(t *testing.T) {
	registry := newTestRegistry()
	tenant := activeTenant(t, registry)
	limiter := &limiterStub{}
	executor := &SafeExecutor{
		Registry:       registry,
		Dispatcher:     &dispatcherStub{status: 200},
		Limiter:        limiter,
		ExecutionLimit: 1,
	}

	batch, err := executor.ExecuteBatch(context.Background(), ExecuteBatchRequest{
		TenantID: tenant.ID,
		Suite:    suiteOf(domain.MethodGet, domain.MethodPost, domain.MethodGet),
		Mode:     domain.ModeReadOnly,
	})
	if err != nil {
		t.Fatalf("execute batch: %v", err)
	}

	post := batch.Results[1]
	if !post.Blocked || len(post.SafetyViolations) != 1 || post.SafetyViolations[0].Kind != domain.ViolationUnsafeMethod {
		t.Fatalf("unsafe method past the limit still reports UNSAFE_METHOD, got %+v", post.SafetyViolations)
	}
	last := batch.Results[2]
	if !last.Blocked || len(last.SafetyViolations) != 1 || last.SafetyViolations[0].Kind != domain.ViolationRateLimitAbuse {
		t.Fatalf("second GET should hit the limit, got %+v", last.SafetyViolations)
	}
	// Only the dispatched GET counts against the budget.
	if got := limiter.counts[rateKey(tenant.ID)]; got != 1 {
		t.Fatalf("unsafe methods must not consume the dispatch budget, counter = %d", got)
	}
}

func TestExecuteBatch_SafetyPolicyDeny(t *testing.T) {
	registry := newTestRegistry()
	tenant := activeTenant(t, registry)
	dispatcher := &dispatcherStub{status: 200}
	executor := &SafeExecutor{
		Registry:   registry,
		Dispatcher: dispatcher,
		Safety:     &safetyStub{allow: false},
	}

	batch, err := executor.ExecuteBatch(context.Background(), ExecuteBatchRequest{
		TenantID: tenant.ID,
		Suite:    suiteOf(domain.MethodGet),
	})
	if err != nil {
		t.Fatalf("execute batch: %v", err)
	}
	if len(dispatcher.requests) != 0 {
		t.Fatal("denied case must not dispatch")
	}
	result := batch.Results[0]
	if !result.Blocked || len(result.SafetyViolations) != 1 || result.SafetyViolations[0].Kind != domain.ViolationPolicyDenied {
		t.Fatalf("expected POLICY_DENIED, got %+v", result)
	}
}

func TestExecuteBatch_DispatchErrorIsOrdinaryFailure(t *testing.T) {
	registry := newTestRegistry()
	tenant := activeTenant(t, registry)
	executor := &SafeExecutor{
		Registry:   registry,
		Dispatcher: &dispatcherStub{err: errors.New("connection refused")},
	}

	batch, err := executor.ExecuteBatch(context.Background(), ExecuteBatchRequest{
		TenantID: tenant.ID,
		Suite:    suiteOf(domain.MethodGet),
	})
	if err != nil {
		t.Fatalf("execute batch: %v", err)
	}
	result := batch.Results[0]
	if result.Blocked || len(result.SafetyViolations) != 0 {
		t.Fatalf("transport errors are not safety violations: %+v", result)
	}
	if result.Passed || result.Error == "" {
		t.Fatalf("expected failed result with error text, got %+v", result)
	}
}

func TestExecuteBatch_RecordsUsage(t *testing.T) {
	registry := newTestRegistry()
	tenant := activeTenant(t, registry)
	executor := &SafeExecutor{Registry: registry, Dispatcher: &dispatcherStub{status: 200}}

	if _, err := executor.ExecuteBatch(context.Background(), ExecuteBatchRequest{
		TenantID: tenant.ID,
		Suite:    suiteOf(domain.MethodGet, domain.MethodGet),
	}); err != nil {
		t.Fatalf("execute batch: %v", err)
	}

	got, err := registry.Get(tenant.ID)
	if err != nil {
		t.Fatalf("get tenant: %v", err)
	}
	if got.Usage[domain.QuotaExecutions] != 2 || got.Usage[domain.QuotaResults] != 2 {
		t.Fatalf("expected usage 2/2, got %v", got.Usage)
	}
}
