package usecase

import (
	"context"
	"fmt"
	"time"

	"chainverify/internal/domain"

	"github.com/google/uuid"
)

// SafeExecutor dispatches fuzz suites under the hard read-only boundary.
// Only GET, HEAD, and OPTIONS are ever sent over the wire; everything
// else is blocked, simulated, or skipped depending on the mode. Safety
// breaches are recorded as data on the result, never raised, so a batch
// always completes.
type SafeExecutor struct {
	Registry   *TenantRegistry
	Dispatcher Dispatcher
	Limiter    domain.RateLimiter
	Safety     SafetyEngine
	Audit      *AuditEmitter
	Clock      Clock

	// ExecutionLimit caps dispatched tests per tenant. Counters never
	// decay; ResetRateLimit is the only way to clear them.
	ExecutionLimit int
}

type ExecuteBatchRequest struct {
	TenantID string
	Suite    domain.FuzzSuite
	Mode     domain.ExecutionMode
	BaseURL  string
}

func (e *SafeExecutor) ExecuteBatch(ctx context.Context, req ExecuteBatchRequest) (*domain.ExecutionBatch, error) {
	if e.Registry == nil {
		return nil, fmt.Errorf("tenant registry required")
	}
	tenant, err := e.Registry.Get(req.TenantID)
	if err != nil {
		return nil, err
	}
	if tenant.KillSwitch || tenant.Status == domain.TenantKilled {
		return nil, domain.ErrTenantKilled
	}
	if tenant.Status != domain.TenantActive {
		return nil, domain.ErrTenantNotActive
	}
	if !e.Registry.CheckQuota(req.TenantID, domain.QuotaExecutions, int64(len(req.Suite.TestCases))) {
		return nil, domain.ErrQuotaExceeded
	}

	mode := req.Mode
	if mode == "" {
		mode = domain.ModeReadOnly
	}

	batch := &domain.ExecutionBatch{
		BatchID:   uuid.NewString(),
		TenantID:  req.TenantID,
		SuiteID:   req.Suite.SuiteID,
		Mode:      mode,
		StartedAt: e.now().UTC(),
	}

	killed := false
	for _, testCase := range req.Suite.TestCases {
		// A kill switch armed mid-batch stops all further dispatch;
		// the remaining cases stay in the batch as blocked results.
		if !killed && e.Registry.KillSwitchArmed(req.TenantID) {
			killed = true
		}
		if killed {
			batch.Results = append(batch.Results, blockedResult(testCase, mode, domain.ViolationTenantKilled, "kill switch armed during batch"))
			continue
		}
		batch.Results = append(batch.Results, e.executeOne(ctx, req.TenantID, testCase, mode, req.BaseURL))
	}
	batch.EndedAt = e.now().UTC()

	_ = e.Registry.RecordUsage(req.TenantID, domain.QuotaExecutions, int64(len(batch.Results)))
	_ = e.Registry.RecordUsage(req.TenantID, domain.QuotaResults, int64(len(batch.Results)))
	if e.Audit != nil {
		_ = e.Audit.EmitBatchExecuted(ctx, req.TenantID, batch.BatchID, batch.TotalCount(), batch.TotalViolations())
	}
	return batch, nil
}

func (e *SafeExecutor) executeOne(ctx context.Context, tenantID string, testCase domain.FuzzTestCase, mode domain.ExecutionMode, baseURL string) domain.ExecutionResult {
	// Dry runs plan but never dispatch, regardless of method.
	if mode == domain.ModeDryRun {
		return domain.ExecutionResult{
			TestID:     testCase.TestID,
			EndpointID: testCase.EndpointID,
			Method:     testCase.Method,
			Passed:     true,
			Mode:       mode,
		}
	}

	// Unsafe methods resolve before the rate limiter: they never reach
	// the wire, so they never consume the dispatch budget.
	if !testCase.Method.IsSafe() {
		if mode == domain.ModeMock {
			// Simulated success, but the violation stays on record.
			status := 200
			return domain.ExecutionResult{
				TestID:     testCase.TestID,
				EndpointID: testCase.EndpointID,
				Method:     testCase.Method,
				StatusCode: &status,
				Latency:    time.Millisecond,
				Passed:     true,
				Mode:       mode,
				SafetyViolations: []domain.SafetyViolation{{
					Kind:    domain.ViolationUnsafeMethod,
					Message: fmt.Sprintf("method %s simulated, never dispatched", testCase.Method),
				}},
			}
		}
		return blockedResult(testCase, mode, domain.ViolationUnsafeMethod, fmt.Sprintf("method %s blocked in read-only mode", testCase.Method))
	}

	if decision, err := e.allowRate(ctx, tenantID); err != nil || !decision.Allowed {
		msg := "per-tenant execution limit reached"
		if err != nil {
			msg = fmt.Sprintf("rate limiter unavailable: %v", err)
		}
		return blockedResult(testCase, mode, domain.ViolationRateLimitAbuse, msg)
	}

	if e.Safety != nil {
		eval, err := e.Safety.Evaluate(ctx, domain.SafetyInput{
			TenantID:   tenantID,
			EndpointID: testCase.EndpointID,
			Method:     testCase.Method,
			Mode:       mode,
		})
		if err != nil {
			return blockedResult(testCase, mode, domain.ViolationPolicyDenied, fmt.Sprintf("safety policy evaluation failed: %v", err))
		}
		if !eval.Result.Allow {
			msg := "denied by safety policy"
			if len(eval.Result.Deny) > 0 {
				msg = eval.Result.Deny[0].Code
			}
			return blockedResult(testCase, mode, domain.ViolationPolicyDenied, msg)
		}
	}

	if mode == domain.ModeMock {
		status := 200
		return domain.ExecutionResult{
			TestID:     testCase.TestID,
			EndpointID: testCase.EndpointID,
			Method:     testCase.Method,
			StatusCode: &status,
			Latency:    time.Millisecond,
			Passed:     true,
			Mode:       mode,
		}
	}

	return e.dispatch(ctx, testCase, baseURL)
}

func (e *SafeExecutor) dispatch(ctx context.Context, testCase domain.FuzzTestCase, baseURL string) domain.ExecutionResult {
	result := domain.ExecutionResult{
		TestID:     testCase.TestID,
		EndpointID: testCase.EndpointID,
		Method:     testCase.Method,
		Mode:       domain.ModeReadOnly,
	}
	if e.Dispatcher == nil {
		result.Error = "no dispatcher configured"
		return result
	}

	query := map[string]string{}
	for name, input := range testCase.Parameters {
		query[name] = fmt.Sprintf("%v", input.Value)
	}

	res, err := e.Dispatcher.Dispatch(ctx, DispatchRequest{
		Method:  testCase.Method,
		BaseURL: baseURL,
		Path:    testCase.Path,
		Query:   query,
	})
	if err != nil {
		// Timeouts and transport errors are ordinary failures, not
		// safety violations.
		result.Error = err.Error()
		return result
	}

	status := res.StatusCode
	result.StatusCode = &status
	result.Latency = res.Latency
	result.ResponseSize = res.ResponseSize
	result.ContentType = res.ContentType
	result.Passed = status < 500
	return result
}

// ResetRateLimit clears a tenant's execution counter. There is no
// automatic decay.
func (e *SafeExecutor) ResetRateLimit(ctx context.Context, tenantID string) error {
	if e.Limiter == nil {
		return nil
	}
	return e.Limiter.Reset(ctx, rateKey(tenantID))
}

func (e *SafeExecutor) allowRate(ctx context.Context, tenantID string) (domain.RateLimitDecision, error) {
	if e.Limiter == nil || e.ExecutionLimit <= 0 {
		return domain.RateLimitDecision{Allowed: true}, nil
	}
	return e.Limiter.Allow(ctx, rateKey(tenantID), e.ExecutionLimit)
}

func (e *SafeExecutor) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

func rateKey(tenantID string) string {
	return "exec:" + tenantID
}

func blockedResult(testCase domain.FuzzTestCase, mode domain.ExecutionMode, kind domain.SafetyViolationKind, message string) domain.ExecutionResult {
	return domain.ExecutionResult{
		TestID:     testCase.TestID,
		EndpointID: testCase.EndpointID,
		Method:     testCase.Method,
		Passed:     false,
		Blocked:    true,
		Mode:       mode,
		SafetyViolations: []domain.SafetyViolation{{
			Kind:    kind,
			Message: message,
		}},
	}
}
