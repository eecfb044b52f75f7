package usecase

import (
	"context"
	"time"

	"chainverify/internal/domain"
)

type Clock func() time.Time

type TenantRepository interface {
	Create(ctx context.Context, t domain.TenantContext) error
	Update(ctx context.Context, t domain.TenantContext) error
	GetByID(ctx context.Context, tenantID string) (*domain.TenantContext, error)
}

type SpecRepository interface {
	Upsert(ctx context.Context, specID string, spec domain.CanonicalSpec) error
	GetByID(ctx context.Context, specID string) (*domain.CanonicalSpec, error)
}

type ReportRepository interface {
	Create(ctx context.Context, report domain.VerificationReport) error
	GetByID(ctx context.Context, reportID string) (*domain.VerificationReport, error)
}

type AuditEventRepository interface {
	Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error)
	ListByTenant(ctx context.Context, tenantID string) ([]domain.AuditEvent, error)
}

// SafetyEngine is the optional policy gate consulted before dispatch.
// It can only tighten the hard-coded method invariant, never relax it.
type SafetyEngine interface {
	Evaluate(ctx context.Context, input domain.SafetyInput) (domain.SafetyEvaluation, error)
}

// DispatchRequest describes the single read-only call a Dispatcher may
// issue. The executor never hands a Dispatcher an unsafe method.
type DispatchRequest struct {
	Method  domain.HTTPMethod
	BaseURL string
	Path    string
	Query   map[string]string
	Headers map[string]string
}

// DispatchResult carries structural response metadata only.
type DispatchResult struct {
	StatusCode   int
	Latency      time.Duration
	ResponseSize int64
	ContentType  string
}

// Dispatcher is the live-transport collaborator contract. Implementations
// must honor request timeouts and must not follow redirects into unsafe
// methods.
type Dispatcher interface {
	Dispatch(ctx context.Context, req DispatchRequest) (DispatchResult, error)
}

// Scorable is the narrow batch view the scorer and reporter consume, so
// neither needs the executor's concrete types.
type Scorable interface {
	TotalCount() int
	PassedCount() int
	FailedCount() int
	BlockedCount() int
	TotalViolations() int
	Iterate() []domain.ExecutionResult
}
