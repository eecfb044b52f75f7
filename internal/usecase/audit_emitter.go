package usecase

import (
	"context"
	"time"

	"chainverify/internal/domain"
)

// AuditEmitter records lifecycle events into the tenant-scoped audit
// chain. A nil repository makes every emit a no-op so callers never
// branch on whether auditing is configured.
type AuditEmitter struct {
	Repo  AuditEventRepository
	Clock Clock
}

func NewAuditEmitter(repo AuditEventRepository) *AuditEmitter {
	return &AuditEmitter{Repo: repo, Clock: time.Now}
}

func (e *AuditEmitter) EmitTenantLifecycle(ctx context.Context, eventType domain.AuditEventType, tenantID string, result domain.AuditResult, errorCode string) error {
	return e.emit(ctx, domain.AuditEvent{
		TenantID:   tenantID,
		EventType:  eventType,
		Payload:    map[string]any{"tenant_id": tenantID},
		ActorType:  domain.AuditActorService,
		TargetType: domain.AuditTargetTenant,
		TargetID:   tenantID,
		Result:     result,
		ErrorCode:  errorCode,
	})
}

func (e *AuditEmitter) EmitSpecIngested(ctx context.Context, specKey, title string, endpointCount int) error {
	return e.emit(ctx, domain.AuditEvent{
		TenantID:  domain.AuditSystemTenantID,
		EventType: domain.AuditEventSpecIngested,
		Payload: map[string]any{
			"spec_key":       specKey,
			"title":          title,
			"endpoint_count": endpointCount,
		},
		ActorType:  domain.AuditActorService,
		TargetType: domain.AuditTargetSpec,
		TargetID:   specKey,
		Result:     domain.AuditResultSuccess,
	})
}

func (e *AuditEmitter) EmitBatchExecuted(ctx context.Context, tenantID, batchID string, totalTests, totalViolations int) error {
	return e.emit(ctx, domain.AuditEvent{
		TenantID:  tenantID,
		EventType: domain.AuditEventBatchExecuted,
		Payload: map[string]any{
			"batch_id":         batchID,
			"total_tests":      totalTests,
			"total_violations": totalViolations,
		},
		ActorType:  domain.AuditActorService,
		TargetType: domain.AuditTargetBatch,
		TargetID:   batchID,
		Result:     domain.AuditResultSuccess,
	})
}

func (e *AuditEmitter) EmitReportGenerated(ctx context.Context, tenantID, reportID, grade string) error {
	return e.emit(ctx, domain.AuditEvent{
		TenantID:  tenantID,
		EventType: domain.AuditEventReportGenerated,
		Payload: map[string]any{
			"report_id": reportID,
			"grade":     grade,
		},
		ActorType:  domain.AuditActorService,
		TargetType: domain.AuditTargetReport,
		TargetID:   reportID,
		Result:     domain.AuditResultSuccess,
	})
}

func (e *AuditEmitter) emit(ctx context.Context, event domain.AuditEvent) error {
	if e == nil || e.Repo == nil {
		return nil
	}
	if event.CreatedAt.IsZero() && e.Clock != nil {
		event.CreatedAt = e.Clock().UTC()
	}
	_, err := e.Repo.Append(ctx, event)
	return err
}
