package domain

import "time"

const (
	// AuditSystemTenantID is the reserved tenant identifier for global audit events.
	AuditSystemTenantID = "__system__"
	AuditChainVersion   = "audit_chain_v0"
)

type AuditActorType string

const (
	AuditActorSystem      AuditActorType = "system"
	AuditActorAdminAPIKey AuditActorType = "admin_api_key"
	AuditActorService     AuditActorType = "service"
)

type AuditEventType string

const (
	AuditEventTenantCreated   AuditEventType = "tenant_created"
	AuditEventTenantSuspended AuditEventType = "tenant_suspended"
	AuditEventTenantActivated AuditEventType = "tenant_activated"
	AuditEventTenantKilled    AuditEventType = "tenant_killed"
	AuditEventTenantEnded     AuditEventType = "tenant_terminated"
	AuditEventSpecIngested    AuditEventType = "spec_ingested"
	AuditEventBatchExecuted   AuditEventType = "batch_executed"
	AuditEventReportGenerated AuditEventType = "report_generated"
)

type AuditTargetType string

const (
	AuditTargetTenant AuditTargetType = "tenant"
	AuditTargetSpec   AuditTargetType = "spec"
	AuditTargetBatch  AuditTargetType = "batch"
	AuditTargetReport AuditTargetType = "report"
)

type AuditResult string

const (
	AuditResultSuccess AuditResult = "success"
	AuditResultFailure AuditResult = "failure"
)

type AuditEvent struct {
	ID            string
	TenantID      string
	Seq           int64
	EventType     AuditEventType
	Payload       any
	PayloadHash   string
	ActorType     AuditActorType
	ActorIDHash   string
	TargetType    AuditTargetType
	TargetID      string
	Result        AuditResult
	ErrorCode     string
	PrevEventHash string
	EventHash     string
	CreatedAt     time.Time
}
