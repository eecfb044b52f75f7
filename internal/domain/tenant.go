package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

type TenantStatus string

const (
	TenantPending    TenantStatus = "PENDING"
	TenantActive     TenantStatus = "ACTIVE"
	TenantSuspended  TenantStatus = "SUSPENDED"
	TenantTerminated TenantStatus = "TERMINATED"
	TenantKilled     TenantStatus = "KILLED"
)

type IsolationLevel string

const (
	IsolationShared    IsolationLevel = "shared"
	IsolationDedicated IsolationLevel = "dedicated"
)

type QuotaResource string

const (
	QuotaEndpoints  QuotaResource = "endpoints"
	QuotaTests      QuotaResource = "tests"
	QuotaExecutions QuotaResource = "executions"
	QuotaResults    QuotaResource = "results"
)

type ResourceQuota map[QuotaResource]int64

// DefaultQuota bounds a tenant that was created without an explicit quota.
func DefaultQuota() ResourceQuota {
	return ResourceQuota{
		QuotaEndpoints:  100,
		QuotaTests:      10000,
		QuotaExecutions: 10000,
		QuotaResults:    50000,
	}
}

// TenantContext is created by the registry and mutated only through it.
// The boundary seal is computed once at creation; KillSwitch is one-way.
type TenantContext struct {
	ID             string         `json:"tenant_id"`
	Name           string         `json:"name"`
	Status         TenantStatus   `json:"status"`
	IsolationLevel IsolationLevel `json:"isolation_level"`
	Namespace      string         `json:"namespace"`
	BoundarySeal   string         `json:"boundary_seal"`
	Quota          ResourceQuota  `json:"quota"`
	Usage          ResourceQuota  `json:"usage"`
	KillSwitch     bool           `json:"kill_switch"`
	IsActive       bool           `json:"is_active"`
	CreatedAt      time.Time      `json:"created_at"`
}

// ComputeBoundarySeal derives the tamper-evident seal binding a tenant to
// its namespace at creation time.
func ComputeBoundarySeal(tenantID, namespace string, createdAt time.Time) string {
	h := sha256.New()
	h.Write([]byte(tenantID))
	h.Write([]byte("|"))
	h.Write([]byte(namespace))
	h.Write([]byte("|"))
	h.Write([]byte(createdAt.UTC().Format(time.RFC3339Nano)))
	return hex.EncodeToString(h.Sum(nil))
}

func (t *TenantContext) SealValid() bool {
	return t.BoundarySeal == ComputeBoundarySeal(t.ID, t.Namespace, t.CreatedAt)
}
