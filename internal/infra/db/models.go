package db

import "time"

type TenantModel struct {
	ID             string    `gorm:"type:uuid;primaryKey"`
	Name           string    `gorm:"uniqueIndex;not null"`
	Status         string    `gorm:"not null"`
	IsolationLevel string    `gorm:"not null"`
	Namespace      string    `gorm:"uniqueIndex;not null"`
	BoundarySeal   string    `gorm:"not null"`
	QuotaJSON      []byte    `gorm:"type:jsonb;not null"`
	UsageJSON      []byte    `gorm:"type:jsonb;not null"`
	KillSwitch     bool      `gorm:"not null"`
	IsActive       bool      `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

type SpecModel struct {
	ID            string    `gorm:"primaryKey"`
	Title         string    `gorm:"index;not null"`
	Version       string    `gorm:"not null"`
	SpecJSON      []byte    `gorm:"type:jsonb;not null"`
	EndpointCount int       `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
	UpdatedAt     time.Time `gorm:"not null"`
}

type ReportModel struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	TenantID    string    `gorm:"type:uuid;index;not null"`
	Grade       string    `gorm:"not null"`
	FinalScore  float64   `gorm:"not null"`
	ReportJSON  []byte    `gorm:"type:jsonb;not null"`
	GeneratedAt time.Time `gorm:"not null"`
	ExpiresAt   time.Time `gorm:"index;not null"`
}

type AuditEventModel struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	TenantID      string    `gorm:"index:idx_audit_tenant_seq,unique;not null"`
	Seq           int64     `gorm:"index:idx_audit_tenant_seq,unique;not null"`
	EventType     string    `gorm:"index;not null"`
	PayloadJSON   []byte    `gorm:"type:jsonb;not null"`
	PayloadHash   string    `gorm:"not null"`
	ActorType     string    `gorm:"not null"`
	ActorIDHash   *string
	TargetType    string    `gorm:"not null"`
	TargetID      *string   `gorm:"index"`
	Result        string    `gorm:"not null"`
	ErrorCode     *string
	PrevEventHash string    `gorm:"not null"`
	EventHash     string    `gorm:"uniqueIndex;not null"`
	CreatedAt     time.Time `gorm:"not null"`
}
