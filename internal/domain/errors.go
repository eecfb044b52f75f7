package domain

import "errors"

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidSpec        = errors.New("invalid specification")
	ErrUnsupportedFormat  = errors.New("unsupported specification format")
	ErrNotFound           = errors.New("not found")
	ErrTenantNotFound     = errors.New("tenant not found")
	ErrTenantKilled       = errors.New("tenant killed")
	ErrTenantNotActive    = errors.New("tenant not active")
	ErrInvalidTransition  = errors.New("invalid tenant state transition")
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrIsolationViolation = errors.New("isolation violation")
	ErrSealInvalid        = errors.New("tenant boundary seal invalid")
	ErrForbiddenLanguage  = errors.New("forbidden language in report text")
	ErrReportExpired      = errors.New("report expired")
)
