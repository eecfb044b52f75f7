package domain

import "context"

type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
}

// RateLimiter caps per-tenant execution counters. Counters carry no time
// decay: Reset is the only clearing mechanism.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int) (RateLimitDecision, error)
	Reset(ctx context.Context, key string) error
}
