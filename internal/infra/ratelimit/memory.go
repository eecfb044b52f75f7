package ratelimit

import (
	"context"
	"errors"
	"sync"

	"chainverify/internal/domain"
)

// memoryLimiter is a monotonic counter limiter. Counters never decay;
// a key frees up only through an explicit Reset.
type memoryLimiter struct {
	mu      sync.Mutex
	counts  map[string]int
	maxKeys int
}

type MemoryLimiterConfig struct {
	MaxKeys int
}

func NewMemoryLimiter(cfg MemoryLimiterConfig) domain.RateLimiter {
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10000
	}
	return &memoryLimiter{
		counts:  make(map[string]int),
		maxKeys: cfg.MaxKeys,
	}
}

func (m *memoryLimiter) Allow(_ context.Context, key string, limit int) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	count, ok := m.counts[key]
	if !ok && len(m.counts) >= m.maxKeys {
		return domain.RateLimitDecision{}, errors.New("rate limiter capacity exceeded")
	}

	if count >= limit {
		return domain.RateLimitDecision{Allowed: false, Limit: limit, Remaining: 0}, nil
	}
	m.counts[key] = count + 1
	return domain.RateLimitDecision{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - count - 1,
	}, nil
}

func (m *memoryLimiter) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.counts, key)
	return nil
}
