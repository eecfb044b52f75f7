package ratelimit

import (
	"context"
	"fmt"
	"testing"
)

func TestMemoryLimiter_CountsNeverDecay(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		decision, err := limiter.Allow(ctx, "exec:t1", 3)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !decision.Allowed {
			t.Fatalf("call %d should be allowed", i)
		}
		if decision.Remaining != 3-i-1 {
			t.Fatalf("call %d: expected remaining %d, got %d", i, 3-i-1, decision.Remaining)
		}
	}

	decision, err := limiter.Allow(ctx, "exec:t1", 3)
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if decision.Allowed || decision.Remaining != 0 {
		t.Fatalf("fourth call must be denied, got %+v", decision)
	}
}

func TestMemoryLimiter_ResetClearsKey(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	ctx := context.Background()

	if _, err := limiter.Allow(ctx, "exec:t1", 1); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if decision, _ := limiter.Allow(ctx, "exec:t1", 1); decision.Allowed {
		t.Fatal("second call must be denied")
	}
	if err := limiter.Reset(ctx, "exec:t1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if decision, _ := limiter.Allow(ctx, "exec:t1", 1); !decision.Allowed {
		t.Fatal("reset must clear the counter")
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	ctx := context.Background()

	if _, err := limiter.Allow(ctx, "exec:a", 1); err != nil {
		t.Fatalf("allow: %v", err)
	}
	if decision, _ := limiter.Allow(ctx, "exec:b", 1); !decision.Allowed {
		t.Fatal("tenant b must not be affected by tenant a's counter")
	}
}

func TestMemoryLimiter_NonPositiveLimitIsUnlimited(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{})
	for i := 0; i < 100; i++ {
		decision, err := limiter.Allow(context.Background(), "exec:t1", 0)
		if err != nil || !decision.Allowed {
			t.Fatalf("zero limit means unlimited, got %+v %v", decision, err)
		}
	}
}

func TestMemoryLimiter_CapacityBound(t *testing.T) {
	limiter := NewMemoryLimiter(MemoryLimiterConfig{MaxKeys: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := limiter.Allow(ctx, fmt.Sprintf("exec:%d", i), 5); err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
	}
	if _, err := limiter.Allow(ctx, "exec:overflow", 5); err == nil {
		t.Fatal("a new key past capacity must error")
	}
	// Existing keys keep working at capacity.
	if decision, err := limiter.Allow(ctx, "exec:0", 5); err != nil || !decision.Allowed {
		t.Fatalf("existing key should still be served: %+v %v", decision, err)
	}
}
