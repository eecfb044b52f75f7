package ratelimit

import (
	"context"
	"errors"

	"chainverify/internal/domain"

	"github.com/redis/go-redis/v9"
)

// redisLimiter shares counters across instances. Keys carry no TTL;
// quota is released only by an explicit Reset, matching the in-memory
// limiter.
type redisLimiter struct {
	client *redis.Client
}

var redisAllowScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current >= tonumber(ARGV[1]) then
  return {0, current}
end
current = redis.call("INCR", KEYS[1])
return {1, current}
`)

func NewRedisLimiter(addr, password string, db int) (domain.RateLimiter, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisLimiter{client: client}, nil
}

func (r *redisLimiter) Allow(ctx context.Context, key string, limit int) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	result, err := redisAllowScript.Run(ctx, r.client, []string{key}, limit).Result()
	if err != nil {
		return domain.RateLimitDecision{}, err
	}
	values, ok := result.([]any)
	if !ok || len(values) < 2 {
		return domain.RateLimitDecision{}, errors.New("unexpected redis rate limit response")
	}
	allowedFlag, ok := values[0].(int64)
	if !ok {
		return domain.RateLimitDecision{}, errors.New("invalid redis rate limit response")
	}
	current, _ := values[1].(int64)

	remaining := limit - int(current)
	if remaining < 0 {
		remaining = 0
	}
	return domain.RateLimitDecision{
		Allowed:   allowedFlag == 1,
		Limit:     limit,
		Remaining: remaining,
	}, nil
}

func (r *redisLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
