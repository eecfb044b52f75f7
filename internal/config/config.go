package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string
	LogLevel    string

	AdminAPIKey string

	ExecutionMode       string
	MaxTestsPerEndpoint int
	FuzzSeed            int64

	RateLimitExecutions int
	RateLimitMaxKeys    int

	DispatchTimeoutSeconds int

	SafetyBundlePath string
	SafetyBundleID   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:               addr,
		PostgresDSN:            os.Getenv("POSTGRES_DSN"),
		LogLevel:               envDefault("LOG_LEVEL", "info"),
		AdminAPIKey:            os.Getenv("ADMIN_API_KEY"),
		ExecutionMode:          envDefault("EXECUTION_MODE", "READONLY"),
		MaxTestsPerEndpoint:    envIntDefault("MAX_TESTS_PER_ENDPOINT", 50),
		FuzzSeed:               envInt64Default("FUZZ_SEED", 0),
		RateLimitExecutions:    envIntDefault("RATE_LIMIT_EXECUTIONS", 1000),
		RateLimitMaxKeys:       envIntDefault("RATE_LIMIT_MAX_KEYS", 10000),
		DispatchTimeoutSeconds: envIntDefault("DISPATCH_TIMEOUT_SECONDS", 10),
		SafetyBundlePath:       os.Getenv("SAFETY_BUNDLE_PATH"),
		SafetyBundleID:         os.Getenv("SAFETY_BUNDLE_ID"),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                envIntDefault("REDIS_DB", 0),
	}
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envInt64Default(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func (c Config) DispatchTimeout() time.Duration {
	if c.DispatchTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.DispatchTimeoutSeconds) * time.Second
}
