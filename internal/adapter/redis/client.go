package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/pscheid92/moodpulse/internal/platform/breaker"
	goredis "github.com/redis/go-redis/v9"
)

// OpRecorder receives per-command telemetry from MetricsHook.
type OpRecorder interface {
	ObserveRedisOp(operation, status string, duration time.Duration)
	RedisConnectionError()
}

// ClientOptions configures the hooks installed on a new client. Both fields are optional.
type ClientOptions struct {
	Recorder OpRecorder
	Observer breaker.Observer
}

// NewClient parses a redis:// URL, installs the metrics and circuit breaker hooks
// and verifies the connection.
func NewClient(ctx context.Context, redisURL string, opts ClientOptions) (*goredis.Client, error) {
	parsed, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := goredis.NewClient(parsed)
	if opts.Recorder != nil {
		rdb.AddHook(NewMetricsHook(opts.Recorder))
	}
	rdb.AddHook(NewCircuitBreakerHook(opts.Observer))

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}
