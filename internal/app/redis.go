package app

import (
	"context"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"carpool/internal/config"
)

// NewRedisClient connects to redis, which backs the ride/profile cache,
// the per-driver publish lock, and idempotency replay. The New Relic
// hook reports each command as a datastore segment when enabled.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig, nrApp *newrelic.Application) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if nrApp != nil {
		client.AddHook(&redisSegmentHook{})
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// redisSegmentHook implements redis.Hook, recording commands against
// the transaction already carried on the request context.
type redisSegmentHook struct{}

func (h *redisSegmentHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h *redisSegmentHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		defer startRedisSegment(ctx, cmd.Name()).End()
		return next(ctx, cmd)
	}
}

func (h *redisSegmentHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		defer startRedisSegment(ctx, "pipeline").End()
		return next(ctx, cmds)
	}
}

func startRedisSegment(ctx context.Context, operation string) *newrelic.DatastoreSegment {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return &newrelic.DatastoreSegment{}
	}
	return &newrelic.DatastoreSegment{
		StartTime: txn.StartSegmentNow(),
		Product:   newrelic.DatastoreRedis,
		Operation: operation,
	}
}
