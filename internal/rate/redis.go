package rate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLedger is the shared ledger for deployments with several API replicas.
// Each address is a sorted set of failure ids scored by unix milliseconds.
// Keys expire one window after the last failure, so no sweep is needed.
type RedisLedger struct {
	redis  redis.UniversalClient
	config Config
}

// NewRedisLedger creates a [RedisLedger] on the given client.
func NewRedisLedger(redisClient redis.UniversalClient, cfg Config) (*RedisLedger, error) {
	if redisClient == nil {
		return nil, errors.New("redis client is nil")
	}
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	return &RedisLedger{redis: redisClient, config: cfg}, nil
}

// CheckAllowed prunes stale failures for addr and reports whether another
// attempt may proceed.
func (r *RedisLedger) CheckAllowed(ctx context.Context, addr string) (Decision, error) {
	now := r.config.Now()
	key := failureKey(addr)

	var (
		count  *redis.IntCmd
		oldest *redis.ZSliceCmd
	)
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", r.staleBound(now))
		count = pipe.ZCard(ctx, key)
		oldest = pipe.ZRangeWithScores(ctx, key, 0, 0)
		return nil
	})
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	n := int(count.Val())
	if n == 0 {
		return Decision{Allowed: true, Remaining: r.config.MaxFailures}, nil
	}
	first := now
	if z := oldest.Val(); len(z) > 0 {
		first = time.UnixMilli(int64(z[0].Score))
	}
	return decide(r.config, now, n, first), nil
}

// RecordFailure prunes stale failures for addr and adds one at the current time.
func (r *RedisLedger) RecordFailure(ctx context.Context, addr string) error {
	now := r.config.Now()
	key := failureKey(addr)

	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", r.staleBound(now))
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMilli()), Member: uuid.NewString()})
		pipe.PExpire(ctx, key, r.config.Window)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Clear forgets every failure for addr.
func (r *RedisLedger) Clear(ctx context.Context, addr string) error {
	if err := r.redis.Del(ctx, failureKey(addr)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Sweep is a no-op; Redis expires idle keys itself.
func (r *RedisLedger) Sweep() {}

// Close does not close the client, which the caller owns.
func (r *RedisLedger) Close() error { return nil }

// staleBound is the inclusive score at or below which failures have aged out.
func (r *RedisLedger) staleBound(now time.Time) string {
	return strconv.FormatInt(now.Add(-r.config.Window).UnixMilli(), 10)
}

func failureKey(addr string) string {
	return "sa:lf:" + addr
}
