package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/viralforge/autopilot/internal/domain"
)

// RedisRateLimiter is a fixed-window per-key budget. The increment-and-check
// is atomic (INCRBY), so concurrent acquirers cannot overshoot the budget;
// the window key expires on its own.
type RedisRateLimiter struct {
	client *redis.Client
	budget int64
	window time.Duration
}

func NewRedisRateLimiter(client *redis.Client, budget int64, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, budget: budget, window: window}
}

func (l *RedisRateLimiter) Acquire(ctx context.Context, key string, cost int64) error {
	redisKey := "ratelimit:" + key
	used, err := l.client.IncrBy(ctx, redisKey, cost).Result()
	if err != nil {
		return err
	}
	if used == cost {
		// First acquirer of the window owns the expiry stamp.
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return err
		}
	}
	if used > l.budget {
		return domain.ErrRateLimited
	}
	return nil
}
