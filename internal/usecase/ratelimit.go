package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/recognition-mock/internal/logging"
)

// Counter abstracts the Redis operations used by the rate limiter to make testing easier.
type Counter interface {
	// Incr increments key and returns the new value. The key expires after
	// window once it has been created.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RedisCounter is a concrete implementation backed by go-redis.
type RedisCounter struct {
	client *redis.Client
}

// NewRedisCounter constructs a new Redis-backed counter adapter.
func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

// Incr increments key and sets its expiry on the first hit of a window.
func (c *RedisCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

// RateLimiter applies a fixed window limit per client key.
type RateLimiter struct {
	counter Counter
	limit   int64
	window  time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewRateLimiter allows limit requests per client in each window.
func NewRateLimiter(counter Counter, limit int, window time.Duration, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		counter: counter,
		limit:   int64(limit),
		window:  window,
		now:     time.Now,
		logger:  logger.Named("rate_limiter"),
	}
}

// Allow reports whether client may proceed. Counter errors let the request through.
func (l *RateLimiter) Allow(ctx context.Context, client string) bool {
	bucket := l.now().UnixNano() / int64(l.window)
	key := fmt.Sprintf("ratelimit:%s:%d", client, bucket)

	n, err := l.counter.Incr(ctx, key, l.window)
	if err != nil {
		logging.WithOperation(l.logger, "ratelimit.incr", logging.RequestID(ctx)).Warn("rate limit counter unavailable", zap.Error(err))
		return true
	}
	return n <= l.limit
}
