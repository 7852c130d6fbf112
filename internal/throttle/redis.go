package throttle

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"sibank/internal/domain"
)

const keyPrefix = "sibank:signin-failures:"

// Redis is a Limiter shared through a Redis server.
type Redis struct {
	client *redis.Client
	max    int
	period time.Duration
}

// NewRedis allows max failures per key within period, counted in Redis.
func NewRedis(client *redis.Client, max int, period time.Duration) *Redis {
	return &Redis{client: client, max: max, period: period}
}

// Allowed reports whether key is still below the failure limit.
func (r *Redis) Allowed(ctx context.Context, key string) (bool, error) {
	n, err := retry(ctx, func() (int, error) {
		v, err := r.client.Get(ctx, keyPrefix+key).Result()
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		return strconv.Atoi(v)
	})
	if err != nil {
		return false, err
	}
	return n < r.max, nil
}

// Failed increments the counter and starts the window on the first failure.
// The increment is not idempotent, so it runs once and is never retried.
func (r *Redis) Failed(ctx context.Context, key string) error {
	pipe := r.client.TxPipeline()
	pipe.Incr(ctx, keyPrefix+key)
	pipe.ExpireNX(ctx, keyPrefix+key, r.period)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("throttle: redis count failure: %w", err)
	}
	return nil
}

// Reset clears the counter for key.
func (r *Redis) Reset(ctx context.Context, key string) error {
	_, err := retry(ctx, func() (int64, error) {
		return r.client.Del(ctx, keyPrefix+key).Result()
	})
	return err
}

// retry runs op up to three times with exponential backoff, giving up early
// when ctx is done.
func retry[T any](ctx context.Context, op func() (T, error)) (T, error) {
	const (
		maxAttempts    = 3
		initialBackoff = 100 * time.Millisecond
	)
	var (
		zero    T
		lastErr error
	)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(initialBackoff << (attempt - 1)):
			}
		}
		v, err := op()
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	return zero, fmt.Errorf("throttle: redis failed after %d attempts: %w", maxAttempts, lastErr)
}

var _ domain.Limiter = (*Redis)(nil)
