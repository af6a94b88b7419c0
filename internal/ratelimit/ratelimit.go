// Package ratelimit implements a fixed one-minute window limiter on Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const window = time.Minute

// Counter is the storage a Limiter needs.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// RedisCounter implements Counter with go-redis.
type RedisCounter struct {
	client redis.UniversalClient
}

func NewRedisCounter(addr string) *RedisCounter {
	return &RedisCounter{client: redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:       []string{addr},
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,
	})}
}

func (r *RedisCounter) Incr(ctx context.Context, key string) (int64, error) {
	return r.client.Incr(ctx, key).Result()
}

func (r *RedisCounter) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return r.client.Expire(ctx, key, ttl).Err()
}

func (r *RedisCounter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCounter) Close() error {
	return r.client.Close()
}

// Result describes one Allow decision.
type Result struct {
	Allowed    bool
	Remaining  int
	RetryAfter int // seconds until the window resets
	Limit      int
}

type Limiter struct {
	counter Counter
	limit   int
	now     func() time.Time
}

func New(counter Counter, perMinute int) *Limiter {
	return &Limiter{counter: counter, limit: perMinute, now: time.Now}
}

// Allow counts one request for clientID in the current minute.
func (l *Limiter) Allow(ctx context.Context, clientID string) (Result, error) {
	now := l.now()
	minute := now.Unix() / int64(window/time.Second)
	key := fmt.Sprintf("rl:%s:%d", clientID, minute)

	count, err := l.counter.Incr(ctx, key)
	if err != nil {
		return Result{}, fmt.Errorf("incr %s: %w", key, err)
	}
	// Keys expire one window after their own closes.
	if count == 1 {
		if err := l.counter.Expire(ctx, key, 2*window); err != nil {
			return Result{}, fmt.Errorf("expire %s: %w", key, err)
		}
	}

	remaining := l.limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	next := time.Unix((minute+1)*int64(window/time.Second), 0)
	retryAfter := int(next.Sub(now).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	return Result{
		Allowed:    count <= int64(l.limit),
		Remaining:  remaining,
		RetryAfter: retryAfter,
		Limit:      l.limit,
	}, nil
}
