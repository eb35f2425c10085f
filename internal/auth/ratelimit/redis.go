package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultKeyPrefix = "login:"

// RedisLimiter shares counters between instances. INCR is atomic and the
// expiry is set on the first hit of each window, so Redis drops the key when
// the window ends.
type RedisLimiter struct {
	Options
	Client redis.UniversalClient
	Prefix string
}

func NewRedisLimiter(client redis.UniversalClient, opts Options) *RedisLimiter {
	return &RedisLimiter{Options: opts, Client: client, Prefix: DefaultKeyPrefix}
}

func (l *RedisLimiter) key(k string) string {
	return l.Prefix + k
}

func (l *RedisLimiter) Check(ctx context.Context, key string) (Result, error) {
	k := l.key(key)

	count, err := l.Client.Incr(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: incr: %w", err)
	}

	window := l.window()
	if count == 1 {
		if err := l.Client.PExpire(ctx, k, window).Err(); err != nil {
			return Result{}, fmt.Errorf("ratelimit: expire: %w", err)
		}
		return Result{Allowed: true, ResetAt: time.Now().Add(window)}, nil
	}

	ttl, err := l.Client.PTTL(ctx, k).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit: ttl: %w", err)
	}
	if ttl < 0 {
		// A key without expiry would never reset; repair it.
		if err := l.Client.PExpire(ctx, k, window).Err(); err != nil {
			return Result{}, fmt.Errorf("ratelimit: expire: %w", err)
		}
		ttl = window
	}

	return Result{
		Allowed: count <= int64(l.Max),
		ResetAt: time.Now().Add(ttl),
	}, nil
}

func (l *RedisLimiter) Remaining(ctx context.Context, key string) (int, error) {
	count, err := l.Client.Get(ctx, l.key(key)).Int()
	if err == redis.Nil {
		return l.Max, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ratelimit: get: %w", err)
	}
	return remaining(l.Max, count), nil
}

func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.Client.Del(ctx, l.key(key)).Err(); err != nil {
		return fmt.Errorf("ratelimit: del: %w", err)
	}
	return nil
}
