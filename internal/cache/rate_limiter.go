package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter bounds submissions per caller over a fixed window
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

type rateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int, window time.Duration) RateLimiter {
	return &rateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Allow increments the caller's window counter and reports whether the call
// is within quota. When over quota it returns the remaining window as the
// retry-after hint.
func (l *rateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	redisKey := "ratelimit:" + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, 0, err
	}

	// First hit in this window starts the clock
	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, 0, err
		}
	}

	if count > int64(l.limit) {
		ttl, err := l.client.TTL(ctx, redisKey).Result()
		if err != nil || ttl < 0 {
			ttl = l.window
		}
		return false, ttl, nil
	}

	return true, 0, nil
}
