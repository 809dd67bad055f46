package ratelimit

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "fleetdesk:ratelimit:"

// RedisLimiter is a fixed-window limiter backed by Redis INCR with an
// expiring key, shared across server instances.
type RedisLimiter struct {
	rdb    *goredis.Client
	limit  int
	window time.Duration
}

// NewRedisLimiter allows at most limit attempts per key within window.
func NewRedisLimiter(rdb *goredis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: limit, window: window}
}

// Allow increments the key's window counter and reports whether it is
// within the limit. The window expiry is set on the first attempt.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := redisKeyPrefix + key

	count, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := l.rdb.Expire(ctx, k, l.window).Err(); err != nil {
			return false, err
		}
	}

	return count <= int64(l.limit), nil
}
