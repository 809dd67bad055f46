package jwtauth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces revocation entries in a shared Redis.
const redisKeyPrefix = "fleetdesk:jwt:revoked:"

// RedisBlacklist is a Blacklist backed by Redis. Entries expire via
// Redis TTLs, so revocations survive restarts and are shared across
// server instances.
type RedisBlacklist struct {
	rdb *goredis.Client
}

// NewRedisBlacklist creates a Redis-backed blacklist on an existing client.
func NewRedisBlacklist(rdb *goredis.Client) *RedisBlacklist {
	return &RedisBlacklist{rdb: rdb}
}

// Revoke stores the token's hash with the remaining token lifetime as TTL.
func (b *RedisBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	return b.rdb.Set(ctx, redisKey(token), 1, ttl).Err()
}

// IsRevoked checks whether the token's hash is present.
func (b *RedisBlacklist) IsRevoked(ctx context.Context, token string) (bool, error) {
	err := b.rdb.Get(ctx, redisKey(token)).Err()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// redisKey hashes the raw token so full JWTs never land in Redis.
func redisKey(token string) string {
	h := sha256.Sum256([]byte(token))
	return redisKeyPrefix + hex.EncodeToString(h[:])
}
