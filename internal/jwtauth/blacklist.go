package jwtauth

import (
	"context"
	"sync"
	"time"
)

// Blacklist tracks revoked tokens until their natural expiry. It is an
// injected dependency rather than a process-global so deployments can
// share revocations across instances via Redis.
type Blacklist interface {
	// Revoke marks a token as revoked for the given duration.
	Revoke(ctx context.Context, token string, ttl time.Duration) error

	// IsRevoked reports whether a token is currently revoked.
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// MemoryBlacklist is an in-process Blacklist. Entries are evicted once
// their TTL passes, keeping the set bounded by the number of tokens
// revoked within one token lifetime. Revocations are lost on restart,
// which is acceptable only for single-instance deployments; use the
// Redis implementation otherwise.
type MemoryBlacklist struct {
	mu      sync.RWMutex
	entries map[string]time.Time // token -> eviction deadline
}

// NewMemoryBlacklist creates an empty in-process blacklist.
func NewMemoryBlacklist() *MemoryBlacklist {
	return &MemoryBlacklist{entries: make(map[string]time.Time)}
}

// Revoke marks the token revoked and sweeps expired entries.
func (b *MemoryBlacklist) Revoke(_ context.Context, token string, ttl time.Duration) error {
	now := time.Now()

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[token] = now.Add(ttl)
	for t, deadline := range b.entries {
		if now.After(deadline) {
			delete(b.entries, t)
		}
	}
	return nil
}

// IsRevoked reports whether the token is revoked and not yet expired.
func (b *MemoryBlacklist) IsRevoked(_ context.Context, token string) (bool, error) {
	b.mu.RLock()
	deadline, ok := b.entries[token]
	b.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if time.Now().After(deadline) {
		b.mu.Lock()
		delete(b.entries, token)
		b.mu.Unlock()
		return false, nil
	}
	return true, nil
}
