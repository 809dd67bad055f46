// Package ratelimit throttles login attempts per client IP.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter decides whether another attempt is allowed for a key.
// Implementations fail open on backend errors so a limiter outage
// never locks everyone out.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// MemoryLimiter is an in-process sliding-window limiter. State is
// per-instance; use the Redis implementation when running more than
// one server behind a load balancer.
type MemoryLimiter struct {
	limit  int
	window time.Duration

	mu       sync.Mutex
	attempts map[string][]time.Time
}

// NewMemoryLimiter allows at most limit attempts per key within window.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:    limit,
		window:   window,
		attempts: make(map[string][]time.Time),
	}
}

// Allow records an attempt for the key and reports whether it was
// within the limit. Attempts outside the window are discarded.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.attempts[key][:0]
	for _, at := range l.attempts[key] {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}

	if len(kept) >= l.limit {
		l.attempts[key] = kept
		return false, nil
	}

	l.attempts[key] = append(kept, now)
	return true, nil
}
