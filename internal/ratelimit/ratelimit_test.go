package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_BlocksOverLimit(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "10.0.0.1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}

	ok, err := l.Allow(ctx, "10.0.0.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("fourth attempt should be blocked")
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	ctx := context.Background()

	if ok, _ := l.Allow(ctx, "10.0.0.1"); !ok {
		t.Fatal("first key should be allowed")
	}
	if ok, _ := l.Allow(ctx, "10.0.0.2"); !ok {
		t.Error("second key must not be affected by the first")
	}
	if ok, _ := l.Allow(ctx, "10.0.0.1"); ok {
		t.Error("first key should now be blocked")
	}
}

func TestMemoryLimiter_WindowSlides(t *testing.T) {
	l := NewMemoryLimiter(1, 10*time.Millisecond)
	ctx := context.Background()

	if ok, _ := l.Allow(ctx, "10.0.0.1"); !ok {
		t.Fatal("first attempt should be allowed")
	}
	if ok, _ := l.Allow(ctx, "10.0.0.1"); ok {
		t.Fatal("second attempt inside the window should be blocked")
	}

	time.Sleep(15 * time.Millisecond)

	if ok, _ := l.Allow(ctx, "10.0.0.1"); !ok {
		t.Error("attempt after the window should be allowed again")
	}
}
