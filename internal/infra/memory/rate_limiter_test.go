package memory

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterFixedWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(2, time.Minute, 10)
	limiter.clock = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if ok, _ := limiter.Allow(ctx, "1.2.3.4"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if ok, _ := limiter.Allow(ctx, "1.2.3.4"); ok {
		t.Fatalf("third request in the window should be rejected")
	}
	if ok, _ := limiter.Allow(ctx, "5.6.7.8"); !ok {
		t.Fatalf("other clients have their own window")
	}

	now = now.Add(time.Minute + time.Second)
	if ok, _ := limiter.Allow(ctx, "1.2.3.4"); !ok {
		t.Fatalf("window should reset after it elapses")
	}
}

func TestRateLimiterSweepAndCapacity(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(5, time.Minute, 2)
	limiter.clock = func() time.Time { return now }
	ctx := context.Background()

	_, _ = limiter.Allow(ctx, "a")
	_, _ = limiter.Allow(ctx, "b")
	if ok, _ := limiter.Allow(ctx, "c"); ok {
		t.Fatalf("new keys are refused while the map is full")
	}

	now = now.Add(2 * time.Minute)
	if ok, _ := limiter.Allow(ctx, "c"); !ok {
		t.Fatalf("expired windows should be swept to make room")
	}
	limiter.Sweep()
	if limiter.Len() != 1 {
		t.Fatalf("expected only the fresh window to remain, got %d", limiter.Len())
	}
}
