package memory

import (
	"context"
	"sync"
	"time"
)

// RateLimiter counts requests per key in fixed windows. The map holds at most
// maxKeys entries; expired windows are removed by Sweep, which Run calls periodically.
type RateLimiter struct {
	limit   int
	window  time.Duration
	maxKeys int
	clock   func() time.Time

	mu      sync.Mutex
	windows map[string]*rateWindow
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(limit int, window time.Duration, maxKeys int) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		window:  window,
		maxKeys: maxKeys,
		clock:   time.Now,
		windows: make(map[string]*rateWindow),
	}
}

// Allow records a request for key and reports whether it is within the limit.
func (l *RateLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok {
		if l.maxKeys > 0 && len(l.windows) >= l.maxKeys {
			l.sweepLocked(now)
			if len(l.windows) >= l.maxKeys {
				return false, nil
			}
		}
		l.windows[key] = &rateWindow{count: 1, resetAt: now.Add(l.window)}
		return true, nil
	}
	if now.After(w.resetAt) {
		w.count = 1
		w.resetAt = now.Add(l.window)
		return true, nil
	}
	if w.count >= l.limit {
		return false, nil
	}
	w.count++
	return true, nil
}

// Sweep drops windows that have expired.
func (l *RateLimiter) Sweep() {
	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(now)
}

func (l *RateLimiter) sweepLocked(now time.Time) {
	for key, w := range l.windows {
		if now.After(w.resetAt) {
			delete(l.windows, key)
		}
	}
}

// Run sweeps every interval until ctx is done.
func (l *RateLimiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// Len is the number of tracked keys.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
