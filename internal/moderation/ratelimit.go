package moderation

import (
	"context"
	"sync"
	"time"
)

// Limiter is a fixed-window per-key rate limiter used to gate login and
// account-creation attempts per IP, independent of the message spam window.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rate    int
	window  time.Duration

	now func() time.Time
}

type limiterEntry struct {
	windowStart time.Time
	count       int
}

func NewLimiter(ctx context.Context, rate int, window time.Duration) *Limiter {
	l := &Limiter{
		entries: make(map[string]*limiterEntry),
		rate:    rate,
		window:  window,
		now:     time.Now,
	}
	go l.cleanup(ctx)
	return l
}

func (l *Limiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, e := range l.entries {
				if now.Sub(e.windowStart) > l.window {
					delete(l.entries, key)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Allow records an attempt for key and reports whether it is within the
// configured rate.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.Sub(e.windowStart) > l.window {
		l.entries[key] = &limiterEntry{windowStart: now, count: 1}
		return true
	}
	e.count++
	return e.count <= l.rate
}
