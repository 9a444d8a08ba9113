package ratelimit

import (
	"context"
	"sync"
	"time"

	"booking-engine/internal/pkg/clock"
)

type window struct {
	start time.Time
	count int
}

// MemoryLimiter is the single-instance fixed-window limiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	clock   clock.Clock
	limit   int
	window  time.Duration
	windows map[string]*window
}

func NewMemoryLimiter(c clock.Clock, limit int, w time.Duration) *MemoryLimiter {
	limit, w = normalize(limit, w)
	return &MemoryLimiter{clock: c, limit: limit, window: w, windows: map[string]*window{}}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &window{start: now}
		l.windows[key] = w
		l.sweep(now)
	}
	w.count++
	return w.count <= l.limit, nil
}

// sweep drops expired windows so idle clients do not accumulate.
func (l *MemoryLimiter) sweep(now time.Time) {
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, key)
		}
	}
}
