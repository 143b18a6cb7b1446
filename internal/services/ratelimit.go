package services

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type RateLimiter interface {
	CheckRateLimit(ctx context.Context, subject, action string, limit int, window time.Duration) (bool, error)
}

// MemoryRateLimiter counts requests in fixed windows, like the redis
// INCR/EXPIRE limiter.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	clock   Clock
	windows map[string]*rateWindow
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func NewMemoryRateLimiter(clock Clock) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		clock:   clock,
		windows: make(map[string]*rateWindow),
	}
}

func (l *MemoryRateLimiter) CheckRateLimit(ctx context.Context, subject, action string, limit int, window time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	key := fmt.Sprintf(KeyRateLimit, subject, action)
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &rateWindow{resetAt: now.Add(window)}
		l.windows[key] = w
	}
	w.count++
	return w.count <= limit, nil
}
