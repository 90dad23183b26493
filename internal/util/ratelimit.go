package util

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps consecutive operations at least a fixed interval
// apart. The interval is measured from the end of one operation, as marked
// by Done, to the start of the next. The first Wait returns immediately.
type RateLimiter struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	interval time.Duration
}

// NewRateLimiter creates a RateLimiter allowing one operation per interval.
// A non-positive interval disables limiting.
func NewRateLimiter(interval time.Duration) *RateLimiter {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RateLimiter{
		limiter:  rate.NewLimiter(limit, 1),
		interval: interval,
	}
}

// Interval returns the configured spacing between operations.
func (rl *RateLimiter) Interval() time.Duration { return rl.interval }

// Wait blocks until the next operation may start or the context is
// cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	rl.mu.Lock()
	lim := rl.limiter
	rl.mu.Unlock()
	return lim.Wait(ctx)
}

// Done marks the end of an operation. The next Wait blocks for a full
// interval from now, however long the operation took.
func (rl *RateLimiter) Done() {
	if rl.interval <= 0 {
		return
	}
	lim := rate.NewLimiter(rate.Every(rl.interval), 1)
	lim.Allow()
	rl.mu.Lock()
	rl.limiter = lim
	rl.mu.Unlock()
}
