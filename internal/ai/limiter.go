package ai

import (
	"context"
	"sync"
	"time"
)

// Limiter throttles outbound AI calls to a fixed number of requests per
// window. It is shared by every worker in a run; callers block in Wait
// until a slot opens rather than failing.
type Limiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	windowStart time.Time
	count       int
	now         func() time.Time
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewLimiter builds a limiter allowing maxRequests per window. A
// maxRequests of zero or less disables throttling.
func NewLimiter(maxRequests int, window time.Duration) *Limiter {
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		sleep:       sleepCtx,
	}
}

// Wait blocks until the caller may issue a request or ctx is done. Slots
// are consumed at return time, so concurrent callers can never push the
// window count past the ceiling.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.maxRequests <= 0 {
		return ctx.Err()
	}
	for {
		l.mu.Lock()
		now := l.now()
		if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.window {
			l.windowStart = now
			l.count = 0
		}
		if l.count < l.maxRequests {
			l.count++
			l.mu.Unlock()
			return nil
		}
		wait := l.window - now.Sub(l.windowStart)
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}
