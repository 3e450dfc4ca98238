package executor

import (
	"context"
	"sync"
	"time"
)

// windowLimiter is a sliding-window rate limiter over the most recent
// submission timestamps. When the window is full, Wait blocks the caller for
// the remaining deficit since the oldest entry before recording the new
// timestamp. It is shared across the whole executor, not per instrument.
type windowLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time
}

func newWindowLimiter(limit int, window time.Duration) *windowLimiter {
	return &windowLimiter{limit: limit, window: window}
}

// Wait blocks until a submission slot is free, then claims it. It returns
// early only when ctx is cancelled.
func (l *windowLimiter) Wait(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := time.Now()

		// Drop timestamps that have aged out of the window.
		kept := l.stamps[:0]
		for _, ts := range l.stamps {
			if now.Sub(ts) < l.window {
				kept = append(kept, ts)
			}
		}
		l.stamps = kept

		if len(l.stamps) < l.limit {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}

		wait := l.window - now.Sub(l.stamps[0])
		l.mu.Unlock()

		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
