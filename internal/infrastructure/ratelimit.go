package infrastructure

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Clock abstracts time so the rate limiter can be driven by a fake in tests.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sleep waits on a timer, returning ctx.Err() if ctx ends first.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RateLimiter enforces a minimum interval between outbound calls across the
// whole process. Concurrent callers are queued in reservation order; the
// reservation itself is atomic and the wait happens outside any lock.
type RateLimiter struct {
	limiter  *rate.Limiter
	clock    Clock
	interval time.Duration
}

// NewRateLimiter returns a limiter allowing one call per interval. A zero
// interval disables throttling. clock defaults to SystemClock.
func NewRateLimiter(interval time.Duration, clock Clock) *RateLimiter {
	if clock == nil {
		clock = SystemClock{}
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &RateLimiter{
		limiter:  rate.NewLimiter(limit, 1),
		clock:    clock,
		interval: interval,
	}
}

// Interval returns the configured minimum spacing.
func (r *RateLimiter) Interval() time.Duration {
	return r.interval
}

// Wait blocks until the caller may issue its call and returns how long it
// waited. The slot is consumed even if the call later fails. If ctx ends
// while waiting the slot is handed back.
func (r *RateLimiter) Wait(ctx context.Context) (time.Duration, error) {
	now := r.clock.Now()
	reservation := r.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return 0, fmt.Errorf("rate limiter cannot grant a slot")
	}

	delay := reservation.DelayFrom(now)
	if delay <= 0 {
		return 0, nil
	}

	if err := r.clock.Sleep(ctx, delay); err != nil {
		reservation.CancelAt(r.clock.Now())
		return 0, err
	}
	return delay, nil
}
