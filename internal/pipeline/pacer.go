package pipeline

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer controls the spacing between processed queue entries. The
// classification step is treated as rate-limited upstream, so the worker
// waits between items instead of hammering the quota.
type Pacer interface {
	Wait(ctx context.Context) error
}

// FixedPacer waits a fixed interval between items.
type FixedPacer struct {
	Interval time.Duration
}

func (p FixedPacer) Wait(ctx context.Context) error {
	timer := time.NewTimer(p.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// LimitPacer paces items with a token bucket, for deployments that prefer
// smoothing over a hard fixed delay.
type LimitPacer struct {
	Limiter *rate.Limiter
}

// NewLimitPacer allows n items per interval with a burst of one.
func NewLimitPacer(n int, interval time.Duration) LimitPacer {
	return LimitPacer{Limiter: rate.NewLimiter(rate.Every(interval/time.Duration(n)), 1)}
}

func (p LimitPacer) Wait(ctx context.Context) error {
	return p.Limiter.Wait(ctx)
}

// NopPacer never waits. Used in tests.
type NopPacer struct{}

func (NopPacer) Wait(ctx context.Context) error { return nil }
