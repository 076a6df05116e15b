package ratelimit

import (
	"context"
	"math/rand"
	"time"
)

// Limiter paces outbound requests to a fixed rate with optional jitter.
// A nil *Limiter, or one built with rps <= 0, never blocks.
// It is safe for concurrent use by multiple goroutines.
type Limiter struct {
	ticker   *time.Ticker
	jitter   float64 // 0.0 to 1.0
	interval time.Duration
}

// NewLimiter creates a limiter for rps requests per second. jitter is clamped
// to [0, 1] and adds up to jitter*interval of extra delay after each tick.
func NewLimiter(rps float64, jitter float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}

	interval := time.Duration(float64(time.Second) / rps)
	return &Limiter{
		ticker:   time.NewTicker(interval),
		jitter:   clamp(jitter),
		interval: interval,
	}
}

// Interval returns the spacing between requests, zero when unlimited.
func (l *Limiter) Interval() time.Duration {
	if l == nil {
		return 0
	}
	return l.interval
}

// Wait blocks until the next request may be sent or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.ticker == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ticker.C:
	}

	extra := l.extraDelay()
	if extra <= 0 {
		return nil
	}

	timer := time.NewTimer(extra)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// extraDelay draws from [-jitter, +jitter] * interval. A negative draw means
// "go on the tick", so the effective delay is never shorter than interval.
func (l *Limiter) extraDelay() time.Duration {
	if l.jitter == 0 {
		return 0
	}
	factor := rand.Float64()*2 - 1.0
	return time.Duration(float64(l.interval) * l.jitter * factor)
}

// Stop releases any resources associated with the limiter.
func (l *Limiter) Stop() {
	if l != nil && l.ticker != nil {
		l.ticker.Stop()
	}
}

func clamp(j float64) float64 {
	switch {
	case j < 0:
		return 0
	case j > 1:
		return 1
	}
	return j
}
