// Package ratelimit gates login attempts per client address with a fixed
// window counter.
package ratelimit

import (
	"context"
	"time"
)

const (
	DefaultMax           = 100
	DefaultWindow        = time.Hour
	DefaultSweepInterval = 30 * time.Minute
)

// Result is the outcome of a single Check.
type Result struct {
	Allowed bool
	// ResetAt is when the current window ends and the budget refills.
	ResetAt time.Time
}

// Limiter counts attempts per key. Check both counts and decides, so two
// concurrent callers can never both take the last slot.
type Limiter interface {
	Check(ctx context.Context, key string) (Result, error)
	Remaining(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

// Options configure a fixed window. Zero values fall back to the defaults
// except Max, where zero is a valid (if odd) setting.
type Options struct {
	Max    int
	Window time.Duration
}

func (o Options) window() time.Duration {
	if o.Window <= 0 {
		return DefaultWindow
	}
	return o.Window
}

func remaining(max, count int) int {
	if count >= max {
		return 0
	}
	return max - count
}
