package core

import (
	"context"
	"math"
	"time"
)

// Policy bounds the generation retry loop.
type Policy struct {
	MaxAttempts int
	// Base is raised to the attempt number to get the wait in seconds.
	Base float64
}

// DefaultPolicy is three attempts with a base of two (2s, then 4s).
var DefaultPolicy = Policy{MaxAttempts: 3, Base: 2}

// Delay returns the wait after the given failed attempt (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	base := p.Base
	if base <= 0 {
		base = DefaultPolicy.Base
	}
	secs := math.Pow(base, float64(attempt))
	return time.Duration(secs * float64(time.Second))
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Sleeper blocks between attempts.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// ClockSleeper waits on the wall clock.
type ClockSleeper struct{}

func (ClockSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retrier runs a function until it succeeds or the policy is exhausted.
type Retrier struct {
	Policy    Policy
	Sleeper   Sleeper
	OnBackoff func(attempt int, wait time.Duration)
}

// Do calls fn with attempt numbers starting at 1. It returns the number of
// attempts made and the last error, or nil on success. No sleep follows the
// final attempt.
func (r Retrier) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) (int, error) {
	sleeper := r.Sleeper
	if sleeper == nil {
		sleeper = ClockSleeper{}
	}
	max := r.Policy.attempts()

	var lastErr error
	for attempt := 1; attempt <= max; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return attempt - 1, lastErr
		}
		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return attempt, nil
		}
		if attempt == max {
			return attempt, lastErr
		}
		wait := r.Policy.Delay(attempt)
		if r.OnBackoff != nil {
			r.OnBackoff(attempt, wait)
		}
		if err := sleeper.Sleep(ctx, wait); err != nil {
			return attempt, lastErr
		}
	}
	return max, lastErr
}
