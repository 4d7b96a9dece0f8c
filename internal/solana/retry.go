package solana

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Default retry configuration: three full passes over the endpoint list,
// exponential backoff of 1s, 2s, 4s ... capped at 10s.
const (
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// BackoffFunc returns the delay to wait after the given failed attempt (1-based).
type BackoffFunc func(attempt int) time.Duration

// ExponentialBackoff returns base * mult^(attempt-1), clamped to [base, max].
func ExponentialBackoff(base, max time.Duration, mult float64) BackoffFunc {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		d := float64(base)
		for i := 1; i < attempt; i++ {
			d *= mult
			if d >= float64(max) {
				return max
			}
		}
		if d < float64(base) {
			return base
		}
		return time.Duration(d)
	}
}

// RetryPolicy re-runs an operation up to MaxAttempts times, sleeping
// Backoff(attempt) between attempts. Context errors are never retried.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     BackoffFunc

	// OnRetry, when set, is called before each backoff sleep.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryPolicy returns the policy used by NewClient.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Backoff:     ExponentialBackoff(DefaultRetryDelay, DefaultMaxDelay, DefaultBackoffMult),
	}
}

// Do runs op until it succeeds, the attempts are used up, or ctx is done.
func (p RetryPolicy) Do(ctx context.Context, sleeper Sleeper, op func(ctx context.Context, attempt int) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if sleeper == nil {
		sleeper = RealSleeper{}
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if errors.Is(err, context.Canceled) {
			return err
		}
		if attempt == maxAttempts {
			break
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, err)
		}
		if err := sleeper.Sleep(ctx, delay); err != nil {
			return err
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", maxAttempts, lastErr)
}

// Sleeper pauses the caller. Tests substitute a recording implementation.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper sleeps on the wall clock and wakes early on cancellation.
type RealSleeper struct{}

// Sleep waits for d or until ctx is done.
func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
