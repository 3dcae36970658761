package api

import (
	"context"
	"log/slog"
	"time"
)

// Default retry settings for Retry.
const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second
)

// RetryPolicy controls how Retry re-invokes a failing call.
type RetryPolicy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int
	// Delay is the wait before the second attempt.
	Delay time.Duration
	// Multiplier scales Delay after each failed attempt. Values <= 1 keep the
	// delay fixed.
	Multiplier float64
	// MaxDelay caps the scaled delay when positive.
	MaxDelay time.Duration
	// ShouldRetry limits which errors are retried. Nil retries every error
	// that is not cancelled.
	ShouldRetry func(error) bool
}

// DefaultRetryPolicy is three attempts one second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxRetries, Delay: DefaultRetryDelay}
}

// IsRetryable reports whether err belongs to a category worth retrying.
// It is suitable as a RetryPolicy.ShouldRetry.
func IsRetryable(err error) bool {
	return CategoryOf(err).IsRetryable()
}

// ExponentialRetryPolicy doubles the delay after every failure.
func ExponentialRetryPolicy(maxAttempts int, initial, maxDelay time.Duration) RetryPolicy {
	return RetryPolicy{MaxAttempts: maxAttempts, Delay: initial, Multiplier: 2, MaxDelay: maxDelay}
}

func (p RetryPolicy) delayFor(attempt int) time.Duration {
	d := p.Delay
	if p.Multiplier <= 1 {
		return d
	}
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * p.Multiplier)
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	return d
}

// Retry calls fn up to maxRetries times with a fixed delay between attempts
// and returns the last error unchanged when every attempt fails.
func Retry[T any](ctx context.Context, maxRetries int, delay time.Duration, fn func(context.Context) (T, error)) (T, error) {
	return RetryWithPolicy(ctx, RetryPolicy{MaxAttempts: maxRetries, Delay: delay}, fn)
}

// RetryWithPolicy is Retry with a configurable backoff. Cancelled errors and
// cancellation of ctx stop further attempts.
func RetryWithPolicy[T any](ctx context.Context, p RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var (
		result T
		err    error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
		if IsCancelled(err) || attempt == attempts || (p.ShouldRetry != nil && !p.ShouldRetry(err)) {
			return result, err
		}

		delay := p.delayFor(attempt)
		slog.Debug("call failed, retrying", "attempt", attempt, "delay", delay, "error", err)
		if sleepErr := sleepWithContext(ctx, delay); sleepErr != nil {
			return result, err
		}
	}
	return result, err
}

// sleepWithContext waits for the duration or returns early on context cancellation.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
