package transport

import (
	"context"
	"math"
	"time"
)

// BackoffFunc returns the delay before the given zero-based attempt.
type BackoffFunc func(attempt int) time.Duration

// ExponentialBackoff yields base * factor^attempt, capped at max when max > 0.
func ExponentialBackoff(base time.Duration, factor float64, max time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		d := float64(base) * math.Pow(factor, float64(attempt))
		if max > 0 && d > float64(max) {
			return max
		}
		return time.Duration(d)
	}
}

// RetryPolicy is a bounded attempt counter paired with a backoff function.
// It holds no timers; callers decide how to wait.
type RetryPolicy struct {
	maxAttempts int
	backoff     BackoffFunc
	attempts    int
}

func NewRetryPolicy(maxAttempts int, backoff BackoffFunc) *RetryPolicy {
	if backoff == nil {
		backoff = ExponentialBackoff(time.Second, 2, 30*time.Second)
	}
	return &RetryPolicy{maxAttempts: maxAttempts, backoff: backoff}
}

// Next consumes one attempt and returns its delay. ok is false once the
// budget is exhausted; the counter does not advance past the cap.
func (p *RetryPolicy) Next() (delay time.Duration, ok bool) {
	if p.attempts >= p.maxAttempts {
		return 0, false
	}
	delay = p.backoff(p.attempts)
	p.attempts++
	return delay, true
}

// Reset is called after a successful connection.
func (p *RetryPolicy) Reset() {
	p.attempts = 0
}

func (p *RetryPolicy) Attempts() int {
	return p.attempts
}

func (p *RetryPolicy) MaxAttempts() int {
	return p.maxAttempts
}

func (p *RetryPolicy) Exhausted() bool {
	return p.attempts >= p.maxAttempts
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
