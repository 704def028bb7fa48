// Package retry provides a bounded retry policy with exponential backoff.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Policy describes how many times and how long to wait between attempts.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	JitterFrac  float64

	// Retryable decides whether an error is worth another attempt. Nil retries everything.
	Retryable func(err error) bool
	// Sleep waits between attempts; tests replace it to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Hinted is implemented by errors that carry a server-provided retry delay.
type Hinted interface {
	RetryAfter() time.Duration
}

// Backoff returns the delay before the given retry (1-based), without jitter.
func (p Policy) Backoff(retry int) time.Duration {
	base := p.BaseDelay
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	if retry < 1 {
		retry = 1
	}
	d := time.Duration(float64(base) * math.Pow(2, float64(retry-1)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

func (p Policy) jitter(d time.Duration) time.Duration {
	if p.JitterFrac <= 0 || d <= 0 {
		return d
	}
	delta := float64(d) * p.JitterFrac
	return time.Duration(float64(d) - delta + rand.Float64()*2*delta)
}

func (p Policy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// Do calls fn until it succeeds, returns a non-retryable error, or attempts run out.
// The last error is returned unchanged.
func (p Policy) Do(ctx context.Context, fn func(attempt int) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}
	var err error
	for attempt := 1; attempt <= p.attempts(); attempt++ {
		err = fn(attempt)
		if err == nil {
			return nil
		}
		if attempt == p.attempts() || (p.Retryable != nil && !p.Retryable(err)) {
			return err
		}
		delay := p.jitter(p.Backoff(attempt))
		var hinted Hinted
		if errors.As(err, &hinted) && hinted.RetryAfter() > 0 {
			delay = hinted.RetryAfter()
			if p.MaxDelay > 0 && delay > p.MaxDelay {
				delay = p.MaxDelay
			}
		}
		if serr := sleep(ctx, delay); serr != nil {
			return err
		}
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
