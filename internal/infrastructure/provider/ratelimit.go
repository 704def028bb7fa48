package provider

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter throttles outbound provider requests.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// TokenBucket is a RateLimiter shared by every client it is injected into.
type TokenBucket struct {
	bucket *rate.Limiter
}

// NewTokenBucket allows rps requests per second with the given burst.
// A non-positive rps disables throttling.
func NewTokenBucket(rps float64, burst int) *TokenBucket {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{bucket: rate.NewLimiter(limit, burst)}
}

func (t *TokenBucket) Wait(ctx context.Context) error {
	return t.bucket.Wait(ctx)
}

type noLimit struct{}

func (noLimit) Wait(context.Context) error { return nil }
