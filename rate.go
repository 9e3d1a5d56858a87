package main

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter controls the rate of outgoing DNS queries across all workers
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter creates a new rate limiter. A qps of zero or less disables limiting.
func NewRateLimiter(qps int) *RateLimiter {
	if qps <= 0 {
		return &RateLimiter{
			limiter: rate.NewLimiter(rate.Inf, 0),
		}
	}

	// Allow some burst capacity
	burst := qps / 10
	if burst < 1 {
		burst = 1
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(qps), burst),
	}
}

// Wait blocks until the rate limiter allows another query
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// GetLimit returns the current rate limit
func (r *RateLimiter) GetLimit() float64 {
	return float64(r.limiter.Limit())
}
