// Package ratelimiter provides token-bucket request throttling for the
// protocol adapters.
package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// unlimitedRate stands in for "no limit". rate.Inf has edge cases around
// burst handling, so an absurdly high finite rate is used instead.
const unlimitedRate = 1_000_000_000

// RateLimiter wraps golang.org/x/time/rate with the two entry points the
// adapters need: a non-blocking Allow for reject-on-overload and a
// context-aware Wait for throttling.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter sustaining requestsPerSecond with the given
// burst capacity. A zero rate means unlimited.
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		requestsPerSecond = unlimitedRate
		burst = unlimitedRate
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Allow reports whether one more request fits under the limit right now,
// consuming a token when it does. Callers reject the request when this
// returns false.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// SetLimit adjusts the sustained rate at runtime. Burst is scaled to twice
// the new rate when it tracked the old rate's default ratio.
func (r *RateLimiter) SetLimit(requestsPerSecond uint) {
	if requestsPerSecond == 0 {
		requestsPerSecond = unlimitedRate
	}

	oldRate := uint(r.limiter.Limit())
	oldBurst := uint(r.limiter.Burst())
	r.limiter.SetLimit(rate.Limit(requestsPerSecond))

	if oldBurst == oldRate*2 || oldBurst <= oldRate {
		r.limiter.SetBurst(int(requestsPerSecond * 2))
	}
}

// SetBurst adjusts the bucket capacity at runtime.
func (r *RateLimiter) SetBurst(burst uint) {
	r.limiter.SetBurst(int(burst))
}

// Tokens returns the tokens currently in the bucket, for monitoring.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
