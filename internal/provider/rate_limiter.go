package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a sliding window limiter shared by the HTTP providers.
type RateLimiter struct {
	mu          sync.Mutex
	requests    []time.Time
	maxRequests int
	window      time.Duration
	now         func() time.Time
}

// NewRateLimiter allows maxRequests per window. A non-positive maxRequests
// disables limiting.
func NewRateLimiter(maxRequests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		maxRequests: maxRequests,
		window:      window,
		requests:    make([]time.Time, 0, max(maxRequests, 0)),
		now:         time.Now,
	}
}

// Wait blocks until a request fits in the window or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil || r.maxRequests <= 0 {
		return ctx.Err()
	}

	for {
		r.mu.Lock()
		now := r.now()
		r.prune(now)

		if len(r.requests) < r.maxRequests {
			r.requests = append(r.requests, now)
			r.mu.Unlock()
			return nil
		}

		// Small buffer so the oldest request has actually left the window.
		waitTime := r.window - now.Sub(r.requests[0]) + 10*time.Millisecond
		r.mu.Unlock()

		timer := time.NewTimer(waitTime)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// prune drops requests outside the window. Caller holds mu.
func (r *RateLimiter) prune(now time.Time) {
	cutoff := now.Add(-r.window)
	valid := r.requests[:0]
	for _, req := range r.requests {
		if req.After(cutoff) {
			valid = append(valid, req)
		}
	}
	r.requests = valid
}
