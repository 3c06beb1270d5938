package service

import (
	"sync"
	"time"
)

// RateLimiter enforces a sliding-window request cap per client key.
type RateLimiter struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu    sync.Mutex
	seen  map[string][]time.Time
	sweep time.Time
}

// NewRateLimiter allows limit requests per key within window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:  limit,
		window: window,
		now:    time.Now,
		seen:   make(map[string][]time.Time),
	}
}

// Allow records one request for key and reports whether it is within the
// limit.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-r.window)

	kept := r.seen[key][:0]
	for _, t := range r.seen[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= r.limit {
		r.seen[key] = kept
		return false
	}
	r.seen[key] = append(kept, now)

	if now.Sub(r.sweep) > r.window {
		r.sweepLocked(cutoff)
		r.sweep = now
	}
	return true
}

// Remaining returns how many requests key has left in the current window.
func (r *RateLimiter) Remaining(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.window)
	n := 0
	for _, t := range r.seen[key] {
		if t.After(cutoff) {
			n++
		}
	}
	if n >= r.limit {
		return 0
	}
	return r.limit - n
}

// sweepLocked drops keys whose every request fell out of the window.
func (r *RateLimiter) sweepLocked(cutoff time.Time) {
	for key, times := range r.seen {
		alive := false
		for _, t := range times {
			if t.After(cutoff) {
				alive = true
				break
			}
		}
		if !alive {
			delete(r.seen, key)
		}
	}
}
