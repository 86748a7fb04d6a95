package cache

import (
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a fixed-window per-key counter. It throttles abusive
// repeat-view traffic only; correctness of view counts never depends
// on it (the interaction store is authoritative).
type RateLimiter struct {
	mu      sync.Mutex
	windows map[string]window
	limit   int
	period  time.Duration
}

func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]window),
		limit:   limit,
		period:  period,
	}
}

// Allow records a hit for key and reports whether it is within the
// limit. When denied, retryAfter is the time until the window resets.
func (r *RateLimiter) Allow(key string, now time.Time) (allowed bool, retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[key]
	if !ok || now.After(w.resetAt) {
		r.windows[key] = window{count: 1, resetAt: now.Add(r.period)}
		return true, 0
	}
	if w.count >= r.limit {
		return false, w.resetAt.Sub(now)
	}
	w.count++
	r.windows[key] = w
	return true, 0
}

// Sweep removes windows that have already reset.
func (r *RateLimiter) Sweep(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, w := range r.windows {
		if now.After(w.resetAt) {
			delete(r.windows, k)
		}
	}
}
