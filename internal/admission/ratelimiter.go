package admission

import (
	"sync"
	"time"
)

// maxTrackedKeys bounds the rate-limit table; when exceeded, expired
// entries are evicted before any live one is touched.
const maxTrackedKeys = 10000

const window = time.Hour

// RateLimiter is a per-key fixed-window counter: a window resets
// entirely once it expires (a "windowResetAt" timestamp), rather than
// sliding continuously.
type RateLimiter struct {
	mu      sync.Mutex
	max     int
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	count         int
	windowResetAt time.Time
}

// NewRateLimiter constructs a limiter admitting up to max events per
// key per hour.
func NewRateLimiter(max int) *RateLimiter {
	return &RateLimiter{
		max:     max,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Allow records one admission attempt for key and reports whether it
// is within budget. Expired windows reset transparently.
func (r *RateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	e, ok := r.entries[key]
	if !ok || now.After(e.windowResetAt) {
		e = entry{count: 0, windowResetAt: now.Add(window)}
	}

	if e.count >= r.max {
		r.entries[key] = e
		return false
	}

	e.count++
	r.entries[key] = e

	if len(r.entries) > maxTrackedKeys {
		r.evictExpiredLocked(now)
	}

	return true
}

// evictExpiredLocked drops windows that have already reset. Called
// with mu held.
func (r *RateLimiter) evictExpiredLocked(now time.Time) {
	for key, e := range r.entries {
		if now.After(e.windowResetAt) {
			delete(r.entries, key)
		}
	}
}
