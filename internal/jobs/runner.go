// Package jobs bounds review-job concurrency and enforces
// per-(repo, pullNumber, headSha) exclusion: at most one Orchestrator
// run is ever in flight for a given key, and the process never runs
// more than a fixed number of jobs at once.
package jobs

import (
	"context"
	"sync"
)

// StartResult reports what happened when a caller tried to claim a key.
type StartResult int

const (
	// Started means the caller now exclusively owns key and holds a
	// worker slot; it must call Finish exactly once when done.
	Started StartResult = iota
	// KeyBusy means another job already owns key. The caller does not
	// hold a slot and must not call Finish.
	KeyBusy
	// QueueFull means key was free but the worker pool is saturated.
	// The caller does not hold a slot and must not call Finish.
	QueueFull
)

// DefaultMaxConcurrentJobs is used when a Runner is constructed with a
// non-positive limit.
const DefaultMaxConcurrentJobs = 64

// Runner is a bounded worker pool with a per-key exclusion lock. It
// never blocks a caller waiting for a busy key to free up: a second
// event for the same head SHA is always coalesced (dropped) rather
// than queued, leaving the "should this really be dropped" decision to
// the Dedup Oracle rather than serializing jobs behind each other.
type Runner struct {
	sem     chan struct{}
	running sync.Map // key (string) -> struct{}{}
}

// NewRunner constructs a Runner bounded to maxConcurrent simultaneous
// jobs, defaulting to DefaultMaxConcurrentJobs when given a
// non-positive value.
func NewRunner(maxConcurrent int) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentJobs
	}
	return &Runner{sem: make(chan struct{}, maxConcurrent)}
}

// TryStart attempts to claim key and a worker slot without blocking.
func (r *Runner) TryStart(key string) StartResult {
	if _, loaded := r.running.LoadOrStore(key, struct{}{}); loaded {
		return KeyBusy
	}
	select {
	case r.sem <- struct{}{}:
		return Started
	default:
		r.running.Delete(key)
		return QueueFull
	}
}

// Finish releases the key and the worker slot claimed by a matching
// Started result. It must be called exactly once per Started claim.
func (r *Runner) Finish(key string) {
	r.running.Delete(key)
	<-r.sem
}

// Go claims key and, if successful, runs fn on a new goroutine with a
// background context, releasing the claim when fn returns. It reports
// the claim outcome so the caller can react to KeyBusy/QueueFull
// (dedup skip vs. rate-limit notice) without starting a goroutine.
func (r *Runner) Go(key string, fn func(ctx context.Context)) StartResult {
	result := r.TryStart(key)
	if result != Started {
		return result
	}
	go func() {
		defer r.Finish(key)
		fn(context.Background())
	}()
	return Started
}

// InFlight reports the number of keys currently claimed, for the
// health endpoint's diagnostics.
func (r *Runner) InFlight() int {
	count := 0
	r.running.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}
