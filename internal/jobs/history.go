package jobs

import (
	"sync"

	"github.com/codecritics/codecritics/internal/domain"
)

// DefaultHistorySize bounds a History constructed with a non-positive
// size.
const DefaultHistorySize = 200

// History is a bounded, ring-buffered record of completed jobs'
// terminal summaries, read only by GET /api/info diagnostics and
// tests. It holds no finding content and is not the "persistence of
// historical reviews" spec.md's Non-goals exclude: it survives only
// for the process's lifetime, and the oldest entry is silently
// overwritten once the ring wraps.
type History struct {
	mu      sync.Mutex
	records []domain.JobRecord
	size    int
	next    int
	full    bool
}

// NewHistory constructs a History bounded to size records, defaulting
// to DefaultHistorySize when given a non-positive value.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{records: make([]domain.JobRecord, size), size: size}
}

// Add records a completed job, overwriting the oldest entry once the
// ring is full.
func (h *History) Add(rec domain.JobRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records[h.next] = rec
	h.next = (h.next + 1) % h.size
	if h.next == 0 {
		h.full = true
	}
}

// Recent returns the recorded jobs, most recently added first.
func (h *History) Recent() []domain.JobRecord {
	h.mu.Lock()
	defer h.mu.Unlock()

	count := h.next
	if h.full {
		count = h.size
	}
	out := make([]domain.JobRecord, 0, count)
	for i := 0; i < count; i++ {
		idx := (h.next - 1 - i + h.size) % h.size
		out = append(out, h.records[idx])
	}
	return out
}
