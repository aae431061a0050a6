package observability

import (
	"sync/atomic"

	"github.com/codecritics/codecritics/internal/domain"
)

// Metrics is a set of in-memory, process-lifetime counters over
// completed Review Job outcomes, exposed on GET /api/info. It replaces
// nothing durable: counts reset to zero on every restart, same as
// History.
type Metrics struct {
	total    atomic.Int64
	findings atomic.Int64
	noIssues atomic.Int64
	skipped  atomic.Int64
	failed   atomic.Int64
}

// NewMetrics constructs a zeroed Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Record increments the counter matching kind. An unrecognized kind
// still counts toward Total so the aggregate never silently drops a
// job.
func (m *Metrics) Record(kind domain.OutcomeKind) {
	m.total.Add(1)
	switch kind {
	case domain.OutcomeFindings:
		m.findings.Add(1)
	case domain.OutcomeNoIssues:
		m.noIssues.Add(1)
	case domain.OutcomeSkipped:
		m.skipped.Add(1)
	case domain.OutcomeFailed:
		m.failed.Add(1)
	}
}

// Snapshot is a point-in-time read of every counter.
type Snapshot struct {
	Total    int64
	Findings int64
	NoIssues int64
	Skipped  int64
	Failed   int64
}

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Total:    m.total.Load(),
		Findings: m.findings.Load(),
		NoIssues: m.noIssues.Load(),
		Skipped:  m.skipped.Load(),
		Failed:   m.failed.Load(),
	}
}
