package httpapi

import (
	"net/http"
	"time"

	"github.com/codecritics/codecritics/internal/domain"
	"github.com/codecritics/codecritics/internal/jobs"
	"github.com/codecritics/codecritics/internal/observability"
)

// ServiceName and Version identify this build in /api/info and are
// what a caller should quote when filing a bug report.
const ServiceName = "codecritics"

// Info reports GET /api/info: static build metadata plus the
// diagnostic-only Job Record history and metrics counters described in
// SPEC_FULL.md §3/§2 (C14). History and metrics are optional — a nil
// value simply omits that section rather than failing the request.
type Info struct {
	version string
	history *jobs.History
	metrics *observability.Metrics
}

// NewInfo constructs an Info handler pinned to version, which the
// entrypoint sets from a build-time-injected value (see
// cmd/codecriticsd/main.go). history and metrics may be nil.
func NewInfo(version string, history *jobs.History, metrics *observability.Metrics) *Info {
	return &Info{version: version, history: history, metrics: metrics}
}

type infoResponse struct {
	Name       string          `json:"name"`
	Version    string          `json:"version"`
	Endpoints  []string        `json:"endpoints"`
	Metrics    *metricsBody    `json:"metrics,omitempty"`
	RecentJobs []jobRecordBody `json:"recentJobs,omitempty"`
}

// metricsBody is the wire form of an observability.Snapshot.
type metricsBody struct {
	JobsTotal    int64 `json:"jobsTotal"`
	JobsFindings int64 `json:"jobsFindings"`
	JobsNoIssues int64 `json:"jobsNoIssues"`
	JobsSkipped  int64 `json:"jobsSkipped"`
	JobsFailed   int64 `json:"jobsFailed"`
}

// jobRecordBody is the wire form of a domain.JobRecord.
type jobRecordBody struct {
	Repo       string `json:"repo"`
	PullNumber int    `json:"pullNumber"`
	HeadSHA    string `json:"headSha"`
	Trigger    string `json:"trigger"`
	Outcome    string `json:"outcome"`
	StartedAt  string `json:"startedAt"`
	DurationMs int64  `json:"durationMs"`
}

func jobRecordBodies(records []domain.JobRecord) []jobRecordBody {
	out := make([]jobRecordBody, 0, len(records))
	for _, r := range records {
		out = append(out, jobRecordBody{
			Repo:       r.Repo,
			PullNumber: r.PullNumber,
			HeadSHA:    r.HeadSHA,
			Trigger:    string(r.Trigger),
			Outcome:    string(r.Outcome),
			StartedAt:  r.StartedAt.UTC().Format(time.RFC3339),
			DurationMs: r.Duration.Milliseconds(),
		})
	}
	return out
}

// ServeHTTP returns static service metadata plus the in-memory job
// history/metrics diagnostics; it never fails.
func (i *Info) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := infoResponse{
		Name:    ServiceName,
		Version: i.version,
		Endpoints: []string{
			"POST /api/webhooks",
			"GET /health",
			"GET /api/info",
		},
	}

	if i.metrics != nil {
		snap := i.metrics.Snapshot()
		resp.Metrics = &metricsBody{
			JobsTotal:    snap.Total,
			JobsFindings: snap.Findings,
			JobsNoIssues: snap.NoIssues,
			JobsSkipped:  snap.Skipped,
			JobsFailed:   snap.Failed,
		}
	}
	if i.history != nil {
		resp.RecentJobs = jobRecordBodies(i.history.Recent())
	}

	writeJSON(w, http.StatusOK, resp)
}
