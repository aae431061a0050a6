package domain

import (
	"strconv"
	"time"
)

// EventKind classifies an incoming webhook payload.
type EventKind string

const (
	EventPRChanged      EventKind = "pr_changed"
	EventMentionComment EventKind = "mention_comment"
	EventPing           EventKind = "ping"
	EventOther          EventKind = "other"
)

// TriggerKind distinguishes an automatic review from a manually
// requested one; each carries its own rate-limit budget.
type TriggerKind string

const (
	TriggerAuto   TriggerKind = "auto"
	TriggerManual TriggerKind = "manual"
)

// Repo identifies the source-hosting repository an event refers to.
type Repo struct {
	Owner    string
	Name     string
	FullName string
	Private  bool
}

// EventEnvelope is the immutable, validated representation of an
// inbound webhook delivery. It is produced once by the payload
// validator and never mutated afterward.
type EventEnvelope struct {
	DeliveryID  string
	EventKind   EventKind
	Action      string
	Repo        Repo
	PullNumber  int
	DiffURL     string
	HeadSHA     string
	CommentBody string
	Commenter   string
}

// Trigger derives the review trigger implied by this envelope.
func (e EventEnvelope) Trigger() TriggerKind {
	if e.EventKind == EventMentionComment {
		return TriggerManual
	}
	return TriggerAuto
}

// JobState names a state in the Review Orchestrator's state machine.
type JobState string

const (
	StateAdmitting  JobState = "admitting"
	StateFetching   JobState = "fetching"
	StateProcessing JobState = "processing"
	StatePrompting  JobState = "prompting"
	StateParsing    JobState = "parsing"
	StatePublishing JobState = "publishing"
	StateReporting  JobState = "reporting" // terminal
	StateSkipped    JobState = "skipped"   // terminal
	StateFailed     JobState = "failed"    // terminal
)

// IsTerminal reports whether the state ends a job's lifecycle.
func (s JobState) IsTerminal() bool {
	switch s {
	case StateReporting, StateSkipped, StateFailed:
		return true
	default:
		return false
	}
}

// SkipReason explains why a job was skipped without producing a review.
type SkipReason string

const (
	SkipDiffTooLarge     SkipReason = "diff_too_large"
	SkipNoSupportedFiles SkipReason = "no_supported_files"
	SkipDuplicateRecent  SkipReason = "duplicate_recent"
	SkipRateLimited      SkipReason = "rate_limited"
	SkipDisallowed       SkipReason = "disallowed"
)

// FailureKind is the error taxonomy from which terminal failures are
// built; it is distinct from llmhttp.ErrorType, which is a transport
// level classification that gets mapped onto this coarser set.
type FailureKind string

const (
	FailureTransient          FailureKind = "transient"
	FailurePermanent          FailureKind = "permanent"
	FailureProviderUnavailable FailureKind = "provider_unavailable"
	FailureTimeout            FailureKind = "timeout"
	FailureInternalBug        FailureKind = "internal_bug"
)

// OutcomeKind names which variant of ReviewOutcome is populated.
type OutcomeKind string

const (
	OutcomeNoIssues OutcomeKind = "no_issues"
	OutcomeFindings OutcomeKind = "findings"
	OutcomeSkipped  OutcomeKind = "skipped"
	OutcomeFailed   OutcomeKind = "failed"
)

// ReviewOutcome is the terminal result of a Review Job.
type ReviewOutcome struct {
	Kind            OutcomeKind
	Findings        []Finding
	SummarySeverity string
	SkipReason      SkipReason
	FailureKind     FailureKind
	FailureDetail   string
}

// ReviewJob is the unit of work created by the Orchestrator from an
// admitted envelope. It exists only in memory for the duration of the
// review and is never resumed across restarts.
type ReviewJob struct {
	JobID      string
	Repo       Repo
	PullNumber int
	HeadSHA    string
	Trigger    TriggerKind
	StartedAt  time.Time
	Deadline   time.Time
	State      JobState
	Outcome    ReviewOutcome
}

// Key returns the per-(repo, pullNumber, headSha) exclusion key used
// by the job runner's key lock.
func (j ReviewJob) Key() string {
	return j.Repo.FullName + "#" + strconv.Itoa(j.PullNumber) + "@" + j.HeadSHA
}

// RateLimitEntry tracks admission counts for a single key within the
// current sliding window.
type RateLimitEntry struct {
	Count         int
	WindowResetAt time.Time
}

// Markers are the stable HTML-comment sentinels embedded in bot-posted
// bodies, used for identification and deduplication.
const (
	MarkerReviewSummary = "<!-- code-critics-review -->"
	MarkerInlineComment = "<!-- code-critics-comment -->"
)

// RateLimitNotice is the stable phrase posted to a PR whenever a review
// is refused for rate-limit reasons, whether the Admission Controller's
// per-repo sliding window or the job runner's bounded queue is what
// rejected it. Both call sites post identical wording since a reviewer
// cannot distinguish (and should not need to) which layer applied the
// limit.
const RateLimitNotice = "Rate limit exceeded — please try again later."

// JobRecord is a bounded, diagnostic-only summary of one completed
// Review Job, exposed on GET /api/info. It carries no finding content
// and is evictable at any time — it is not the "persistence of
// historical reviews" the Non-goals exclude, only an in-memory audit
// trail that dies with the process.
type JobRecord struct {
	Repo       string
	PullNumber int
	HeadSHA    string
	Trigger    TriggerKind
	Outcome    OutcomeKind
	StartedAt  time.Time
	Duration   time.Duration
}

// ProviderHealth is a per-provider construction snapshot: whether the
// LLM Gateway could build a backend for this provider at startup, and
// why not if it couldn't. It is computed once, at Gateway construction
// time, rather than by calling out to the provider on every /health
// request.
type ProviderHealth struct {
	Name          string
	Constructible bool
	LastError     string
	LastCheckedAt time.Time
}
