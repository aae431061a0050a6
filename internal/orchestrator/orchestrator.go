// Package orchestrator drives a single review job through its full
// lifecycle: admission, diff fetch, chunking, the LLM call, parsing
// the reply, and publishing the result. It owns the admission and
// fetch stages itself rather than leaving them to a CLI caller, since
// a webhook trigger has no interactive caller to hand that work to.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/codecritics/codecritics/internal/admission"
	"github.com/codecritics/codecritics/internal/config"
	"github.com/codecritics/codecritics/internal/dedup"
	"github.com/codecritics/codecritics/internal/diff"
	"github.com/codecritics/codecritics/internal/diffproc"
	"github.com/codecritics/codecritics/internal/domain"
	"github.com/codecritics/codecritics/internal/jobs"
	"github.com/codecritics/codecritics/internal/llmgateway"
	"github.com/codecritics/codecritics/internal/observability"
	"github.com/codecritics/codecritics/internal/publisher"
	"github.com/codecritics/codecritics/internal/reviewparse"
	"github.com/codecritics/codecritics/internal/sourcehost"
)

// DefaultJobDeadlineSeconds is used when Config.JobDeadlineSeconds is
// non-positive.
const DefaultJobDeadlineSeconds = 60

// Gateway is the narrow LLM boundary the orchestrator drives — the
// subset of *llmgateway.Gateway's surface it actually calls, kept as
// an interface here so a job's LLM call can be faked in tests without
// constructing a real provider backend.
type Gateway interface {
	Complete(ctx context.Context, diff string, fromSHA, toSHA string) (string, error)
}

// Deps are the collaborators an Orchestrator drives. All fields except
// History and Metrics are required; New panics if any of those is
// missing. History and Metrics are optional diagnostic sinks for GET
// /api/info — a nil value simply means nothing is recorded.
type Deps struct {
	Host      sourcehost.Client
	Admission *admission.Controller
	Dedup     *dedup.Oracle
	Fetcher   *diffproc.Fetcher
	Gateway   Gateway
	Publisher *publisher.Publisher
	Config    config.Config
	Logger    observability.Logger
	History   *jobs.History
	Metrics   *observability.Metrics
}

func (d Deps) validate() error {
	switch {
	case d.Host == nil:
		return fmt.Errorf("orchestrator: Host is required")
	case d.Admission == nil:
		return fmt.Errorf("orchestrator: Admission is required")
	case d.Dedup == nil:
		return fmt.Errorf("orchestrator: Dedup is required")
	case d.Fetcher == nil:
		return fmt.Errorf("orchestrator: Fetcher is required")
	case d.Gateway == nil:
		return fmt.Errorf("orchestrator: Gateway is required")
	case d.Publisher == nil:
		return fmt.Errorf("orchestrator: Publisher is required")
	case d.Logger == nil:
		return fmt.Errorf("orchestrator: Logger is required")
	}
	return nil
}

// Orchestrator runs the Admitting -> ... -> terminal state machine for
// one review job at a time; New callers get one instance shared across
// jobs, since every method call is scoped to its own ctx/envelope.
type Orchestrator struct {
	deps Deps
}

// New constructs an Orchestrator, panicking if deps is incomplete: a
// misconfigured pipeline should never start rather than fail job-by-job.
func New(deps Deps) *Orchestrator {
	if err := deps.validate(); err != nil {
		panic(err)
	}
	return &Orchestrator{deps: deps}
}

// errorMessages maps the coarse failure taxonomy onto the exact
// stable, sanitized phrases posted to a PR when a job fails. Wording
// is load-bearing: it is the only detail a reviewer sees about an
// internal failure, so it must never leak provider or transport
// specifics.
var errorMessages = map[domain.FailureKind]string{
	domain.FailurePermanent:           "Authentication configuration issue detected.",
	domain.FailureTransient:           "Network connectivity issue encountered.",
	domain.FailureTimeout:             "Request timeout — the review took too long to complete.",
	domain.FailureProviderUnavailable: "AI provider unavailable — both primary and fallback failed to respond.",
	domain.FailureInternalBug:         "An unexpected error occurred during the review process.",
}

func userMessageFor(kind domain.FailureKind) string {
	if msg, ok := errorMessages[kind]; ok {
		return msg
	}
	return errorMessages[domain.FailureInternalBug]
}

// Run drives env through the full state machine and returns its
// terminal outcome. It never panics: every collaborator error is
// classified into a domain.FailureKind and reported back through the
// Publisher rather than propagated to the caller. Every call, whatever
// its outcome, is recorded into deps.History/deps.Metrics before
// returning.
func (o *Orchestrator) Run(ctx context.Context, env domain.EventEnvelope) domain.ReviewOutcome {
	startedAt := time.Now()
	outcome := o.run(ctx, env)
	o.record(env, outcome, startedAt)
	return outcome
}

// record appends a domain.JobRecord to deps.History and increments
// deps.Metrics for outcome, no-op-ing on either that Deps left nil.
func (o *Orchestrator) record(env domain.EventEnvelope, outcome domain.ReviewOutcome, startedAt time.Time) {
	if o.deps.Metrics != nil {
		o.deps.Metrics.Record(outcome.Kind)
	}
	if o.deps.History != nil {
		o.deps.History.Add(domain.JobRecord{
			Repo:       env.Repo.FullName,
			PullNumber: env.PullNumber,
			HeadSHA:    env.HeadSHA,
			Trigger:    env.Trigger(),
			Outcome:    outcome.Kind,
			StartedAt:  startedAt,
			Duration:   time.Since(startedAt),
		})
	}
}

// run performs the actual Admitting -> ... -> terminal state machine;
// split out from Run so every exit path is recorded in one place.
func (o *Orchestrator) run(ctx context.Context, env domain.EventEnvelope) domain.ReviewOutcome {
	deadline := o.deps.Config.JobDeadlineSeconds
	if deadline <= 0 {
		deadline = DefaultJobDeadlineSeconds
	}
	ctx, cancel := context.WithTimeout(ctx, time.Duration(deadline)*time.Second)
	defer cancel()

	jobID := generateJobID(time.Now(), env.Repo.FullName, env.PullNumber, env.HeadSHA)
	trigger := env.Trigger()
	target := publisher.Target{
		Owner:      env.Repo.Owner,
		Repo:       env.Repo.Name,
		PullNumber: env.PullNumber,
		HeadSHA:    env.HeadSHA,
	}

	logFields := func(state domain.JobState, extra observability.Fields) observability.Fields {
		f := observability.Fields{
			"jobId":      jobID,
			"repo":       env.Repo.FullName,
			"pullNumber": env.PullNumber,
			"trigger":    string(trigger),
			"stage":      string(state),
		}
		for k, v := range extra {
			f[k] = v
		}
		return f
	}

	// --- Admitting ---
	decision := o.deps.Admission.Admit(env)
	if !decision.Admitted {
		switch decision.Reason {
		case domain.SkipRateLimited:
			if err := o.deps.Publisher.PostSummary(ctx, target, domain.RateLimitNotice); err != nil {
				o.deps.Logger.LogWarning(ctx, "failed to post rate-limit notice", logFields(domain.StateAdmitting, nil))
			}
		case domain.SkipDisallowed:
			// Silent: no host calls at all for a repository outside
			// the allow-list.
		}
		o.deps.Logger.LogInfo(ctx, "job skipped at admission", logFields(domain.StateAdmitting, observability.Fields{"reason": string(decision.Reason)}))
		return domain.ReviewOutcome{Kind: domain.OutcomeSkipped, SkipReason: decision.Reason}
	}

	if dup, err := o.deps.Dedup.ShouldSkip(ctx, target.Owner, target.Repo, target.PullNumber, trigger, time.Now()); err != nil {
		o.deps.Logger.LogWarning(ctx, "dedup oracle failed, proceeding as not-duplicate", logFields(domain.StateAdmitting, observability.Fields{"error": err.Error()}))
	} else if dup {
		o.deps.Logger.LogInfo(ctx, "job skipped as duplicate", logFields(domain.StateAdmitting, nil))
		return domain.ReviewOutcome{Kind: domain.OutcomeSkipped, SkipReason: domain.SkipDuplicateRecent}
	}

	pendingPosted := false
	if target.HeadSHA != "" {
		if err := o.deps.Publisher.PostCommitStatus(ctx, target, sourcehost.StatusPending, "Review in progress"); err != nil {
			o.deps.Logger.LogWarning(ctx, "failed to post pending status", logFields(domain.StateAdmitting, nil))
		}
		pendingPosted = true
	}

	// --- Fetching ---
	pr, err := o.deps.Host.GetPullRequest(ctx, target.Owner, target.Repo, target.PullNumber)
	if err != nil {
		return o.fail(ctx, target, domain.StateFetching, sourcehost.ClassifyError(err), err, logFields)
	}
	target.HeadSHA = pr.HeadSHA

	if o.deps.Admission.CheckSkip(admission.SkipInput{PRTitle: pr.Title, PRDescription: pr.Body}).ShouldSkip {
		o.deps.Logger.LogInfo(ctx, "job skipped via skip trigger", logFields(domain.StateFetching, nil))
		return domain.ReviewOutcome{Kind: domain.OutcomeSkipped, SkipReason: domain.SkipDisallowed}
	}

	if !pendingPosted {
		if err := o.deps.Publisher.PostCommitStatus(ctx, target, sourcehost.StatusPending, "Review in progress"); err != nil {
			o.deps.Logger.LogWarning(ctx, "failed to post pending status", logFields(domain.StateFetching, nil))
		}
	}

	rawDiff, err := o.deps.Fetcher.Fetch(ctx, env, pr)
	if err != nil {
		return o.fail(ctx, target, domain.StateFetching, sourcehost.ClassifyError(err), err, logFields)
	}

	// --- Processing ---
	result := diffproc.Process(rawDiff, o.deps.Config.MaxDiffSize, o.deps.Config.LargeDiffMultiplier, o.deps.Config.Extensions())
	if result.Skip {
		notice := skipNotice(result.SkipReason)
		if err := o.deps.Publisher.PostSummary(ctx, target, notice); err != nil {
			o.deps.Logger.LogWarning(ctx, "failed to post skip notice", logFields(domain.StateProcessing, nil))
		}
		if err := o.deps.Publisher.PostCommitStatus(ctx, target, sourcehost.StatusSuccess, notice); err != nil {
			o.deps.Logger.LogWarning(ctx, "failed to post skip status", logFields(domain.StateProcessing, nil))
		}
		o.deps.Logger.LogInfo(ctx, "job skipped during processing", logFields(domain.StateProcessing, observability.Fields{"reason": string(result.SkipReason)}))
		return domain.ReviewOutcome{Kind: domain.OutcomeSkipped, SkipReason: result.SkipReason}
	}

	diffText := combinedDiffText(result.Files)
	diff := domain.Diff{FromCommitHash: pr.BaseSHA, ToCommitHash: pr.HeadSHA, Files: result.Files}

	// --- Prompting ---
	reply, err := o.deps.Gateway.Complete(ctx, diffText, diff.FromCommitHash, diff.ToCommitHash)
	if err != nil {
		kind := llmgateway.ClassifyError(ctx, err)
		return o.fail(ctx, target, domain.StatePrompting, kind, err, logFields)
	}

	// --- Parsing ---
	findings := clampToVisibleRange(reviewparse.Parse(reply), diff.Files)
	if len(findings) == 0 {
		if err := o.deps.Publisher.PostSummary(ctx, target, publisher.SummaryNoIssues); err != nil {
			o.deps.Logger.LogWarning(ctx, "failed to post no-issues summary", logFields(domain.StateParsing, nil))
		}
		if err := o.deps.Publisher.PostCommitStatus(ctx, target, sourcehost.StatusSuccess, "No issues found"); err != nil {
			o.deps.Logger.LogWarning(ctx, "failed to post success status", logFields(domain.StateParsing, nil))
		}
		o.deps.Logger.LogInfo(ctx, "job completed with no issues", logFields(domain.StateReporting, nil))
		return domain.ReviewOutcome{Kind: domain.OutcomeNoIssues}
	}

	// --- Publishing ---
	summary := publisher.SummaryForFindings(findings)
	if err := o.deps.Publisher.PostReview(ctx, target, findings, diff, summary); err != nil {
		o.deps.Logger.LogWarning(ctx, "failed to post review", logFields(domain.StatePublishing, nil))
	}
	if err := o.deps.Publisher.PostSummary(ctx, target, summary); err != nil {
		o.deps.Logger.LogWarning(ctx, "failed to post summary comment", logFields(domain.StatePublishing, nil))
	}

	statusState := sourcehost.StatusNeutral
	if o.deps.Config.ReviewFailureStatus == config.FailureStatusFailure {
		statusState = sourcehost.StatusFailure
	}
	if err := o.deps.Publisher.PostCommitStatus(ctx, target, statusState, fmt.Sprintf("%d issue(s) found", len(findings))); err != nil {
		o.deps.Logger.LogWarning(ctx, "failed to post final status", logFields(domain.StatePublishing, nil))
	}

	o.deps.Logger.LogInfo(ctx, "job completed with findings", logFields(domain.StateReporting, observability.Fields{"findingCount": len(findings)}))
	return domain.ReviewOutcome{Kind: domain.OutcomeFindings, Findings: findings}
}

// fail posts the sanitized error comment and error status for kind,
// logs the underlying error with structured fields, and returns the
// terminal Failed outcome.
func (o *Orchestrator) fail(ctx context.Context, target publisher.Target, stage domain.JobState, kind domain.FailureKind, cause error, logFields func(domain.JobState, observability.Fields) observability.Fields) domain.ReviewOutcome {
	msg := userMessageFor(kind)
	if err := o.deps.Publisher.PostSummary(ctx, target, msg); err != nil {
		o.deps.Logger.LogWarning(ctx, "failed to post error comment", logFields(stage, nil))
	}
	if target.HeadSHA != "" {
		if err := o.deps.Publisher.PostCommitStatus(ctx, target, sourcehost.StatusError, msg); err != nil {
			o.deps.Logger.LogWarning(ctx, "failed to post error status", logFields(stage, nil))
		}
	}
	o.deps.Logger.LogError(ctx, "job failed", cause, logFields(stage, observability.Fields{"kind": string(kind)}))
	return domain.ReviewOutcome{Kind: domain.OutcomeFailed, FailureKind: kind, FailureDetail: cause.Error()}
}

func skipNotice(reason domain.SkipReason) string {
	switch reason {
	case domain.SkipDiffTooLarge:
		return "This pull request's diff is too large to review automatically."
	case domain.SkipNoSupportedFiles:
		return "No reviewable files were found in this pull request's diff."
	default:
		return "This pull request was skipped."
	}
}

// clampToVisibleRange clamps each finding's line range to its file's
// visible new-side diff range, so a hallucinated line number never
// points outside the hunks the model was actually shown. A finding
// whose file cannot be matched, or whose patch has no parseable hunks,
// passes through unchanged.
func clampToVisibleRange(findings []domain.Finding, files []domain.FileDiff) []domain.Finding {
	patches := make(map[string]string, len(files))
	for _, f := range files {
		patches[f.Path] = f.Patch
	}

	for i, finding := range findings {
		patch, ok := patches[finding.File]
		if !ok {
			continue
		}
		parsed, err := diff.Parse(patch)
		if err != nil {
			continue
		}
		min, max, ok := parsed.VisibleRange()
		if !ok {
			continue
		}
		findings[i].LineStart = clampInt(finding.LineStart, min, max)
		findings[i].LineEnd = clampInt(finding.LineEnd, min, max)
		if findings[i].LineEnd < findings[i].LineStart {
			findings[i].LineEnd = findings[i].LineStart
		}
	}
	return findings
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func combinedDiffText(files []domain.FileDiff) string {
	var out string
	for _, f := range files {
		out += f.Patch + "\n"
	}
	return out
}

// generateJobID builds a short, time-ordered identifier for a review
// job: a UTC timestamp plus a short hash of the job's identity, so IDs
// sort chronologically in logs while staying unique across concurrent
// PRs.
func generateJobID(timestamp time.Time, repoFullName string, pullNumber int, headSHA string) string {
	ts := timestamp.UTC().Format("20060102T150405Z")
	input := fmt.Sprintf("%s|%d|%s|%d", repoFullName, pullNumber, headSHA, timestamp.UnixNano())
	hash := sha256.Sum256([]byte(input))
	shortHash := hex.EncodeToString(hash[:3])
	return fmt.Sprintf("job-%s-%s", ts, shortHash)
}
