// Package publisher reflects a job's outcome back to the source host:
// a summary PR comment, a review with inline comments, and a commit
// status. These are three independently failing capabilities that the
// Review Orchestrator drives one at a time as its state machine
// advances, rather than a single "post everything" call.
package publisher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/codecritics/codecritics/internal/domain"
	"github.com/codecritics/codecritics/internal/observability"
	"github.com/codecritics/codecritics/internal/reviewparse"
	"github.com/codecritics/codecritics/internal/sourcehost"
)

// severityTitle canonicalizes a severity label to title case before it
// is bucketed or displayed: the LLM's raw reply is not guaranteed to
// match the "Critical"/"High"/"Medium"/"Low" casing reviewparse
// defaults to.
var severityTitle = cases.Title(language.English)

// StatusContext is the commit-status check name every status this
// package posts is grouped under.
const StatusContext = "CodeCritic AI Review"

// Target identifies the pull request a publish call acts on.
type Target struct {
	Owner      string
	Repo       string
	PullNumber int
	HeadSHA    string
}

// Publisher wraps a source-host client with the marker/formatting
// conventions the pipeline's posted comments must carry. Each method
// is an independent capability: a failure in one does not roll back
// an already-committed commit status.
type Publisher struct {
	host   sourcehost.Client
	logger observability.Logger
}

// New constructs a Publisher.
func New(host sourcehost.Client, logger observability.Logger) *Publisher {
	return &Publisher{host: host, logger: logger}
}

// PostSummary posts a PR-level comment carrying the review-summary
// marker and a timestamp marker, used both for genuine review
// summaries and for skip/error notices. A failure is logged but never
// returned to a caller that has already committed a commit status for
// this job, so publisher.go's own callers choose whether to treat the
// returned error as fatal.
func (p *Publisher) PostSummary(ctx context.Context, t Target, body string) error {
	full := body + "\n\n" + domain.MarkerReviewSummary + "\n" + timestampMarker(time.Now())
	if err := p.host.CreatePRIssueComment(ctx, t.Owner, t.Repo, t.PullNumber, full); err != nil {
		p.logger.LogWarning(ctx, "failed to post summary comment", observability.Fields{
			"repo": t.Owner + "/" + t.Repo, "pullNumber": t.PullNumber, "error": err.Error(),
		})
		return err
	}
	return nil
}

// PostReview submits a review with one inline comment per finding
// that lands on the visible diff, choosing the review event from
// finding severity. Findings that fall outside the diff are silently
// dropped from the inline list by the host adapter but still counted
// for the event decision, so a Critical finding on an unchanged line
// still triggers REQUEST_CHANGES.
func (p *Publisher) PostReview(ctx context.Context, t Target, findings []domain.Finding, diff domain.Diff, summary string) error {
	event := sourcehost.DetermineReviewEvent(findings)
	err := p.host.CreateReview(ctx, sourcehost.CreateReviewInput{
		Owner:      t.Owner,
		Repo:       t.Repo,
		PullNumber: t.PullNumber,
		HeadSHA:    t.HeadSHA,
		Event:      event,
		Summary:    summary,
		Findings:   findings,
		Diff:       diff,
	})
	if err != nil {
		p.logger.LogWarning(ctx, "failed to post review", observability.Fields{
			"repo": t.Owner + "/" + t.Repo, "pullNumber": t.PullNumber, "error": err.Error(),
		})
		return err
	}
	return nil
}

// PostCommitStatus posts a status check against the PR's head commit.
func (p *Publisher) PostCommitStatus(ctx context.Context, t Target, state sourcehost.CommitStatusState, description string) error {
	if err := p.host.CreateCommitStatus(ctx, t.Owner, t.Repo, t.HeadSHA, state, description, StatusContext); err != nil {
		p.logger.LogWarning(ctx, "failed to post commit status", observability.Fields{
			"repo": t.Owner + "/" + t.Repo, "pullNumber": t.PullNumber, "state": string(state), "error": err.Error(),
		})
		return err
	}
	return nil
}

// SummaryForFindings renders the summary comment body for a
// findings-bearing review: a severity breakdown followed by an inline
// rendering of every finding, so the summary reads standalone even if
// a given finding could not be anchored inline.
func SummaryForFindings(findings []domain.Finding) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d issue(s) in this pull request:\n\n", len(findings))
	counts := severityCounts(findings)
	for _, sev := range []string{"Critical", "High", "Medium", "Low"} {
		if counts[sev] > 0 {
			fmt.Fprintf(&sb, "- %s: %d\n", sev, counts[sev])
		}
	}
	sb.WriteString("\n---\n\n")
	for i, f := range findings {
		fmt.Fprintf(&sb, "### %s:%d\n\n", f.File, f.LineStart)
		sb.WriteString(reviewparse.Render(f))
		if i < len(findings)-1 {
			sb.WriteString("\n\n---\n\n")
		}
	}
	return sb.String()
}

// SummaryNoIssues is the summary comment posted when a review found
// nothing worth reporting.
const SummaryNoIssues = "No significant issues found. Good job!"

func severityCounts(findings []domain.Finding) map[string]int {
	counts := make(map[string]int, 4)
	for _, f := range findings {
		counts[severityTitle.String(strings.ToLower(f.Severity))]++
	}
	return counts
}

func timestampMarker(t time.Time) string {
	return fmt.Sprintf("<!-- timestamp: %d -->", t.Unix())
}
