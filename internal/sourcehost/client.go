// Package sourcehost defines the capability contract the review
// pipeline needs from a source-hosting platform (GitHub today) and
// provides a concrete adapter over it. Every method the pipeline calls
// is expressed here first, in domain vocabulary, so the orchestrator
// and publisher never import a platform-specific package directly.
package sourcehost

import (
	"context"
	"strings"

	"github.com/codecritics/codecritics/internal/domain"
)

// Identity is the account the configured credential authenticates as.
type Identity struct {
	Login string
	ID    int64
}

// PullRequest is the PR metadata needed to open a review job.
type PullRequest struct {
	Number  int
	Title   string
	Body    string
	HeadSHA string
	BaseSHA string
}

// FileChange is one entry of a PR's changed-files list.
type FileChange struct {
	Path      string
	Status    string
	Additions int
	Deletions int
}

// Comment is one PR-level (issue) comment, the shape the Dedup Oracle
// scans for markers and mentions.
type Comment struct {
	ID        int64
	Body      string
	CreatedAt string
	Author    string
}

// ReviewEvent is the overall verdict a review submission carries.
type ReviewEvent string

const (
	ReviewComment        ReviewEvent = "COMMENT"
	ReviewApprove        ReviewEvent = "APPROVE"
	ReviewRequestChanges ReviewEvent = "REQUEST_CHANGES"
)

// DetermineReviewEvent picks the review verdict from finding severity,
// independent of any platform's diff-position machinery: APPROVE with
// no findings, REQUEST_CHANGES if any is high/critical, COMMENT
// otherwise. Findings that never landed on the visible diff still
// factor in — the summary comment always mentions them even when they
// cannot be anchored inline.
func DetermineReviewEvent(findings []domain.Finding) ReviewEvent {
	if len(findings) == 0 {
		return ReviewApprove
	}
	for _, f := range findings {
		switch strings.ToLower(f.Severity) {
		case "high", "critical":
			return ReviewRequestChanges
		}
	}
	return ReviewComment
}

// CreateReviewInput is the payload for submitting a review. Findings
// carry file-line locations in domain vocabulary; the adapter is
// responsible for mapping a finding's line onto the platform's own
// positioning scheme and for silently dropping findings that fall
// outside the visible diff rather than rejecting the whole review.
type CreateReviewInput struct {
	Owner      string
	Repo       string
	PullNumber int
	HeadSHA    string
	Event      ReviewEvent
	Summary    string
	Findings   []domain.Finding
	Diff       domain.Diff
}

// CommitStatusState is the state reported on a commit status check.
type CommitStatusState string

const (
	StatusPending CommitStatusState = "pending"
	StatusSuccess CommitStatusState = "success"
	StatusFailure CommitStatusState = "failure"
	StatusNeutral CommitStatusState = "neutral"
	StatusError   CommitStatusState = "error"
)

// RateLimit reports the credential's remaining request budget.
type RateLimit struct {
	Limit     int
	Remaining int
	ResetUnix int64
}

// Client is the capability surface the review pipeline depends on.
// A GitHub implementation is provided by NewGitHubClient; other hosts
// can satisfy the same contract without touching pipeline code.
type Client interface {
	// ValidateIdentity confirms the configured credential is usable
	// and returns the account it authenticates as. Called at startup.
	ValidateIdentity(ctx context.Context) (Identity, error)

	// GetPullRequest fetches PR metadata, including head/base SHAs.
	GetPullRequest(ctx context.Context, owner, repo string, number int) (PullRequest, error)

	// ListFiles fetches the PR's changed-files list.
	ListFiles(ctx context.Context, owner, repo string, number int) ([]FileChange, error)

	// CompareCommits fetches a unified diff between base and head.
	// Used as the fallback path when the PR's own diff endpoint is
	// unavailable or the caller only has commit SHAs.
	CompareCommits(ctx context.Context, owner, repo, base, head string) (string, error)

	// ListPRComments fetches the PR's comment thread, newest-inclusive,
	// for marker scanning and mention detection.
	ListPRComments(ctx context.Context, owner, repo string, number int) ([]Comment, error)

	// CreatePRIssueComment posts a PR-level comment (the review summary,
	// or a skip/error notice).
	CreatePRIssueComment(ctx context.Context, owner, repo string, number int, body string) error

	// CreateReview submits a review with zero or more inline comments.
	// Comments outside the visible diff range are silently dropped.
	CreateReview(ctx context.Context, input CreateReviewInput) error

	// CreateCommitStatus posts a status check against a commit SHA.
	CreateCommitStatus(ctx context.Context, owner, repo, sha string, state CommitStatusState, description, statusContext string) error

	// RateLimit reports the credential's current request budget.
	RateLimit(ctx context.Context) (RateLimit, error)
}
