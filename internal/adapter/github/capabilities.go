package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Identity is the authenticated user the configured token belongs to.
type Identity struct {
	Login string `json:"login"`
	ID    int64  `json:"id"`
}

// PullRequestInfo mirrors the subset of GET /pulls/{number} the review
// pipeline needs.
type PullRequestInfo struct {
	Number  int    `json:"number"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	HeadSHA string `json:"head_sha"`
	BaseSHA string `json:"base_sha"`
}

type pullRequestResponse struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	Head   struct {
		SHA string `json:"sha"`
	} `json:"head"`
	Base struct {
		SHA string `json:"sha"`
	} `json:"base"`
}

// File mirrors one entry of GET /pulls/{number}/files.
type File struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"`
}

// Comment mirrors one entry of GET /issues/{number}/comments.
type Comment struct {
	ID        int64  `json:"id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
	User      User   `json:"user"`
}

// CommitStatusState is the state reported on a commit status.
type CommitStatusState string

const (
	StatusPending CommitStatusState = "pending"
	StatusSuccess CommitStatusState = "success"
	StatusFailure CommitStatusState = "failure"
	StatusError   CommitStatusState = "error"
)

// RateLimitInfo mirrors GET /rate_limit's "core" resource.
type RateLimitInfo struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	Reset     int64 `json:"reset"`
}

// doJSON executes an authenticated request with retry and decodes a
// JSON response body, following the same request-building shape as
// CreateReview above.
func (c *Client) doJSON(ctx context.Context, method, url string, body io.Reader, out interface{}) error {
	resp, err := c.doRequestWithRetry(ctx, method, url, body, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// ValidateIdentity confirms the configured token authenticates and
// returns the identity it belongs to.
func (c *Client) ValidateIdentity(ctx context.Context) (Identity, error) {
	var identity Identity
	url := fmt.Sprintf("%s/user", c.baseURL)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &identity); err != nil {
		return Identity{}, err
	}
	return identity, nil
}

// GetPullRequest fetches PR metadata.
func (c *Client) GetPullRequest(ctx context.Context, owner, repo string, number int) (PullRequestInfo, error) {
	var raw pullRequestResponse
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, number)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &raw); err != nil {
		return PullRequestInfo{}, err
	}
	return PullRequestInfo{
		Number:  raw.Number,
		Title:   raw.Title,
		Body:    raw.Body,
		HeadSHA: raw.Head.SHA,
		BaseSHA: raw.Base.SHA,
	}, nil
}

// ListFiles fetches the changed files for a PR.
func (c *Client) ListFiles(ctx context.Context, owner, repo string, number int) ([]File, error) {
	var files []File
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d/files", c.baseURL, owner, repo, number)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// CompareCommits fetches a unified diff between two commits via the
// compare API, requesting the diff media type explicitly.
func (c *Client) CompareCommits(ctx context.Context, owner, repo, base, head string) (string, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/compare/%s...%s", c.baseURL, owner, repo, base, head)

	resp, err := c.doRequestWithRetry(ctx, http.MethodGet, url, nil, "application/vnd.github.v3.diff")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read compare response: %w", err)
	}
	return string(body), nil
}

// ListPRComments fetches the issue-comments thread of a PR (the
// summary/inline comments the Dedup Oracle scans).
func (c *Client) ListPRComments(ctx context.Context, owner, repo string, number int) ([]Comment, error) {
	var comments []Comment
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, owner, repo, number)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

type createCommentRequest struct {
	Body string `json:"body"`
}

// CreatePRIssueComment posts a PR-level (issue) comment, used for
// summary comments and skip/error notices.
func (c *Client) CreatePRIssueComment(ctx context.Context, owner, repo string, number int, body string) error {
	payload, err := json.Marshal(createCommentRequest{Body: body})
	if err != nil {
		return fmt.Errorf("failed to marshal comment: %w", err)
	}
	url := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, owner, repo, number)
	return c.doJSON(ctx, http.MethodPost, url, bytes.NewReader(payload), nil)
}

type createStatusRequest struct {
	State       CommitStatusState `json:"state"`
	Description string            `json:"description"`
	Context     string            `json:"context"`
}

// CreateCommitStatus posts a commit status to the PR's head SHA.
func (c *Client) CreateCommitStatus(ctx context.Context, owner, repo, sha string, state CommitStatusState, description, context string) error {
	payload, err := json.Marshal(createStatusRequest{State: state, Description: description, Context: context})
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	url := fmt.Sprintf("%s/repos/%s/%s/statuses/%s", c.baseURL, owner, repo, sha)
	return c.doJSON(ctx, http.MethodPost, url, bytes.NewReader(payload), nil)
}

type rateLimitResponse struct {
	Resources struct {
		Core RateLimitInfo `json:"core"`
	} `json:"resources"`
}

// RateLimit reports the token's current rate-limit budget.
func (c *Client) RateLimit(ctx context.Context) (RateLimitInfo, error) {
	var raw rateLimitResponse
	url := fmt.Sprintf("%s/rate_limit", c.baseURL)
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &raw); err != nil {
		return RateLimitInfo{}, err
	}
	return raw.Resources.Core, nil
}
