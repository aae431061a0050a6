package sourcehost

import (
	"context"

	ghclient "github.com/codecritics/codecritics/internal/adapter/github"
)

// GitHubClient implements Client against the GitHub REST API.
type GitHubClient struct {
	raw *ghclient.Client
}

// NewGitHubClient wraps a raw GitHub API client, defaulting to
// api.github.com; callers targeting GitHub Enterprise Server should
// call SetBaseURL on the returned client's Raw().
func NewGitHubClient(token string) *GitHubClient {
	return &GitHubClient{raw: ghclient.NewClient(token)}
}

// SetBaseURL points the client at a GitHub Enterprise Server instance.
func (g *GitHubClient) SetBaseURL(url string) {
	g.raw.SetBaseURL(url)
}

func (g *GitHubClient) ValidateIdentity(ctx context.Context) (Identity, error) {
	id, err := g.raw.ValidateIdentity(ctx)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Login: id.Login, ID: id.ID}, nil
}

func (g *GitHubClient) GetPullRequest(ctx context.Context, owner, repo string, number int) (PullRequest, error) {
	pr, err := g.raw.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return PullRequest{}, err
	}
	return PullRequest{
		Number:  pr.Number,
		Title:   pr.Title,
		Body:    pr.Body,
		HeadSHA: pr.HeadSHA,
		BaseSHA: pr.BaseSHA,
	}, nil
}

func (g *GitHubClient) ListFiles(ctx context.Context, owner, repo string, number int) ([]FileChange, error) {
	files, err := g.raw.ListFiles(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}
	out := make([]FileChange, len(files))
	for i, f := range files {
		out[i] = FileChange{Path: f.Filename, Status: f.Status, Additions: f.Additions, Deletions: f.Deletions}
	}
	return out, nil
}

func (g *GitHubClient) CompareCommits(ctx context.Context, owner, repo, base, head string) (string, error) {
	return g.raw.CompareCommits(ctx, owner, repo, base, head)
}

func (g *GitHubClient) ListPRComments(ctx context.Context, owner, repo string, number int) ([]Comment, error) {
	comments, err := g.raw.ListPRComments(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}
	out := make([]Comment, len(comments))
	for i, c := range comments {
		out[i] = Comment{ID: c.ID, Body: c.Body, CreatedAt: c.CreatedAt, Author: c.User.Login}
	}
	return out, nil
}

func (g *GitHubClient) CreatePRIssueComment(ctx context.Context, owner, repo string, number int, body string) error {
	return g.raw.CreatePRIssueComment(ctx, owner, repo, number, body)
}

// CreateReview maps findings onto GitHub's classic diff-position review
// API. Findings whose line does not resolve to a diff position (context
// lines, deleted lines, lines outside any hunk) are still counted for
// the review event decision but are dropped from the inline comment
// list rather than causing the whole review post to fail.
func (g *GitHubClient) CreateReview(ctx context.Context, input CreateReviewInput) error {
	positioned := ghclient.MapFindings(input.Findings, input.Diff)

	_, err := g.raw.CreateReview(ctx, ghclient.CreateReviewInput{
		Owner:      input.Owner,
		Repo:       input.Repo,
		PullNumber: input.PullNumber,
		CommitSHA:  input.HeadSHA,
		Event:      ghclient.ReviewEvent(input.Event),
		Summary:    input.Summary,
		Findings:   positioned,
	})
	return err
}

func (g *GitHubClient) CreateCommitStatus(ctx context.Context, owner, repo, sha string, state CommitStatusState, description, statusContext string) error {
	return g.raw.CreateCommitStatus(ctx, owner, repo, sha, mapStatusState(state), description, statusContext)
}

func (g *GitHubClient) RateLimit(ctx context.Context) (RateLimit, error) {
	rl, err := g.raw.RateLimit(ctx)
	if err != nil {
		return RateLimit{}, err
	}
	return RateLimit{Limit: rl.Limit, Remaining: rl.Remaining, ResetUnix: rl.Reset}, nil
}

// mapStatusState translates the neutral state onto GitHub's vocabulary,
// which has no "neutral" commit status — it degrades to "success" so a
// finding-free-but-inconclusive review doesn't read as a failure.
func mapStatusState(s CommitStatusState) ghclient.CommitStatusState {
	if s == StatusNeutral {
		return ghclient.StatusSuccess
	}
	return ghclient.CommitStatusState(s)
}

var _ Client = (*GitHubClient)(nil)
