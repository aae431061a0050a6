package orchestrator_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	llmhttp "github.com/codecritics/codecritics/internal/adapter/llm/http"
	"github.com/codecritics/codecritics/internal/admission"
	"github.com/codecritics/codecritics/internal/config"
	"github.com/codecritics/codecritics/internal/dedup"
	"github.com/codecritics/codecritics/internal/diffproc"
	"github.com/codecritics/codecritics/internal/domain"
	"github.com/codecritics/codecritics/internal/jobs"
	"github.com/codecritics/codecritics/internal/observability"
	"github.com/codecritics/codecritics/internal/orchestrator"
	"github.com/codecritics/codecritics/internal/publisher"
	"github.com/codecritics/codecritics/internal/sourcehost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHost is a minimal sourcehost.Client double. Every method not
// overridden by a test panics on use, so an unexpected call surfaces
// immediately rather than returning a misleading zero value.
type fakeHost struct {
	sourcehost.Client

	pr      sourcehost.PullRequest
	prErr   error
	compare string
	cmpErr  error
	comments []sourcehost.Comment
	listErr  error

	summaries []string
	reviews   []sourcehost.CreateReviewInput
	statuses  []sourcehost.CommitStatusState
}

func (f *fakeHost) GetPullRequest(ctx context.Context, owner, repo string, number int) (sourcehost.PullRequest, error) {
	return f.pr, f.prErr
}

func (f *fakeHost) CompareCommits(ctx context.Context, owner, repo, base, head string) (string, error) {
	return f.compare, f.cmpErr
}

func (f *fakeHost) ListPRComments(ctx context.Context, owner, repo string, number int) ([]sourcehost.Comment, error) {
	return f.comments, f.listErr
}

func (f *fakeHost) CreatePRIssueComment(ctx context.Context, owner, repo string, number int, body string) error {
	f.summaries = append(f.summaries, body)
	return nil
}

func (f *fakeHost) CreateReview(ctx context.Context, input sourcehost.CreateReviewInput) error {
	f.reviews = append(f.reviews, input)
	return nil
}

func (f *fakeHost) CreateCommitStatus(ctx context.Context, owner, repo, sha string, state sourcehost.CommitStatusState, description, statusContext string) error {
	f.statuses = append(f.statuses, state)
	return nil
}

type fakeGateway struct {
	reply string
	err   error
}

func (g *fakeGateway) Complete(ctx context.Context, diff string, fromSHA, toSHA string) (string, error) {
	return g.reply, g.err
}

func testConfig() config.Config {
	return config.Config{
		MaxDiffSize:          1 << 20,
		LargeDiffMultiplier:  3,
		AllowedFileExtensions: []string{".go"},
		JobDeadlineSeconds:   5,
		RateLimitPerHour:     1000,
		ReviewFailureStatus:  config.FailureStatusNeutral,
	}
}

func testLogger() observability.Logger {
	return observability.NewJSONLogger(observability.LevelError, false)
}

func newOrchestrator(host *fakeHost, gw orchestrator.Gateway, cfg config.Config) *orchestrator.Orchestrator {
	return orchestrator.New(orchestrator.Deps{
		Host:      host,
		Admission: admission.New(cfg),
		Dedup:     dedup.NewOracle(host),
		Fetcher:   diffproc.NewFetcher(host, ""),
		Gateway:   gw,
		Publisher: publisher.New(host, testLogger()),
		Config:    cfg,
		Logger:    testLogger(),
	})
}

func prChangedEnvelope() domain.EventEnvelope {
	return domain.EventEnvelope{
		EventKind:  domain.EventPRChanged,
		Action:     "opened",
		Repo:       domain.Repo{Owner: "octo", Name: "hello", FullName: "octo/hello"},
		PullNumber: 7,
		HeadSHA:    "headsha",
	}
}

const sampleDiff = "diff --git a/main.go b/main.go\n@@ -1,1 +1,2 @@\n context\n+added\n"

func TestRun_DisallowedRepo_SilentSkip(t *testing.T) {
	cfg := testConfig()
	cfg.AllowedRepositories = []string{"other/repo"}
	host := &fakeHost{}
	o := newOrchestrator(host, &fakeGateway{}, cfg)

	outcome := o.Run(context.Background(), prChangedEnvelope())

	assert.Equal(t, domain.OutcomeSkipped, outcome.Kind)
	assert.Equal(t, domain.SkipDisallowed, outcome.SkipReason)
	assert.Empty(t, host.summaries)
	assert.Empty(t, host.statuses)
}

func TestRun_RateLimited_PostsNoticeAndSkips(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerHour = 0
	host := &fakeHost{}
	o := newOrchestrator(host, &fakeGateway{}, cfg)

	outcome := o.Run(context.Background(), prChangedEnvelope())

	assert.Equal(t, domain.OutcomeSkipped, outcome.Kind)
	assert.Equal(t, domain.SkipRateLimited, outcome.SkipReason)
	require.Len(t, host.summaries, 1)
}

func TestRun_DuplicateRecent_SilentSkip(t *testing.T) {
	cfg := testConfig()
	host := &fakeHost{
		comments: []sourcehost.Comment{
			{Body: domain.MarkerReviewSummary + "\n<!-- timestamp: " + nowUnix() + " -->", CreatedAt: time.Now().Format(time.RFC3339)},
		},
	}
	o := newOrchestrator(host, &fakeGateway{}, cfg)

	outcome := o.Run(context.Background(), prChangedEnvelope())

	assert.Equal(t, domain.OutcomeSkipped, outcome.Kind)
	assert.Equal(t, domain.SkipDuplicateRecent, outcome.SkipReason)
	assert.Empty(t, host.summaries)
}

func TestRun_RecordsJobHistoryAndMetrics(t *testing.T) {
	cfg := testConfig()
	host := &fakeHost{
		pr:      sourcehost.PullRequest{Number: 7, HeadSHA: "headsha", BaseSHA: "basesha"},
		compare: sampleDiff,
	}
	gw := &fakeGateway{reply: "No significant issues found. Good job!"}
	history := jobs.NewHistory(10)
	metrics := observability.NewMetrics()
	o := orchestrator.New(orchestrator.Deps{
		Host:      host,
		Admission: admission.New(cfg),
		Dedup:     dedup.NewOracle(host),
		Fetcher:   diffproc.NewFetcher(host, ""),
		Gateway:   gw,
		Publisher: publisher.New(host, testLogger()),
		Config:    cfg,
		Logger:    testLogger(),
		History:   history,
		Metrics:   metrics,
	})

	outcome := o.Run(context.Background(), prChangedEnvelope())

	require.Equal(t, domain.OutcomeNoIssues, outcome.Kind)
	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.Total)
	assert.Equal(t, int64(1), snap.NoIssues)

	recent := history.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, "octo/hello", recent[0].Repo)
	assert.Equal(t, 7, recent[0].PullNumber)
	assert.Equal(t, domain.OutcomeNoIssues, recent[0].Outcome)
}

func TestRun_HappyPath_NoIssues(t *testing.T) {
	cfg := testConfig()
	host := &fakeHost{
		pr: sourcehost.PullRequest{Number: 7, HeadSHA: "headsha", BaseSHA: "basesha"},
		compare: sampleDiff,
	}
	gw := &fakeGateway{reply: "No significant issues found. Good job!"}
	o := newOrchestrator(host, gw, cfg)

	outcome := o.Run(context.Background(), prChangedEnvelope())

	assert.Equal(t, domain.OutcomeNoIssues, outcome.Kind)
	require.Len(t, host.summaries, 1)
	assert.Contains(t, host.summaries[0], publisher.SummaryNoIssues)
	require.NotEmpty(t, host.statuses)
	assert.Equal(t, sourcehost.StatusSuccess, host.statuses[len(host.statuses)-1])
}

func TestRun_HappyPath_WithFindings(t *testing.T) {
	cfg := testConfig()
	host := &fakeHost{
		pr:      sourcehost.PullRequest{Number: 7, HeadSHA: "headsha", BaseSHA: "basesha"},
		compare: sampleDiff,
	}
	reply := "**Location**: main.go:2\n**Issue Type**: Bug\n**Description**: broken\n**Severity**: High\n**Suggested Change**: fix it"
	gw := &fakeGateway{reply: reply}
	o := newOrchestrator(host, gw, cfg)

	outcome := o.Run(context.Background(), prChangedEnvelope())

	assert.Equal(t, domain.OutcomeFindings, outcome.Kind)
	require.Len(t, outcome.Findings, 1)
	require.Len(t, host.reviews, 1)
	assert.Equal(t, sourcehost.ReviewRequestChanges, host.reviews[0].Event)
	require.Len(t, host.summaries, 1)
}

func TestRun_SkipTrigger_InPRTitle_SkipsBeforeFetch(t *testing.T) {
	cfg := testConfig()
	host := &fakeHost{
		pr: sourcehost.PullRequest{Number: 7, HeadSHA: "headsha", BaseSHA: "basesha", Title: "fix: typo [skip code-review]"},
	}
	gw := &fakeGateway{reply: "No significant issues found. Good job!"}
	o := newOrchestrator(host, gw, cfg)

	outcome := o.Run(context.Background(), prChangedEnvelope())

	assert.Equal(t, domain.OutcomeSkipped, outcome.Kind)
	assert.Equal(t, domain.SkipDisallowed, outcome.SkipReason)
	assert.Empty(t, host.summaries)
}

func TestRun_SkipTrigger_InPRBody_SkipsBeforeFetch(t *testing.T) {
	cfg := testConfig()
	host := &fakeHost{
		pr: sourcehost.PullRequest{Number: 7, HeadSHA: "headsha", BaseSHA: "basesha", Body: "minor change\n[skip-code-review]"},
	}
	gw := &fakeGateway{reply: "No significant issues found. Good job!"}
	o := newOrchestrator(host, gw, cfg)

	outcome := o.Run(context.Background(), prChangedEnvelope())

	assert.Equal(t, domain.OutcomeSkipped, outcome.Kind)
	assert.Equal(t, domain.SkipDisallowed, outcome.SkipReason)
}

func TestRun_FindingLine_ClampedToVisibleDiffRange(t *testing.T) {
	cfg := testConfig()
	host := &fakeHost{
		pr:      sourcehost.PullRequest{Number: 7, HeadSHA: "headsha", BaseSHA: "basesha"},
		compare: sampleDiff,
	}
	reply := "**Location**: main.go:50\n**Issue Type**: Bug\n**Description**: broken\n**Severity**: High\n**Suggested Change**: fix it"
	gw := &fakeGateway{reply: reply}
	o := newOrchestrator(host, gw, cfg)

	outcome := o.Run(context.Background(), prChangedEnvelope())

	require.Len(t, outcome.Findings, 1)
	assert.Equal(t, 2, outcome.Findings[0].LineStart)
	assert.Equal(t, 2, outcome.Findings[0].LineEnd)
}

func TestRun_DiffTooLarge_SkipsWithNotice(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDiffSize = 4
	cfg.LargeDiffMultiplier = 1
	host := &fakeHost{
		pr:      sourcehost.PullRequest{Number: 7, HeadSHA: "headsha", BaseSHA: "basesha"},
		compare: sampleDiff,
	}
	o := newOrchestrator(host, &fakeGateway{}, cfg)

	outcome := o.Run(context.Background(), prChangedEnvelope())

	assert.Equal(t, domain.OutcomeSkipped, outcome.Kind)
	assert.Equal(t, domain.SkipDiffTooLarge, outcome.SkipReason)
	require.Len(t, host.summaries, 1)
}

func TestRun_FetchFailure_TransientClassifiedAndReported(t *testing.T) {
	cfg := testConfig()
	host := &fakeHost{
		pr:    sourcehost.PullRequest{Number: 7, HeadSHA: "headsha", BaseSHA: "basesha"},
		cmpErr: &llmhttp.Error{Type: llmhttp.ErrTypeServiceUnavailable, Message: "down"},
	}
	o := newOrchestrator(host, &fakeGateway{}, cfg)

	outcome := o.Run(context.Background(), prChangedEnvelope())

	assert.Equal(t, domain.OutcomeFailed, outcome.Kind)
	assert.Equal(t, domain.FailureProviderUnavailable, outcome.FailureKind)
	require.NotEmpty(t, host.summaries)
	assert.Contains(t, host.summaries[len(host.summaries)-1], "Rate limit exceeded")
	assert.Equal(t, sourcehost.StatusError, host.statuses[len(host.statuses)-1])
}

func TestRun_GetPullRequestFailure_Permanent(t *testing.T) {
	cfg := testConfig()
	host := &fakeHost{
		prErr: &llmhttp.Error{Type: llmhttp.ErrTypeAuthentication, Message: "bad creds"},
	}
	o := newOrchestrator(host, &fakeGateway{}, cfg)

	outcome := o.Run(context.Background(), prChangedEnvelope())

	assert.Equal(t, domain.OutcomeFailed, outcome.Kind)
	assert.Equal(t, domain.FailurePermanent, outcome.FailureKind)
	require.NotEmpty(t, host.summaries)
	assert.Contains(t, host.summaries[len(host.summaries)-1], "Authentication configuration issue")
}

func TestRun_PromptingTimeout_ReportsTimeoutMessage(t *testing.T) {
	cfg := testConfig()
	host := &fakeHost{
		pr:      sourcehost.PullRequest{Number: 7, HeadSHA: "headsha", BaseSHA: "basesha"},
		compare: sampleDiff,
	}
	gw := &fakeGateway{err: context.DeadlineExceeded}
	o := newOrchestrator(host, gw, cfg)

	outcome := o.Run(context.Background(), prChangedEnvelope())

	assert.Equal(t, domain.OutcomeFailed, outcome.Kind)
	assert.Equal(t, domain.FailureTimeout, outcome.FailureKind)
	assert.Contains(t, host.summaries[len(host.summaries)-1], "Request timeout")
}

func TestRun_PromptingInternalBug_ReportsGenericMessage(t *testing.T) {
	cfg := testConfig()
	host := &fakeHost{
		pr:      sourcehost.PullRequest{Number: 7, HeadSHA: "headsha", BaseSHA: "basesha"},
		compare: sampleDiff,
	}
	gw := &fakeGateway{err: errors.New("boom")}
	o := newOrchestrator(host, gw, cfg)

	outcome := o.Run(context.Background(), prChangedEnvelope())

	assert.Equal(t, domain.OutcomeFailed, outcome.Kind)
	assert.Equal(t, domain.FailureInternalBug, outcome.FailureKind)
	assert.Contains(t, host.summaries[len(host.summaries)-1], "unexpected error")
}

func TestRun_MentionComment_UsesFetchedHeadSHA(t *testing.T) {
	cfg := testConfig()
	host := &fakeHost{
		pr:      sourcehost.PullRequest{Number: 7, HeadSHA: "resolved-sha", BaseSHA: "basesha"},
		compare: sampleDiff,
	}
	gw := &fakeGateway{reply: "No significant issues found. Good job!"}
	o := newOrchestrator(host, gw, cfg)

	env := domain.EventEnvelope{
		EventKind:   domain.EventMentionComment,
		Action:      "created",
		Repo:        domain.Repo{Owner: "octo", Name: "hello", FullName: "octo/hello"},
		PullNumber:  7,
		CommentBody: "@codecritics please review",
		Commenter:   "octocat",
	}

	outcome := o.Run(context.Background(), env)

	assert.Equal(t, domain.OutcomeNoIssues, outcome.Kind)
	require.NotEmpty(t, host.statuses)
}

func TestRun_JobDeadline_BoundsContext(t *testing.T) {
	cfg := testConfig()
	cfg.JobDeadlineSeconds = 60
	host := &fakeHost{
		pr:      sourcehost.PullRequest{Number: 7, HeadSHA: "headsha", BaseSHA: "basesha"},
		compare: sampleDiff,
	}
	gw := &blockingGateway{}
	o := newOrchestrator(host, gw, cfg)

	parentCtx, cancel := context.WithCancel(context.Background())
	cancel() // parent already cancelled

	outcome := o.Run(parentCtx, prChangedEnvelope())

	assert.Equal(t, domain.OutcomeFailed, outcome.Kind)
}

type blockingGateway struct{}

func (b *blockingGateway) Complete(ctx context.Context, diff string, fromSHA, toSHA string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func nowUnix() string {
	return strconv.FormatInt(time.Now().Unix(), 10)
}
