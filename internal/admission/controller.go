// Package admission implements the allow-list and rate-limit checks
// performed before any outbound work begins for a webhook event.
package admission

import (
	"github.com/codecritics/codecritics/internal/config"
	"github.com/codecritics/codecritics/internal/domain"
	"github.com/codecritics/codecritics/internal/usecase/skip"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Admitted bool
	Reason   domain.SkipReason
}

// SkipInput carries the PR metadata the skip-trigger check consults;
// it is optional context supplied once the PR snapshot is available.
type SkipInput struct {
	CommitMessages []string
	PRTitle        string
	PRDescription  string
}

// Controller enforces the allow-list, skip-trigger, and per-repository
// rate-limit checks. It is safe for concurrent use.
type Controller struct {
	cfg     config.Config
	limiter *RateLimiter
}

// New constructs a Controller backed by a sliding-window rate limiter
// sized from cfg.
func New(cfg config.Config) *Controller {
	return &Controller{
		cfg:     cfg,
		limiter: NewRateLimiter(cfg.RateLimitPerHour),
	}
}

// Admit runs the allow-list and rate-limit checks for an envelope.
// The skip-trigger check is run separately via CheckSkip once PR
// metadata has been fetched, since it is not present on the envelope
// itself.
func (c *Controller) Admit(env domain.EventEnvelope) Decision {
	if !c.cfg.IsRepositoryAllowed(env.Repo.FullName) {
		return Decision{Admitted: false, Reason: domain.SkipDisallowed}
	}

	key := rateLimitKey(env.Repo.FullName, env.Trigger())
	if !c.limiter.Allow(key) {
		return Decision{Admitted: false, Reason: domain.SkipRateLimited}
	}

	return Decision{Admitted: true}
}

// CheckSkip reports whether the PR's commit messages/title/body carry
// a skip trigger such as "[skip code-review]".
func (c *Controller) CheckSkip(input SkipInput) skip.CheckResult {
	return skip.Check(skip.CheckRequest{
		CommitMessages: input.CommitMessages,
		PRTitle:        input.PRTitle,
		PRDescription:  input.PRDescription,
	})
}

func rateLimitKey(fullName string, trigger domain.TriggerKind) string {
	if trigger == domain.TriggerManual {
		return fullName + "#manual"
	}
	return fullName
}
