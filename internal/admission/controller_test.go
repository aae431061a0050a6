package admission_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/codecritics/codecritics/internal/admission"
	"github.com/codecritics/codecritics/internal/config"
	"github.com/codecritics/codecritics/internal/domain"
)

func baseConfig() config.Config {
	return config.Config{RateLimitPerHour: 2}
}

func TestController_AllowListRejectsUnknownRepo(t *testing.T) {
	cfg := baseConfig()
	cfg.AllowedRepositories = []string{"alice/repo"}
	c := admission.New(cfg)

	decision := c.Admit(domain.EventEnvelope{Repo: domain.Repo{FullName: "mallory/repo"}})

	assert.False(t, decision.Admitted)
	assert.Equal(t, domain.SkipDisallowed, decision.Reason)
}

func TestController_AllowsWhenNoAllowListConfigured(t *testing.T) {
	c := admission.New(baseConfig())

	decision := c.Admit(domain.EventEnvelope{Repo: domain.Repo{FullName: "anyone/repo"}})

	assert.True(t, decision.Admitted)
}

func TestController_RateLimitsPerKey(t *testing.T) {
	c := admission.New(baseConfig())
	env := domain.EventEnvelope{Repo: domain.Repo{FullName: "alice/repo"}}

	assert.True(t, c.Admit(env).Admitted)
	assert.True(t, c.Admit(env).Admitted)

	decision := c.Admit(env)
	assert.False(t, decision.Admitted)
	assert.Equal(t, domain.SkipRateLimited, decision.Reason)
}

func TestController_AutoAndManualHaveIndependentBudgets(t *testing.T) {
	c := admission.New(baseConfig())
	auto := domain.EventEnvelope{Repo: domain.Repo{FullName: "alice/repo"}, EventKind: domain.EventPRChanged}
	manual := domain.EventEnvelope{Repo: domain.Repo{FullName: "alice/repo"}, EventKind: domain.EventMentionComment}

	assert.True(t, c.Admit(auto).Admitted)
	assert.True(t, c.Admit(auto).Admitted)
	assert.False(t, c.Admit(auto).Admitted)

	// Manual budget is untouched by the auto exhaustion above.
	assert.True(t, c.Admit(manual).Admitted)
}

func TestController_CheckSkip(t *testing.T) {
	c := admission.New(baseConfig())

	result := c.CheckSkip(admission.SkipInput{PRTitle: "fix bug [skip code-review]"})

	assert.True(t, result.ShouldSkip)
}
