package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecritics/codecritics/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		GitHubToken:         "gh-token",
		WebhookSecret:       "webhook-secret",
		AIProvider:          config.ProviderGemini,
		GeminiAPIKey:        "gemini-key",
		MaxDiffSize:         100000,
		LargeDiffMultiplier: 1.5,
		LogLevel:            "info",
		Port:                3000,
		ReviewFailureStatus: config.FailureStatusFailure,
	}
}

func TestValidate_RequiresGitHubTokenAndWebhookSecret(t *testing.T) {
	cfg := validConfig()
	cfg.GitHubToken = ""
	cfg.WebhookSecret = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_TOKEN")
	assert.Contains(t, err.Error(), "WEBHOOK_SECRET")
}

func TestValidate_RequiresAtLeastOneProviderKey(t *testing.T) {
	cfg := validConfig()
	cfg.GeminiAPIKey = ""
	cfg.DeepSeekAPIKey = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestValidate_RejectsUnknownProvider(t *testing.T) {
	cfg := validConfig()
	cfg.AIProvider = "chatgpt"

	err := cfg.Validate()
	require.Error(t, err)
}

func TestValidate_AcceptsDeepSeekOnly(t *testing.T) {
	cfg := validConfig()
	cfg.AIProvider = config.ProviderDeepSeek
	cfg.GeminiAPIKey = ""
	cfg.DeepSeekAPIKey = "ds-key"

	assert.NoError(t, cfg.Validate())
}

func TestFallbackProvider(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, config.ProviderDeepSeek, cfg.FallbackProvider())

	cfg.AIProvider = config.ProviderDeepSeek
	assert.Equal(t, config.ProviderGemini, cfg.FallbackProvider())
}

func TestIsRepositoryAllowed_EmptyListAllowsAll(t *testing.T) {
	cfg := validConfig()
	assert.True(t, cfg.IsRepositoryAllowed("anyone/anything"))
}

func TestIsRepositoryAllowed_ChecksAllowList(t *testing.T) {
	cfg := validConfig()
	cfg.AllowedRepositories = []string{"alice/repo"}

	assert.True(t, cfg.IsRepositoryAllowed("alice/repo"))
	assert.False(t, cfg.IsRepositoryAllowed("mallory/repo"))
}

func TestExtensions_DefaultsWhenUnset(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, config.DefaultAllowedExtensions, cfg.Extensions())

	cfg.AllowedFileExtensions = []string{".go"}
	assert.Equal(t, []string{".go"}, cfg.Extensions())
}
