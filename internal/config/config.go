// Package config loads and validates the process-wide configuration for
// the review service from environment variables.
package config

import (
	"fmt"
	"strings"
)

// AIProvider names a supported LLM backend.
type AIProvider string

const (
	ProviderGemini   AIProvider = "gemini"
	ProviderDeepSeek AIProvider = "deepseek"
)

// ReviewFailureStatus controls what commit status a finding-bearing
// review is reported with.
type ReviewFailureStatus string

const (
	FailureStatusFailure ReviewFailureStatus = "failure"
	FailureStatusNeutral ReviewFailureStatus = "neutral"
)

// Config is the fully validated, process-wide configuration. It is
// loaded once at startup by Load and passed by value or pointer to
// every collaborator that needs it; nothing reads the environment
// directly outside this package.
type Config struct {
	// GitHubToken authenticates the source-host client. Required.
	GitHubToken string

	// WebhookSecret is the HMAC-SHA256 shared secret used to verify
	// inbound webhook deliveries. Required.
	WebhookSecret string

	// AIProvider selects the primary LLM backend; the other supported
	// provider (if its API key is present) is used as fallback.
	AIProvider AIProvider

	// GeminiAPIKey / DeepSeekAPIKey are provider credentials. At least
	// one must be set.
	GeminiAPIKey   string
	DeepSeekAPIKey string

	// MaxDiffSize is the byte threshold at which the extension filter
	// kicks in (see internal/diffproc).
	MaxDiffSize int

	// LargeDiffMultiplier scales MaxDiffSize to determine when a
	// filtered diff is still too large to review.
	LargeDiffMultiplier float64

	// LogLevel gates the verbosity of internal/observability.Logger.
	LogLevel string

	// AllowedRepositories is an optional allow-list of "owner/name".
	// Empty means all repositories are admitted.
	AllowedRepositories []string

	// AllowedFileExtensions overrides the default extension allow-list
	// used by the diff processor's chunk filter.
	AllowedFileExtensions []string

	// Port is the HTTP listener port.
	Port int

	// ReviewFailureStatus decides the commit status posted for a
	// finding-bearing review: "neutral" or "failure".
	ReviewFailureStatus ReviewFailureStatus

	// SourceHostBaseURL is the API base URL for the source host.
	SourceHostBaseURL string

	// SourceHostDomain is the public web domain used to validate
	// caller-supplied diff URLs (SSRF defense).
	SourceHostDomain string

	// JobDeadlineSeconds bounds a single review job.
	JobDeadlineSeconds int

	// MaxConcurrentJobs bounds the job runner's worker pool.
	MaxConcurrentJobs int

	// RateLimitPerHour is the default sliding-window budget per key.
	RateLimitPerHour int

	// ProductionMode gates wholesale provider-body redaction.
	ProductionMode bool
}

// DefaultAllowedExtensions is the built-in extension allow-list used
// unless ALLOWED_FILE_EXTENSIONS overrides it.
var DefaultAllowedExtensions = []string{
	".ts", ".js", ".jsx", ".tsx", ".py", ".java", ".cpp", ".c", ".go",
	".rs", ".php", ".rb", ".cs", ".swift", ".kt", ".scala", ".sh",
	".sql", ".json", ".yaml", ".yml", ".md",
}

// Validate checks that required fields are present and well-formed.
// It is called by Load but is exported so tests can construct a
// Config by hand and validate it the same way the loader does.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.GitHubToken) == "" {
		missing = append(missing, "GITHUB_TOKEN")
	}
	if strings.TrimSpace(c.WebhookSecret) == "" {
		missing = append(missing, "WEBHOOK_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing required environment variable(s): %s", strings.Join(missing, ", "))
	}

	if c.AIProvider != ProviderGemini && c.AIProvider != ProviderDeepSeek {
		return fmt.Errorf("config: AI_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderDeepSeek, c.AIProvider)
	}

	if strings.TrimSpace(c.GeminiAPIKey) == "" && strings.TrimSpace(c.DeepSeekAPIKey) == "" {
		return fmt.Errorf("config: at least one of GEMINI_API_KEY or DEEPSEEK_API_KEY must be set")
	}

	if c.MaxDiffSize <= 0 {
		return fmt.Errorf("config: MAX_DIFF_SIZE must be positive, got %d", c.MaxDiffSize)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT must be between 1 and 65535, got %d", c.Port)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: LOG_LEVEL must be one of debug|info|warn|error, got %q", c.LogLevel)
	}
	if c.ReviewFailureStatus != FailureStatusFailure && c.ReviewFailureStatus != FailureStatusNeutral {
		return fmt.Errorf("config: REVIEW_FAILURE_STATUS must be %q or %q, got %q", FailureStatusFailure, FailureStatusNeutral, c.ReviewFailureStatus)
	}

	return nil
}

// FallbackProvider returns the provider that is not the primary,
// consulted when the primary cannot be constructed.
func (c Config) FallbackProvider() AIProvider {
	if c.AIProvider == ProviderGemini {
		return ProviderDeepSeek
	}
	return ProviderGemini
}

// APIKeyFor returns the credential configured for the given provider,
// which may be empty if that provider was never configured.
func (c Config) APIKeyFor(p AIProvider) string {
	if p == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.DeepSeekAPIKey
}

// IsRepositoryAllowed reports whether fullName passes the allow-list
// check. An empty allow-list admits every repository.
func (c Config) IsRepositoryAllowed(fullName string) bool {
	if len(c.AllowedRepositories) == 0 {
		return true
	}
	for _, allowed := range c.AllowedRepositories {
		if strings.EqualFold(allowed, fullName) {
			return true
		}
	}
	return false
}

// Extensions returns the effective extension allow-list.
func (c Config) Extensions() []string {
	if len(c.AllowedFileExtensions) > 0 {
		return c.AllowedFileExtensions
	}
	return DefaultAllowedExtensions
}
