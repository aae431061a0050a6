package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration exclusively from the process environment
// using viper's automatic-env binding. There is no config file: the
// external interface is a fixed table of environment variables. It
// fails fast if a required variable is missing or a value cannot be
// parsed into its expected shape.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)

	setDefaults(v)

	cfg := Config{
		GitHubToken:           v.GetString("GITHUB_TOKEN"),
		WebhookSecret:         v.GetString("WEBHOOK_SECRET"),
		AIProvider:            AIProvider(strings.ToLower(v.GetString("AI_PROVIDER"))),
		GeminiAPIKey:          v.GetString("GEMINI_API_KEY"),
		DeepSeekAPIKey:        v.GetString("DEEPSEEK_API_KEY"),
		MaxDiffSize:           v.GetInt("MAX_DIFF_SIZE"),
		LargeDiffMultiplier:   v.GetFloat64("LARGE_DIFF_MULTIPLIER"),
		LogLevel:              strings.ToLower(v.GetString("LOG_LEVEL")),
		AllowedRepositories:   splitCSV(v.GetString("ALLOWED_REPOSITORIES")),
		AllowedFileExtensions: splitCSV(v.GetString("ALLOWED_FILE_EXTENSIONS")),
		Port:                  v.GetInt("PORT"),
		ReviewFailureStatus:   ReviewFailureStatus(strings.ToLower(v.GetString("REVIEW_FAILURE_STATUS"))),
		SourceHostBaseURL:     v.GetString("SOURCE_HOST_BASE_URL"),
		SourceHostDomain:      v.GetString("SOURCE_HOST_DOMAIN"),
		JobDeadlineSeconds:    v.GetInt("JOB_DEADLINE_SECONDS"),
		MaxConcurrentJobs:     v.GetInt("MAX_CONCURRENT_JOBS"),
		RateLimitPerHour:      v.GetInt("RATE_LIMIT_PER_HOUR"),
		ProductionMode:        v.GetBool("PRODUCTION_MODE"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("AI_PROVIDER", string(ProviderGemini))
	v.SetDefault("MAX_DIFF_SIZE", 100000)
	v.SetDefault("LARGE_DIFF_MULTIPLIER", 1.5)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("PORT", 3000)
	v.SetDefault("REVIEW_FAILURE_STATUS", string(FailureStatusFailure))
	v.SetDefault("SOURCE_HOST_BASE_URL", "https://api.github.com")
	v.SetDefault("SOURCE_HOST_DOMAIN", "github.com")
	v.SetDefault("JOB_DEADLINE_SECONDS", 60)
	v.SetDefault("MAX_CONCURRENT_JOBS", 64)
	v.SetDefault("RATE_LIMIT_PER_HOUR", 10)
	v.SetDefault("PRODUCTION_MODE", false)
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
