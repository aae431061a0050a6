package llmgateway

import (
	"context"

	"github.com/codecritics/codecritics/internal/adapter/llm/openai"
)

// DeepSeek exposes an OpenAI-compatible chat completion API, so the
// DeepSeek backend is the openai.HTTPClient pointed at a different
// base URL and model rather than a bespoke client.
const (
	deepSeekBaseURL = "https://api.deepseek.com"
	deepSeekModel   = "deepseek-chat"
)

type deepSeekBackend struct {
	client *openai.HTTPClient
}

func newDeepSeekBackend(apiKey string) *deepSeekBackend {
	client := openai.NewHTTPClient(apiKey, deepSeekModel)
	client.SetBaseURL(deepSeekBaseURL)
	client.SetRetryConfig(retryPolicy())
	return &deepSeekBackend{client: client}
}

// complete passes seed through to the DeepSeek API via its
// OpenAI-compatible seed parameter, so re-reviewing the same commit
// range samples deterministically.
func (b *deepSeekBackend) complete(ctx context.Context, systemPrompt, userContent string, maxTokens int, temperature float64, seed uint64) (string, error) {
	resp, err := b.client.Call(ctx, userContent, openai.CallOptions{
		Temperature:  temperature,
		Seed:         &seed,
		MaxTokens:    maxTokens,
		SystemPrompt: systemPrompt,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
