package llmgateway

import (
	"context"

	"github.com/codecritics/codecritics/internal/adapter/llm/gemini"
	"github.com/codecritics/codecritics/internal/observability"
)

// geminiModel is the fixed model id used for reviews. It is not
// exposed as configuration; the External Interfaces contract fixes
// AI_PROVIDER to a provider name, not a model.
const geminiModel = "gemini-2.0-flash"

type geminiBackend struct {
	client *gemini.HTTPClient
}

func newGeminiBackend(apiKey string, logger observability.Logger) *geminiBackend {
	client := gemini.NewHTTPClient(apiKey, geminiModel)
	client.SetRetryConfig(retryPolicy())
	if logger != nil {
		client.SetLogger(providerLoggerAdapter{logger})
	}
	return &geminiBackend{client: client}
}

// complete ignores seed: Gemini's API has no deterministic-sampling
// parameter equivalent to OpenAI's seed field.
func (b *geminiBackend) complete(ctx context.Context, systemPrompt, userContent string, maxTokens int, temperature float64, seed uint64) (string, error) {
	resp, err := b.client.Call(ctx, userContent, gemini.CallOptions{
		Temperature:  temperature,
		MaxTokens:    maxTokens,
		SystemPrompt: systemPrompt,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
