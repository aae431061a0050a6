package diffproc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	llmhttp "github.com/codecritics/codecritics/internal/adapter/llm/http"
)

var diffHTTPClient = &http.Client{Timeout: 15 * time.Second}

var diffRetryConfig = llmhttp.RetryConfig{
	MaxRetries:     2,
	InitialBackoff: 500 * time.Millisecond,
	MaxBackoff:     4 * time.Second,
	Multiplier:     2.0,
}

// fetchURL performs a validated GET and returns the response body as
// text, retrying transient failures under the same backoff policy the
// LLM gateway uses.
func fetchURL(ctx context.Context, rawURL string) (string, error) {
	var body string
	err := llmhttp.RetryWithBackoff(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return &llmhttp.Error{Type: llmhttp.ErrTypeUnknown, Message: err.Error(), Retryable: false}
		}

		resp, err := diffHTTPClient.Do(req)
		if err != nil {
			return &llmhttp.Error{Type: llmhttp.ErrTypeTimeout, Message: err.Error(), Retryable: true}
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return &llmhttp.Error{
				Type:       llmhttp.ErrTypeServiceUnavailable,
				Message:    fmt.Sprintf("diff fetch returned HTTP %d", resp.StatusCode),
				StatusCode: resp.StatusCode,
				Retryable:  resp.StatusCode >= 500,
			}
		}

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return &llmhttp.Error{Type: llmhttp.ErrTypeTimeout, Message: err.Error(), Retryable: true}
		}
		body = string(data)
		return nil
	}, diffRetryConfig)

	if err != nil {
		return "", err
	}
	return body, nil
}
