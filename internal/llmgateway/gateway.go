// Package llmgateway selects a configured LLM provider and exposes the
// single operation the review pipeline needs from it: send a fixed
// system prompt plus the diff under review, get back raw reply text.
// It wraps each provider's HTTPClient.Call behind a provider-polymorphic
// complete(messages) -> text seam with primary/fallback provider
// selection, so callers never branch on which provider is active.
package llmgateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	llmhttp "github.com/codecritics/codecritics/internal/adapter/llm/http"
	"github.com/codecritics/codecritics/internal/config"
	"github.com/codecritics/codecritics/internal/determinism"
	"github.com/codecritics/codecritics/internal/domain"
	"github.com/codecritics/codecritics/internal/observability"
)

// ErrProviderUnavailable is returned by New when neither the primary
// nor the fallback provider could be constructed (typically: neither
// API key is set).
var ErrProviderUnavailable = errors.New("llmgateway: no configured provider could be constructed")

const (
	defaultCallTimeout = 60 * time.Second
	minOutputTokens    = 2000
	reviewTemperature  = 0.1

	retryMaxAttempts     = 3
	retryInitialBackoff  = 1 * time.Second
	retryMaxBackoff      = 8 * time.Second
	retryBackoffMultiple = 2.0
)

func retryPolicy() llmhttp.RetryConfig {
	return llmhttp.RetryConfig{
		MaxRetries:     retryMaxAttempts,
		InitialBackoff: retryInitialBackoff,
		MaxBackoff:     retryMaxBackoff,
		Multiplier:     retryBackoffMultiple,
	}
}

// backend is the polymorphic seam between the Gateway and a concrete
// provider's HTTP client, letting Gateway stay ignorant of the wire
// format each provider speaks.
type backend interface {
	complete(ctx context.Context, systemPrompt, userContent string, maxTokens int, temperature float64, seed uint64) (string, error)
}

// Gateway exposes the review pipeline's LLM boundary. It picks one
// active backend at construction time; a Gateway never switches
// providers mid-process — a new one is built at startup if the
// process is restarted with different configuration.
type Gateway struct {
	provider  config.AIProvider
	active    backend
	snapshots []domain.ProviderHealth
}

// New selects cfg.AIProvider as the primary backend, falling back to
// the other supported provider if the primary's API key is absent.
// Returns ErrProviderUnavailable if neither can be constructed. Both
// attempts (primary and fallback) are recorded as domain.ProviderHealth
// snapshots regardless of which one wins, so /health can report the
// unused provider's status too.
func New(cfg config.Config, logger observability.Logger) (*Gateway, error) {
	fallback := cfg.FallbackProvider()
	primaryBackend, primarySnap := attempt(cfg.AIProvider, cfg, logger)
	fallbackBackend, fallbackSnap := attempt(fallback, cfg, logger)
	snapshots := []domain.ProviderHealth{primarySnap, fallbackSnap}

	if primaryBackend != nil {
		return &Gateway{provider: cfg.AIProvider, active: primaryBackend, snapshots: snapshots}, nil
	}
	if fallbackBackend != nil {
		return &Gateway{provider: fallback, active: fallbackBackend, snapshots: snapshots}, nil
	}
	return nil, ErrProviderUnavailable
}

// attempt tries to construct a backend for p and always returns a
// domain.ProviderHealth snapshot describing the outcome, even on
// failure.
func attempt(p config.AIProvider, cfg config.Config, logger observability.Logger) (backend, domain.ProviderHealth) {
	checkedAt := time.Now()
	b, ok := construct(p, cfg, logger)
	if ok {
		return b, domain.ProviderHealth{Name: string(p), Constructible: true, LastCheckedAt: checkedAt}
	}
	lastErr := "unsupported provider"
	if p == config.ProviderGemini || p == config.ProviderDeepSeek {
		lastErr = fmt.Sprintf("missing API key for provider %q", p)
	}
	return nil, domain.ProviderHealth{Name: string(p), Constructible: false, LastError: lastErr, LastCheckedAt: checkedAt}
}

func construct(p config.AIProvider, cfg config.Config, logger observability.Logger) (backend, bool) {
	key := cfg.APIKeyFor(p)
	if key == "" {
		return nil, false
	}
	switch p {
	case config.ProviderGemini:
		return newGeminiBackend(key, logger), true
	case config.ProviderDeepSeek:
		return newDeepSeekBackend(key), true
	default:
		return nil, false
	}
}

// ActiveProvider reports which provider currently backs this Gateway,
// for the health endpoint's static configuration echo.
func (g *Gateway) ActiveProvider() config.AIProvider {
	return g.provider
}

// ProviderSnapshots reports the construction outcome for both the
// primary and fallback providers, for the health endpoint's C13
// Provider Health Snapshot diagnostic.
func (g *Gateway) ProviderSnapshots() []domain.ProviderHealth {
	return g.snapshots
}

// Complete sends the fixed system prompt plus one user message
// containing diff fenced as a diff code block, and returns the raw
// reply text. The call is bounded by defaultCallTimeout, nested inside
// whatever deadline ctx already carries (the job's overall deadline).
//
// fromSHA/toSHA seed the call deterministically via
// determinism.GenerateSeed, so re-running the same commit range
// produces a reproducible reply on backends that support it. Backends
// without seed support (Gemini) simply ignore the value.
func (g *Gateway) Complete(ctx context.Context, diff string, fromSHA, toSHA string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultCallTimeout)
	defer cancel()

	userContent := fmt.Sprintf("%s\n\n```diff\n%s\n```", userPreamble, diff)
	seed := determinism.GenerateSeed(fromSHA, toSHA)

	return g.active.complete(ctx, systemPrompt, userContent, minOutputTokens, reviewTemperature, seed)
}

// ClassifyError maps a transport-level error onto the coarser
// FailureKind taxonomy the Review Orchestrator's state machine
// transitions on.
func ClassifyError(ctx context.Context, err error) domain.FailureKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
		return domain.FailureTimeout
	}

	var httpErr *llmhttp.Error
	if errors.As(err, &httpErr) {
		switch httpErr.Type {
		case llmhttp.ErrTypeTimeout:
			return domain.FailureTimeout
		case llmhttp.ErrTypeAuthentication, llmhttp.ErrTypeInvalidRequest,
			llmhttp.ErrTypeModelNotFound, llmhttp.ErrTypeContentFiltered:
			return domain.FailurePermanent
		case llmhttp.ErrTypeRateLimit, llmhttp.ErrTypeServiceUnavailable, llmhttp.ErrTypeUnknown:
			return domain.FailureTransient
		}
	}
	return domain.FailureInternalBug
}

// providerLoggerAdapter lets a single observability.Logger back the
// narrower llmhttp.Logger seam each provider's HTTPClient expects,
// routing its LogError calls through the redaction-aware
// LogProviderError instead of a second, unredacted path.
type providerLoggerAdapter struct {
	logger observability.Logger
}

func (a providerLoggerAdapter) LogRequest(ctx context.Context, req llmhttp.RequestLog) {
	a.logger.LogRequest(ctx, req)
}

func (a providerLoggerAdapter) LogResponse(ctx context.Context, resp llmhttp.ResponseLog) {
	a.logger.LogResponse(ctx, resp)
}

func (a providerLoggerAdapter) LogError(ctx context.Context, errLog llmhttp.ErrorLog) {
	a.logger.LogProviderError(ctx, errLog)
}

var _ llmhttp.Logger = providerLoggerAdapter{}
