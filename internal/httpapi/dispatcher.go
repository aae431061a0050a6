// Package httpapi exposes the service's HTTP surface: webhook intake,
// health, and static metadata. Handlers are built on stdlib net/http,
// following the same constructor-injected dependency style
// internal/adapter/cli.Dependencies uses rather than a global router
// or framework.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/codecritics/codecritics/internal/config"
	"github.com/codecritics/codecritics/internal/domain"
	"github.com/codecritics/codecritics/internal/jobs"
	"github.com/codecritics/codecritics/internal/observability"
	"github.com/codecritics/codecritics/internal/publisher"
	"github.com/codecritics/codecritics/internal/security"
	"github.com/codecritics/codecritics/internal/webhook"
)

// maxBodyBytes bounds an inbound webhook delivery.
const maxBodyBytes = 10 << 20 // 10 MiB

// Reviewer is the subset of *orchestrator.Orchestrator the dispatcher
// drives — kept as an interface so the async launch path can be
// exercised with a fake in tests without constructing a full pipeline.
type Reviewer interface {
	Run(ctx context.Context, env domain.EventEnvelope) domain.ReviewOutcome
}

// Dispatcher handles POST /api/webhooks.
type Dispatcher struct {
	cfg       config.Config
	logger    observability.Logger
	runner    *jobs.Runner
	reviewer  Reviewer
	publisher *publisher.Publisher
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(cfg config.Config, logger observability.Logger, runner *jobs.Runner, reviewer Reviewer, pub *publisher.Publisher) *Dispatcher {
	return &Dispatcher{cfg: cfg, logger: logger, runner: runner, reviewer: reviewer, publisher: pub}
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}

// ServeHTTP implements the dispatcher's single route: signature check,
// payload validation, then a kind-specific response. PRChanged and
// MentionComment events claim a job slot before the response is
// written, so a saturated queue can still surface as 429 rather than
// always ACKing — the job's own outcome past that point is never
// visible to this request.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	body, err := readLimited(r, maxBodyBytes)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body too large or unreadable"})
		return
	}

	signatureHeader := r.Header.Get("x-hub-signature-256")
	if !security.VerifySignature(body, signatureHeader, d.cfg.WebhookSecret) {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid or missing signature"})
		return
	}

	eventHeader := r.Header.Get("x-github-event")
	deliveryID := r.Header.Get("x-github-delivery")

	env, validationErrs := webhook.Validate(eventHeader, body)
	if len(validationErrs) > 0 {
		details := make([]string, len(validationErrs))
		for i, e := range validationErrs {
			details[i] = e.Error()
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payload", Details: details})
		return
	}
	env.DeliveryID = deliveryID

	switch env.EventKind {
	case domain.EventPing:
		writeJSON(w, http.StatusOK, acceptedResponse{Message: "pong"})
		return
	case domain.EventPRChanged, domain.EventMentionComment:
		if !d.launch(r.Context(), env) {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: "job queue full, try again later"})
			return
		}
		writeJSON(w, http.StatusAccepted, acceptedResponse{Message: "accepted"})
	default:
		writeJSON(w, http.StatusAccepted, acceptedResponse{Message: "not handled"})
	}

	d.logger.LogInfo(r.Context(), "webhook received", observability.Fields{
		"deliveryId": deliveryID,
		"eventKind":  string(env.EventKind),
		"repo":       env.Repo.FullName,
		"comment":    webhook.SanitizeForLogging(env).CommentBody,
	})
}

// launch claims the job slot for env before ACKing so a saturated
// queue is visible to the caller, then runs the review on a detached
// goroutine. It reports false when the queue was full: no job was
// started and the caller should return 429 instead of ACKing. A
// KeyBusy claim still returns true — the Dedup Oracle, not this layer,
// decides whether an in-flight duplicate needs a fresh review.
func (d *Dispatcher) launch(ctx context.Context, env domain.EventEnvelope) bool {
	key := domain.ReviewJob{Repo: env.Repo, PullNumber: env.PullNumber, HeadSHA: env.HeadSHA}.Key()

	result := d.runner.Go(key, func(ctx context.Context) {
		d.reviewer.Run(ctx, env)
	})

	switch result {
	case jobs.KeyBusy:
		d.logger.LogInfo(context.Background(), "job coalesced: key already in flight", observability.Fields{"repo": env.Repo.FullName})
	case jobs.QueueFull:
		d.logger.LogWarning(context.Background(), "job queue full, event dropped", observability.Fields{"repo": env.Repo.FullName})
		target := publisher.Target{Owner: env.Repo.Owner, Repo: env.Repo.Name, PullNumber: env.PullNumber, HeadSHA: env.HeadSHA}
		if err := d.publisher.PostSummary(ctx, target, domain.RateLimitNotice); err != nil {
			d.logger.LogWarning(context.Background(), "failed to post rate-limit notice", observability.Fields{"repo": env.Repo.FullName})
		}
		return false
	}
	return true
}

func readLimited(r *http.Request, limit int64) ([]byte, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("httpapi: request body exceeds %d bytes", limit)
	}
	return body, nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
