// Command codecriticsd runs the webhook-driven automated code review
// service: it authenticates inbound GitHub webhooks, fetches the
// changed diff for a pull request, sends it to an LLM provider, and
// publishes the findings back as a PR review and commit status.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codecritics/codecritics/internal/adapter/cli"
	llmhttp "github.com/codecritics/codecritics/internal/adapter/llm/http"
	"github.com/codecritics/codecritics/internal/admission"
	"github.com/codecritics/codecritics/internal/config"
	"github.com/codecritics/codecritics/internal/dedup"
	"github.com/codecritics/codecritics/internal/diffproc"
	"github.com/codecritics/codecritics/internal/httpapi"
	"github.com/codecritics/codecritics/internal/jobs"
	"github.com/codecritics/codecritics/internal/llmgateway"
	"github.com/codecritics/codecritics/internal/observability"
	"github.com/codecritics/codecritics/internal/orchestrator"
	"github.com/codecritics/codecritics/internal/publisher"
	"github.com/codecritics/codecritics/internal/sourcehost"
)

// buildVersion is overridden at build time via -ldflags "-X main.buildVersion=...".
var buildVersion = "dev"

func main() {
	if err := run(); err != nil {
		log.Println(llmhttp.RedactURLSecrets(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	logger := observability.NewJSONLogger(observability.ParseLevel(cfg.LogLevel), cfg.ProductionMode)

	host := sourcehost.NewGitHubClient(cfg.GitHubToken)
	if cfg.SourceHostBaseURL != "" {
		host.SetBaseURL(cfg.SourceHostBaseURL)
	}

	gateway, err := llmgateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("llm gateway init failed: %w", err)
	}

	history := jobs.NewHistory(jobs.DefaultHistorySize)
	metrics := observability.NewMetrics()

	deps := orchestrator.Deps{
		Host:      host,
		Admission: admission.New(cfg),
		Dedup:     dedup.NewOracle(host),
		Fetcher:   diffproc.NewFetcher(host, cfg.SourceHostDomain),
		Gateway:   gateway,
		Publisher: publisher.New(host, logger),
		Config:    cfg,
		Logger:    logger,
		History:   history,
		Metrics:   metrics,
	}
	reviewer := orchestrator.New(deps)
	runner := jobs.NewRunner(maxConcurrentJobs(cfg))

	root := cli.NewRootCommand(cli.Dependencies{
		Config:       cfg,
		IdentityHost: host,
		Version:      buildVersion,
		NewServer: func(cfg config.Config) cli.Server {
			return buildServer(cfg, logger, runner, reviewer, host, gateway, deps.Publisher, history, metrics)
		},
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

// buildServer wires the three HTTP surfaces (webhook intake, health,
// metadata) onto a single mux, matching the endpoints Info advertises.
func buildServer(cfg config.Config, logger observability.Logger, runner *jobs.Runner, reviewer httpapi.Reviewer, host sourcehost.Client, gateway *llmgateway.Gateway, pub *publisher.Publisher, history *jobs.History, metrics *observability.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/api/webhooks", httpapi.NewDispatcher(cfg, logger, runner, reviewer, pub))
	mux.Handle("/health", httpapi.NewHealth(host, gateway, cfg))
	mux.Handle("/api/info", httpapi.NewInfo(buildVersion, history, metrics))

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func maxConcurrentJobs(cfg config.Config) int {
	if cfg.MaxConcurrentJobs > 0 {
		return cfg.MaxConcurrentJobs
	}
	return jobs.DefaultMaxConcurrentJobs
}
