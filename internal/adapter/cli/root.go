package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codecritics/codecritics/internal/config"
	"github.com/codecritics/codecritics/internal/sourcehost"
)

// ErrVersionRequested indicates the user requested the CLI version and no further work should be done.
var ErrVersionRequested = errors.New("version requested")

// Server is the collaborator that answers HTTP traffic for the serve
// command. *http.Server satisfies it; tests can substitute a fake to
// assert Serve was invoked with the expected address.
type Server interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// IdentityChecker is the collaborator the healthcheck command uses to
// confirm the configured token is live.
type IdentityChecker interface {
	ValidateIdentity(ctx context.Context) (sourcehost.Identity, error)
}

// Arguments encapsulates IO writers injected from the host process.
type Arguments struct {
	OutWriter io.Writer
	ErrWriter io.Writer
}

// Dependencies captures the collaborators for the CLI. NewServer is
// deferred rather than eagerly constructed so that flags such as
// --version or check-skip never pay the cost of wiring the source-host
// client, LLM gateway, and job runner.
type Dependencies struct {
	Args          Arguments
	Config        config.Config
	NewServer     func(cfg config.Config) Server
	IdentityHost  IdentityChecker
	Version       string
	ShutdownExtra time.Duration
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "codecriticsd",
		Short: "Webhook-driven automated code review service",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	outWriter := deps.Args.OutWriter
	if outWriter == nil {
		outWriter = os.Stdout
	}
	errWriter := deps.Args.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	root.SetOut(outWriter)
	root.SetErr(errWriter)

	root.AddCommand(serveCommand(deps))
	root.AddCommand(healthcheckCommand(deps))
	root.AddCommand(checkSkipCommand())

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.PreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

// serveCommand starts the HTTP server and blocks until the caller's
// context is cancelled, then drains in-flight requests before returning.
func serveCommand(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook listener",
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.NewServer == nil {
				return fmt.Errorf("serve: no server factory configured")
			}
			srv := deps.NewServer(deps.Config)

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serve: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
				shutdownTimeout := deps.ShutdownExtra
				if shutdownTimeout <= 0 {
					shutdownTimeout = 10 * time.Second
				}
				ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					return fmt.Errorf("serve: shutdown: %w", err)
				}
				return nil
			}
		},
	}
}

// healthcheckCommand runs the same identity check the /health endpoint
// performs, exiting non-zero on failure. It is meant for container
// liveness probes that would rather exec a binary than curl a port.
func healthcheckCommand(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "healthcheck",
		Short: "Verify the configured source-host credentials are live",
		RunE: func(cmd *cobra.Command, args []string) error {
			if deps.IdentityHost == nil {
				return fmt.Errorf("healthcheck: no identity host configured")
			}
			identity, err := deps.IdentityHost.ValidateIdentity(cmd.Context())
			if err != nil {
				return fmt.Errorf("healthcheck: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ok: authenticated as %s\n", identity.Login)
			return nil
		},
	}
}
