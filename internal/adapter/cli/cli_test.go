package cli_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/codecritics/codecritics/internal/adapter/cli"
	"github.com/codecritics/codecritics/internal/config"
	"github.com/codecritics/codecritics/internal/sourcehost"
)

type fakeServer struct {
	addr        string
	served      chan struct{}
	shutdownErr error
	shutdownCh  chan struct{}
}

func newFakeServer() *fakeServer {
	return &fakeServer{served: make(chan struct{}, 1), shutdownCh: make(chan struct{}, 1)}
}

func (f *fakeServer) ListenAndServe() error {
	f.served <- struct{}{}
	<-f.shutdownCh
	return http.ErrServerClosed
}

func (f *fakeServer) Shutdown(ctx context.Context) error {
	f.shutdownCh <- struct{}{}
	return f.shutdownErr
}

type fakeIdentity struct {
	identity sourcehost.Identity
	err      error
}

func (f *fakeIdentity) ValidateIdentity(ctx context.Context) (sourcehost.Identity, error) {
	return f.identity, f.err
}

func TestServeCommand_StartsAndShutsDownOnCancel(t *testing.T) {
	srv := newFakeServer()
	root := cli.NewRootCommand(cli.Dependencies{
		Args:      cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
		NewServer: func(cfg config.Config) cli.Server { return srv },
		Version:   "v1.0.0",
	})
	root.SetArgs([]string{"serve"})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- root.ExecuteContext(ctx) }()

	select {
	case <-srv.served:
	case <-time.After(time.Second):
		t.Fatal("expected server to start")
	}
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("expected clean shutdown, got: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("expected serve command to return after context cancellation")
	}
}

func TestHealthcheckCommand_Success(t *testing.T) {
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Args:         cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		IdentityHost: &fakeIdentity{identity: sourcehost.Identity{Login: "codecritics-bot"}},
		Version:      "v1.0.0",
	})
	root.SetArgs([]string{"healthcheck"})

	if err := root.Execute(); err != nil {
		t.Fatalf("command execution failed: %v", err)
	}
	if !strings.Contains(buf.String(), "codecritics-bot") {
		t.Fatalf("expected output to mention identity, got: %q", buf.String())
	}
}

func TestHealthcheckCommand_Failure(t *testing.T) {
	root := cli.NewRootCommand(cli.Dependencies{
		Args:         cli.Arguments{OutWriter: io.Discard, ErrWriter: io.Discard},
		IdentityHost: &fakeIdentity{err: errors.New("bad credentials")},
		Version:      "v1.0.0",
	})
	root.SetArgs([]string{"healthcheck"})

	if err := root.Execute(); err == nil {
		t.Fatal("expected error from failed identity check")
	}
}

func TestVersionFlagEmitsVersion(t *testing.T) {
	buf := &bytes.Buffer{}
	root := cli.NewRootCommand(cli.Dependencies{
		Args:    cli.Arguments{OutWriter: buf, ErrWriter: io.Discard},
		Version: "v9.9.9",
	})

	root.SetArgs([]string{"--version"})
	err := root.Execute()
	if !errors.Is(err, cli.ErrVersionRequested) {
		t.Fatalf("expected version sentinel, got %v", err)
	}
	if strings.TrimSpace(buf.String()) != "v9.9.9" {
		t.Fatalf("unexpected version output: %q", buf.String())
	}
}
