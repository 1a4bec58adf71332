// File: cmd/main_test.go
package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecap/api/schemas"
	"github.com/xkilldash9x/pagecap/internal/capture"
	"github.com/xkilldash9x/pagecap/internal/config"
	"github.com/xkilldash9x/pagecap/internal/observability"
	"github.com/xkilldash9x/pagecap/internal/secrets"
	"github.com/xkilldash9x/pagecap/internal/service"
)

// resetForTest isolates a test from the working directory, the environment's
// logger settings and the global logger of earlier tests.
func resetForTest(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("PAGECAP_LOGGER_LEVEL", "fatal")
	observability.ResetForTest()
	t.Cleanup(observability.ResetForTest)
}

// executeCommand runs a fresh command tree and returns its stdout.
func executeCommand(t *testing.T, root *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// stubPage succeeds at every step, or fails the form wait when formMissing is set.
type stubPage struct {
	formMissing bool
}

func (p stubPage) ID() string { return "stub" }
func (p stubPage) Navigate(context.Context, string) error { return nil }
func (p stubPage) Fill(context.Context, string, string) error { return nil }
func (p stubPage) Sleep(context.Context, time.Duration) error { return nil }
func (p stubPage) ClickAndWaitForNavigation(context.Context, string) error {
	return nil
}
func (p stubPage) FullScreenshot(context.Context) ([]byte, error) {
	return []byte("png"), nil
}
func (p stubPage) WaitForSelector(context.Context, string) error {
	if p.formMissing {
		return context.DeadlineExceeded
	}
	return nil
}

type stubSessions struct {
	page stubPage
}

func (s *stubSessions) Open(context.Context) (schemas.Page, error) { return s.page, nil }
func (s *stubSessions) Close(context.Context, schemas.Page) {}

type memoryStore struct{}

func (memoryStore) Scheme() string { return "mem" }
func (memoryStore) Put(context.Context, string, string, []byte, string) error {
	return nil
}

// stubFactory builds components around the stubs and remembers the config it was given.
type stubFactory struct {
	formMissing bool
	err         error
	got         *config.Config
}

func (f *stubFactory) Create(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*service.Components, error) {
	f.got = cfg
	if f.err != nil {
		return nil, f.err
	}
	sessions := &stubSessions{page: stubPage{formMissing: f.formMissing}}
	return &service.Components{
		Config:   cfg,
		Sessions: sessions,
		Store:    memoryStore{},
		Secrets:  secrets.StaticProvider{Creds: schemas.Credentials{Username: "u", Password: "p"}},
		Workflow: capture.NewWorkflow(sessions, memoryStore{}, logger),
	}, nil
}

type stubHistory struct {
	records []schemas.CaptureRecord
	err     error
	limit   int
	cleaned bool
}

func (h *stubHistory) Create(ctx context.Context, cfg *config.Config) (historyReader, func(), error) {
	if h.err != nil {
		return nil, nil, h.err
	}
	return h, func() { h.cleaned = true }, nil
}

func (h *stubHistory) RecentCaptures(ctx context.Context, limit int) ([]schemas.CaptureRecord, error) {
	h.limit = limit
	return h.records, nil
}

var errFactory = errors.New("factory exploded")
