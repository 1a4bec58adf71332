// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecap/api/schemas"
	"github.com/xkilldash9x/pagecap/internal/config"
)

const (
	defaultLaunchTimeout = 30 * time.Second
	defaultCloseTimeout  = 15 * time.Second
)

// ensure Manager implements the interface
var _ schemas.SessionManager = (*Manager)(nil)

// Manager launches a dedicated browser process per session. It holds no
// per-session state and is safe to share.
type Manager struct {
	cfg    config.BrowserConfig
	logger *zap.Logger
}

// NewManager creates a browser manager. Nothing is launched until Open.
func NewManager(cfg config.BrowserConfig, logger *zap.Logger) *Manager {
	if cfg.LaunchTimeout <= 0 {
		cfg.LaunchTimeout = defaultLaunchTimeout
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = defaultCloseTimeout
	}
	return &Manager{
		cfg:    cfg,
		logger: logger.Named("browser_manager"),
	}
}

type launchResult struct {
	pageCtx    context.Context
	pageCancel context.CancelFunc
	err        error
}

// Open starts the browser, creates an isolated browser context and opens one
// page in it. The browser outlives ctx; it is released by Close only.
func (m *Manager) Open(ctx context.Context) (schemas.Page, error) {
	id := uuid.New().String()
	logger := m.logger.With(zap.String("session_id", id[:8]))
	logger.Info("Launching browser.", zap.Duration("timeout", m.cfg.LaunchTimeout))

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), AllocatorOptions(m.cfg)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(logger.Sugar().Debugf),
	)

	launchCtx, cancelLaunch := context.WithTimeout(ctx, m.cfg.LaunchTimeout)
	defer cancelLaunch()

	done := make(chan launchResult, 1)
	go func() {
		// The first Run on a fresh context allocates the browser.
		if err := chromedp.Run(browserCtx); err != nil {
			done <- launchResult{err: fmt.Errorf("start browser: %w", err)}
			return
		}
		pageCtx, pageCancel := chromedp.NewContext(browserCtx, chromedp.WithNewBrowserContext())
		if err := chromedp.Run(pageCtx); err != nil {
			done <- launchResult{pageCancel: pageCancel, err: fmt.Errorf("create page: %w", err)}
			return
		}
		done <- launchResult{pageCtx: pageCtx, pageCancel: pageCancel}
	}()

	var res launchResult
	select {
	case res = <-done:
	case <-launchCtx.Done():
		res.err = fmt.Errorf("browser launch did not complete: %w", launchCtx.Err())
		go func() {
			if late := <-done; late.pageCancel != nil {
				late.pageCancel()
			}
		}()
	}

	if res.err != nil {
		if res.pageCancel != nil {
			res.pageCancel()
		}
		browserCancel()
		allocCancel()
		logger.Error("Browser launch failed.", zap.Error(res.err))
		return nil, res.err
	}

	logger.Info("Browser session ready.")
	return &Session{
		id:          id,
		logger:      logger,
		ctx:         res.pageCtx,
		browserCtx:  browserCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close releases the session. Failures are logged and never returned so that
// teardown cannot replace the error that ended the invocation.
func (m *Manager) Close(ctx context.Context, p schemas.Page) {
	s, ok := p.(*Session)
	if !ok || s == nil {
		m.logger.Error("Close called with a page this manager did not open.", zap.String("type", fmt.Sprintf("%T", p)))
		return
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.CloseTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.close(ctx); err != nil {
		s.logger.Warn("Browser teardown incomplete.", zap.Error(err))
		return
	}
	s.logger.Info("Browser closed.", zap.Duration("duration", time.Since(start)))
}
