// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecap/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ensure Session implements the interface
var _ schemas.Page = (*Session)(nil)

// Session is one page inside an isolated browser context of a dedicated browser
// process. It is owned by a single invocation.
type Session struct {
	id     string
	logger *zap.Logger

	// ctx is the page target context; browserCtx owns the browser process.
	ctx         context.Context
	browserCtx  context.Context
	allocCancel context.CancelFunc

	closeOnce sync.Once
	closeErr  error
}

// ID returns the unique ID of the session.
func (s *Session) ID() string {
	return s.id
}

// Navigate loads url and returns once the document fired DOMContentLoaded.
// Subresources may still be loading.
func (s *Session) Navigate(ctx context.Context, url string) error {
	opCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	loaded := s.awaitDOMContentLoaded(opCtx)

	err := chromedp.Run(opCtx, chromedp.ActionFunc(func(c context.Context) error {
		var res page.NavigateReturns
		if err := cdp.Execute(c, page.CommandNavigate, page.Navigate(url), &res); err != nil {
			return err
		}
		if res.ErrorText != "" {
			return fmt.Errorf("page load error %s", res.ErrorText)
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}

	if err := waitFor(opCtx, loaded); err != nil {
		return fmt.Errorf("waiting for DOMContentLoaded: %w", err)
	}
	s.logger.Debug("Document loaded.", zap.String("url", url))
	return nil
}

// WaitForSelector blocks until an element matching selector is in the DOM.
func (s *Session) WaitForSelector(ctx context.Context, selector string) error {
	opCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	if err := chromedp.Run(opCtx, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("wait for %q: %w", selector, err)
	}
	return nil
}

const fillScript = `(function(sel, value) {
	const el = document.querySelector(sel);
	if (!el) {
		return false;
	}
	el.focus();
	const desc = Object.getOwnPropertyDescriptor(Object.getPrototypeOf(el), 'value');
	if (desc && desc.set) {
		desc.set.call(el, value);
	} else {
		el.value = value;
	}
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})(%s, %s)`

// Fill replaces the value of the first element matching selector and fires the
// input and change events. It fails immediately when nothing matches.
func (s *Session) Fill(ctx context.Context, selector, value string) error {
	opCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	script, err := buildFillScript(selector, value)
	if err != nil {
		return err
	}

	var found bool
	if err := chromedp.Run(opCtx, chromedp.Evaluate(script, &found)); err != nil {
		return fmt.Errorf("fill %q: %w", selector, err)
	}
	if !found {
		return fmt.Errorf("fill %q: no element matches selector", selector)
	}
	return nil
}

func buildFillScript(selector, value string) (string, error) {
	quotedSel, err := json.Marshal(selector)
	if err != nil {
		return "", fmt.Errorf("encode selector: %w", err)
	}
	quotedVal, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("encode value: %w", err)
	}
	return fmt.Sprintf(fillScript, quotedSel, quotedVal), nil
}

// ClickAndWaitForNavigation clicks the element matching selector and waits for
// the next document to fire DOMContentLoaded. The context bounds both.
func (s *Session) ClickAndWaitForNavigation(ctx context.Context, selector string) error {
	opCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	// Listen before clicking so a fast transition is not missed.
	loaded := s.awaitDOMContentLoaded(opCtx)

	if err := chromedp.Run(opCtx, chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %q: %w", selector, err)
	}
	if err := waitFor(opCtx, loaded); err != nil {
		return fmt.Errorf("waiting for navigation after click: %w", err)
	}
	return nil
}

// Sleep pauses for d unless ctx or the session ends first.
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	opCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-opCtx.Done():
		return opCtx.Err()
	}
}

// FullScreenshot captures the entire scrollable page as PNG.
func (s *Session) FullScreenshot(ctx context.Context) ([]byte, error) {
	opCtx, cancel := CombineContext(s.ctx, ctx)
	defer cancel()

	var buf []byte
	// Quality 100 selects PNG encoding.
	if err := chromedp.Run(opCtx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("full page screenshot: %w", err)
	}
	return buf, nil
}

// awaitDOMContentLoaded returns a channel closed on the first DOMContentLoaded
// event seen after the call. The listener is removed when ctx is done.
func (s *Session) awaitDOMContentLoaded(ctx context.Context) <-chan struct{} {
	fired := make(chan struct{})
	var once sync.Once
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if _, ok := ev.(*page.EventDomContentEventFired); ok {
			once.Do(func() { close(fired) })
		}
	})
	return fired
}

func waitFor(ctx context.Context, ch <-chan struct{}) error {
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close releases the page and its browser context, then the browser, then the
// process. Every step runs even if an earlier one failed.
func (s *Session) close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		var errs []error

		if err := runBounded(ctx, func() error { return chromedp.Cancel(s.ctx) }); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
		if err := runBounded(ctx, func() error { return chromedp.Cancel(s.browserCtx) }); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		if err := runBounded(ctx, func() error {
			s.allocCancel()
			return nil
		}); err != nil {
			errs = append(errs, fmt.Errorf("stop browser process: %w", err))
		}

		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}
