// internal/browser/context_utils.go
package browser

import (
	"context"
)

// CombineContext returns a context derived from primary, which carries the CDP
// target, that is also cancelled when secondary is done. Values come from
// primary only.
func CombineContext(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	combinedCtx, cancel := context.WithCancel(primary)

	go func() {
		select {
		case <-secondary.Done():
			cancel()
		case <-combinedCtx.Done():
		}
	}()

	return combinedCtx, cancel
}

// runBounded runs fn in its own goroutine and gives up waiting once ctx is done.
// chromedp blocks in places that ignore deadlines (the first Run allocates the
// browser), so the bound is enforced from the outside.
func runBounded(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
