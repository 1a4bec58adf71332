// File: internal/capture/auth.go
package capture

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecap/api/schemas"
)

// Authenticator drives the login form to completion using a fixed selector contract.
type Authenticator struct {
	selectors schemas.AuthSelectors
	logger    *zap.Logger
}

// NewAuthenticator creates an Authenticator. Empty selectors fall back to
// schemas.DefaultAuthSelectors field by field.
func NewAuthenticator(selectors schemas.AuthSelectors, logger *zap.Logger) *Authenticator {
	if selectors.Identifier == "" {
		selectors.Identifier = schemas.DefaultAuthSelectors.Identifier
	}
	if selectors.Password == "" {
		selectors.Password = schemas.DefaultAuthSelectors.Password
	}
	if selectors.Submit == "" {
		selectors.Submit = schemas.DefaultAuthSelectors.Submit
	}
	return &Authenticator{
		selectors: selectors,
		logger:    logger.Named("authenticator"),
	}
}

// Selectors returns the effective selector contract.
func (a *Authenticator) Selectors() schemas.AuthSelectors {
	return a.selectors
}

// Login navigates to the target and submits the credentials. Any step failure
// aborts the flow and is returned as a classified *Error.
func (a *Authenticator) Login(ctx context.Context, page schemas.Page, req *schemas.CaptureRequest) error {
	// 1. Load the login page (DOMContentLoaded only).
	if err := withTimeout(ctx, req.Timeouts.Navigation, func(stepCtx context.Context) error {
		return page.Navigate(stepCtx, req.TargetURL)
	}); err != nil {
		return NewError(KindNavigation, fmt.Sprintf("navigate to %s", req.TargetURL), err)
	}
	a.logger.Debug("Login page loaded.", zap.String("url", req.TargetURL))

	// 2. The identifier field must exist, otherwise the page is not the expected form.
	if err := withTimeout(ctx, req.Timeouts.Selector, func(stepCtx context.Context) error {
		return page.WaitForSelector(stepCtx, a.selectors.Identifier)
	}); err != nil {
		return NewError(KindFormNotFound, fmt.Sprintf("wait for %s", a.selectors.Identifier), err)
	}

	// 3. Fill the fields. No bound, the elements already exist.
	if err := page.Fill(ctx, a.selectors.Identifier, req.Credentials.Username); err != nil {
		return NewError(KindFormNotFound, fmt.Sprintf("fill %s", a.selectors.Identifier), err)
	}
	if err := page.Fill(ctx, a.selectors.Password, req.Credentials.Password); err != nil {
		return NewError(KindFormNotFound, fmt.Sprintf("fill %s", a.selectors.Password), err)
	}

	// 4. Click and the resulting navigation share a single bound.
	if err := withTimeout(ctx, req.Timeouts.Submit, func(stepCtx context.Context) error {
		return page.ClickAndWaitForNavigation(stepCtx, a.selectors.Submit)
	}); err != nil {
		return NewError(KindSubmission, fmt.Sprintf("submit via %s", a.selectors.Submit), err)
	}
	a.logger.Debug("Login form submitted.")

	// 5. Fixed settle delay for post-login client-side rendering.
	if err := page.Sleep(ctx, req.Timeouts.Settle); err != nil {
		return NewError(KindSubmission, "settle after login", err)
	}
	return nil
}

// withTimeout runs fn under a deadline of d. A non-positive d means no extra bound.
func withTimeout(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	if d <= 0 {
		return fn(ctx)
	}
	stepCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(stepCtx)
}
