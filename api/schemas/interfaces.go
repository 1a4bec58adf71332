package schemas

import (
	"context"
	"time"
)

// -- Browser Interfaces --

// Page controls the single page of a capture session. Every method honours the
// deadline of the context it receives.
type Page interface {
	ID() string                                                      // Returns the unique ID of the session.
	Navigate(ctx context.Context, url string) error                  // Loads url and returns once DOMContentLoaded fired.
	WaitForSelector(ctx context.Context, selector string) error      // Waits until selector is present in the DOM.
	Fill(ctx context.Context, selector string, value string) error   // Replaces the value of an input element.
	ClickAndWaitForNavigation(ctx context.Context, sel string) error // Clicks and waits for the resulting document.
	Sleep(ctx context.Context, d time.Duration) error                // Pauses execution for a duration.
	FullScreenshot(ctx context.Context) ([]byte, error)              // Captures the whole page as PNG.
}

// SessionManager owns the lifecycle of one browser and one page per capture.
type SessionManager interface {
	// Open launches the browser and creates one browser context with one page.
	Open(ctx context.Context) (Page, error)
	// Close releases the page context and then the browser. Failures are logged,
	// never returned, so teardown cannot mask the error being propagated.
	Close(ctx context.Context, page Page)
}

// -- Storage Interfaces --

// ArtifactStore is durable blob storage addressed by bucket and key.
type ArtifactStore interface {
	// Scheme names the store in artifact URIs, e.g. "s3".
	Scheme() string
	// Put writes body under key in bucket, tagged with contentType.
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) error
}

// SecretProvider resolves a secret identifier to login credentials.
type SecretProvider interface {
	Credentials(ctx context.Context, secretID string) (Credentials, error)
}

// CaptureRecorder persists the history entry of an invocation.
type CaptureRecorder interface {
	RecordCapture(ctx context.Context, record CaptureRecord) error
}
