// File: internal/capture/workflow.go
package capture

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecap/api/schemas"
)

const (
	defaultCloseTimeout  = 15 * time.Second
	defaultRecordTimeout = 10 * time.Second
)

// Workflow runs one authenticated capture per call: open a session, log in,
// screenshot, persist, and always release the session.
type Workflow struct {
	sessions     schemas.SessionManager
	store        schemas.ArtifactStore
	recorder     schemas.CaptureRecorder
	auth         *Authenticator
	logger       *zap.Logger
	now          func() time.Time
	closeTimeout time.Duration
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithRecorder enables the per-invocation history record.
func WithRecorder(r schemas.CaptureRecorder) Option {
	return func(w *Workflow) { w.recorder = r }
}

// WithClock replaces time.Now, used for artifact keys and elapsed time.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// WithSelectors overrides the login form selectors.
func WithSelectors(s schemas.AuthSelectors) Option {
	return func(w *Workflow) { w.auth = NewAuthenticator(s, w.logger) }
}

// WithCloseTimeout bounds session teardown.
func WithCloseTimeout(d time.Duration) Option {
	return func(w *Workflow) {
		if d > 0 {
			w.closeTimeout = d
		}
	}
}

// NewWorkflow creates a Workflow. The session manager and store are shared across
// invocations; sessions they hand out are not.
func NewWorkflow(sessions schemas.SessionManager, store schemas.ArtifactStore, logger *zap.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		sessions:     sessions,
		store:        store,
		logger:       logger.Named("capture"),
		now:          time.Now,
		closeTimeout: defaultCloseTimeout,
	}
	w.auth = NewAuthenticator(schemas.DefaultAuthSelectors, w.logger)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run executes exactly one capture attempt. On failure the returned error is a
// *Error; a result is only returned when the artifact was durably stored.
func (w *Workflow) Run(ctx context.Context, req *schemas.CaptureRequest) (result *schemas.CaptureResult, err error) {
	invocationID := uuid.NewString()
	start := w.now()
	logger := w.logger.With(zap.String("invocation_id", invocationID))

	var diagnosticKey string
	defer func() {
		w.record(ctx, logger, invocationID, req, start, result, diagnosticKey, err)
	}()

	if req == nil {
		return nil, NewError(KindConfiguration, "validate request", fmt.Errorf("request is nil"))
	}
	if missing := req.MissingFields(); len(missing) > 0 {
		err = NewError(KindConfiguration, "validate request", fmt.Errorf("missing required fields: %s", strings.Join(missing, ", ")))
		logger.Error("Capture request is incomplete.", zap.Strings("missing", missing))
		return nil, err
	}

	logger.Info("Starting capture.", zap.String("target", req.TargetURL), zap.String("bucket", req.Bucket))

	page, openErr := w.sessions.Open(ctx)
	if openErr != nil {
		err = NewError(KindEngineLaunch, "open session", openErr)
		logger.Error("Failed to open browser session.", zap.Error(err))
		return nil, err
	}
	logger = logger.With(zap.String("session_id", page.ID()))

	defer func() {
		// Teardown must run even when the invocation context is already cancelled.
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.closeTimeout)
		defer cancel()
		w.sessions.Close(closeCtx, page)
		logger.Debug("Browser session released.")
	}()

	png, captureErr := w.authenticateAndCapture(ctx, page, req)
	if captureErr != nil {
		err = captureErr
		logger.Error("Capture failed.", zap.Error(err), zap.Stringer("kind", KindOf(err)))
		if KindOf(err).triggersDiagnostic() {
			diagnosticKey = w.captureDiagnostic(ctx, logger, page, req)
		}
		return nil, err
	}

	key := ArtifactKey(req.Prefix, w.now())
	if putErr := withTimeout(ctx, req.Timeouts.Upload, func(stepCtx context.Context) error {
		return w.store.Put(stepCtx, req.Bucket, key, png, schemas.ContentTypePNG)
	}); putErr != nil {
		err = NewError(KindUpload, fmt.Sprintf("put %s", key), putErr)
		logger.Error("Failed to store artifact.", zap.Error(err), zap.String("key", key))
		return nil, err
	}

	elapsed := w.now().Sub(start)
	result = &schemas.CaptureResult{
		OK:             true,
		Key:            key,
		Artifact:       schemas.ArtifactURI(w.store.Scheme(), req.Bucket, key),
		ElapsedSeconds: schemas.RoundSeconds(elapsed),
		InvocationID:   invocationID,
	}
	logger.Info("Capture stored.",
		zap.String("artifact", result.Artifact),
		zap.Int("bytes", len(png)),
		zap.Duration("elapsed", elapsed),
	)
	return result, nil
}

func (w *Workflow) authenticateAndCapture(ctx context.Context, page schemas.Page, req *schemas.CaptureRequest) ([]byte, error) {
	if err := w.auth.Login(ctx, page, req); err != nil {
		return nil, err
	}

	var png []byte
	if err := withTimeout(ctx, req.Timeouts.Screenshot, func(stepCtx context.Context) error {
		var shotErr error
		png, shotErr = page.FullScreenshot(stepCtx)
		return shotErr
	}); err != nil {
		return nil, NewError(KindCapture, "full page screenshot", err)
	}
	return png, nil
}

// captureDiagnostic stores one best-effort screenshot of the failing page. It
// never returns an error and reports the stored key, or "" when nothing was stored.
func (w *Workflow) captureDiagnostic(ctx context.Context, logger *zap.Logger, page schemas.Page, req *schemas.CaptureRequest) string {
	diagCtx := context.WithoutCancel(ctx)

	var png []byte
	if err := withTimeout(diagCtx, req.Timeouts.Screenshot, func(stepCtx context.Context) error {
		var shotErr error
		png, shotErr = page.FullScreenshot(stepCtx)
		return shotErr
	}); err != nil {
		logger.Warn("Diagnostic capture skipped.", zap.Error(NewError(KindDiagnosticCapture, "screenshot", err)))
		return ""
	}

	key := FailureArtifactKey(req.Prefix, w.now())
	if err := withTimeout(diagCtx, req.Timeouts.Upload, func(stepCtx context.Context) error {
		return w.store.Put(stepCtx, req.Bucket, key, png, schemas.ContentTypePNG)
	}); err != nil {
		logger.Warn("Diagnostic capture not stored.", zap.Error(NewError(KindDiagnosticCapture, fmt.Sprintf("put %s", key), err)))
		return ""
	}

	logger.Info("Diagnostic capture stored.", zap.String("key", key))
	return key
}

func (w *Workflow) record(ctx context.Context, logger *zap.Logger, invocationID string, req *schemas.CaptureRequest, start time.Time, result *schemas.CaptureResult, diagnosticKey string, runErr error) {
	if w.recorder == nil {
		return
	}

	rec := schemas.CaptureRecord{
		InvocationID:   invocationID,
		StartedAt:      start.UTC(),
		DiagnosticKey:  diagnosticKey,
		ElapsedSeconds: schemas.RoundSeconds(w.now().Sub(start)),
	}
	if req != nil {
		rec.TargetURL = req.TargetURL
	}
	if result != nil {
		rec.OK = true
		rec.Artifact = result.Artifact
		rec.ElapsedSeconds = result.ElapsedSeconds
	}
	if runErr != nil {
		rec.ErrorKind = KindOf(runErr).String()
		rec.ErrorMessage = runErr.Error()
	}

	recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultRecordTimeout)
	defer cancel()
	if err := w.recorder.RecordCapture(recCtx, rec); err != nil {
		logger.Warn("Failed to record capture history.", zap.Error(err))
	}
}
