// File: internal/service/handler.go
package service

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecap/api/schemas"
)

// Capturer runs one capture invocation.
type Capturer interface {
	Capture(ctx context.Context) (*schemas.CaptureResult, error)
}

// ensure Components implements the interface
var _ Capturer = (*Components)(nil)

// Handler adapts a Capturer to the Lambda runtime. The trigger event only marks
// the start of an invocation; its content is not interpreted.
type Handler struct {
	capturer Capturer
	logger   *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(capturer Capturer, logger *zap.Logger) *Handler {
	return &Handler{capturer: capturer, logger: logger.Named("handler")}
}

// Handle is registered with lambda.Start.
func (h *Handler) Handle(ctx context.Context, event json.RawMessage) (*schemas.CaptureResult, error) {
	logger := h.logger
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		logger = logger.With(zap.String("request_id", lc.AwsRequestID))
	}
	if deadline, ok := ctx.Deadline(); ok {
		logger = logger.With(zap.Time("deadline", deadline))
	}
	logger.Info("Invocation received.", zap.Int("event_bytes", len(event)))

	result, err := h.capturer.Capture(ctx)
	if err != nil {
		logger.Error("Invocation failed.", zap.Error(err))
		return nil, err
	}
	logger.Info("Invocation succeeded.", zap.String("artifact", result.Artifact))
	return result, nil
}
