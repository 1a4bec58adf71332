// File: internal/service/components.go
package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecap/api/schemas"
	"github.com/xkilldash9x/pagecap/internal/capture"
	"github.com/xkilldash9x/pagecap/internal/config"
	"github.com/xkilldash9x/pagecap/internal/observability"
	"github.com/xkilldash9x/pagecap/internal/store"
)

const secretTimeout = 30 * time.Second

// Components holds the clients shared by every invocation of a deployment.
// They are built once by the factory and injected, never rebuilt per capture.
type Components struct {
	Config   *config.Config
	Sessions schemas.SessionManager
	Store    schemas.ArtifactStore
	Secrets  schemas.SecretProvider
	History  *store.Store
	Workflow *capture.Workflow
	DBPool   *pgxpool.Pool
}

// BuildRequest assembles the request of one invocation from configuration. A
// secret that cannot be resolved is reported as a configuration error.
func (c *Components) BuildRequest(ctx context.Context) (*schemas.CaptureRequest, error) {
	cfg := c.Config
	req := &schemas.CaptureRequest{
		TargetURL: cfg.Target.URL,
		Bucket:    cfg.Storage.Bucket,
		Prefix:    cfg.Storage.Prefix,
		Timeouts:  cfg.Timeouts.Schema(),
	}

	// Without a provider the credentials stay empty and the workflow reports them missing.
	if c.Secrets != nil {
		secretCtx, cancel := context.WithTimeout(ctx, secretTimeout)
		defer cancel()
		creds, err := c.Secrets.Credentials(secretCtx, cfg.Auth.SecretID)
		if err != nil {
			return nil, capture.NewError(capture.KindConfiguration, "resolve credentials", err)
		}
		req.Credentials = creds
	}
	return req, nil
}

// Capture runs one invocation: build the request, then execute the workflow.
func (c *Components) Capture(ctx context.Context) (*schemas.CaptureResult, error) {
	req, err := c.BuildRequest(ctx)
	if err != nil {
		return nil, err
	}
	return c.Workflow.Run(ctx, req)
}

// Shutdown releases the shared clients. Sessions are released per invocation
// by the workflow, so only the database pool remains.
func (c *Components) Shutdown() {
	logger := observability.GetLogger()
	logger.Debug("Beginning components shutdown sequence.")

	if c.DBPool != nil {
		c.DBPool.Close()
		logger.Debug("Database connection pool closed.")
	}

	logger.Info("All capture components shut down.", zap.Bool("history", c.History != nil))
}
