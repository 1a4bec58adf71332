// File: internal/service/factory.go
package service

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecap/api/schemas"
	"github.com/xkilldash9x/pagecap/internal/artifact"
	"github.com/xkilldash9x/pagecap/internal/browser"
	"github.com/xkilldash9x/pagecap/internal/capture"
	"github.com/xkilldash9x/pagecap/internal/config"
	"github.com/xkilldash9x/pagecap/internal/secrets"
	"github.com/xkilldash9x/pagecap/internal/store"
)

// ComponentFactory builds the components of a deployment. The CLI and the
// Lambda entry point depend on this interface so their wiring can be replaced in tests.
type ComponentFactory interface {
	Create(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error)
}

// concreteFactory is the production implementation of the ComponentFactory.
type concreteFactory struct{}

// NewComponentFactory creates a new production-ready component factory.
func NewComponentFactory() ComponentFactory {
	return &concreteFactory{}
}

// Create wires configuration to the storage, secret, history and browser clients.
func (f *concreteFactory) Create(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is nil")
	}
	components := &Components{Config: cfg}

	// Ensure cleanup happens if initialization fails midway.
	var initializationErr error
	defer func() {
		if initializationErr != nil {
			logger.Warn("Initialization failed, shutting down partially created components.", zap.Error(initializationErr))
			components.Shutdown()
		}
	}()

	// 1. AWS configuration, only when a component needs it.
	var awsCfg aws.Config
	if cfg.Storage.Backend == config.BackendS3 || cfg.Auth.SecretID != "" {
		loaded, err := loadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			initializationErr = err
			return nil, initializationErr
		}
		awsCfg = loaded
		logger.Debug("AWS configuration loaded.", zap.String("region", awsCfg.Region))
	}

	// 2. Artifact store
	artifactStore, err := newArtifactStore(cfg, awsCfg, logger)
	if err != nil {
		initializationErr = err
		return nil, initializationErr
	}
	components.Store = artifactStore
	logger.Debug("Artifact store initialized.", zap.String("backend", cfg.Storage.Backend))

	// 3. Credentials
	switch {
	case cfg.Auth.SecretID != "":
		client := secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
			if cfg.AWS.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
			}
		})
		components.Secrets = secrets.NewSecretsManagerProvider(client, logger)
		logger.Debug("Secrets Manager provider initialized.")
	case cfg.Auth.HasDirectCredentials():
		components.Secrets = secrets.StaticProvider{Creds: schemas.Credentials{
			Username: cfg.Auth.Username,
			Password: cfg.Auth.Password,
		}}
		logger.Debug("Using configured credentials.")
	default:
		logger.Warn("No credentials configured; captures will fail validation.")
	}

	// 4. Capture history (optional)
	if cfg.Database.URL != "" {
		dbPool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			initializationErr = fmt.Errorf("failed to create database connection pool: %w", err)
			return nil, initializationErr
		}
		// Add to components immediately so the deferred Shutdown can close it if later steps fail.
		components.DBPool = dbPool

		history, err := store.New(ctx, dbPool, logger)
		if err != nil {
			initializationErr = fmt.Errorf("failed to initialize capture history: %w", err)
			return nil, initializationErr
		}
		if err := history.EnsureSchema(ctx); err != nil {
			initializationErr = err
			return nil, initializationErr
		}
		components.History = history
		logger.Debug("Capture history initialized.")
	}

	// 5. Browser session manager
	components.Sessions = browser.NewManager(cfg.Browser, logger)
	logger.Debug("Browser session manager initialized.")

	// 6. Workflow
	opts := []capture.Option{
		capture.WithSelectors(cfg.Target.Selectors),
		capture.WithCloseTimeout(cfg.Browser.CloseTimeout),
	}
	if components.History != nil {
		opts = append(opts, capture.WithRecorder(components.History))
	}
	components.Workflow = capture.NewWorkflow(components.Sessions, components.Store, logger, opts...)

	logger.Info("All capture components initialized successfully.")
	return components, nil
}

func loadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return awsCfg, nil
}

func newArtifactStore(cfg *config.Config, awsCfg aws.Config, logger *zap.Logger) (schemas.ArtifactStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendS3:
		client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.AWS.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.AWS.Endpoint)
			}
			o.UsePathStyle = cfg.AWS.UsePathStyle
		})
		return artifact.NewS3Store(client, logger), nil
	case config.BackendAzure:
		client, err := artifact.NewAzureClient(cfg.Storage.Azure)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize azure blob client: %w", err)
		}
		return artifact.NewAzureStore(client, logger), nil
	case config.BackendFile:
		return artifact.NewFileStore(cfg.Storage.File.Dir, logger), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", cfg.Storage.Backend)
	}
}
