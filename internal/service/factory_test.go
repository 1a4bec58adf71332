package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecap/internal/artifact"
	"github.com/xkilldash9x/pagecap/internal/browser"
	"github.com/xkilldash9x/pagecap/internal/config"
	"github.com/xkilldash9x/pagecap/internal/secrets"
)

// Well-known Azurite development account.
const azuriteConnectionString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;" +
	"AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;" +
	"BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

// isolateAWS keeps the SDK away from the developer's shared config.
func isolateAWS(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
}

func TestCreate_NilConfig(t *testing.T) {
	_, err := NewComponentFactory().Create(context.Background(), nil, zap.NewNop())
	assert.Error(t, err)
}

func TestCreate_FileBackendWithDirectCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Backend = config.BackendFile
	cfg.Storage.File.Dir = t.TempDir()
	cfg.Auth.Username = "u"
	cfg.Auth.Password = "p"

	components, err := NewComponentFactory().Create(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer components.Shutdown()

	assert.IsType(t, &artifact.FileStore{}, components.Store)
	assert.IsType(t, secrets.StaticProvider{}, components.Secrets)
	assert.IsType(t, &browser.Manager{}, components.Sessions)
	assert.NotNil(t, components.Workflow)
	assert.Nil(t, components.History)
	assert.Nil(t, components.DBPool)

	req, err := components.BuildRequest(context.Background())
	require.NoError(t, err)
	assert.Empty(t, req.MissingFields())
}

func TestCreate_S3BackendWithSecret(t *testing.T) {
	isolateAWS(t)
	cfg := testConfig()
	cfg.Storage.Backend = config.BackendS3
	cfg.Auth.SecretID = "login"
	cfg.AWS.Region = "eu-west-1"
	cfg.AWS.Endpoint = "http://localhost:4566"
	cfg.AWS.UsePathStyle = true

	components, err := NewComponentFactory().Create(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer components.Shutdown()

	assert.IsType(t, &artifact.S3Store{}, components.Store)
	assert.IsType(t, &secrets.SecretsManagerProvider{}, components.Secrets)
	assert.Equal(t, "s3", components.Store.Scheme())
}

func TestCreate_AzureBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Backend = config.BackendAzure
	cfg.Storage.Azure.ConnectionString = azuriteConnectionString

	components, err := NewComponentFactory().Create(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer components.Shutdown()

	assert.IsType(t, &artifact.AzureStore{}, components.Store)
	assert.Nil(t, components.Secrets)
}

func TestCreate_Failures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr string
	}{
		{
			name:    "unsupported backend",
			mutate:  func(cfg *config.Config) { cfg.Storage.Backend = "gcs" },
			wantErr: "unsupported storage backend",
		},
		{
			name: "bad azure connection string",
			mutate: func(cfg *config.Config) {
				cfg.Storage.Backend = config.BackendAzure
				cfg.Storage.Azure.ConnectionString = "not-a-connection-string"
			},
			wantErr: "azure blob client",
		},
		{
			name: "bad database url",
			mutate: func(cfg *config.Config) {
				cfg.Storage.Backend = config.BackendFile
				cfg.Storage.File.Dir = t.TempDir()
				cfg.Database.URL = "postgres://localhost:notaport/pagecap"
			},
			wantErr: "failed to create database connection pool",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			components, err := NewComponentFactory().Create(context.Background(), cfg, zap.NewNop())
			require.Error(t, err)
			assert.Nil(t, components)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
