// File: internal/artifact/azure.go
package artifact

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecap/api/schemas"
	"github.com/xkilldash9x/pagecap/internal/config"
)

// BufferUploader is the subset of the azblob client the store needs.
type BufferUploader interface {
	UploadBuffer(ctx context.Context, containerName string, blobName string, buffer []byte, o *azblob.UploadBufferOptions) (azblob.UploadBufferResponse, error)
}

// ensure AzureStore implements the interface
var _ schemas.ArtifactStore = (*AzureStore)(nil)

// AzureStore writes artifacts as block blobs. The bucket names the container.
type AzureStore struct {
	client BufferUploader
	logger *zap.Logger
}

// NewAzureClient builds an azblob client from a connection string, or from the
// account URL and the default Azure credential chain.
func NewAzureClient(cfg config.AzureConfig) (*azblob.Client, error) {
	if cfg.ConnectionString != "" {
		client, err := azblob.NewClientFromConnectionString(cfg.ConnectionString, nil)
		if err != nil {
			return nil, fmt.Errorf("azblob client from connection string: %w", err)
		}
		return client, nil
	}

	var cred azcore.TokenCredential
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("azure credential: %w", err)
	}
	client, err := azblob.NewClient(cfg.AccountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azblob client for %s: %w", cfg.AccountURL, err)
	}
	return client, nil
}

// NewAzureStore creates a store over an azblob client.
func NewAzureStore(client BufferUploader, logger *zap.Logger) *AzureStore {
	return &AzureStore{client: client, logger: logger.Named("azure_store")}
}

// Scheme returns "azblob".
func (s *AzureStore) Scheme() string { return "azblob" }

// Put uploads body as a block blob tagged with contentType.
func (s *AzureStore) Put(ctx context.Context, container, key string, body []byte, contentType string) error {
	_, err := s.client.UploadBuffer(ctx, container, key, body, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
	})
	if err != nil {
		return fmt.Errorf("azblob upload %s/%s: %w", container, key, err)
	}
	s.logger.Debug("Blob stored.", zap.String("container", container), zap.String("key", key), zap.Int("bytes", len(body)))
	return nil
}
