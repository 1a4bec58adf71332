// File: internal/artifact/s3.go
package artifact

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecap/api/schemas"
)

// PutObjectAPI is the subset of the S3 client the store needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ensure S3Store implements the interface
var _ schemas.ArtifactStore = (*S3Store)(nil)

// S3Store writes artifacts as S3 objects.
type S3Store struct {
	client PutObjectAPI
	logger *zap.Logger
}

// NewS3Store creates a store over an S3 client.
func NewS3Store(client PutObjectAPI, logger *zap.Logger) *S3Store {
	return &S3Store{client: client, logger: logger.Named("s3_store")}
}

// Scheme returns "s3".
func (s *S3Store) Scheme() string { return "s3" }

// Put uploads body as a single object. A nil error means S3 acknowledged the write.
func (s *S3Store) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put s3://%s/%s: %w", bucket, key, err)
	}
	s.logger.Debug("Object stored.",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("bytes", len(body)),
		zap.String("etag", aws.ToString(out.ETag)),
	)
	return nil
}
