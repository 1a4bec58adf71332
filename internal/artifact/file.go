// File: internal/artifact/file.go
package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagecap/api/schemas"
)

// ensure FileStore implements the interface
var _ schemas.ArtifactStore = (*FileStore)(nil)

// FileStore writes artifacts below a local directory as <root>/<bucket>/<key>.
// Meant for development runs.
type FileStore struct {
	root   string
	logger *zap.Logger
}

// NewFileStore creates a store rooted at dir.
func NewFileStore(dir string, logger *zap.Logger) *FileStore {
	return &FileStore{root: dir, logger: logger.Named("file_store")}
}

// Scheme returns "file".
func (s *FileStore) Scheme() string { return "file" }

// Path returns the file an artifact is written to, rejecting keys that escape
// the bucket directory.
func (s *FileStore) Path(bucket, key string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", fmt.Errorf("invalid bucket name %q", bucket)
	}
	base := filepath.Join(s.root, bucket)
	p := filepath.Join(base, filepath.FromSlash(key))
	if p == base || !strings.HasPrefix(p, base+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes bucket %q", key, bucket)
	}
	return p, nil
}

// Put writes body through a temporary file and a rename, so readers never see
// a partial artifact.
func (s *FileStore) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.Path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".pagecap-*")
	if err != nil {
		return fmt.Errorf("create temporary artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename artifact into place: %w", err)
	}

	s.logger.Debug("Artifact written.", zap.String("path", p), zap.String("content_type", contentType), zap.Int("bytes", len(body)))
	return nil
}
