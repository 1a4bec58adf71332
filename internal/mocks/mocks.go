// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/pagecap/api/schemas"
)

// -- Browser Mocks --

// MockPage mocks schemas.Page.
type MockPage struct {
	mock.Mock
}

func (m *MockPage) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPage) Navigate(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *MockPage) WaitForSelector(ctx context.Context, selector string) error {
	args := m.Called(ctx, selector)
	return args.Error(0)
}

func (m *MockPage) Fill(ctx context.Context, selector, value string) error {
	args := m.Called(ctx, selector, value)
	return args.Error(0)
}

func (m *MockPage) ClickAndWaitForNavigation(ctx context.Context, selector string) error {
	args := m.Called(ctx, selector)
	return args.Error(0)
}

func (m *MockPage) Sleep(ctx context.Context, d time.Duration) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockPage) FullScreenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	var png []byte
	if b := args.Get(0); b != nil {
		png = b.([]byte)
	}
	return png, args.Error(1)
}

// MockSessionManager mocks schemas.SessionManager.
type MockSessionManager struct {
	mock.Mock
}

func (m *MockSessionManager) Open(ctx context.Context) (schemas.Page, error) {
	args := m.Called(ctx)
	var page schemas.Page
	if p := args.Get(0); p != nil {
		page = p.(schemas.Page)
	}
	return page, args.Error(1)
}

func (m *MockSessionManager) Close(ctx context.Context, page schemas.Page) {
	m.Called(ctx, page)
}

// -- Storage Mocks --

// MockArtifactStore mocks schemas.ArtifactStore.
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Scheme() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockArtifactStore) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	args := m.Called(ctx, bucket, key, body, contentType)
	return args.Error(0)
}

// MockSecretProvider mocks schemas.SecretProvider.
type MockSecretProvider struct {
	mock.Mock
}

func (m *MockSecretProvider) Credentials(ctx context.Context, secretID string) (schemas.Credentials, error) {
	args := m.Called(ctx, secretID)
	return args.Get(0).(schemas.Credentials), args.Error(1)
}

// MockCaptureRecorder mocks schemas.CaptureRecorder.
type MockCaptureRecorder struct {
	mock.Mock
}

func (m *MockCaptureRecorder) RecordCapture(ctx context.Context, record schemas.CaptureRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

var (
	_ schemas.Page            = (*MockPage)(nil)
	_ schemas.SessionManager  = (*MockSessionManager)(nil)
	_ schemas.ArtifactStore   = (*MockArtifactStore)(nil)
	_ schemas.SecretProvider  = (*MockSecretProvider)(nil)
	_ schemas.CaptureRecorder = (*MockCaptureRecorder)(nil)
)
