// File: cmd/capture_test.go
package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/pagecap/internal/capture"
	"github.com/xkilldash9x/pagecap/internal/config"
)

func TestCaptureCmd_PrintsResult(t *testing.T) {
	resetForTest(t)
	factory := &stubFactory{}

	out, err := executeCommand(t, newRootCommand(factory, &stubHistory{}),
		"capture", "--url", "https://app.example.com/login", "--bucket", "shots", "--backend", "file")
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, true, result["ok"])
	assert.True(t, strings.HasPrefix(result["artifact"].(string), "mem://shots/captures/"), result["artifact"])
	assert.Contains(t, result, "elapsedSeconds")
	assert.NotContains(t, result, "Key")
}

func TestCaptureCmd_FlagPrecedence(t *testing.T) {
	resetForTest(t)
	t.Setenv("TARGET_URL", "https://env.example.com/login")
	t.Setenv("SCREENSHOT_BUCKET", "env-bucket")
	t.Setenv("PAGECAP_STORAGE_BACKEND", config.BackendFile)
	factory := &stubFactory{}

	_, err := executeCommand(t, newRootCommand(factory, &stubHistory{}),
		"capture", "--url", "https://flag.example.com/login", "--prefix", "nightly/")
	require.NoError(t, err)

	require.NotNil(t, factory.got)
	assert.Equal(t, "https://flag.example.com/login", factory.got.Target.URL, "flag beats environment")
	assert.Equal(t, "env-bucket", factory.got.Storage.Bucket, "unset flag keeps environment value")
	assert.Equal(t, "nightly/", factory.got.Storage.Prefix)
	assert.True(t, factory.got.Browser.Headless)
}

func TestCaptureCmd_CaptureFailure(t *testing.T) {
	resetForTest(t)
	factory := &stubFactory{formMissing: true}

	out, err := executeCommand(t, newRootCommand(factory, &stubHistory{}),
		"capture", "--url", "https://app.example.com/login", "--bucket", "shots", "--backend", "file")
	require.Error(t, err)
	assert.ErrorIs(t, err, capture.ErrFormNotFound)
	assert.Empty(t, out)
}

func TestCaptureCmd_FactoryFailure(t *testing.T) {
	resetForTest(t)
	factory := &stubFactory{err: errFactory}

	_, err := executeCommand(t, newRootCommand(factory, &stubHistory{}), "capture", "--backend", "file")
	require.Error(t, err)
	assert.ErrorIs(t, err, errFactory)
	assert.Contains(t, err.Error(), "failed to initialize capture components")
}

func TestCaptureCmd_RejectsArgs(t *testing.T) {
	resetForTest(t)
	_, err := executeCommand(t, newRootCommand(&stubFactory{}, &stubHistory{}), "capture", "extra")
	assert.Error(t, err)
}
