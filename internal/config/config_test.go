// File: internal/config/config_test.go
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/pagecap/api/schemas"
)

// -- Constructor and Defaults Tests --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "pagecap", cfg.Logger.ServiceName)
	assert.Equal(t, BackendS3, cfg.Storage.Backend)
	assert.Equal(t, "captures/", cfg.Storage.Prefix)
	assert.Equal(t, schemas.DefaultAuthSelectors, cfg.Target.Selectors)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"single-process", "no-zygote"}, cfg.Browser.Args)
	assert.Equal(t, 30*time.Second, cfg.Browser.LaunchTimeout)
	assert.Equal(t, schemas.DefaultTimeouts(), cfg.Timeouts.Schema())
	assert.Empty(t, cfg.Database.URL)
}

// -- Validation Logic Tests --

func TestConfigValidation(t *testing.T) {
	t.Run("Defaults are valid", func(t *testing.T) {
		assert.NoError(t, NewDefaultConfig().Validate())
	})

	t.Run("Unknown backend", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Storage.Backend = "gcs"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unknown backend "gcs"`)
	})

	t.Run("Azure requires an account", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Storage.Backend = BackendAzure
		assert.Error(t, cfg.Validate())

		cfg.Storage.Azure.AccountURL = "https://acct.blob.core.windows.net/"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("File requires a directory", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Storage.Backend = BackendFile
		cfg.Storage.File.Dir = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("Negative timeout", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Timeouts.Submit = -time.Second
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "submit must not be negative")
	})

	t.Run("Negative browser settings", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Browser.WindowWidth = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("Secret and direct credentials are exclusive", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.Auth.SecretID = "arn:aws:secretsmanager:eu-west-1:123:secret:login"
		cfg.Auth.Username = "u"
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mutually exclusive")
	})
}

func TestAuthConfig_HasDirectCredentials(t *testing.T) {
	assert.False(t, AuthConfig{Username: "u"}.HasDirectCredentials())
	assert.True(t, AuthConfig{Username: "u", Password: "p"}.HasDirectCredentials())
}

// -- Loading Tests --

func TestNewConfigFromViper(t *testing.T) {
	t.Run("From YAML", func(t *testing.T) {
		yamlConfig := []byte(`
target:
  url: https://app.example.com/login
  selectors:
    identifier: "#user"
storage:
  backend: file
  bucket: shots
  prefix: nightly/
  file:
    dir: /var/lib/pagecap
timeouts:
  settle: 3s
browser:
  args: ["--lang=en-US"]
`)
		v := viper.New()
		SetDefaults(v)
		v.SetConfigType("yaml")
		require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlConfig)))

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)

		assert.Equal(t, "https://app.example.com/login", cfg.Target.URL)
		assert.Equal(t, "#user", cfg.Target.Selectors.Identifier)
		assert.Equal(t, schemas.DefaultAuthSelectors.Submit, cfg.Target.Selectors.Submit)
		assert.Equal(t, BackendFile, cfg.Storage.Backend)
		assert.Equal(t, "nightly/", cfg.Storage.Prefix)
		assert.Equal(t, "/var/lib/pagecap", cfg.Storage.File.Dir)
		assert.Equal(t, 3*time.Second, cfg.Timeouts.Settle)
		assert.Equal(t, schemas.DefaultNavigationTimeout, cfg.Timeouts.Navigation)
		assert.Equal(t, []string{"--lang=en-US"}, cfg.Browser.Args)
	})

	t.Run("Legacy environment names", func(t *testing.T) {
		t.Setenv("TARGET_URL", "https://legacy.example.com/")
		t.Setenv("SCREENSHOT_BUCKET", "legacy-bucket")
		t.Setenv("SCREENSHOT_PREFIX", "old/")
		t.Setenv("LOGIN_SECRET_ARN", "arn:secret")

		v := viper.New()
		SetDefaults(v)
		BindEnv(v)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "https://legacy.example.com/", cfg.Target.URL)
		assert.Equal(t, "legacy-bucket", cfg.Storage.Bucket)
		assert.Equal(t, "old/", cfg.Storage.Prefix)
		assert.Equal(t, "arn:secret", cfg.Auth.SecretID)
	})

	t.Run("Prefixed environment wins over legacy", func(t *testing.T) {
		t.Setenv("SCREENSHOT_BUCKET", "legacy-bucket")
		t.Setenv("PAGECAP_STORAGE_BUCKET", "new-bucket")
		t.Setenv("PAGECAP_STORAGE_BACKEND", "file")
		t.Setenv("PAGECAP_TIMEOUTS_UPLOAD", "90s")
		t.Setenv("PAGECAP_DATABASE_URL", "postgres://localhost/pagecap")

		v := viper.New()
		SetDefaults(v)
		BindEnv(v)

		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "new-bucket", cfg.Storage.Bucket)
		assert.Equal(t, BackendFile, cfg.Storage.Backend)
		assert.Equal(t, 90*time.Second, cfg.Timeouts.Upload)
		assert.Equal(t, "postgres://localhost/pagecap", cfg.Database.URL)
	})

	t.Run("Home directory expansion", func(t *testing.T) {
		home, err := homedir.Dir()
		require.NoError(t, err)

		v := viper.New()
		SetDefaults(v)
		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, ".pagecap", "artifacts"), cfg.Storage.File.Dir)
	})

	t.Run("Invalid configuration is rejected", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("storage.backend", "ftp")

		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestNewViper(t *testing.T) {
	t.Run("Explicit file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pagecap.yaml")
		require.NoError(t, os.WriteFile(path, []byte("storage:\n  bucket: from-file\n"), 0o600))

		v, err := NewViper(path)
		require.NoError(t, err)
		cfg, err := NewConfigFromViper(v)
		require.NoError(t, err)
		assert.Equal(t, "from-file", cfg.Storage.Bucket)
	})

	t.Run("Missing explicit file", func(t *testing.T) {
		_, err := NewViper(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error reading config file")
	})

	t.Run("No file in working directory", func(t *testing.T) {
		t.Chdir(t.TempDir())
		v, err := NewViper("")
		require.NoError(t, err)
		assert.Equal(t, BackendS3, v.GetString("storage.backend"))
	})
}
