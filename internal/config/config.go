// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/pagecap/api/schemas"
)

// Storage backends.
const (
	BackendS3     = "s3"
	BackendAzure  = "azblob"
	BackendFile   = "file"
	EnvPrefix     = "PAGECAP"
	defaultFormat = "json"
)

// Config is the root configuration of a capture deployment.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Target   TargetConfig   `mapstructure:"target" yaml:"target"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Timeouts TimeoutConfig  `mapstructure:"timeouts" yaml:"timeouts"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	AWS      AWSConfig      `mapstructure:"aws" yaml:"aws"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// TargetConfig identifies the page behind the login form.
type TargetConfig struct {
	URL       string                `mapstructure:"url" yaml:"url"`
	Selectors schemas.AuthSelectors `mapstructure:"selectors" yaml:"selectors"`
}

// AuthConfig supplies credentials either through a secret or directly.
type AuthConfig struct {
	SecretID string `mapstructure:"secret_id" yaml:"secret_id"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"-"`
}

// HasDirectCredentials reports whether a username and password are configured inline.
func (a AuthConfig) HasDirectCredentials() bool {
	return a.Username != "" && a.Password != ""
}

// StorageConfig selects and configures the artifact store.
type StorageConfig struct {
	Backend string      `mapstructure:"backend" yaml:"backend"`
	Bucket  string      `mapstructure:"bucket" yaml:"bucket"`
	Prefix  string      `mapstructure:"prefix" yaml:"prefix"`
	Azure   AzureConfig `mapstructure:"azure" yaml:"azure"`
	File    FileConfig  `mapstructure:"file" yaml:"file"`
}

// AzureConfig configures the Azure Blob backend. The bucket names the container.
type AzureConfig struct {
	AccountURL       string `mapstructure:"account_url" yaml:"account_url"`
	ConnectionString string `mapstructure:"connection_string" yaml:"-"`
}

// FileConfig configures the local filesystem backend. The bucket names a
// subdirectory of Dir.
type FileConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// BrowserConfig controls the browser process launched for each capture.
type BrowserConfig struct {
	ExecPath      string        `mapstructure:"exec_path" yaml:"exec_path"`
	Headless      bool          `mapstructure:"headless" yaml:"headless"`
	Args          []string      `mapstructure:"args" yaml:"args"`
	WindowWidth   int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight  int           `mapstructure:"window_height" yaml:"window_height"`
	HomeDir       string        `mapstructure:"home_dir" yaml:"home_dir"`
	LaunchTimeout time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	CloseTimeout  time.Duration `mapstructure:"close_timeout" yaml:"close_timeout"`
}

// TimeoutConfig bounds each step of the capture workflow.
type TimeoutConfig struct {
	Navigation time.Duration `mapstructure:"navigation" yaml:"navigation"`
	Selector   time.Duration `mapstructure:"selector" yaml:"selector"`
	Submit     time.Duration `mapstructure:"submit" yaml:"submit"`
	Settle     time.Duration `mapstructure:"settle" yaml:"settle"`
	Screenshot time.Duration `mapstructure:"screenshot" yaml:"screenshot"`
	Upload     time.Duration `mapstructure:"upload" yaml:"upload"`
}

// Schema converts the configured bounds to the request representation.
func (t TimeoutConfig) Schema() schemas.Timeouts {
	return schemas.Timeouts{
		Navigation: t.Navigation,
		Selector:   t.Selector,
		Submit:     t.Submit,
		Settle:     t.Settle,
		Screenshot: t.Screenshot,
		Upload:     t.Upload,
	}
}

// DatabaseConfig holds the database connection details. An empty URL disables
// capture history.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"-"`
}

// AWSConfig overrides the SDK's default resolution.
type AWSConfig struct {
	Region       string `mapstructure:"region" yaml:"region"`
	Endpoint     string `mapstructure:"endpoint" yaml:"endpoint"`
	UsePathStyle bool   `mapstructure:"use_path_style" yaml:"use_path_style"`
}

// legacyEnv maps configuration keys to the environment names used by existing
// deployments. They are consulted after the PAGECAP_ prefixed form.
var legacyEnv = map[string]string{
	"target.url":     "TARGET_URL",
	"storage.bucket": "SCREENSHOT_BUCKET",
	"storage.prefix": "SCREENSHOT_PREFIX",
	"auth.secret_id": "LOGIN_SECRET_ARN",
	"auth.username":  "LOGIN_USERNAME",
	"auth.password":  "LOGIN_PASSWORD",
	"aws.region":     "AWS_REGION",
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration key. Keys
// without a default are invisible to Unmarshal when set only via environment.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", defaultFormat)
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "pagecap")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Target --
	v.SetDefault("target.url", "")
	v.SetDefault("target.selectors.identifier", schemas.DefaultAuthSelectors.Identifier)
	v.SetDefault("target.selectors.password", schemas.DefaultAuthSelectors.Password)
	v.SetDefault("target.selectors.submit", schemas.DefaultAuthSelectors.Submit)

	// -- Auth --
	v.SetDefault("auth.secret_id", "")
	v.SetDefault("auth.username", "")
	v.SetDefault("auth.password", "")

	// -- Storage --
	v.SetDefault("storage.backend", BackendS3)
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.prefix", schemas.DefaultPrefix)
	v.SetDefault("storage.azure.account_url", "")
	v.SetDefault("storage.azure.connection_string", "")
	v.SetDefault("storage.file.dir", "~/.pagecap/artifacts")

	// -- Browser --
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.args", []string{"single-process", "no-zygote"})
	v.SetDefault("browser.window_width", 1280)
	v.SetDefault("browser.window_height", 720)
	v.SetDefault("browser.home_dir", "/tmp")
	v.SetDefault("browser.launch_timeout", "30s")
	v.SetDefault("browser.close_timeout", "15s")

	// -- Timeouts --
	v.SetDefault("timeouts.navigation", schemas.DefaultNavigationTimeout)
	v.SetDefault("timeouts.selector", schemas.DefaultSelectorTimeout)
	v.SetDefault("timeouts.submit", schemas.DefaultSubmitTimeout)
	v.SetDefault("timeouts.settle", schemas.DefaultSettleDelay)
	v.SetDefault("timeouts.screenshot", schemas.DefaultScreenshotTimeout)
	v.SetDefault("timeouts.upload", schemas.DefaultUploadTimeout)

	// -- Database --
	v.SetDefault("database.url", "")

	// -- AWS --
	v.SetDefault("aws.region", "")
	v.SetDefault("aws.endpoint", "")
	v.SetDefault("aws.use_path_style", false)
}

// BindEnv wires PAGECAP_<SECTION>_<KEY> for every key and the legacy names on top.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, legacy)
	}
}

// NewViper returns a viper instance with defaults, environment bindings and the
// config file applied. An empty configFile looks for ./config.yaml, which may be absent.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return v, nil
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) expandPaths() error {
	for name, p := range map[string]*string{
		"logger.log_file":   &c.Logger.LogFile,
		"storage.file.dir":  &c.Storage.File.Dir,
		"browser.home_dir":  &c.Browser.HomeDir,
		"browser.exec_path": &c.Browser.ExecPath,
	} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("expanding %s: %w", name, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for sane values. Per-invocation inputs such
// as the target URL and bucket are checked when a capture starts, not here.
func (c *Config) Validate() error {
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage configuration invalid: %w", err)
	}
	if err := c.Browser.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.Timeouts.Validate(); err != nil {
		return fmt.Errorf("timeouts configuration invalid: %w", err)
	}
	if c.Auth.SecretID != "" && (c.Auth.Username != "" || c.Auth.Password != "") {
		return fmt.Errorf("auth.secret_id and auth.username/auth.password are mutually exclusive")
	}
	return nil
}

// Validate checks the storage backend selection.
func (s *StorageConfig) Validate() error {
	switch s.Backend {
	case BackendS3:
	case BackendAzure:
		if s.Azure.AccountURL == "" && s.Azure.ConnectionString == "" {
			return fmt.Errorf("azure.account_url or azure.connection_string is required for the %s backend", BackendAzure)
		}
	case BackendFile:
		if s.File.Dir == "" {
			return fmt.Errorf("file.dir is required for the %s backend", BackendFile)
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s, %s or %s)", s.Backend, BackendS3, BackendAzure, BackendFile)
	}
	return nil
}

// Validate checks the browser launch settings.
func (b *BrowserConfig) Validate() error {
	if b.WindowWidth < 0 || b.WindowHeight < 0 {
		return fmt.Errorf("window size must not be negative")
	}
	if b.LaunchTimeout < 0 || b.CloseTimeout < 0 {
		return fmt.Errorf("launch_timeout and close_timeout must not be negative")
	}
	return nil
}

// Validate rejects negative step bounds. Zero disables a bound.
func (t *TimeoutConfig) Validate() error {
	for name, d := range map[string]time.Duration{
		"navigation": t.Navigation,
		"selector":   t.Selector,
		"submit":     t.Submit,
		"settle":     t.Settle,
		"screenshot": t.Screenshot,
		"upload":     t.Upload,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}
