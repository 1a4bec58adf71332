package schemas

import (
	"fmt"
	"math"
	"time"
)

// Default step bounds for a capture invocation.
const (
	DefaultNavigationTimeout = 60 * time.Second
	DefaultSelectorTimeout   = 30 * time.Second
	DefaultSubmitTimeout     = 60 * time.Second
	DefaultSettleDelay       = 1500 * time.Millisecond
	DefaultScreenshotTimeout = 30 * time.Second
	DefaultUploadTimeout     = 60 * time.Second
)

// DefaultPrefix is the artifact key namespace used when none is configured.
const DefaultPrefix = "captures/"

// ContentTypePNG is the content type tagged on every stored artifact.
const ContentTypePNG = "image/png"

// Credentials is the login pair submitted through the authentication form.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// String never prints the password.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Username: %q, Password: <redacted>}", c.Username)
}

// AuthSelectors is the fixed DOM contract for the login form.
type AuthSelectors struct {
	Identifier string `json:"identifier" mapstructure:"identifier" yaml:"identifier"`
	Password   string `json:"password" mapstructure:"password" yaml:"password"`
	Submit     string `json:"submit" mapstructure:"submit" yaml:"submit"`
}

// DefaultAuthSelectors targets an email/password form with a submit button.
var DefaultAuthSelectors = AuthSelectors{
	Identifier: `input[name="email"]`,
	Password:   `input[name="password"]`,
	Submit:     `button[type="submit"]`,
}

// Timeouts bounds each suspension point of a capture. Settle is a fixed delay, not a bound.
type Timeouts struct {
	Navigation time.Duration `json:"navigation"`
	Selector   time.Duration `json:"selector"`
	Submit     time.Duration `json:"submit"`
	Settle     time.Duration `json:"settle"`
	Screenshot time.Duration `json:"screenshot"`
	Upload     time.Duration `json:"upload"`
}

// DefaultTimeouts returns the baseline step bounds.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Navigation: DefaultNavigationTimeout,
		Selector:   DefaultSelectorTimeout,
		Submit:     DefaultSubmitTimeout,
		Settle:     DefaultSettleDelay,
		Screenshot: DefaultScreenshotTimeout,
		Upload:     DefaultUploadTimeout,
	}
}

// CaptureRequest holds one invocation's parameters. It is built once at invocation
// start and treated as immutable afterwards.
type CaptureRequest struct {
	TargetURL   string      `json:"target_url"`
	Credentials Credentials `json:"-"`
	Bucket      string      `json:"bucket"`
	Prefix      string      `json:"prefix"`
	Timeouts    Timeouts    `json:"timeouts"`
}

// MissingFields lists the required fields that are empty.
func (r *CaptureRequest) MissingFields() []string {
	var missing []string
	if r.TargetURL == "" {
		missing = append(missing, "target_url")
	}
	if r.Credentials.Username == "" {
		missing = append(missing, "username")
	}
	if r.Credentials.Password == "" {
		missing = append(missing, "password")
	}
	if r.Bucket == "" {
		missing = append(missing, "bucket")
	}
	return missing
}

// CaptureResult is the outcome of a successful invocation. Failures are reported as
// errors and never produce a result.
type CaptureResult struct {
	OK             bool    `json:"ok"`
	Artifact       string  `json:"artifact"`
	ElapsedSeconds float64 `json:"elapsedSeconds"`
	Key            string  `json:"-"`
	InvocationID   string  `json:"-"`
}

// RoundSeconds rounds a duration to millisecond precision, expressed in seconds.
func RoundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}

// ArtifactURI formats the storage address of a stored artifact.
func ArtifactURI(scheme, bucket, key string) string {
	return fmt.Sprintf("%s://%s/%s", scheme, bucket, key)
}

// CaptureRecord is the history entry written for every invocation.
type CaptureRecord struct {
	InvocationID   string    `json:"invocationId"`
	TargetURL      string    `json:"targetUrl"`
	OK             bool      `json:"ok"`
	Artifact       string    `json:"artifact,omitempty"`
	DiagnosticKey  string    `json:"diagnosticKey,omitempty"`
	ErrorKind      string    `json:"errorKind,omitempty"`
	ErrorMessage   string    `json:"errorMessage,omitempty"`
	StartedAt      time.Time `json:"startedAt"`
	ElapsedSeconds float64   `json:"elapsedSeconds"`
}
