// File: internal/capture/errors.go
package capture

import (
	"errors"
	"fmt"
)

// Kind classifies a capture failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindEngineLaunch
	KindNavigation
	KindFormNotFound
	KindSubmission
	KindCapture
	KindUpload
	KindDiagnosticCapture
)

var kindNames = map[Kind]string{
	KindUnknown:           "UnknownError",
	KindConfiguration:     "ConfigurationError",
	KindEngineLaunch:      "EngineLaunchError",
	KindNavigation:        "NavigationError",
	KindFormNotFound:      "FormNotFoundError",
	KindSubmission:        "SubmissionError",
	KindCapture:           "CaptureError",
	KindUpload:            "UploadError",
	KindDiagnosticCapture: "DiagnosticCaptureError",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels for errors.Is matching against a kind.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrEngineLaunch      = errors.New("browser engine launch failed")
	ErrNavigation        = errors.New("navigation failed")
	ErrFormNotFound      = errors.New("login form not found")
	ErrSubmission        = errors.New("login submission failed")
	ErrCapture           = errors.New("screenshot capture failed")
	ErrUpload            = errors.New("artifact upload failed")
	ErrDiagnosticCapture = errors.New("diagnostic capture failed")
)

var kindSentinels = map[Kind]error{
	KindConfiguration:     ErrConfiguration,
	KindEngineLaunch:      ErrEngineLaunch,
	KindNavigation:        ErrNavigation,
	KindFormNotFound:      ErrFormNotFound,
	KindSubmission:        ErrSubmission,
	KindCapture:           ErrCapture,
	KindUpload:            ErrUpload,
	KindDiagnosticCapture: ErrDiagnosticCapture,
}

// Error is a classified failure of one workflow step. It unwraps to both the
// sentinel of its kind and the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// NewError classifies err as a failure of op.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap exposes the kind sentinel and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf reports the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// triggersDiagnostic reports whether a failure happened while a page existed and
// before a screenshot was held in memory.
func (k Kind) triggersDiagnostic() bool {
	switch k {
	case KindNavigation, KindFormNotFound, KindSubmission, KindCapture:
		return true
	default:
		return false
	}
}
