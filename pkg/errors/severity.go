// Package errors provides severity-aware error types.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Severity indicates error impact level.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// ScaleError is a structured error with context.
type ScaleError struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Path     string   `json:"path,omitempty"`
	Err      error    `json:"-"`
}

func (e *ScaleError) Error() string {
	msg := fmt.Sprintf("[%s] %s: %s", e.Severity, e.Code, e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (path: %s)", e.Path)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ScaleError) Unwrap() error { return e.Err }

// Recoverable reports whether processing may continue past this error.
func (e *ScaleError) Recoverable() bool { return e.Severity < SeverityFatal }

// Error codes
const (
	ErrCodeUsage             = "USAGE"
	ErrCodeParseFailed       = "PARSE_FAILED"
	ErrCodeInvalidMultiplier = "INVALID_MULTIPLIER"
	ErrCodeInvalidPrice      = "INVALID_PRICE"
	ErrCodeOverflow          = "OVERFLOW"
	ErrCodeRootNotFound      = "ROOT_NOT_FOUND"
	ErrCodeRootNotDir        = "ROOT_NOT_DIR"
	ErrCodeReadFailed        = "READ_FAILED"
	ErrCodeWriteFailed       = "WRITE_FAILED"
	ErrCodeWalkFailed        = "WALK_FAILED"
)

// New creates a ScaleError without a path.
func New(code string, sev Severity, format string, args ...any) *ScaleError {
	return &ScaleError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Severity: sev,
	}
}

// NewParseError reports text that could not be read as a number.
func NewParseError(text string, err error) *ScaleError {
	return &ScaleError{
		Code:     ErrCodeParseFailed,
		Message:  fmt.Sprintf("not a valid number: %q", text),
		Severity: SeverityError,
		Err:      err,
	}
}

// NewOverflowError reports a scaled price outside the int64 range.
func NewOverflowError(price int64, result string) *ScaleError {
	return &ScaleError{
		Code:     ErrCodeOverflow,
		Message:  fmt.Sprintf("scaled price %s for %d does not fit int64", result, price),
		Severity: SeverityError,
	}
}

// NewFileError wraps an I/O failure on a single file. File errors never abort a walk.
func NewFileError(code, path string, err error) *ScaleError {
	msg := "failed to read file"
	if code == ErrCodeWriteFailed {
		msg = "failed to write file"
	}
	return &ScaleError{
		Code:     code,
		Message:  msg,
		Severity: SeverityError,
		Path:     path,
		Err:      err,
	}
}

// NewRootError reports an unusable walk root. Root errors are fatal.
func NewRootError(code, path string, err error) *ScaleError {
	msg := "root directory does not exist"
	if code == ErrCodeRootNotDir {
		msg = "root is not a directory"
	}
	return &ScaleError{
		Code:     code,
		Message:  msg,
		Severity: SeverityFatal,
		Path:     path,
		Err:      err,
	}
}

// WithPath returns a copy of e attributed to path.
func (e *ScaleError) WithPath(path string) *ScaleError {
	c := *e
	c.Path = path
	return &c
}

// CodeOf returns the code of the first ScaleError in err's chain, or "".
func CodeOf(err error) string {
	var se *ScaleError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}
