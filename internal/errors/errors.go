package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InvalidPath indicates a path that cannot be interned (empty or malformed)
	InvalidPath ErrorCode = "INVALID_PATH"
	// SourceUnreadable indicates a registered file could not be read from disk
	SourceUnreadable ErrorCode = "SOURCE_UNREADABLE"
	// StubRootInvalid indicates the configured stub directory is missing or not a directory
	StubRootInvalid ErrorCode = "STUB_ROOT_INVALID"
	// DependencyCycle indicates a query re-entered a computation already in flight
	DependencyCycle ErrorCode = "DEPENDENCY_CYCLE"
	// ConfigInvalid indicates configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ExportFailed indicates an index export could not be written
	ExportFailed ErrorCode = "EXPORT_FAILED"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// SemaError represents an engine error with a stable code and message.
// Module lookups that find nothing are not errors; they return a
// negative result instead.
type SemaError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// New creates a new SemaError
func New(code ErrorCode, message string, cause error) *SemaError {
	return &SemaError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Newf creates a new SemaError with a formatted message and no cause
func Newf(code ErrorCode, format string, args ...interface{}) *SemaError {
	return &SemaError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface
func (e *SemaError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *SemaError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *SemaError) WithDetails(details interface{}) *SemaError {
	e.Details = details
	return e
}

// CodeOf extracts the error code from err, walking the wrap chain.
// Returns InternalError for errors that carry no code.
func CodeOf(err error) ErrorCode {
	var se *SemaError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return InternalError
}

// HasCode reports whether err carries the given code anywhere in its chain
func HasCode(err error, code ErrorCode) bool {
	var se *SemaError
	if stderrors.As(err, &se) {
		return se.Code == code
	}
	return false
}
