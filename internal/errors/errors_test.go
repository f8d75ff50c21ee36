package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestSemaError_Error(t *testing.T) {
	tests := []struct {
		name      string
		code      ErrorCode
		message   string
		cause     error
		wantParts []string
	}{
		{
			name:      "with cause",
			code:      SourceUnreadable,
			message:   "reading /repo/a.py",
			cause:     errors.New("permission denied"),
			wantParts: []string{"SOURCE_UNREADABLE", "reading /repo/a.py", "permission denied"},
		},
		{
			name:      "without cause",
			code:      InvalidPath,
			message:   "empty path",
			cause:     nil,
			wantParts: []string{"INVALID_PATH", "empty path"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.cause)
			got := err.Error()

			for _, part := range tt.wantParts {
				if !strings.Contains(got, part) {
					t.Errorf("Error() = %q, want to contain %q", got, part)
				}
			}
		})
	}
}

func TestSemaError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := New(InternalError, "something went wrong", cause)

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should see through SemaError")
	}

	errNoCause := Newf(ConfigInvalid, "bad field %q", "searchPaths")
	if errNoCause.Unwrap() != nil {
		t.Error("Unwrap() on error without cause should return nil")
	}
}

func TestSemaError_WithDetails(t *testing.T) {
	err := New(StubRootInvalid, "not a directory", nil)
	details := map[string]string{"path": "/tmp/stubs"}

	result := err.WithDetails(details)

	if result != err {
		t.Error("WithDetails should return the same error for chaining")
	}
	if err.Details == nil {
		t.Error("Details should be set")
	}
}

func TestCodeOf(t *testing.T) {
	err := New(DependencyCycle, "parse re-entered for file 3", nil)

	if got := CodeOf(err); got != DependencyCycle {
		t.Errorf("CodeOf = %v, want %v", got, DependencyCycle)
	}

	// Wrapped errors still report their code
	wrapped := fmt.Errorf("query failed: %w", err)
	if got := CodeOf(wrapped); got != DependencyCycle {
		t.Errorf("CodeOf(wrapped) = %v, want %v", got, DependencyCycle)
	}

	if got := CodeOf(errors.New("plain")); got != InternalError {
		t.Errorf("CodeOf(plain) = %v, want %v", got, InternalError)
	}
}

func TestHasCode(t *testing.T) {
	err := New(SourceUnreadable, "read failed", errors.New("io error"))

	if !HasCode(err, SourceUnreadable) {
		t.Error("Expected HasCode to match")
	}
	if HasCode(err, InvalidPath) {
		t.Error("Expected HasCode not to match a different code")
	}
	if HasCode(errors.New("plain"), SourceUnreadable) {
		t.Error("Expected HasCode false for plain error")
	}
}

func TestErrorCodes(t *testing.T) {
	// Ensure all error codes are unique
	codes := []ErrorCode{
		InvalidPath,
		SourceUnreadable,
		StubRootInvalid,
		DependencyCycle,
		ConfigInvalid,
		ExportFailed,
		InternalError,
	}

	seen := make(map[ErrorCode]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %v", code)
		}
		seen[code] = true

		if string(code) == "" {
			t.Error("Error code should not be empty")
		}
	}
}
