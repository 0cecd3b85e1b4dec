package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Curate error code.
type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"    // 400
	ErrNotFound          ErrorCode = "NOT_FOUND"          // 404
	ErrMalformedManifest ErrorCode = "MALFORMED_MANIFEST" // 422
	ErrMissingRegion     ErrorCode = "MISSING_REGION"     // 422
	ErrHistoryNotFound   ErrorCode = "HISTORY_NOT_FOUND"  // 404
	ErrMalformedHistory  ErrorCode = "MALFORMED_HISTORY"  // 422
	ErrInternal          ErrorCode = "INTERNAL"           // 500
)

// CurateError represents a structured error with code, status, and details.
type CurateError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any

	// cause is the underlying error, if any. Exposed through Unwrap.
	cause error
}

// Error implements the error interface.
func (e *CurateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *CurateError) Unwrap() error {
	return e.cause
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *CurateError {
	return &CurateError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a package cannot be found.
func NewNotFound(identifier string) *CurateError {
	return &CurateError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("package not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFileNotFound creates a 404 error for a generated artifact that does not exist yet.
func NewFileNotFound(path string) *CurateError {
	return &CurateError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewMalformedManifest creates a 422 error for a manifest that cannot be decoded.
// A single malformed manifest aborts the whole run.
func NewMalformedManifest(path string, err error) *CurateError {
	msg := fmt.Sprintf("malformed manifest %s", path)
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &CurateError{
		Code:    ErrMalformedManifest,
		Status:  422,
		Message: msg,
		Details: map[string]any{"path": path},
		cause:   err,
	}
}

// NewMissingRegion creates a 422 error when a document lacks a usable marker pair.
func NewMissingRegion(region, reason string) *CurateError {
	return &CurateError{
		Code:    ErrMissingRegion,
		Status:  422,
		Message: fmt.Sprintf("region %s: %s", region, reason),
		Details: map[string]any{"region": region},
	}
}

// NewHistoryNotFound creates a 404 error when the history log does not exist.
func NewHistoryNotFound(path string) *CurateError {
	return &CurateError{
		Code:    ErrHistoryNotFound,
		Status:  404,
		Message: fmt.Sprintf("history log not found: %s (create it with [] first)", path),
		Details: map[string]any{"path": path},
	}
}

// NewMalformedHistory creates a 422 error when the history log is not a JSON array.
func NewMalformedHistory(path string, err error) *CurateError {
	return &CurateError{
		Code:    ErrMalformedHistory,
		Status:  422,
		Message: fmt.Sprintf("malformed history log %s: %v", path, err),
		Details: map[string]any{"path": path},
		cause:   err,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *CurateError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &CurateError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
		cause:   err,
	}
}

// Is checks if an error is (or wraps) a CurateError with the given code.
func Is(err error, code ErrorCode) bool {
	var cErr *CurateError
	if stderrors.As(err, &cErr) {
		return cErr.Code == code
	}
	return false
}

// As finds the first CurateError in err's chain.
func As(err error) (*CurateError, bool) {
	var cErr *CurateError
	if stderrors.As(err, &cErr) {
		return cErr, true
	}
	return nil, false
}
