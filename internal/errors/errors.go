package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Hilite error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrFileNotFound   ErrorCode = "FILE_NOT_FOUND"  // 404
	ErrNotConfigured  ErrorCode = "NOT_CONFIGURED"  // 412
	ErrCancelled      ErrorCode = "CANCELLED"       // 499
	ErrInternal       ErrorCode = "INTERNAL"        // 500
	ErrUpstream       ErrorCode = "UPSTREAM"        // 502
)

// HiliteError represents a structured error with code, status, and details.
type HiliteError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *HiliteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *HiliteError {
	return &HiliteError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a highlight cannot be found.
func NewNotFound(id string) *HiliteError {
	return &HiliteError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("highlight not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import file.
func NewFileNotFound(path string) *HiliteError {
	return &HiliteError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewNotConfigured creates a 412 error when the summary credential is missing.
func NewNotConfigured(msg string) *HiliteError {
	return &HiliteError{
		Code:    ErrNotConfigured,
		Status:  412,
		Message: msg,
	}
}

// NewCancelled creates a 499 error for an operation stopped by its context.
func NewCancelled(op string) *HiliteError {
	return &HiliteError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewUpstream creates a 502 error for a failed remote summarization call.
// status is the HTTP status returned by the remote endpoint, or 0 when no
// response was received.
func NewUpstream(status int, msg string) *HiliteError {
	if msg == "" {
		msg = "Unknown error"
	}
	text := fmt.Sprintf("API request failed: %s", msg)
	if status > 0 {
		text = fmt.Sprintf("API request failed: %d - %s", status, msg)
	}
	return &HiliteError{
		Code:    ErrUpstream,
		Status:  502,
		Message: text,
		Details: map[string]any{"upstream_status": status},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *HiliteError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &HiliteError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is (or wraps) a HiliteError with the given code.
func Is(err error, code ErrorCode) bool {
	var hErr *HiliteError
	if stderrors.As(err, &hErr) {
		return hErr.Code == code
	}
	return false
}

// As returns the HiliteError carried by err, if any.
func As(err error) (*HiliteError, bool) {
	var hErr *HiliteError
	if stderrors.As(err, &hErr) {
		return hErr, true
	}
	return nil, false
}
