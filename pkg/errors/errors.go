// Package errors provides structured error types for flowmap.
//
// Every error that crosses a package boundary toward the CLI or the HTTP API
// carries a machine-readable [Code] so callers can branch on the failure kind
// without parsing messages.
//
// # Error Codes
//
// Codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures
//   - *_NOT_FOUND: Missing files, versions, or cache entries
//   - STORAGE_ERROR, TIMEOUT: Backend and deadline failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidDimensions, "width must be >= 0, got %v", w)
//	if errors.Is(err, errors.ErrCodeInvalidDimensions) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeStorage, origErr, "save version %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput       Code = "INVALID_INPUT"
	ErrCodeInvalidFormat      Code = "INVALID_FORMAT"
	ErrCodeInvalidDimensions  Code = "INVALID_DIMENSIONS"
	ErrCodeInvalidPath        Code = "INVALID_PATH"
	ErrCodeInvalidVersionName Code = "INVALID_VERSION_NAME"
	ErrCodeNoValidData        Code = "NO_VALID_DATA"

	// Resource not found errors
	ErrCodeNotFound        Code = "NOT_FOUND"
	ErrCodeFileNotFound    Code = "FILE_NOT_FOUND"
	ErrCodeVersionNotFound Code = "VERSION_NOT_FOUND"

	// Runtime errors
	ErrCodeTimeout Code = "TIMEOUT"
	ErrCodeStorage Code = "STORAGE_ERROR"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// Only the outermost *Error in the chain is consulted.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsNotFound reports whether err carries any of the not-found codes.
func IsNotFound(err error) bool {
	switch GetCode(err) {
	case ErrCodeNotFound, ErrCodeFileNotFound, ErrCodeVersionNotFound:
		return true
	}
	return false
}
