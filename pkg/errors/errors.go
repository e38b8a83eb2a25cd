// Package errors provides structured error types for gastrodon.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library and the CLI
//   - Machine-readable error codes for programmatic handling
//   - Pre-rendered, multi-line messages for query failures
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (query text, bindings, config)
//   - NOT_FOUND: Resource not found
//   - NETWORK_* / ENDPOINT_*: Transport and remote endpoint failures
//   - INTERNAL_*: Unexpected internal errors
//
// # Query Errors
//
// Query failures carry Lines: a rendering of the failure meant to be shown to a
// person as-is, with the query text and a caret under the offending column:
//
//	*** ERROR ***
//
//	Failure parsing SPARQL query supplied by caller; ...
//
//	SELECT ?s { ?s ?p }
//	                  ^
//	Error at line 1 and column 19
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidInput, "invalid prefix: %s", name)
//	if errors.Is(err, errors.ErrCodeInvalidInput) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "failed to query %s", url)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput        Code = "INVALID_INPUT"
	ErrCodeInvalidQuery        Code = "INVALID_QUERY"
	ErrCodeInvalidSubstitution Code = "INVALID_SUBSTITUTION"
	ErrCodeInvalidConfig       Code = "INVALID_CONFIG"
	ErrCodeInvalidFormat       Code = "INVALID_FORMAT"
	ErrCodeInvalidPath         Code = "INVALID_PATH"
	ErrCodeInvalidMediaType    Code = "INVALID_MEDIA_TYPE"

	// Resource not found errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Network errors
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeEndpoint    Code = "ENDPOINT_ERROR"
	ErrCodeTimeout     Code = "TIMEOUT"
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code     // Machine-readable error code
	Message string   // Human-readable message
	Cause   error    // Underlying error (optional)
	Lines   []string // Pre-rendered display lines (optional)
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

// Render joins the pre-rendered lines with newlines. Errors without lines
// render as their message.
func (e *Error) Render() string {
	if len(e.Lines) == 0 {
		return e.Message
	}
	return strings.Join(e.Lines, "\n")
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

// WithLines attaches pre-rendered display lines and returns e.
func (e *Error) WithLines(lines []string) *Error {
	e.Lines = lines
	return e
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
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

// Lines returns the pre-rendered display lines of the first *Error in the
// chain that has any. Errors without lines yield a single line holding the
// error string.
func Lines(err error) []string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if ge, ok := e.(*Error); ok && len(ge.Lines) > 0 {
			return ge.Lines
		}
	}
	return strings.Split(err.Error(), "\n")
}

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}
