package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes for categorizing errors
const (
	ErrConfig       = "CONFIG"
	ErrNetwork      = "NETWORK"
	ErrTimeout      = "TIMEOUT"
	ErrServer       = "SERVER"
	ErrMalformed    = "MALFORMED"
	ErrRateLimited  = "RATE_LIMITED"
	ErrUnauthorized = "UNAUTHORIZED"
	ErrCancelled    = "CANCELLED"
	ErrRefresh      = "REFRESH"
)

// Error represents a structured error with code, message, suggestion, and optional cause.
// Rendered as:
//
//	✗ <What failed>
//
//	  <Why it failed - technical details>
//
//	  <How to fix it - actionable steps>
type Error struct {
	Code       string
	Message    string
	Suggestion string
	Cause      error

	// Detail is the error text supplied by the server, if any.
	Detail string
}

// New creates a new structured error with the given code, message, and suggestion.
func New(code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
	}
}

// WrapWithCode wraps an existing error with a specific code, message, and suggestion.
func WrapWithCode(err error, code, message, suggestion string) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Suggestion: suggestion,
		Cause:      err,
	}
}

// WithDetail attaches server-supplied detail text and returns the same error.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = strings.TrimSpace(detail)
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("✗ %s\n", e.Message))

	if e.Detail != "" {
		b.WriteString(fmt.Sprintf("\n  server said: %s\n", e.Detail))
	}

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Cause.Error()))
	}

	if e.Suggestion != "" {
		b.WriteString(fmt.Sprintf("\n  %s\n", e.Suggestion))
	}

	return b.String()
}

// Unwrap returns the underlying cause for use with errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsCode checks if an error is a structured Error with the given code.
func IsCode(err error, code string) bool {
	if err == nil || code == "" {
		return false
	}
	return CodeOf(err) == code
}

// CodeOf returns the code of the outermost structured Error in the chain,
// or "" if there is none.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var dsErr *Error
	if errors.As(err, &dsErr) {
		return dsErr.Code
	}
	return ""
}

// IsTransient reports whether err is expected to clear up on its own by the
// next scheduled attempt.
func IsTransient(err error) bool {
	switch CodeOf(err) {
	case ErrNetwork, ErrTimeout, ErrServer, ErrRateLimited, ErrCancelled:
		return true
	default:
		return false
	}
}

// kindLabels are the short, user-facing names for each code.
var kindLabels = map[string]string{
	ErrConfig:       "Configuration problem",
	ErrNetwork:      "Can't reach the stats server",
	ErrTimeout:      "Stats server took too long to answer",
	ErrServer:       "Stats server error",
	ErrMalformed:    "Unexpected response from the stats server",
	ErrRateLimited:  "Stats server is busy",
	ErrUnauthorized: "Session expired",
	ErrCancelled:    "Request superseded",
	ErrRefresh:      "Refresh didn't finish",
}

// Describe builds a one-line, human-readable message from an error's kind and
// any server-supplied detail. Suitable for notifications.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var dsErr *Error
	if !errors.As(err, &dsErr) {
		return err.Error()
	}

	label, ok := kindLabels[dsErr.Code]
	if !ok {
		label = dsErr.Message
	}

	switch {
	case dsErr.Detail != "":
		return fmt.Sprintf("%s: %s", label, dsErr.Detail)
	case dsErr.Message != "" && dsErr.Message != label:
		return fmt.Sprintf("%s: %s", label, dsErr.Message)
	default:
		return label
	}
}
