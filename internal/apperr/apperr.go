// Package apperr provides the unified application error type.
// Errors carry a machine-readable code, an HTTP status mapping, and an
// optional cause chain. Handlers translate them to JSON responses; internal
// detail stays in the Cause and is logged, never sent to clients.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is the unified application error.
type Error struct {
	// Code is a machine-readable error code.
	Code Code `json:"code"`
	// Message is a human-readable message safe to return to clients.
	Message string `json:"message"`
	// HTTPStatus is the HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error. Logged server-side only.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an Error with the given code, message, and HTTP status.
func New(code Code, message string, httpStatus int) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: httpStatus}
}

// From extracts an *Error from err's chain, or wraps err as an internal error.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Code == code
}

// --- Constructors ---

// Unauthenticated creates an error for a missing or invalid credential.
// The client-visible message is deliberately uniform and non-revealing.
func Unauthenticated() *Error {
	return &Error{
		Code: CodeUnauthenticated, Message: "Could not validate credentials.",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// PolicyViolation creates an error for a valid identity that fails an
// organizational trust requirement. Maps to 403, never 401.
func PolicyViolation(reason string) *Error {
	return &Error{
		Code: CodePolicyViolation, Message: reason,
		HTTPStatus: http.StatusForbidden,
	}
}

// MalformedIdentity creates an error for claims missing a required field.
// Clients receive the uniform unauthenticated message.
func MalformedIdentity(field string) *Error {
	return &Error{
		Code: CodeMalformedIdentity, Message: "Could not validate credentials.",
		HTTPStatus: http.StatusUnauthorized,
		Details:    map[string]any{"missing": field},
	}
}

// UpstreamUnavailable creates an error for an unreachable identity provider.
// Callers fall back to local validation; this never reaches a client as-is.
func UpstreamUnavailable(cause error) *Error {
	return &Error{
		Code: CodeUpstreamUnavailable, Message: "Identity provider unavailable.",
		HTTPStatus: http.StatusServiceUnavailable, Cause: cause,
	}
}

// Forbidden creates an error for an action the principal may not perform.
func Forbidden(reason string) *Error {
	if reason == "" {
		reason = "You don't have permission to perform this action."
	}
	return &Error{
		Code: CodeForbidden, Message: reason,
		HTTPStatus: http.StatusForbidden,
	}
}

// InvalidInput creates an error for a request that failed validation.
func InvalidInput(reason string) *Error {
	return &Error{
		Code: CodeInvalidInput, Message: reason,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NotFound creates an error for a missing resource.
func NotFound(resource string) *Error {
	return &Error{
		Code: CodeNotFound, Message: fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"resource": resource},
	}
}

// AlreadyExists creates an error for a uniqueness conflict.
func AlreadyExists(resource string) *Error {
	return &Error{
		Code: CodeAlreadyExists, Message: fmt.Sprintf("%s already exists", resource),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"resource": resource},
	}
}

// Conflict creates an error for a conflict with the current resource state.
func Conflict(reason string) *Error {
	return &Error{
		Code: CodeConflict, Message: reason,
		HTTPStatus: http.StatusConflict,
	}
}

// Internal creates an error for an unexpected server failure.
func Internal(cause error) *Error {
	return &Error{
		Code: CodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// Database creates an error for a persistence failure.
func Database(cause error) *Error {
	return &Error{
		Code: CodeDatabase, Message: "A database error occurred.",
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}
