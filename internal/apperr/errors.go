// Package apperr defines the error taxonomy shared by every request path and
// renders it as a structured JSON response.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

// Error kinds.
const (
	KindBadRequest      Kind = "bad_request"
	KindUnauthorized    Kind = "unauthorized"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindUpstreamFailure Kind = "upstream_failure"
	KindInternal        Kind = "internal"
)

// Sentinel errors, one per kind. Every *Error matches the sentinel of its kind
// with errors.Is.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrUnauthorized    = errors.New("unauthorized access")
	ErrForbidden       = errors.New("forbidden access")
	ErrNotFound        = errors.New("not found")
	ErrUpstreamFailure = errors.New("upstream failure")
	ErrInternal        = errors.New("internal error")
)

var sentinels = map[Kind]error{
	KindBadRequest:      ErrBadRequest,
	KindUnauthorized:    ErrUnauthorized,
	KindForbidden:       ErrForbidden,
	KindNotFound:        ErrNotFound,
	KindUpstreamFailure: ErrUpstreamFailure,
	KindInternal:        ErrInternal,
}

// Error is a classified failure carrying a client-facing message.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel of e's kind.
func (e *Error) Is(target error) bool {
	if s, ok := sentinels[e.Kind]; ok && target == s {
		return true
	}
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// BadRequest creates a bad_request error.
func BadRequest(message string, cause error) *Error {
	return Wrap(KindBadRequest, message, cause)
}

// Unauthorized creates an unauthorized error with the standard message.
func Unauthorized(cause error) *Error {
	return Wrap(KindUnauthorized, ErrUnauthorized.Error(), cause)
}

// Forbidden creates a forbidden error with the standard message.
func Forbidden(cause error) *Error {
	return Wrap(KindForbidden, ErrForbidden.Error(), cause)
}

// NotFound creates a not_found error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// Upstream creates an upstream_failure error.
func Upstream(message string, cause error) *Error {
	return Wrap(KindUpstreamFailure, message, cause)
}

// Internal creates an internal error.
func Internal(message string, cause error) *Error {
	return Wrap(KindInternal, message, cause)
}

// KindOf returns the kind of err. Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Status maps err to an HTTP status code. Upstream failures caused by an
// expired deadline map to 504.
func Status(err error) int {
	switch KindOf(err) {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstreamFailure:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message of err. Causes are never
// exposed.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "an unexpected error occurred"
}
