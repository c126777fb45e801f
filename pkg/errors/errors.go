package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so clones with overridden
// messages still match the predefined errors below.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidInput        = New("INVALID_INPUT", http.StatusUnprocessableEntity, "invalid input")
	ErrNotFound            = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrMalformedUpstream   = New("MALFORMED_UPSTREAM_REQUEST", http.StatusBadRequest, "Something went wrong")
	ErrUpstreamUnavailable = New("UPSTREAM_UNAVAILABLE", http.StatusServiceUnavailable, "upstream service unavailable")
	ErrConflict            = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation          = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal            = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss           = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// InvalidID reports an identity key that is not exactly 36 characters long.
// field is the full parameter name, e.g. "enrollmentId".
func InvalidID(field string) *Error {
	return Clone(ErrInvalidInput, fmt.Sprintf("Invalid %s, length must be 36 characters", field))
}

// UpstreamNotFound reports a key the owning downstream service does not know.
// kind is the entity name, e.g. "Student".
func UpstreamNotFound(kind, key string) *Error {
	return Clone(ErrNotFound, fmt.Sprintf("%sId not found: %s", kind, key))
}

// EntityNotFound reports a key missing from the local store.
// kind is the lowercase entity name, e.g. "course".
func EntityNotFound(kind, key string) *Error {
	return Clone(ErrNotFound, fmt.Sprintf("No %s with this %sId was found: %s", kind, kind, key))
}

// UpstreamUnavailable wraps a transport failure talking to the named service.
func UpstreamUnavailable(service string, err error) *Error {
	return Wrap(err, ErrUpstreamUnavailable.Code, ErrUpstreamUnavailable.Status, service+" service unavailable")
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// IsRetryable reports whether the failure is a transport-level upstream outage.
// Not-found and malformed-request outcomes never succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}
