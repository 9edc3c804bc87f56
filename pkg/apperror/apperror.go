package apperror

import (
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindUnauthenticated Kind = "UNAUTHENTICATED"
	KindAccessDenied    Kind = "ACCESS_DENIED"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindValidation      Kind = "VALIDATION_ERROR"
	KindTooManyRequests Kind = "TOO_MANY_REQUESTS"
	KindInternal        Kind = "INTERNAL"
)

// Error is the error type returned by every usecase.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int
	cause      error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, Message: message, StatusCode: status}
}

func Unauthenticated(message string) *Error {
	return newError(KindUnauthenticated, http.StatusUnauthorized, message)
}

func AccessDenied(message string) *Error {
	return newError(KindAccessDenied, http.StatusForbidden, message)
}

func NotFound(message string) *Error {
	return newError(KindNotFound, http.StatusNotFound, message)
}

func Conflict(message string) *Error {
	return newError(KindConflict, http.StatusConflict, message)
}

func Validation(message string) *Error {
	return newError(KindValidation, http.StatusBadRequest, message)
}

func TooManyRequests(message string) *Error {
	return newError(KindTooManyRequests, http.StatusTooManyRequests, message)
}

// Internal wraps an unexpected failure. The cause is kept for logging and
// never shown to clients.
func Internal(cause error) *Error {
	e := newError(KindInternal, http.StatusInternalServerError, "Internal server error")
	e.cause = cause
	return e
}

// From maps any error onto the taxonomy.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("Resource not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return Conflict("A record with this value already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrInvalidData):
		return Validation("Invalid reference or data")
	}
	return Internal(err)
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}
