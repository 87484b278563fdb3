package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is a stable machine-readable error category surfaced to API clients.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindPermissionDenied  Kind = "permission_denied"
	KindInvalidTransition Kind = "invalid_transition"
	KindInsufficientStock Kind = "insufficient_stock"
	KindUnauthorized      Kind = "unauthorized"
	KindInternal          Kind = "internal"
)

// Error carries a kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func Conflict(format string, args ...interface{}) *Error {
	return New(KindConflict, format, args...)
}

func PermissionDenied(format string, args ...interface{}) *Error {
	return New(KindPermissionDenied, format, args...)
}

func InvalidTransition(format string, args ...interface{}) *Error {
	return New(KindInvalidTransition, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return New(KindUnauthorized, format, args...)
}

// InsufficientStock reports a stock shortfall with the quantity still
// available, so clients can offer a reduced quantity.
type InsufficientStockError struct {
	ProductName string
	VariantID   string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s. Available: %d", e.ProductName, e.Available)
}

// KindOf extracts the error's kind, defaulting to internal.
func KindOf(err error) Kind {
	var stock *InsufficientStockError
	if errors.As(err, &stock) {
		return KindInsufficientStock
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus maps an error kind to its HTTP response code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindInvalidTransition:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict, KindInsufficientStock:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Payload renders the wire representation of an error.
func Payload(err error) map[string]interface{} {
	body := map[string]interface{}{
		"error": err.Error(),
		"code":  string(KindOf(err)),
	}
	var stock *InsufficientStockError
	if errors.As(err, &stock) {
		body["available"] = stock.Available
	}
	return body
}
