// Package apperrors defines the error taxonomy shared by every layer of the
// customer record keeper. Callers branch with errors.Is on the sentinels or
// errors.As on the typed errors, and the HTTP layer maps them with HTTPStatus.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind is the coarse classification of an error, used by transports.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindInvalidInput Kind = "invalid_input"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindConnection   Kind = "connection"
	KindExternal     Kind = "external_service"
	KindTimeout      Kind = "external_timeout"
	KindInternal     Kind = "internal"
)

// Sentinels identify the specific failure; typed errors unwrap to them.
var (
	ErrInvalidName    = errors.New("invalid name")
	ErrInvalidEmail   = errors.New("invalid email")
	ErrInvalidPhone   = errors.New("invalid phone")
	ErrInvalidAddress = errors.New("invalid address")
	ErrInvalidTaxID   = errors.New("invalid tax id")
	ErrInvalidRate    = errors.New("invalid rate")
	ErrInvalidTier    = errors.New("invalid tier")
	ErrNegativeValue  = errors.New("negative value")

	ErrInvalidVariant     = errors.New("invalid customer variant")
	ErrVariantMismatch    = errors.New("operation not supported by customer variant")
	ErrFieldNotApplicable = errors.New("field does not apply to customer variant")
	ErrMalformedRecord    = errors.New("malformed record")

	ErrNotFound        = errors.New("record not found")
	ErrDuplicate       = errors.New("duplicate record")
	ErrConnection      = errors.New("storage unavailable")
	ErrExternalService = errors.New("external service error")
	ErrExternalTimeout = errors.New("external service timeout")
)

// ValidationError reports a field that failed validation. Err is one of the
// sentinels above.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid builds a ValidationError for field with a formatted message.
func Invalid(field string, kind error, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Err:     kind,
	}
}

// DuplicateRecordError is returned when a unique field already exists.
type DuplicateRecordError struct {
	Field string
	Value string
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("a record with %s %q already exists", e.Field, e.Value)
}

func (e *DuplicateRecordError) Unwrap() error { return ErrDuplicate }

// NotFoundError is returned when a lookup by id finds nothing.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConnectionError wraps a failure to reach the storage backend.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("storage unavailable: %v", e.Err)
}

func (e *ConnectionError) Unwrap() []error { return []error{ErrConnection, e.Err} }

// ExternalServiceError is a non-success answer from an outbound service.
type ExternalServiceError struct {
	Service string
	Message string
	Code    int
}

func (e *ExternalServiceError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Service, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

func (e *ExternalServiceError) Unwrap() error { return ErrExternalService }

// ExternalServiceTimeoutError is returned when an outbound call exceeds its
// deadline.
type ExternalServiceTimeoutError struct {
	Service string
	Timeout time.Duration
}

func (e *ExternalServiceTimeoutError) Error() string {
	return fmt.Sprintf("%s did not answer within %.0fs", e.Service, e.Timeout.Seconds())
}

func (e *ExternalServiceTimeoutError) Unwrap() error { return ErrExternalTimeout }

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicate):
		return KindConflict
	case errors.Is(err, ErrConnection):
		return KindConnection
	case errors.Is(err, ErrExternalTimeout):
		return KindTimeout
	case errors.Is(err, ErrExternalService):
		return KindExternal
	case errors.Is(err, ErrInvalidVariant),
		errors.Is(err, ErrVariantMismatch),
		errors.Is(err, ErrFieldNotApplicable),
		errors.Is(err, ErrMalformedRecord):
		return KindInvalidInput
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return KindValidation
	}
	return KindInternal
}

// HTTPStatus maps err to the status code a transport should answer with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindConnection:
		return http.StatusServiceUnavailable
	case KindExternal:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusGatewayTimeout
	case "":
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}

// FieldOf returns the offending field of a validation error, if any.
func FieldOf(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field
	}
	var de *DuplicateRecordError
	if errors.As(err, &de) {
		return de.Field
	}
	return ""
}
