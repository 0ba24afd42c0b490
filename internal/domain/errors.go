package domain

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Common errors used throughout the application.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrPreconditionFailed = errors.New("precondition failed")

	// Gateway failure kinds.
	ErrTransport   = errors.New("gateway transport failure")
	ErrApplication = errors.New("gateway application failure")
	// ErrInvalidFormat is an application failure whose result payload had
	// the wrong shape.
	ErrInvalidFormat = errors.Wrap(ErrApplication, "unexpected result format")

	// Preconditions checked before any gateway call.
	ErrPermissionDenied = errors.New("permission denied")
	ErrNoSelection      = errors.New("no row selected")
	ErrNotConfirmed     = errors.New("action not confirmed")

	// Shell and card lifecycle.
	ErrUnknownModule  = errors.New("unknown module")
	ErrTabNotOpen     = errors.New("tab not open")
	ErrNoActiveTab    = errors.New("no active tab")
	ErrCardUnmounted  = errors.New("card unmounted")
	ErrStaleResponse  = errors.New("stale response")
	ErrUnknownAction  = errors.New("unknown action")
	ErrNothingChanged = errors.New("nothing changed")
)

// Error codes for standardized API error responses.
const (
	ErrCodeResourceNotFound   = "RESOURCE_NOT_FOUND"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeValidationError    = "VALIDATION_ERROR"
	ErrCodePreconditionFailed = "PRECONDITION_FAILED"
	ErrCodePermissionDenied   = "PERMISSION_DENIED"
	ErrCodeGatewayFailed      = "GATEWAY_FAILED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// GatewayError is an application-level failure reported by the gateway
// inside an otherwise successful response.
type GatewayError struct {
	Map     string
	Message string
}

func (e *GatewayError) Error() string {
	if e.Map == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Map, e.Message)
}

// Unwrap makes errors.Is(err, ErrApplication) hold.
func (e *GatewayError) Unwrap() error {
	return ErrApplication
}

// TransportError is a request that never produced a gateway answer:
// network failure, timeout or a non-2xx status.
type TransportError struct {
	Map string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrTransport, e.Map, e.Err)
}

// Unwrap exposes both ErrTransport and the underlying cause.
func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// StandardError represents a standardized error response from the API.
type StandardError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Field   string         `json:"field,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// StandardErrorResponse wraps a StandardError for JSON responses.
type StandardErrorResponse struct {
	Error StandardError `json:"error"`
}
