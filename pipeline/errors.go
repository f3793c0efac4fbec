package pipeline

import (
	"errors"
	"strings"
)

// Sentinel errors shared by behaviors and handlers.
var (
	// ErrNotFound is returned (possibly wrapped) by handlers when the
	// requested resource does not exist.
	ErrNotFound = errors.New("pipeline: resource not found")

	// ErrRequestInFlight is returned when another call bearing the same
	// idempotency token has not completed yet.
	ErrRequestInFlight = errors.New("pipeline: request with this idempotency key is in progress")
)

// FieldFailure is one failed validation rule.
type FieldFailure struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every failure reported by the validators of a
// request. It is a value, not a panic: the validation behavior returns it and
// the exception mapper translates it for the transport.
type ValidationError struct {
	Failures []FieldFailure
}

// Error lists the failures as "field: message" pairs.
func (e *ValidationError) Error() string {
	if len(e.Failures) == 0 {
		return "pipeline: validation failed"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Field == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "pipeline: validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError extracts a *ValidationError from err's chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
