package observe

import (
	"context"
	"errors"
)

// RequestMeta identifies the request type being measured.
type RequestMeta struct {
	Name string // request identifier (required)
	Kind string // "command" or "query" (optional)
}

// SpanName returns the span name: pipeline.request.<Name>.
func (m RequestMeta) SpanName() string {
	return "pipeline.request." + m.Name
}

// Validate checks the required fields.
func (m RequestMeta) Validate() error {
	if m.Name == "" {
		return ErrMissingRequestName
	}
	return nil
}

// ErrMissingRequestName indicates RequestMeta.Name is empty.
var ErrMissingRequestName = errors.New("observe: request name is required")

// Outcome statuses recorded for every call.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusCanceled = "canceled"
)

// StatusOf classifies err. Cancellation and deadline expiry are reported as
// canceled rather than error.
func StatusOf(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return StatusCanceled
	default:
		return StatusError
	}
}
