// Package errmap translates errors returned by the pipeline into the
// (status, category, title) triple a transport renders.
//
// Mapping is total and side-effect free: unknown errors, including nil,
// yield no mapping and the transport applies its own fallback.
package errmap

import (
	"errors"
	"net/http"

	"github.com/jonwraymond/pipelineplus/pipeline"
)

// Mapped is the transport-facing translation of an error.
type Mapped struct {
	StatusCode int    `json:"status"`
	Category   string `json:"type"`
	Title      string `json:"title"`
}

// Known translations.
var (
	ValidationFailed = Mapped{StatusCode: http.StatusUnprocessableEntity, Category: "validation_error", Title: "Validation failed"}
	NotFound         = Mapped{StatusCode: http.StatusNotFound, Category: "not_found", Title: "Resource not found"}
	InFlight         = Mapped{StatusCode: http.StatusConflict, Category: "conflict", Title: "Request already in progress"}
)

// Mapper translates errors.
type Mapper interface {
	// Map returns the translation of err and true, or false when err is
	// not recognized.
	Map(err error) (Mapped, bool)
}

// Func adapts a function to the Mapper interface.
type Func func(err error) (Mapped, bool)

// Map calls f(err).
func (f Func) Map(err error) (Mapped, bool) {
	return f(err)
}

// Default maps the pipeline's error taxonomy.
type Default struct{}

// Map recognizes validation failures, not-found errors and in-flight
// idempotent requests anywhere in err's chain.
func (Default) Map(err error) (Mapped, bool) {
	switch {
	case err == nil:
		return Mapped{}, false
	case isValidation(err):
		return ValidationFailed, true
	case errors.Is(err, pipeline.ErrNotFound):
		return NotFound, true
	case errors.Is(err, pipeline.ErrRequestInFlight):
		return InFlight, true
	default:
		return Mapped{}, false
	}
}

func isValidation(err error) bool {
	_, ok := pipeline.AsValidationError(err)
	return ok
}

// Chain tries each mapper in order; the first match wins. A mapper that
// panics counts as no match.
type Chain []Mapper

// Map implements Mapper.
func (c Chain) Map(err error) (Mapped, bool) {
	if err == nil {
		return Mapped{}, false
	}
	for _, m := range c {
		if m == nil {
			continue
		}
		if mapped, ok := safeMap(m, err); ok {
			return mapped, true
		}
	}
	return Mapped{}, false
}

func safeMap(m Mapper, err error) (mapped Mapped, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			mapped, ok = Mapped{}, false
		}
	}()
	return m.Map(err)
}

// With returns a mapper that tries custom first and falls back to Default.
func With(custom ...Mapper) Mapper {
	return append(Chain(custom), Default{})
}
