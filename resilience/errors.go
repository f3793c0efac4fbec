package resilience

import "errors"

// Sentinel errors for guarded operations.
var (
	// ErrCircuitOpen is returned when the breaker rejects an operation.
	ErrCircuitOpen = errors.New("resilience: circuit breaker is open")
)
