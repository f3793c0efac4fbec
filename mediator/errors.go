package mediator

import "errors"

var (
	// ErrNoHandler is returned by Send for an unregistered request type.
	ErrNoHandler = errors.New("mediator: no handler registered for request type")

	// ErrHandlerType is returned by Send when the registered handler has a
	// different response type.
	ErrHandlerType = errors.New("mediator: handler response type mismatch")

	// ErrDuplicateHandler is returned by Register for a type registered twice.
	ErrDuplicateHandler = errors.New("mediator: handler already registered for request type")

	// ErrNilHandler is returned by Register for a nil handler.
	ErrNilHandler = errors.New("mediator: handler is nil")

	// ErrMissingSink is returned by Register when the outbox is enabled and
	// no sink is configured.
	ErrMissingSink = errors.New("mediator: outbox sink required")
)
