package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// ErrSinkUnavailable wraps delivery failures of a sink's backing transport.
var ErrSinkUnavailable = errors.New("outbox: sink unavailable")

// Sink accepts domain events.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Ordering: events enqueued sequentially by one caller keep that order.
//   - Errors: transport failures wrap ErrSinkUnavailable; encoding failures
//     are returned as is.
type Sink interface {
	Enqueue(ctx context.Context, event any) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, event any) error

// Enqueue calls f(ctx, event).
func (f SinkFunc) Enqueue(ctx context.Context, event any) error {
	return f(ctx, event)
}

// Typed lets an event choose its type name.
type Typed interface {
	EventType() string
}

// TypeOf returns EventType() for Typed events, otherwise the Go type name.
func TypeOf(event any) string {
	if t, ok := event.(Typed); ok {
		return t.EventType()
	}
	rt := reflect.TypeOf(event)
	if rt == nil {
		return "nil"
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Name() != "" {
		return rt.Name()
	}
	return rt.String()
}

// Envelope is the serialized form of an event handed to a transport.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEnvelope wraps event with a fresh ID.
func NewEnvelope(event any, now time.Time) (Envelope, error) {
	if event == nil {
		return Envelope{}, errors.New("outbox: nil event")
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("outbox: failed to encode %s: %w", TypeOf(event), err)
	}
	return Envelope{
		ID:         uuid.NewString(),
		Type:       TypeOf(event),
		OccurredAt: now.UTC(),
		Payload:    payload,
	}, nil
}
