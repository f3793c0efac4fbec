package outbox

import (
	"context"
	"sync"
	"time"
)

// MemorySink records events in enqueue order.
type MemorySink struct {
	mu        sync.Mutex
	events    []any
	envelopes []Envelope
	now       func() time.Time
}

// NewMemorySink creates an empty sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{now: time.Now}
}

// Enqueue records event.
func (s *MemorySink) Enqueue(ctx context.Context, event any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env, err := NewEnvelope(event, s.now())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	s.envelopes = append(s.envelopes, env)
	return nil
}

// Events returns a copy of the recorded events.
func (s *MemorySink) Events() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]any(nil), s.events...)
}

// Envelopes returns a copy of the recorded envelopes.
func (s *MemorySink) Envelopes() []Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Envelope(nil), s.envelopes...)
}

// Len returns the number of recorded events.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// Reset drops every recorded event.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
	s.envelopes = nil
}
