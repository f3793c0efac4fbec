package outbox

import (
	"context"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/binding"
	"github.com/cloudevents/sdk-go/v2/protocol"

	"github.com/jonwraymond/pipelineplus/resilience"
)

// DefaultSource is the CloudEvents source attribute used when none is set.
const DefaultSource = "/pipeline"

// CloudEventsSink sends each event through a CloudEvents protocol.Sender,
// such as the HTTP protocol of sdk-go.
type CloudEventsSink struct {
	sender protocol.Sender
	source string
	guard  *resilience.Guard
	now    func() time.Time
}

// CloudEventsOption configures a CloudEventsSink.
type CloudEventsOption func(*CloudEventsSink)

// WithSource sets the source attribute of every event.
func WithSource(source string) CloudEventsOption {
	return func(s *CloudEventsSink) {
		if source != "" {
			s.source = source
		}
	}
}

// WithSenderGuard runs every send through guard.
func WithSenderGuard(guard *resilience.Guard) CloudEventsOption {
	return func(s *CloudEventsSink) { s.guard = guard }
}

// NewCloudEventsSink creates a sink over sender.
func NewCloudEventsSink(sender protocol.Sender, opts ...CloudEventsOption) *CloudEventsSink {
	s := &CloudEventsSink{sender: sender, source: DefaultSource, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue converts event and sends it. Anything but an ACK is a failure.
func (s *CloudEventsSink) Enqueue(ctx context.Context, event any) error {
	ce, err := s.toCloudEvent(event)
	if err != nil {
		return err
	}

	err = s.guard.Do(ctx, func(ctx context.Context) error {
		result := s.sender.Send(ctx, binding.ToMessage(&ce))
		if protocol.IsACK(result) {
			return nil
		}
		return result
	})
	if err != nil {
		return fmt.Errorf("%w: send %s: %w", ErrSinkUnavailable, ce.ID(), err)
	}
	return nil
}

func (s *CloudEventsSink) toCloudEvent(event any) (cloudevents.Event, error) {
	env, err := NewEnvelope(event, s.now())
	if err != nil {
		return cloudevents.Event{}, err
	}

	ce := cloudevents.NewEvent()
	ce.SetID(env.ID)
	ce.SetType(env.Type)
	ce.SetSource(s.source)
	ce.SetTime(env.OccurredAt)
	if err := ce.SetData(cloudevents.ApplicationJSON, []byte(env.Payload)); err != nil {
		return cloudevents.Event{}, fmt.Errorf("outbox: failed to set event data: %w", err)
	}
	if err := ce.Validate(); err != nil {
		return cloudevents.Event{}, fmt.Errorf("outbox: invalid cloudevent: %w", err)
	}
	return ce, nil
}
