package behavior

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jonwraymond/pipelineplus/observe"
	"github.com/jonwraymond/pipelineplus/outbox"
	"github.com/jonwraymond/pipelineplus/pipeline"
)

// Outbox hands the domain events of a successful response to the sink, one
// enqueue per event in the response's order. An enqueue failure fails the
// call; events already enqueued stay enqueued.
type Outbox[Req, Resp any] struct {
	sink   outbox.Sink
	logger observe.Logger
}

// NewOutbox creates the behavior. A nil logger discards.
func NewOutbox[Req, Resp any](sink outbox.Sink, logger observe.Logger) *Outbox[Req, Resp] {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &Outbox[Req, Resp]{sink: sink, logger: logger}
}

// Handle implements pipeline.Behavior.
func (b *Outbox[Req, Resp]) Handle(ctx context.Context, req Req, next pipeline.HandlerFunc[Req, Resp]) (Resp, error) {
	resp, err := next(ctx, req)
	if err != nil {
		return resp, err
	}

	events := domainEvents(resp)
	if len(events) == 0 {
		return resp, nil
	}
	for i, event := range events {
		if err := b.sink.Enqueue(ctx, event); err != nil {
			var zero Resp
			return zero, fmt.Errorf("behavior: enqueue event %d of %d (%s): %w", i+1, len(events), outbox.TypeOf(event), err)
		}
	}
	b.logger.Info(ctx, "outbox enqueued", observe.Field{Key: "events", Value: len(events)})
	return resp, nil
}

func domainEvents(resp any) []any {
	src, ok := resp.(pipeline.EventSource)
	if !ok {
		return nil
	}
	if v := reflect.ValueOf(src); v.Kind() == reflect.Pointer && v.IsNil() {
		return nil
	}
	return src.DomainEvents()
}
