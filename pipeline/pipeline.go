package pipeline

import (
	"context"
	"reflect"
)

// HandlerFunc handles one request and produces its response.
//
// Contract:
//   - Context: implementations must honor cancellation and return ctx.Err()
//     (possibly wrapped) when they abort.
//   - Errors: errors are returned unchanged to the caller of the chain.
type HandlerFunc[Req, Resp any] func(ctx context.Context, req Req) (Resp, error)

// Behavior is one link in the chain.
//
// Contract:
//   - next must be called at most once. A behavior that short-circuits must
//     not call it and must return a value indistinguishable from one next
//     would have produced.
//   - Errors from next are returned unchanged unless the behavior documents
//     otherwise.
//   - Concurrency: a Behavior is shared by all calls and must be safe for
//     concurrent use.
type Behavior[Req, Resp any] interface {
	Handle(ctx context.Context, req Req, next HandlerFunc[Req, Resp]) (Resp, error)
}

// BehaviorFunc adapts a function to the Behavior interface.
type BehaviorFunc[Req, Resp any] func(ctx context.Context, req Req, next HandlerFunc[Req, Resp]) (Resp, error)

// Handle calls f(ctx, req, next).
func (f BehaviorFunc[Req, Resp]) Handle(ctx context.Context, req Req, next HandlerFunc[Req, Resp]) (Resp, error) {
	return f(ctx, req, next)
}

// Chain composes behaviors around handler. The first behavior is the
// outermost one; nil behaviors are skipped.
func Chain[Req, Resp any](handler HandlerFunc[Req, Resp], behaviors ...Behavior[Req, Resp]) HandlerFunc[Req, Resp] {
	h := handler
	for i := len(behaviors) - 1; i >= 0; i-- {
		b := behaviors[i]
		if b == nil {
			continue
		}
		next := h
		h = func(ctx context.Context, req Req) (Resp, error) {
			return b.Handle(ctx, req, next)
		}
	}
	return h
}

// Named lets a request type choose the identifier it is registered under.
type Named interface {
	RequestName() string
}

// NameOf returns the identifier for request type Req: RequestName() when
// the type implements Named, otherwise its Go type name.
func NameOf[Req any]() string {
	var zero Req
	if n, ok := any(zero).(Named); ok {
		return n.RequestName()
	}
	t := reflect.TypeFor[Req]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

// Unit is the response of requests that produce no meaningful value.
type Unit struct{}

// IsUnit reports whether Resp is Unit.
func IsUnit[Resp any]() bool {
	var zero Resp
	_, ok := any(zero).(Unit)
	return ok
}

// EventSource is implemented by responses that carry domain events produced
// by the handler. Events are handed to the outbox in slice order.
type EventSource interface {
	DomainEvents() []any
}
