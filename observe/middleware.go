package observe

import (
	"context"
	"fmt"
	"time"
)

// Middleware measures pipeline calls with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: errors from the measured function are recorded and returned
//     unchanged. Panics are recorded and re-raised.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
	now     func() time.Time
}

// NewMiddleware creates a Middleware. Nil components are replaced by no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = newNoopTracer()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{tracer: tracer, metrics: metrics, logger: logger, now: time.Now}
}

// NopMiddleware returns a Middleware that records nothing.
func NopMiddleware() *Middleware {
	return NewMiddleware(nil, nil, nil)
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}

// Around runs fn inside a span and emits the elapsed time when fn returns,
// fails, is canceled or panics.
func (m *Middleware) Around(ctx context.Context, meta RequestMeta, fn func(context.Context) error) (err error) {
	ctx, span := m.tracer.StartSpan(ctx, meta)
	start := m.now()

	completed := false
	defer func() {
		elapsed := m.now().Sub(start)
		recorded := err

		var recovered any
		if !completed {
			recovered = recover()
			recorded = fmt.Errorf("observe: panic in %s: %v", meta.Name, recovered)
		}

		m.tracer.EndSpan(span, recorded)
		m.metrics.RecordRequest(ctx, meta, elapsed, recorded)
		m.log(ctx, meta, elapsed, recorded)

		if !completed {
			panic(recovered)
		}
	}()

	err = fn(ctx)
	completed = true
	return err
}

func (m *Middleware) log(ctx context.Context, meta RequestMeta, elapsed time.Duration, err error) {
	status := StatusOf(err)
	fields := []Field{
		{Key: "elapsed_ms", Value: elapsed.Milliseconds()},
		{Key: "status", Value: status},
	}
	logger := m.logger.WithRequest(meta)
	ctx = context.WithoutCancel(ctx)

	switch status {
	case StatusOK:
		logger.Info(ctx, "request handled", fields...)
	case StatusCanceled:
		logger.Warn(ctx, "request handled", append(fields, Field{Key: "error", Value: err.Error()})...)
	default:
		logger.Error(ctx, "request handled", append(fields, Field{Key: "error", Value: err.Error()})...)
	}
}
