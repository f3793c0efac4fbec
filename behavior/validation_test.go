package behavior

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/pipelineplus/pipeline"
	"github.com/jonwraymond/pipelineplus/validation"
)

func failWith(failures ...pipeline.FieldFailure) validation.Validator[placeOrder] {
	return validation.Func[placeOrder](func(context.Context, placeOrder) []pipeline.FieldFailure {
		return failures
	})
}

func placeHandler() *counter[placeOrder, placed] {
	return &counter[placeOrder, placed]{fn: func(_ context.Context, c placeOrder) (placed, error) {
		return placed{OrderID: c.OrderID}, nil
	}}
}

func TestValidation_NoValidatorsPassesThrough(t *testing.T) {
	h := placeHandler()
	b := NewValidation[placeOrder, placed]()

	resp, err := b.Handle(context.Background(), placeOrder{OrderID: "O-1"}, h.handle)
	if err != nil || resp.OrderID != "O-1" || h.count() != 1 {
		t.Fatalf("Handle() = %+v, %v (calls %d)", resp, err, h.count())
	}
}

func TestValidation_Passes(t *testing.T) {
	h := placeHandler()
	b := NewValidation[placeOrder, placed](failWith(), failWith())

	if _, err := b.Handle(context.Background(), placeOrder{OrderID: "O-1"}, h.handle); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
	if h.count() != 1 {
		t.Errorf("next called %d times", h.count())
	}
}

func TestValidation_MergesAllFailures(t *testing.T) {
	h := placeHandler()
	b := NewValidation[placeOrder, placed](
		failWith(pipeline.FieldFailure{Field: "OrderID", Message: "is required"}),
		failWith(),
		failWith(
			pipeline.FieldFailure{Field: "Amount", Message: "must be positive"},
			pipeline.FieldFailure{Field: "Amount", Message: "must be below 1000"},
		),
	)

	_, err := b.Handle(context.Background(), placeOrder{}, h.handle)
	ve, ok := pipeline.AsValidationError(err)
	if !ok {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	want := []pipeline.FieldFailure{
		{Field: "OrderID", Message: "is required"},
		{Field: "Amount", Message: "must be positive"},
		{Field: "Amount", Message: "must be below 1000"},
	}
	if !reflect.DeepEqual(ve.Failures, want) {
		t.Errorf("failures = %+v", ve.Failures)
	}
	if h.count() != 0 {
		t.Error("next must not run when validation fails")
	}
}

func TestValidation_RunsConcurrently(t *testing.T) {
	var barrier sync.WaitGroup
	barrier.Add(2)
	waitForPeer := validation.Func[placeOrder](func(context.Context, placeOrder) []pipeline.FieldFailure {
		barrier.Done()
		done := make(chan struct{})
		go func() { barrier.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-time.After(2 * time.Second):
			return []pipeline.FieldFailure{{Message: "validators ran sequentially"}}
		}
	})

	h := placeHandler()
	b := NewValidation[placeOrder, placed](waitForPeer, waitForPeer)
	if _, err := b.Handle(context.Background(), placeOrder{}, h.handle); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}
}

func TestValidation_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := placeHandler()
	b := NewValidation[placeOrder, placed](failWith())
	_, err := b.Handle(ctx, placeOrder{}, h.handle)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if h.count() != 0 {
		t.Error("next must not run after cancellation")
	}
}
