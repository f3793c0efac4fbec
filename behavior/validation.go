package behavior

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/pipelineplus/pipeline"
	"github.com/jonwraymond/pipelineplus/validation"
)

// Validation runs every validator of the request type concurrently and
// fails with *pipeline.ValidationError when any of them reports a failure.
// Failures are merged in validator registration order.
type Validation[Req, Resp any] struct {
	validators []validation.Validator[Req]
}

// NewValidation creates the behavior. With no validators it passes through.
func NewValidation[Req, Resp any](validators ...validation.Validator[Req]) *Validation[Req, Resp] {
	return &Validation[Req, Resp]{validators: validators}
}

// Handle implements pipeline.Behavior.
func (b *Validation[Req, Resp]) Handle(ctx context.Context, req Req, next pipeline.HandlerFunc[Req, Resp]) (Resp, error) {
	if len(b.validators) == 0 {
		return next(ctx, req)
	}

	results := make([][]pipeline.FieldFailure, len(b.validators))
	var g errgroup.Group
	for i, v := range b.validators {
		g.Go(func() error {
			results[i] = v.Validate(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		var zero Resp
		return zero, err
	}

	var failures []pipeline.FieldFailure
	for _, r := range results {
		failures = append(failures, r...)
	}
	if len(failures) > 0 {
		var zero Resp
		return zero, &pipeline.ValidationError{Failures: failures}
	}
	return next(ctx, req)
}
