package validation

import (
	"context"

	"github.com/jonwraymond/pipelineplus/pipeline"
)

// Validator checks one request.
//
// Contract:
//   - Concurrency: validators of the same request may run concurrently and
//     must not mutate req.
//   - Failures: an empty result means the request passed. Order of the
//     returned failures is preserved.
type Validator[Req any] interface {
	Validate(ctx context.Context, req Req) []pipeline.FieldFailure
}

// Func adapts a function to the Validator interface.
type Func[Req any] func(ctx context.Context, req Req) []pipeline.FieldFailure

// Validate calls f(ctx, req).
func (f Func[Req]) Validate(ctx context.Context, req Req) []pipeline.FieldFailure {
	return f(ctx, req)
}
