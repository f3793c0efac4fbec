package behavior

import (
	"context"

	"github.com/jonwraymond/pipelineplus/observe"
	"github.com/jonwraymond/pipelineplus/pipeline"
)

// Performance measures the rest of the chain. The measurement is emitted on
// success, error, cancellation and panic; the result is never altered.
type Performance[Req, Resp any] struct {
	mw   *observe.Middleware
	meta observe.RequestMeta
}

// NewPerformance creates the behavior. A nil mw records nothing.
func NewPerformance[Req, Resp any](mw *observe.Middleware, meta observe.RequestMeta) *Performance[Req, Resp] {
	if mw == nil {
		mw = observe.NopMiddleware()
	}
	return &Performance[Req, Resp]{mw: mw, meta: meta}
}

// Handle implements pipeline.Behavior.
func (b *Performance[Req, Resp]) Handle(ctx context.Context, req Req, next pipeline.HandlerFunc[Req, Resp]) (Resp, error) {
	var resp Resp
	err := b.mw.Around(ctx, b.meta, func(ctx context.Context) error {
		var err error
		resp, err = next(ctx, req)
		return err
	})
	return resp, err
}
