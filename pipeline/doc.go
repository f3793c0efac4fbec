// Package pipeline defines the request/response chain that cross-cutting
// behaviors are composed around.
//
// A handler performs business logic only. Behaviors wrap it in a fixed order
// and may short-circuit (cache hit, idempotent replay), inspect the result, or
// pass through. The chain is composed once with Chain and is safe for
// concurrent use as long as its behaviors are.
//
//	h := pipeline.Chain(getOrder, validation, timing, caching)
//	order, err := h(ctx, GetOrder{OrderID: "O-1"})
//
// The package holds no I/O of its own. Stores, sinks and telemetry are
// injected into the behaviors that need them.
package pipeline
