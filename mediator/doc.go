// Package mediator dispatches typed requests to their handlers through the
// behavior pipeline.
//
// A Mediator is configured once with config.Options, a cache store, an
// outbox sink and the policy and validator registries. Register builds the
// chain for one request type, in the fixed order
//
//	Validation → Performance → Caching → Idempotency → Outbox → handler
//
// keeping only the behaviors that are enabled and apply to that type. Send
// runs the prebuilt chain; nothing is resolved per call.
//
//	m := mediator.New(mediator.WithStores(stores), mediator.WithPolicies(policies))
//	_ = mediator.Register(m, getOrderHandler)
//	order, err := mediator.Send[GetOrder, Order](ctx, m, GetOrder{OrderID: "O-1"})
//	if mapped, ok := m.MapError(err); ok {
//		// render mapped.StatusCode
//	}
package mediator
