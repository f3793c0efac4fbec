// Package behavior implements the links of the request pipeline: Validation,
// Performance, Caching, Idempotency and Outbox.
//
// Every behavior is built once per request type and satisfies
// pipeline.Behavior. Behaviors never turn an error into a response; only a
// cache hit or an idempotent replay of an earlier success short-circuits the
// chain.
package behavior
