// Package policy holds the declarative metadata attached to request types:
// cache policies and idempotency policies.
//
// Policies are registered per request type at startup and compiled then, so
// a key template that names an undeclared field fails registration instead
// of producing a bad key at runtime. Behaviors look policies up by request
// name; no type introspection happens per call.
package policy
