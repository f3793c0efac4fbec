// Package cache provides the response store used by the caching and
// idempotency behaviors.
//
// It provides a Cache interface with in-memory and Redis implementations,
// TTL policies, a typed key template evaluator restricted to declared request
// fields, and a SHA-256 keyer for requests without a template.
package cache
