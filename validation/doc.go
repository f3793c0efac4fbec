// Package validation defines the validator contract consumed by the
// validation behavior and a registry of validators per request type.
//
// Only the pass/fail contract matters to the pipeline: a validator returns
// the failures it found, and an empty result means the request passed.
// Struct adapts go-playground/validator struct tags to that contract.
package validation
