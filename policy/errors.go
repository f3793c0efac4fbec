package policy

import (
	"errors"

	"github.com/jonwraymond/pipelineplus/cache"
)

// Registration errors.
var (
	ErrAlreadyRegistered = errors.New("policy: already registered for request type")
	ErrInvalidPolicy     = errors.New("policy: invalid policy")

	// ErrNoKeyFields means a key template was given for a request type that
	// does not implement cache.Fielder.
	ErrNoKeyFields = errors.New("policy: request type exposes no key fields")

	// ErrUnknownToken is cache.ErrUnknownToken, re-exported for callers that
	// only import this package.
	ErrUnknownToken = cache.ErrUnknownToken
)
