package health

import "errors"

var (
	// ErrCheckFailed marks a probe that ran and failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout marks a probe cut off by the aggregator deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned for an unknown checker name.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
