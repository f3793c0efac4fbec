package resilience

import "context"

// GuardConfig configures a Guard. A zero RetryConfig still enables retries
// with defaults; set DisableRetry or DisableBreaker to turn a stage off.
type GuardConfig struct {
	Retry          RetryConfig
	Breaker        BreakerConfig
	DisableRetry   bool
	DisableBreaker bool
}

// Guard runs store I/O through a circuit breaker wrapping a retry policy, so
// one exhausted retry sequence counts as one breaker failure.
type Guard struct {
	retry   *Retry
	breaker *Breaker
}

// NewGuard creates a Guard from config.
func NewGuard(config GuardConfig) *Guard {
	g := &Guard{}
	if !config.DisableRetry {
		g.retry = NewRetry(config.Retry)
	}
	if !config.DisableBreaker {
		g.breaker = NewBreaker(config.Breaker)
	}
	return g
}

// Do runs op under the guard. A nil Guard calls op directly.
func (g *Guard) Do(ctx context.Context, op func(context.Context) error) error {
	if g == nil {
		return op(ctx)
	}

	run := op
	if g.retry != nil {
		inner := run
		run = func(ctx context.Context) error {
			return g.retry.Execute(ctx, inner)
		}
	}
	if g.breaker != nil {
		inner := run
		run = func(ctx context.Context) error {
			return g.breaker.Execute(ctx, inner)
		}
	}
	return run(ctx)
}

// Breaker returns the guard's breaker, or nil when disabled.
func (g *Guard) Breaker() *Breaker {
	if g == nil {
		return nil
	}
	return g.breaker
}
