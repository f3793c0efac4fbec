// Package resilience guards store and sink I/O with retries and a circuit
// breaker.
//
// The request pipeline itself never retries: a failing cache store or outbox
// sink is surfaced to the caller unchanged. Store implementations that want a
// retry policy own a Guard and run their I/O through it:
//
//	guard := resilience.NewGuard(resilience.GuardConfig{
//	    Retry: resilience.RetryConfig{
//	        MaxAttempts:  3,
//	        InitialDelay: 20 * time.Millisecond,
//	    },
//	    Breaker: resilience.BreakerConfig{
//	        MaxFailures:  5,
//	        ResetTimeout: 10 * time.Second,
//	    },
//	})
//
//	err := guard.Do(ctx, func(ctx context.Context) error {
//	    return rdb.Set(ctx, key, value, ttl).Err()
//	})
//
// A nil *Guard runs operations directly.
package resilience
