// Package health reports whether the stores behind the pipeline are usable.
//
// A Checker probes one dependency. CacheChecker writes, reads and deletes a
// probe key through any cache.Cache; RedisChecker pings the Redis server;
// BreakerChecker reports the state of a resilience.Breaker guarding a store
// or sink. An Aggregator runs checkers concurrently under one deadline and
// folds their results into a single Status.
//
//	agg := health.NewAggregator()
//	agg.Register(health.NewCacheChecker("cache", stores.Cache))
//	agg.Register(health.NewBreakerChecker("redis-breaker", stores.Guard.Breaker()))
//	http.Handle("/readyz", health.Handler(agg))
package health
