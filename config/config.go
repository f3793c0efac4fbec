// Package config holds the per-deployment settings of the pipeline: which
// behaviors are enabled, and where the cache and outbox live.
//
// Settings are read from PIPELINE_* environment variables, "__" separating
// nested keys (PIPELINE_CACHE__BACKEND=redis), optionally seeded from .env
// files, and validated with struct tags.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator"

	"github.com/jonwraymond/pipelineplus/observe"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Options are the deployment toggles and store settings.
type Options struct {
	Validation       bool `koanf:"validation"`
	PerformanceLog   bool `koanf:"performance_log"`
	Caching          bool `koanf:"caching"`
	Idempotency      bool `koanf:"idempotency"`
	Outbox           bool `koanf:"outbox"`
	ExceptionMapping bool `koanf:"exception_mapping"`

	Cache      CacheConfig      `koanf:"cache"`
	Redis      RedisConfig      `koanf:"redis"`
	Sink       SinkConfig       `koanf:"sink"`
	Resilience ResilienceConfig `koanf:"resilience"`
	Observe    ObserveConfig    `koanf:"observe"`
}

// CacheConfig selects and tunes the cache store.
type CacheConfig struct {
	Backend         string        `koanf:"backend" validate:"oneof=memory redis"`
	Prefix          string        `koanf:"prefix"`
	DefaultTTL      time.Duration `koanf:"default_ttl" validate:"gte=0"`
	MaxTTL          time.Duration `koanf:"max_ttl" validate:"gte=0"`
	JanitorInterval time.Duration `koanf:"janitor_interval" validate:"gte=0"`
	Coalesce        bool          `koanf:"coalesce"`
}

// RedisConfig is shared by the Redis cache and the Redis stream sink.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	DB       int    `koanf:"db" validate:"gte=0"`
	Password string `koanf:"password"`
}

// SinkConfig selects the outbox sink.
type SinkConfig struct {
	Kind   string `koanf:"kind" validate:"oneof=memory redis cloudevents"`
	Stream string `koanf:"stream"`
	MaxLen int64  `koanf:"max_len" validate:"gte=0"`
	Source string `koanf:"source"`
	Target string `koanf:"target"`
}

// ResilienceConfig tunes the retry and breaker guarding Redis and sinks.
type ResilienceConfig struct {
	MaxAttempts     int           `koanf:"max_attempts" validate:"gte=1"`
	InitialDelay    time.Duration `koanf:"initial_delay" validate:"gte=0"`
	MaxDelay        time.Duration `koanf:"max_delay" validate:"gte=0"`
	BreakerFailures int           `koanf:"breaker_failures" validate:"gte=0"`
	BreakerReset    time.Duration `koanf:"breaker_reset" validate:"gte=0"`
}

// ObserveConfig configures telemetry.
type ObserveConfig struct {
	ServiceName     string  `koanf:"service_name" validate:"required"`
	Version         string  `koanf:"version"`
	LogLevel        string  `koanf:"log_level" validate:"oneof=debug info warn error"`
	TracingExporter string  `koanf:"tracing_exporter" validate:"omitempty,oneof=otlp stdout none"`
	MetricsExporter string  `koanf:"metrics_exporter" validate:"omitempty,oneof=otlp prometheus stdout none"`
	SamplePct       float64 `koanf:"sample_pct" validate:"gte=0,lte=1"`
}

// Default returns the defaults: every behavior on except Outbox, in-memory
// stores, five minute cache TTL.
func Default() Options {
	return Options{
		Validation:       true,
		PerformanceLog:   true,
		Caching:          true,
		Idempotency:      true,
		Outbox:           false,
		ExceptionMapping: true,
		Cache: CacheConfig{
			Backend:         "memory",
			DefaultTTL:      5 * time.Minute,
			JanitorInterval: time.Minute,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Sink: SinkConfig{
			Kind:   "memory",
			Stream: "pipeline:outbox",
			Source: "/pipeline",
		},
		Resilience: ResilienceConfig{
			MaxAttempts:     3,
			InitialDelay:    20 * time.Millisecond,
			MaxDelay:        time.Second,
			BreakerFailures: 5,
			BreakerReset:    30 * time.Second,
		},
		Observe: ObserveConfig{
			ServiceName: "pipeline",
			LogLevel:    "info",
			SamplePct:   1,
		},
	}
}

// Validate checks struct tags and the cross-field rules.
func (o Options) Validate() error {
	if err := validator.New().Struct(o); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	var errs []error
	if o.Cache.MaxTTL > 0 && o.Cache.DefaultTTL > o.Cache.MaxTTL {
		errs = append(errs, fmt.Errorf("cache.default_ttl %v exceeds cache.max_ttl %v", o.Cache.DefaultTTL, o.Cache.MaxTTL))
	}
	if o.usesRedis() && o.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required by the redis cache or sink"))
	}
	if o.Outbox && o.Sink.Kind == "cloudevents" && o.Sink.Target == "" {
		errs = append(errs, errors.New("sink.target is required by the cloudevents sink"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func (o Options) usesRedis() bool {
	return o.Cache.Backend == "redis" || (o.Outbox && o.Sink.Kind == "redis")
}

// ObserverConfig converts the telemetry settings for observe.NewObserver.
// Logging follows PerformanceLog; tracing and metrics are on when an
// exporter is named.
func (o Options) ObserverConfig() observe.Config {
	return observe.Config{
		ServiceName: o.Observe.ServiceName,
		Version:     o.Observe.Version,
		Tracing: observe.TracingConfig{
			Enabled:   o.Observe.TracingExporter != "",
			Exporter:  o.Observe.TracingExporter,
			SamplePct: o.Observe.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  o.Observe.MetricsExporter != "",
			Exporter: o.Observe.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: o.PerformanceLog,
			Level:   o.Observe.LogLevel,
		},
	}
}
