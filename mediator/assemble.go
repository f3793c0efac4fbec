package mediator

import (
	"reflect"

	"github.com/jonwraymond/pipelineplus/behavior"
	"github.com/jonwraymond/pipelineplus/cache"
	"github.com/jonwraymond/pipelineplus/observe"
	"github.com/jonwraymond/pipelineplus/pipeline"
	"github.com/jonwraymond/pipelineplus/policy"
	"github.com/jonwraymond/pipelineplus/validation"
)

// Behavior names reported by Mediator.Behaviors.
const (
	BehaviorValidation  = "validation"
	BehaviorPerformance = "performance"
	BehaviorCaching     = "caching"
	BehaviorIdempotency = "idempotency"
	BehaviorOutbox      = "outbox"
)

// assemble composes the gated behaviors around handler. A behavior is kept
// when its toggle is on and its precondition holds for Req.
func assemble[Req, Resp any](m *Mediator, name string, handler pipeline.HandlerFunc[Req, Resp]) (pipeline.HandlerFunc[Req, Resp], []string, error) {
	rule, hasCache := m.policies.Cache(name)
	idem, hasIdem := m.policies.Idempotency(name)
	validators := validation.For[Req](m.validators)

	meta := observe.RequestMeta{Name: name, Kind: kindOf(hasCache, hasIdem)}
	logger := m.logger.WithRequest(meta)

	var (
		behaviors []pipeline.Behavior[Req, Resp]
		names     []string
	)
	add := func(n string, b pipeline.Behavior[Req, Resp]) {
		behaviors = append(behaviors, b)
		names = append(names, n)
	}

	if m.opts.Validation && len(validators) > 0 {
		add(BehaviorValidation, behavior.NewValidation[Req, Resp](validators...))
	}
	if m.opts.PerformanceLog {
		add(BehaviorPerformance, behavior.NewPerformance[Req, Resp](m.mw, meta))
	}
	caching := m.opts.Caching && hasCache && !pipeline.IsUnit[Resp]()
	idempotent := m.opts.Idempotency && hasIdem
	if caching || idempotent {
		if err := cache.CheckStorable(reflect.TypeFor[Resp]()); err != nil {
			return nil, nil, err
		}
	}

	if caching {
		add(BehaviorCaching, behavior.NewCaching[Req, Resp](m.store, m.withDefaultTTL(rule), behavior.CachingConfig{
			Codec:    m.codec,
			Logger:   logger,
			Coalesce: m.opts.Cache.Coalesce,
		}))
	}
	if idempotent {
		add(BehaviorIdempotency, behavior.NewIdempotency[Req, Resp](m.store, name, idem, behavior.IdempotencyConfig{
			Codec:  m.codec,
			Logger: logger,
			Now:    m.now,
		}))
	}
	if m.opts.Outbox {
		if m.sink == nil {
			return nil, nil, ErrMissingSink
		}
		add(BehaviorOutbox, behavior.NewOutbox[Req, Resp](m.sink, logger))
	}

	return pipeline.Chain(handler, behaviors...), names, nil
}

// withDefaultTTL fills a rule's unset TTL bounds from the deployment config.
func (m *Mediator) withDefaultTTL(rule policy.CacheRule) policy.CacheRule {
	d := m.opts.CachePolicy()
	if rule.Policy.TTL == 0 {
		rule.Policy.TTL = d.TTL
	}
	if rule.Policy.MaxTTL == 0 {
		rule.Policy.MaxTTL = d.MaxTTL
	}
	return rule
}

func kindOf(cached, idempotent bool) string {
	switch {
	case idempotent:
		return KindCommand
	case cached:
		return KindQuery
	}
	return ""
}
