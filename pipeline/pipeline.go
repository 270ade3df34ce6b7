package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/imgcache/durable"
	"github.com/jonwraymond/imgcache/fastcache"
	"github.com/jonwraymond/imgcache/metadata"
	"github.com/jonwraymond/imgcache/observe"
	"github.com/jonwraymond/imgcache/source"
)

// Config configures a Pipeline.
type Config struct {
	// Producer is the variant producer. Required.
	Producer Producer

	// Durable is the secondary tier. Optional; nil disables durable
	// caching entirely.
	Durable durable.Store

	// Policy holds entry options and the warm-up budget. A zero value
	// means DefaultPolicy.
	Policy Policy

	// Logger receives structured pipeline events. Nil means discard.
	Logger observe.Logger

	// Metrics records cache activity. Nil means discard.
	Metrics observe.Metrics
}

// Pipeline composes the tiers behind GetReduced, GetOriginal, and
// WarmAll. Construct with New; instances are safe for concurrent use.
type Pipeline struct {
	producer Producer
	fast     *fastcache.Cache
	store    durable.Store
	index    *metadata.Index
	policy   Policy
	logger   observe.Logger
	metrics  observe.Metrics
	closed   atomic.Bool
}

// New creates a Pipeline from the given configuration.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Producer == nil {
		return nil, ErrNilProducer
	}

	policy := cfg.Policy
	if policy == (Policy{}) {
		policy = DefaultPolicy()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.NopMetrics()
	}

	return &Pipeline{
		producer: cfg.Producer,
		fast:     fastcache.New(),
		store:    cfg.Durable,
		index:    metadata.NewIndex(),
		policy:   policy,
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// GetReduced retrieves the reduced variant for entry. Ineligible
// entries return absent immediately: they are never cached, the caller
// reproduces them on its own path. Non-cancellation failures are logged
// and reported as absent, so the caller can fall back to the
// original-loading path. The error is non-nil only for cancellation.
func (p *Pipeline) GetReduced(ctx context.Context, entry source.Entry, target TargetMetrics) (*Result, bool, error) {
	if p.closed.Load() {
		return nil, false, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if !entry.DiskCacheEligible {
		return nil, false, nil
	}

	key := entry.Key
	produced := false
	value, err := p.fast.GetOrProduce(ctx, key, p.reducedProducer(entry, target, &produced), p.policy.Reduced)
	p.metrics.RecordLookup(ctx, observe.TierFast, !produced)
	if err != nil {
		if isCancellation(err) {
			return nil, false, err
		}
		// Reduced-variant failures are non-fatal
		p.logger.Warn(ctx, "reduced variant unavailable",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "entry", Value: entry.Name},
			observe.Field{Key: "error", Value: err.Error()})
		return nil, false, nil
	}

	meta, err := p.index.Ensure(key, value)
	if err != nil {
		p.logger.Warn(ctx, "reduced variant metadata unavailable",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "entry", Value: entry.Name},
			observe.Field{Key: "error", Value: err.Error()})
		return nil, false, nil
	}

	return &Result{Bytes: value, Meta: meta, Source: SourceCache, Reduced: true}, true, nil
}

// GetOriginal retrieves the original-quality variant for entry. Unlike
// reduced variants, failure is fatal to the caller: producer errors are
// wrapped in *OriginalLoadError carrying the entry's display name.
// Cancellation propagates unchanged.
func (p *Pipeline) GetOriginal(ctx context.Context, entry source.Entry) (*Result, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := source.OriginalKey(entry.Key)
	produced := false
	value, err := p.fast.GetOrProduce(ctx, key, p.originalProducer(entry, key, &produced), p.policy.Original)
	p.metrics.RecordLookup(ctx, observe.TierFast, !produced)
	if err != nil {
		if isCancellation(err) {
			return nil, err
		}
		p.logger.Error(ctx, "original load failed",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "entry", Value: entry.Name},
			observe.Field{Key: "error", Value: err.Error()})
		return nil, &OriginalLoadError{Name: entry.Name, Err: err}
	}

	meta, err := p.index.Ensure(key, value)
	if err != nil {
		return nil, &OriginalLoadError{Name: entry.Name, Err: err}
	}

	return &Result{Bytes: value, Meta: meta, Source: SourceCache, Reduced: false}, nil
}

// reducedProducer builds the fast-tier producer for a reduced variant:
// durable tier first, then the transcoder, with write-through back to
// the durable tier.
func (p *Pipeline) reducedProducer(entry source.Entry, target TargetMetrics, produced *bool) fastcache.ProducerFunc {
	return func(ctx context.Context) ([]byte, error) {
		*produced = true

		if p.store != nil {
			value, found, err := p.store.Get(ctx, entry.Key)
			p.metrics.RecordLookup(ctx, observe.TierDurable, found)
			switch {
			case err != nil && isCancellation(err):
				return nil, err
			case err != nil:
				// Transient store failure is a miss; the fail-safe
				// window covers callers that had a value before.
				p.logger.Warn(ctx, "durable tier read failed",
					observe.Field{Key: "key", Value: entry.Key},
					observe.Field{Key: "error", Value: err.Error()})
			case found:
				return value, nil
			}
		}

		start := time.Now()
		value, meta, err := p.producer.ProduceReduced(ctx, entry, target)
		if !isCancellation(err) {
			p.metrics.RecordProduction(ctx, observe.VariantReduced, time.Since(start), err)
		}
		if err != nil {
			return nil, err
		}

		p.index.Seed(entry.Key, meta)
		p.propagateDurable(ctx, entry, value)
		return value, nil
	}
}

// originalProducer builds the fast-tier producer for an original
// variant. Originals never touch the durable tier.
func (p *Pipeline) originalProducer(entry source.Entry, key string, produced *bool) fastcache.ProducerFunc {
	return func(ctx context.Context) ([]byte, error) {
		*produced = true

		start := time.Now()
		value, meta, err := p.producer.LoadOriginal(ctx, entry)
		if !isCancellation(err) {
			p.metrics.RecordProduction(ctx, observe.VariantOriginal, time.Since(start), err)
		}
		if err != nil {
			return nil, err
		}

		p.index.Seed(key, meta)
		return value, nil
	}
}

// propagateDurable writes a freshly produced reduced variant through to
// the durable tier. Best effort: a failed write is logged, never
// surfaced.
func (p *Pipeline) propagateDurable(ctx context.Context, entry source.Entry, value []byte) {
	if p.store == nil || !entry.DiskCacheEligible || !p.policy.Reduced.PropagatesDurably() {
		return
	}
	if err := p.store.Set(ctx, entry.Key, value, p.policy.Reduced.DurableTTL); err != nil && !isCancellation(err) {
		p.logger.Warn(ctx, "durable tier write failed",
			observe.Field{Key: "key", Value: entry.Key},
			observe.Field{Key: "error", Value: err.Error()})
	}
}

// Close releases tier resources. Idempotent; operations after Close
// fail with ErrClosed or report absent.
func (p *Pipeline) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	p.fast.Close()
	if p.store != nil {
		return p.store.Close()
	}
	return nil
}
