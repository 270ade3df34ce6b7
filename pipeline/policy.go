package pipeline

import (
	"time"

	"github.com/jonwraymond/imgcache/fastcache"
)

// DefaultWarmBudget is the process-wide byte budget for one warm-up
// pass.
const DefaultWarmBudget int64 = 128 << 20 // 128 MiB

// Policy holds the per-variant cache entry options and the warm-up
// budget.
type Policy struct {
	// Reduced applies to preview variants.
	Reduced fastcache.Options

	// Original applies to original-quality variants.
	Original fastcache.Options

	// WarmBudget is the byte budget for WarmAll. If zero,
	// DefaultWarmBudget is used.
	WarmBudget int64
}

// DefaultPolicy returns the default pipeline policy.
//
// Reduced variants are long-lived, fail-safe, and propagate to the
// durable tier. Original variants are short-lived and memory-only:
// they are large and cheap to reload, so durable propagation would
// only churn the store.
func DefaultPolicy() Policy {
	return Policy{
		Reduced: fastcache.Options{
			Duration:    30 * time.Minute,
			JitterMax:   2 * time.Minute,
			FailSafe:    true,
			FailSafeMax: 2 * time.Hour,
			DurableTTL:  7 * 24 * time.Hour,
		},
		Original: fastcache.Options{
			Duration:  5 * time.Minute,
			JitterMax: 30 * time.Second,
		},
		WarmBudget: DefaultWarmBudget,
	}
}

// EffectiveWarmBudget returns the warm-up budget, applying the default.
func (p Policy) EffectiveWarmBudget() int64 {
	if p.WarmBudget > 0 {
		return p.WarmBudget
	}
	return DefaultWarmBudget
}
