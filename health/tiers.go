package health

import (
	"context"
	"time"

	"github.com/jonwraymond/imgcache/fastcache"
)

// Pinger is the connectivity probe a durable backend exposes.
// *durable.RedisStore satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DurableCheckerConfig configures a durable-tier checker.
type DurableCheckerConfig struct {
	// Timeout bounds a single probe. Default: 2 seconds
	Timeout time.Duration

	// DegradedLatency is the probe latency above which the tier is
	// reported degraded rather than healthy. Default: 250ms
	DegradedLatency time.Duration
}

// DurableChecker probes a durable backend over its Ping method. A
// failed ping is unhealthy; a slow ping is degraded.
type DurableChecker struct {
	pinger Pinger
	config DurableCheckerConfig
}

// NewDurableChecker creates a checker for a ping-capable backend.
func NewDurableChecker(pinger Pinger, config DurableCheckerConfig) *DurableChecker {
	// Apply defaults
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Second
	}
	if config.DegradedLatency <= 0 {
		config.DegradedLatency = 250 * time.Millisecond
	}

	return &DurableChecker{pinger: pinger, config: config}
}

// Check performs the probe.
func (c *DurableChecker) Check(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	start := time.Now()
	err := c.pinger.Ping(ctx)
	elapsed := time.Since(start)

	var result Result
	switch {
	case err != nil:
		result = Unhealthy("durable tier unreachable", err)
	case elapsed >= c.config.DegradedLatency:
		result = Degraded("durable tier responding slowly")
	default:
		result = Healthy("durable tier reachable")
	}

	result.Duration = elapsed
	return result.WithDetails(map[string]any{
		"latency_ms": elapsed.Milliseconds(),
	})
}

// NewFastTierChecker creates a checker for the in-memory tier. The
// tier is unhealthy once closed; otherwise the result reports the
// retained entry count.
func NewFastTierChecker(cache *fastcache.Cache) Checker {
	return CheckerFunc(func(ctx context.Context) Result {
		if cache.Closed() {
			return Unhealthy("fast tier closed", ErrTierClosed)
		}
		return Healthy("fast tier serving").WithDetails(map[string]any{
			"entries": cache.Len(),
		})
	})
}
