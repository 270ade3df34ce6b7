package pipeline

import (
	"context"

	"github.com/jonwraymond/imgcache/observe"
	"github.com/jonwraymond/imgcache/source"
)

// ProgressFunc receives warm-up progress as a fraction in [0, 1].
type ProgressFunc func(fraction float64)

// WarmAll prefetches reduced variants for entries until the byte budget
// is spent.
//
// Pass 1 is a cheap pre-check: entries already servable from the fast
// tier count toward the budget and progress without invoking the
// producer. Pass 2 produces the rest in order, stopping as soon as
// accumulated bytes reach the budget; entries never produced stay
// un-warmed and load lazily on normal access. Individual production
// failures are logged and skipped. The final reported progress is
// always exactly 1.
func (p *Pipeline) WarmAll(ctx context.Context, entries []source.Entry, target TargetMetrics, progress ProgressFunc) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if progress == nil {
		progress = func(float64) {}
	}
	defer progress(1)

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	var totalSize int64
	for _, e := range entries {
		totalSize += e.Length
	}

	budget := p.policy.EffectiveWarmBudget()
	var warmedBytes int64
	var processedSize int64
	processedCount := 0

	report := func() {
		if totalSize > 0 {
			f := float64(processedSize) / float64(totalSize)
			if f > 1 {
				f = 1
			}
			progress(f)
			return
		}
		progress(float64(processedCount) / float64(len(entries)))
	}
	processed := func(e source.Entry) {
		processedCount++
		processedSize += e.Length
		report()
	}

	// Pass 1: cheap pre-check, no production.
	pending := make([]source.Entry, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !e.DiskCacheEligible {
			// Never cached; nothing to warm.
			processed(e)
			continue
		}
		if value, ok := p.fast.TryGet(e.Key); ok {
			warmedBytes += int64(len(value))
			processed(e)
			continue
		}
		pending = append(pending, e)
	}

	// Pass 2: production, bounded by the budget.
	for _, e := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if warmedBytes >= budget {
			p.logger.Info(ctx, "warm-up budget exhausted",
				observe.Field{Key: "warmed_bytes", Value: warmedBytes},
				observe.Field{Key: "budget", Value: budget},
				observe.Field{Key: "skipped", Value: len(entries) - processedCount})
			break
		}

		value, err := p.fast.GetOrProduce(ctx, e.Key, p.reducedProducer(e, target, new(bool)), p.policy.Reduced)
		if err != nil {
			if isCancellation(err) {
				return err
			}
			// Warm-up failures never abort the batch
			p.logger.Warn(ctx, "warm-up production failed",
				observe.Field{Key: "key", Value: e.Key},
				observe.Field{Key: "entry", Value: e.Name},
				observe.Field{Key: "error", Value: err.Error()})
			processed(e)
			continue
		}

		warmedBytes += int64(len(value))
		p.metrics.RecordWarmed(ctx, int64(len(value)))
		processed(e)
	}

	return nil
}

// WarmFromScan discovers entries through the scanner and warms them.
func (p *Pipeline) WarmFromScan(ctx context.Context, scanner Scanner, target TargetMetrics, progress ProgressFunc) error {
	if scanner == nil {
		return ErrNilScanner
	}

	entries, err := scanner.ScanSources(ctx)
	if err != nil {
		return err
	}
	return p.WarmAll(ctx, entries, target, progress)
}
