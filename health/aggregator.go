package health

import (
	"context"
	"sync"
	"time"
)

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// Timeout is the maximum time to wait for all checks.
	// Default: 10 seconds
	Timeout time.Duration
}

// Aggregator combines multiple checkers into one composite check.
// Checks run in parallel under a shared timeout.
type Aggregator struct {
	timeout  time.Duration
	checkers sync.Map // name -> Checker
}

// NewAggregator creates a health aggregator.
func NewAggregator(config AggregatorConfig) *Aggregator {
	// Apply defaults
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	return &Aggregator{timeout: config.Timeout}
}

// Register adds a checker under name, replacing any previous one.
func (a *Aggregator) Register(name string, checker Checker) {
	a.checkers.Store(name, checker)
}

// Unregister removes the named checker.
func (a *Aggregator) Unregister(name string) {
	a.checkers.Delete(name)
}

// Check runs a single named check.
func (a *Aggregator) Check(ctx context.Context, name string) (Result, error) {
	v, ok := a.checkers.Load(name)
	if !ok {
		return Result{}, ErrCheckerNotFound
	}
	return runCheck(ctx, v.(Checker)), nil
}

// CheckAll runs all registered checks in parallel and returns the
// results keyed by checker name.
func (a *Aggregator) CheckAll(ctx context.Context) map[string]Result {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var mu sync.Mutex
	var wg sync.WaitGroup
	results := make(map[string]Result)

	a.checkers.Range(func(k, v any) bool {
		name, checker := k.(string), v.(Checker)
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := runCheck(ctx, checker)
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}()
		return true
	})

	wg.Wait()
	return results
}

// Overall computes the composite status: unhealthy if any check is
// unhealthy, else degraded if any is degraded, else healthy.
func Overall(results map[string]Result) Status {
	status := StatusHealthy
	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

func runCheck(ctx context.Context, checker Checker) Result {
	start := time.Now()
	result := checker.Check(ctx)
	if result.Duration == 0 {
		result.Duration = time.Since(start)
	}
	if result.Timestamp.IsZero() {
		result.Timestamp = start
	}
	return result
}
