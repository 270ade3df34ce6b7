// Package health reports the health of the cache tiers.
//
// A Checker probes one component and returns a Result with a Status of
// Healthy, Degraded, or Unhealthy. The package ships checkers for the
// fast in-memory tier and for ping-capable durable backends, plus an
// Aggregator that runs registered checkers in parallel and computes an
// overall status.
//
// # Basic Usage
//
//	agg := health.NewAggregator(health.AggregatorConfig{})
//	agg.Register("fast", health.NewFastTierChecker(cache))
//	agg.Register("durable", health.NewDurableChecker(store, health.DurableCheckerConfig{}))
//
//	results := agg.CheckAll(ctx)
//	overall := health.Overall(results)
//
// # HTTP Endpoints
//
//	http.Handle("/healthz", health.LivenessHandler())
//	http.Handle("/readyz", health.ReadinessHandler(agg))
//	http.Handle("/health", health.DetailedHandler(agg))
package health
