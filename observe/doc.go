// Package observe provides observability primitives for the image
// cache: a structured logger and OpenTelemetry metric instrumentation
// for tier lookups, productions, and warm-up.
//
// It is a pure instrumentation library: no caching, no transport, no
// I/O beyond exporter setup. Consumers wire the observer into the
// pipeline at construction time.
package observe
