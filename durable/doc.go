// Package durable defines the secondary, persistent tier of the image
// cache and a Redis-backed implementation.
//
// The tier is a narrow key/value contract with TTL semantics. Absence
// is an explicit result, never an error; errors are reserved for actual
// store failures, which the fast tier's fail-safe window masks for
// previously cached values.
//
// BreakerStore wraps any Store with a circuit breaker so a struggling
// backend is bypassed instead of slowing every production.
package durable
