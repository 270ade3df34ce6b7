// Package fastcache provides the in-memory tier of the image cache.
//
// Values live for a jittered soft TTL. When fail-safe is enabled, a
// stale value remains servable for a bounded window past expiry while a
// refresh is attempted, so transient producer failures degrade to the
// last-good value instead of an error. Production is single-flight:
// concurrent callers for the same key share one in-flight production.
package fastcache
