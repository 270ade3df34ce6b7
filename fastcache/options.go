package fastcache

import "time"

// Options configures the lifetime of one cache entry.
type Options struct {
	// Duration is the soft TTL. If zero, the value is not cached.
	Duration time.Duration

	// JitterMax randomly extends the soft TTL by up to this amount so
	// entries written together do not expire together.
	JitterMax time.Duration

	// FailSafe keeps a stale value servable past the soft TTL while a
	// refresh is attempted.
	FailSafe bool

	// FailSafeMax bounds how long past the soft TTL a stale value
	// remains servable. Ignored unless FailSafe is set.
	FailSafeMax time.Duration

	// DurableTTL is the propagation TTL for the durable tier. Zero
	// means the entry is never written durably. The fast tier itself
	// does not act on this; the pipeline reads it.
	DurableTTL time.Duration
}

// ShouldCache returns true if entries written under these options are
// retained at all.
func (o Options) ShouldCache() bool {
	return o.Duration > 0
}

// PropagatesDurably returns true if entries written under these
// options should also be written to the durable tier.
func (o Options) PropagatesDurably() bool {
	return o.DurableTTL > 0
}
