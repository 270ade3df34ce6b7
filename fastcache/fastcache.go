package fastcache

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// ProducerFunc produces the value for a key on miss or refresh.
// It must honor ctx cancellation.
type ProducerFunc func(ctx context.Context) ([]byte, error)

// Cache is the in-memory tier.
//
// Contract:
// - Concurrency: safe for concurrent use from arbitrary goroutines.
// - Single-flight: at most one production per key; callers share the result.
// - Errors: TryGet never errors; it returns (nil, false) on miss.
type Cache struct {
	entries sync.Map // key -> *entry
	group   singleflight.Group
	closed  atomic.Bool
}

type entry struct {
	value      []byte
	freshUntil time.Time
	staleUntil time.Time // equals freshUntil when fail-safe is off
}

func (e *entry) fresh(now time.Time) bool {
	return now.Before(e.freshUntil)
}

func (e *entry) servable(now time.Time) bool {
	return now.Before(e.staleUntil)
}

// New creates an empty fast tier.
func New() *Cache {
	return &Cache{}
}

// TryGet retrieves a value without producing. It serves fresh values
// and, for fail-safe entries, stale values still inside their fail-safe
// window. Returns (nil, false) on miss.
func (c *Cache) TryGet(key string) ([]byte, bool) {
	if c.closed.Load() {
		return nil, false
	}

	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	e := v.(*entry)

	now := time.Now()
	if !e.servable(now) {
		// Expired past the fail-safe window - clean up lazily
		c.entries.CompareAndDelete(key, v)
		return nil, false
	}

	return e.value, true
}

// Set stores a value under the given options. A zero Duration is a
// no-op (no caching).
func (c *Cache) Set(key string, value []byte, opts Options) {
	if c.closed.Load() || !opts.ShouldCache() {
		return
	}
	c.entries.Store(key, newEntry(value, opts))
}

// Remove deletes a value. Idempotent.
func (c *Cache) Remove(key string) {
	c.entries.Delete(key)
}

// GetOrProduce returns the fresh value for key, producing it when
// missing or expired. Concurrent calls for the same key coalesce onto
// one production. If production fails while a stale value is still
// inside its fail-safe window, the stale value is returned instead of
// the error. Cancellation during production never commits an entry.
func (c *Cache) GetOrProduce(ctx context.Context, key string, produce ProducerFunc, opts Options) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	if produce == nil {
		return nil, ErrNilProducer
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if v, ok := c.entries.Load(key); ok {
		if e := v.(*entry); e.fresh(time.Now()) {
			return e.value, nil
		}
	}

	// Miss or stale: produce once per key, commit before waiters wake.
	ch := c.group.DoChan(key, func() (any, error) {
		value, err := produce(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, value, opts)
		return value, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			if stale, ok := c.tryStale(key); ok {
				return stale, nil
			}
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// tryStale returns the last-good value for key if it is still inside
// its fail-safe window.
func (c *Cache) tryStale(key string) ([]byte, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return nil, false
	}
	e := v.(*entry)
	if !e.servable(time.Now()) {
		return nil, false
	}
	return e.value, true
}

// Len returns the number of retained entries, including stale ones not
// yet cleaned up.
func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Closed reports whether Close has been called.
func (c *Cache) Closed() bool {
	return c.closed.Load()
}

// Close releases all entries. Subsequent reads miss and subsequent
// productions fail with ErrClosed.
func (c *Cache) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.entries.Range(func(k, _ any) bool {
		c.entries.Delete(k)
		return true
	})
}

func newEntry(value []byte, opts Options) *entry {
	fresh := time.Now().Add(opts.Duration + jitter(opts.JitterMax))
	stale := fresh
	if opts.FailSafe && opts.FailSafeMax > 0 {
		stale = fresh.Add(opts.FailSafeMax)
	}
	return &entry{value: value, freshUntil: fresh, staleUntil: stale}
}

func jitter(max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	// #nosec G404 -- jitter is non-cryptographic timing variance.
	return time.Duration(rand.Int64N(int64(max)))
}
