package fastcache

import "errors"

// Sentinel errors for fast-tier operations.
var (
	// ErrClosed is returned when the cache has been closed.
	ErrClosed = errors.New("fastcache: cache is closed")

	// ErrNilProducer is returned when GetOrProduce is called without a
	// producer function.
	ErrNilProducer = errors.New("fastcache: producer is nil")
)
