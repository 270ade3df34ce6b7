package durable

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for durable-tier operations.
var (
	// ErrClosed is returned when the store has been closed.
	ErrClosed = errors.New("durable: store is closed")
)

// Store is the durable-tier contract.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods must honor cancellation/deadlines.
// - Absence: Get returns (nil, false, nil) on miss; errors are store failures.
type Store interface {
	// Get retrieves a stored value. Returns (nil, false, nil) on miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. TTL<=0 means no storing.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Remove deletes a value. Idempotent - no error on miss.
	Remove(ctx context.Context, key string) error

	// Close releases store resources.
	Close() error
}
