package durable

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTierOpen is returned when the breaker is rejecting operations.
var ErrTierOpen = errors.New("durable: tier breaker open")

// BreakerState represents the breaker state.
type BreakerState int

const (
	// BreakerClosed means the tier is operating normally.
	BreakerClosed BreakerState = iota
	// BreakerOpen means the tier is being bypassed.
	BreakerOpen
	// BreakerHalfOpen means the breaker is probing for recovery.
	BreakerHalfOpen
)

// String returns the string representation of the state.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures a BreakerStore.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the
	// breaker opens. Default: 5
	MaxFailures int

	// ResetTimeout is how long the breaker stays open before probing.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// MaxProbes is the number of operations let through while
	// half-open. Default: 1
	MaxProbes int

	// OnStateChange is called when the breaker changes state.
	OnStateChange func(from, to BreakerState)
}

// BreakerStore wraps a Store with a circuit breaker so a struggling
// backend stops adding latency to every production. While the breaker
// is open, Get reports a miss and Set and Remove fail fast with
// ErrTierOpen; the fast tier keeps working alone. Context errors never
// count as backend failures.
type BreakerStore struct {
	inner  Store
	config BreakerConfig

	mu          sync.Mutex
	state       BreakerState
	failures    int
	lastFailure time.Time
	probes      int
}

// NewBreakerStore wraps inner with a circuit breaker.
func NewBreakerStore(inner Store, config BreakerConfig) *BreakerStore {
	// Apply defaults
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.MaxProbes <= 0 {
		config.MaxProbes = 1
	}

	return &BreakerStore{
		inner:  inner,
		config: config,
		state:  BreakerClosed,
	}
}

// Get retrieves a value through the breaker. An open breaker reports a
// plain miss so callers fall through to production.
func (b *BreakerStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := b.allow(); err != nil {
		return nil, false, nil
	}

	value, found, err := b.inner.Get(ctx, key)
	b.observe(err)
	return value, found, err
}

// Set stores a value through the breaker.
func (b *BreakerStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := b.inner.Set(ctx, key, value, ttl)
	b.observe(err)
	return err
}

// Remove deletes a value through the breaker.
func (b *BreakerStore) Remove(ctx context.Context, key string) error {
	if err := b.allow(); err != nil {
		return err
	}

	err := b.inner.Remove(ctx, key)
	b.observe(err)
	return err
}

// Close closes the wrapped store.
func (b *BreakerStore) Close() error {
	return b.inner.Close()
}

// State returns the current breaker state.
func (b *BreakerStore) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

// Reset forces the breaker back to closed.
func (b *BreakerStore) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	old := b.state
	b.state = BreakerClosed
	b.failures = 0
	b.probes = 0

	if old != BreakerClosed && b.config.OnStateChange != nil {
		b.config.OnStateChange(old, BreakerClosed)
	}
}

func (b *BreakerStore) allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.stateLocked() {
	case BreakerOpen:
		return ErrTierOpen
	case BreakerHalfOpen:
		if b.probes >= b.config.MaxProbes {
			return ErrTierOpen
		}
		b.probes++
	}
	return nil
}

func (b *BreakerStore) observe(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Cancellation says nothing about the backend
	if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return
	}

	old := b.state
	failed := err != nil

	switch b.state {
	case BreakerClosed:
		if failed {
			b.failures++
			b.lastFailure = time.Now()
			if b.failures >= b.config.MaxFailures {
				b.state = BreakerOpen
			}
		} else {
			b.failures = 0
		}

	case BreakerHalfOpen:
		if failed {
			b.lastFailure = time.Now()
			b.state = BreakerOpen
		} else {
			b.state = BreakerClosed
			b.failures = 0
		}
	}

	if old != b.state && b.config.OnStateChange != nil {
		b.config.OnStateChange(old, b.state)
	}
}

func (b *BreakerStore) stateLocked() BreakerState {
	if b.state == BreakerOpen && time.Since(b.lastFailure) >= b.config.ResetTimeout {
		b.state = BreakerHalfOpen
		b.probes = 0
		if b.config.OnStateChange != nil {
			b.config.OnStateChange(BreakerOpen, BreakerHalfOpen)
		}
	}
	return b.state
}
