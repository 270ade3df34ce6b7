package durable

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config configures the Redis-backed store.
type Config struct {
	// Addr is the host:port of the Redis server.
	Addr string

	// Timeout applies to dial, read, and write operations.
	// Default: 5 seconds
	Timeout time.Duration

	// PoolSize is the maximum number of connections.
	// If zero, the client default is used.
	PoolSize int

	// MaxAttempts is the number of attempts per operation (including
	// the initial one). Default: 3
	MaxAttempts int

	// RetryDelay is the delay before the first retry; subsequent
	// delays back off exponentially with jitter. Default: 50ms
	RetryDelay time.Duration
}

// RedisStore implements Store on a Redis server.
type RedisStore struct {
	client      *redis.Client
	maxAttempts int
	retryDelay  time.Duration
	closed      atomic.Bool
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(config Config) *RedisStore {
	// Apply defaults
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 50 * time.Millisecond
	}

	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		DialTimeout:  config.Timeout,
		ReadTimeout:  config.Timeout,
		WriteTimeout: config.Timeout,
		PoolSize:     config.PoolSize,
	})

	return &RedisStore{
		client:      client,
		maxAttempts: config.MaxAttempts,
		retryDelay:  config.RetryDelay,
	}
}

// NewRedisStoreFromURL creates a Redis-backed store from a redis:// URL.
func NewRedisStoreFromURL(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisStore{
		client:      redis.NewClient(opts),
		maxAttempts: 3,
		retryDelay:  50 * time.Millisecond,
	}, nil
}

// Get retrieves a stored value. Returns (nil, false, nil) on miss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrClosed
	}

	var value []byte
	var found bool
	err := s.withRetry(ctx, func(ctx context.Context) error {
		b, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// Miss, not a failure
			value, found = nil, false
			return nil
		}
		if err != nil {
			return err
		}
		value, found = b, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// Set stores a value with the given TTL. TTL<=0 is a no-op.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if ttl <= 0 {
		return nil
	}

	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, key, value, ttl).Err()
	})
}

// Remove deletes a value. Idempotent.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	return s.withRetry(ctx, func(ctx context.Context) error {
		return s.client.Del(ctx, key).Err()
	})
}

// Ping verifies connectivity to the Redis server. Unlike the data
// operations it is not retried; callers poll it.
func (s *RedisStore) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return ErrClosed
	}
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.client.Close()
}

// withRetry runs op with bounded exponential backoff. Context errors
// are never retried.
func (s *RedisStore) withRetry(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	delay := s.retryDelay
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		lastErr = err
		if attempt >= s.maxAttempts {
			break
		}

		// Wait for delay or context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay + retryJitter(delay)):
		}
		delay *= 2
	}

	return lastErr
}

func retryJitter(delay time.Duration) time.Duration {
	if delay < 4 {
		return 0
	}
	// Add up to 25% jitter
	// #nosec G404 -- jitter is non-cryptographic timing variance.
	return time.Duration(rand.Int64N(int64(delay / 4)))
}

// Ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)
