package durable

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// flakyStore fails on demand.
type flakyStore struct {
	mu     sync.Mutex
	values map[string][]byte
	fail   error
	calls  int
	closed bool
}

func newFlakyStore() *flakyStore {
	return &flakyStore{values: make(map[string][]byte)}
}

func (s *flakyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail != nil {
		return nil, false, s.fail
	}
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *flakyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail != nil {
		return s.fail
	}
	s.values[key] = value
	return nil
}

func (s *flakyStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail != nil {
		return s.fail
	}
	delete(s.values, key)
	return nil
}

func (s *flakyStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *flakyStore) setFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

func (s *flakyStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestBreakerStore_PassThrough(t *testing.T) {
	inner := newFlakyStore()
	b := NewBreakerStore(inner, BreakerConfig{})
	ctx := context.Background()

	if err := b.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	value, found, err := b.Get(ctx, "k")
	if err != nil || !found {
		t.Fatalf("Get failed: found=%v err=%v", found, err)
	}
	if string(value) != "v" {
		t.Errorf("value = %q, want v", value)
	}
	if b.State() != BreakerClosed {
		t.Errorf("state = %v, want closed", b.State())
	}
}

func TestBreakerStore_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := newFlakyStore()
	inner.setFail(errors.New("connection refused"))
	b := NewBreakerStore(inner, BreakerConfig{MaxFailures: 3, ResetTimeout: time.Hour})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := b.Get(ctx, "k"); err == nil {
			t.Fatalf("Get %d should fail", i)
		}
	}
	if b.State() != BreakerOpen {
		t.Fatalf("state = %v after %d failures, want open", b.State(), 3)
	}

	// Open breaker: Get degrades to a miss without touching the backend
	before := inner.callCount()
	_, found, err := b.Get(ctx, "k")
	if err != nil || found {
		t.Errorf("open-breaker Get = found=%v err=%v, want plain miss", found, err)
	}
	if inner.callCount() != before {
		t.Error("open breaker must not reach the backend")
	}

	// Writes fail fast
	if err := b.Set(ctx, "k", []byte("v"), time.Hour); !errors.Is(err, ErrTierOpen) {
		t.Errorf("open-breaker Set = %v, want ErrTierOpen", err)
	}
}

func TestBreakerStore_RecoversThroughHalfOpen(t *testing.T) {
	inner := newFlakyStore()
	inner.setFail(errors.New("connection refused"))
	b := NewBreakerStore(inner, BreakerConfig{MaxFailures: 1, ResetTimeout: 10 * time.Millisecond})
	ctx := context.Background()

	if _, _, err := b.Get(ctx, "k"); err == nil {
		t.Fatal("Get should fail")
	}
	if b.State() != BreakerOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	// Backend recovers; after the reset timeout a probe closes the breaker
	inner.setFail(nil)
	time.Sleep(20 * time.Millisecond)

	if got := b.State(); got != BreakerHalfOpen {
		t.Fatalf("state = %v after reset timeout, want half-open", got)
	}
	if err := b.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("probe Set failed: %v", err)
	}
	if b.State() != BreakerClosed {
		t.Errorf("state = %v after successful probe, want closed", b.State())
	}
}

func TestBreakerStore_FailedProbeReopens(t *testing.T) {
	inner := newFlakyStore()
	inner.setFail(errors.New("connection refused"))
	b := NewBreakerStore(inner, BreakerConfig{MaxFailures: 1, ResetTimeout: 10 * time.Millisecond})
	ctx := context.Background()

	b.Get(ctx, "k")
	time.Sleep(20 * time.Millisecond)

	// Still failing: probe reopens the breaker
	if _, _, err := b.Get(ctx, "k"); err == nil {
		t.Fatal("probe should fail")
	}
	if b.State() != BreakerOpen {
		t.Errorf("state = %v after failed probe, want open", b.State())
	}
}

func TestBreakerStore_CancellationDoesNotCount(t *testing.T) {
	inner := newFlakyStore()
	inner.setFail(context.Canceled)
	b := NewBreakerStore(inner, BreakerConfig{MaxFailures: 1, ResetTimeout: time.Hour})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		b.Get(ctx, "k")
	}
	if b.State() != BreakerClosed {
		t.Errorf("state = %v after cancellations, want closed", b.State())
	}
}

func TestBreakerStore_Reset(t *testing.T) {
	inner := newFlakyStore()
	inner.setFail(errors.New("down"))

	var transitions []string
	b := NewBreakerStore(inner, BreakerConfig{
		MaxFailures:  1,
		ResetTimeout: time.Hour,
		OnStateChange: func(from, to BreakerState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})
	ctx := context.Background()

	b.Get(ctx, "k")
	if b.State() != BreakerOpen {
		t.Fatalf("state = %v, want open", b.State())
	}

	b.Reset()
	if b.State() != BreakerClosed {
		t.Errorf("state = %v after Reset, want closed", b.State())
	}
	want := []string{"closed->open", "open->closed"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %q, want %q", i, transitions[i], want[i])
		}
	}
}

func TestBreakerStore_Close(t *testing.T) {
	inner := newFlakyStore()
	b := NewBreakerStore(inner, BreakerConfig{})

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !inner.closed {
		t.Error("Close should reach the wrapped store")
	}
}
