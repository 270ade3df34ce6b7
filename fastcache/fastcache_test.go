package fastcache

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCache_TryGet_Miss(t *testing.T) {
	c := New()

	val, ok := c.TryGet("missing")
	if ok {
		t.Error("TryGet on empty cache should return ok=false")
	}
	if val != nil {
		t.Error("TryGet on empty cache should return nil value")
	}
}

func TestCache_SetAndTryGet(t *testing.T) {
	c := New()
	value := []byte("payload")

	c.Set("k", value, Options{Duration: time.Hour})

	got, ok := c.TryGet("k")
	if !ok {
		t.Fatal("TryGet after Set should return ok=true")
	}
	if !bytes.Equal(got, value) {
		t.Errorf("TryGet returned %q, want %q", got, value)
	}
}

func TestCache_Set_ZeroDurationIsNoOp(t *testing.T) {
	c := New()

	c.Set("k", []byte("payload"), Options{})

	if _, ok := c.TryGet("k"); ok {
		t.Error("zero Duration should not cache")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestCache_TryGet_Expiry(t *testing.T) {
	c := New()

	c.Set("k", []byte("payload"), Options{Duration: 20 * time.Millisecond})

	if _, ok := c.TryGet("k"); !ok {
		t.Fatal("value should be fresh immediately after Set")
	}

	time.Sleep(40 * time.Millisecond)

	if _, ok := c.TryGet("k"); ok {
		t.Error("value should have expired")
	}
	if c.Len() != 0 {
		t.Error("expired entry should be cleaned up lazily on read")
	}
}

func TestCache_TryGet_ServesStaleInsideFailSafeWindow(t *testing.T) {
	c := New()

	c.Set("k", []byte("stale-ok"), Options{
		Duration:    10 * time.Millisecond,
		FailSafe:    true,
		FailSafeMax: time.Hour,
	})

	time.Sleep(30 * time.Millisecond)

	got, ok := c.TryGet("k")
	if !ok {
		t.Fatal("stale value inside the fail-safe window should be servable")
	}
	if string(got) != "stale-ok" {
		t.Errorf("TryGet returned %q, want stale-ok", got)
	}
}

func TestCache_Remove(t *testing.T) {
	c := New()

	c.Set("k", []byte("payload"), Options{Duration: time.Hour})
	c.Remove("k")

	if _, ok := c.TryGet("k"); ok {
		t.Error("TryGet after Remove should miss")
	}

	// Idempotent
	c.Remove("k")
}

func TestCache_GetOrProduce_ProducesOnMiss(t *testing.T) {
	c := New()
	ctx := context.Background()
	var calls atomic.Int32

	produce := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		return []byte("produced"), nil
	}
	opts := Options{Duration: time.Hour}

	got, err := c.GetOrProduce(ctx, "k", produce, opts)
	if err != nil {
		t.Fatalf("GetOrProduce failed: %v", err)
	}
	if string(got) != "produced" {
		t.Errorf("GetOrProduce returned %q, want produced", got)
	}
	if calls.Load() != 1 {
		t.Errorf("producer called %d times, want 1", calls.Load())
	}

	// Second call inside the TTL must not produce again
	got, err = c.GetOrProduce(ctx, "k", produce, opts)
	if err != nil {
		t.Fatalf("second GetOrProduce failed: %v", err)
	}
	if string(got) != "produced" {
		t.Errorf("second GetOrProduce returned %q, want produced", got)
	}
	if calls.Load() != 1 {
		t.Errorf("producer called %d times after cached read, want 1", calls.Load())
	}
}

func TestCache_GetOrProduce_SingleFlight(t *testing.T) {
	c := New()
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	produce := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("shared"), nil
	}

	const waiters = 16
	results := make([][]byte, waiters)
	errs := make([]error, waiters)

	var wg sync.WaitGroup
	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.GetOrProduce(ctx, "k", produce, Options{Duration: time.Hour})
		}(i)
	}

	// Let all goroutines pile up on the in-flight production
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("producer called %d times, want exactly 1", calls.Load())
	}
	for i := 0; i < waiters; i++ {
		if errs[i] != nil {
			t.Fatalf("waiter %d failed: %v", i, errs[i])
		}
		if string(results[i]) != "shared" {
			t.Errorf("waiter %d got %q, want shared", i, results[i])
		}
	}
}

func TestCache_GetOrProduce_FailSafeServesLastGood(t *testing.T) {
	c := New()
	ctx := context.Background()

	c.Set("k", []byte("last-good"), Options{
		Duration:    10 * time.Millisecond,
		FailSafe:    true,
		FailSafeMax: time.Hour,
	})
	time.Sleep(30 * time.Millisecond)

	produce := func(ctx context.Context) ([]byte, error) {
		return nil, errors.New("producer down")
	}

	got, err := c.GetOrProduce(ctx, "k", produce, Options{Duration: 10 * time.Millisecond, FailSafe: true, FailSafeMax: time.Hour})
	if err != nil {
		t.Fatalf("fail-safe read should not error, got: %v", err)
	}
	if string(got) != "last-good" {
		t.Errorf("GetOrProduce returned %q, want last-good stale value", got)
	}
}

func TestCache_GetOrProduce_FailureWithoutFailSafe(t *testing.T) {
	c := New()
	ctx := context.Background()

	wantErr := errors.New("producer down")
	produce := func(ctx context.Context) ([]byte, error) {
		return nil, wantErr
	}

	_, err := c.GetOrProduce(ctx, "k", produce, Options{Duration: time.Hour})
	if !errors.Is(err, wantErr) {
		t.Errorf("GetOrProduce error = %v, want %v", err, wantErr)
	}
	if c.Len() != 0 {
		t.Error("failed production must not commit an entry")
	}
}

func TestCache_GetOrProduce_RefreshAfterExpiry(t *testing.T) {
	c := New()
	ctx := context.Background()
	var calls atomic.Int32

	produce := func(ctx context.Context) ([]byte, error) {
		n := calls.Add(1)
		if n == 1 {
			return []byte("first"), nil
		}
		return []byte("second"), nil
	}
	opts := Options{Duration: 10 * time.Millisecond}

	if _, err := c.GetOrProduce(ctx, "k", produce, opts); err != nil {
		t.Fatalf("first GetOrProduce failed: %v", err)
	}

	time.Sleep(30 * time.Millisecond)

	got, err := c.GetOrProduce(ctx, "k", produce, opts)
	if err != nil {
		t.Fatalf("refresh GetOrProduce failed: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("refresh returned %q, want second", got)
	}
	if calls.Load() != 2 {
		t.Errorf("producer called %d times, want 2", calls.Load())
	}
}

func TestCache_GetOrProduce_CancelledContext(t *testing.T) {
	c := New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	produce := func(ctx context.Context) ([]byte, error) {
		t.Error("producer should not run for a cancelled context")
		return nil, nil
	}

	_, err := c.GetOrProduce(ctx, "k", produce, Options{Duration: time.Hour})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("GetOrProduce error = %v, want context.Canceled", err)
	}
}

func TestCache_GetOrProduce_CancellationDuringProductionCommitsNothing(t *testing.T) {
	c := New()
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	produce := func(ctx context.Context) ([]byte, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}

	done := make(chan error, 1)
	go func() {
		_, err := c.GetOrProduce(ctx, "k", produce, Options{Duration: time.Hour})
		done <- err
	}()

	<-started
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("GetOrProduce error = %v, want context.Canceled", err)
	}
	if c.Len() != 0 {
		t.Error("cancelled production must not commit an entry")
	}
}

func TestCache_GetOrProduce_NilProducer(t *testing.T) {
	c := New()

	_, err := c.GetOrProduce(context.Background(), "k", nil, Options{Duration: time.Hour})
	if !errors.Is(err, ErrNilProducer) {
		t.Errorf("GetOrProduce error = %v, want ErrNilProducer", err)
	}
}

func TestCache_Close(t *testing.T) {
	c := New()
	c.Set("k", []byte("payload"), Options{Duration: time.Hour})

	c.Close()

	if _, ok := c.TryGet("k"); ok {
		t.Error("TryGet after Close should miss")
	}

	_, err := c.GetOrProduce(context.Background(), "k", func(ctx context.Context) ([]byte, error) {
		return []byte("x"), nil
	}, Options{Duration: time.Hour})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("GetOrProduce after Close = %v, want ErrClosed", err)
	}

	// Idempotent
	c.Close()
}

func TestCache_JitterStaysWithinBound(t *testing.T) {
	c := New()

	// With JitterMax well below Duration the value must survive a read
	// shortly after the nominal TTL floor would allow.
	c.Set("k", []byte("payload"), Options{
		Duration:  200 * time.Millisecond,
		JitterMax: 10 * time.Millisecond,
	})

	time.Sleep(20 * time.Millisecond)
	if _, ok := c.TryGet("k"); !ok {
		t.Error("value should still be fresh well inside Duration")
	}
}
