package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func setupTestCache(t *testing.T, opts Options) *Cache {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(opts, tracenoop.NewTracerProvider().Tracer("test"), metricnoop.NewMeterProvider().Meter("test"), logger)
}

func TestFetch_CachesUntilInvalidated(t *testing.T) {
	c := setupTestCache(t, Options{ReadAttempts: 1})
	ctx := context.Background()

	calls := 0
	load := func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	}

	v, err := Get(ctx, c, ProductsKey(), load)
	if err != nil || v != 1 {
		t.Fatalf("Expected 1, got %d, %v", v, err)
	}
	v, _ = Get(ctx, c, ProductsKey(), load)
	if v != 1 || calls != 1 {
		t.Errorf("Expected cached value, got %d after %d calls", v, calls)
	}

	c.Invalidate(ctx, ProductsKey())
	if _, ok := c.Cached(ProductsKey()); ok {
		t.Errorf("Expected entry to be stale after invalidation")
	}

	v, _ = Get(ctx, c, ProductsKey(), load)
	if v != 2 || calls != 2 {
		t.Errorf("Expected reload after invalidation, got %d after %d calls", v, calls)
	}
}

func TestFetch_KeysAreIndependent(t *testing.T) {
	c := setupTestCache(t, Options{ReadAttempts: 1})
	ctx := context.Background()

	_, _ = Get(ctx, c, ProductKey(1), func(context.Context) (string, error) { return "one", nil })
	_, _ = Get(ctx, c, ProductKey(2), func(context.Context) (string, error) { return "two", nil })

	c.Invalidate(ctx, ProductKey(1))

	if _, ok := c.Cached(ProductKey(1)); ok {
		t.Errorf("Expected product 1 to be stale")
	}
	if v, ok := c.Cached(ProductKey(2)); !ok || v != "two" {
		t.Errorf("Expected product 2 to stay cached, got %v", v)
	}
}

func TestFetch_RetriesReads(t *testing.T) {
	c := setupTestCache(t, Options{ReadAttempts: 3, RetryDelay: time.Millisecond})

	calls := 0
	v, err := Get(context.Background(), c, ProductsKey(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("temporary")
		}
		return "ok", nil
	})
	if err != nil || v != "ok" {
		t.Fatalf("Expected success on third attempt, got %q, %v", v, err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
}

func TestFetch_GivesUpAfterAttempts(t *testing.T) {
	c := setupTestCache(t, Options{ReadAttempts: 3, RetryDelay: time.Millisecond})
	boom := errors.New("backend down")

	calls := 0
	_, err := Get(context.Background(), c, ProductsKey(), func(context.Context) (string, error) {
		calls++
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Expected last error, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
	if _, ok := c.Cached(ProductsKey()); ok {
		t.Errorf("Failed load must not be cached")
	}
}

func TestFetch_PermanentErrorsAreNotRetried(t *testing.T) {
	notFound := errors.New("not found")
	c := setupTestCache(t, Options{
		ReadAttempts: 3,
		Permanent:    func(err error) bool { return errors.Is(err, notFound) },
	})

	calls := 0
	_, err := Get(context.Background(), c, ProductKey(9), func(context.Context) (string, error) {
		calls++
		return "", notFound
	})
	if !errors.Is(err, notFound) {
		t.Errorf("Expected not found, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected a single attempt, got %d", calls)
	}
}

func TestFetch_InvalidationDuringLoadKeepsEntryStale(t *testing.T) {
	c := setupTestCache(t, Options{ReadAttempts: 1})
	ctx := context.Background()

	_, _ = Get(ctx, c, ProductsKey(), func(ctx context.Context) (string, error) {
		c.Invalidate(ctx, ProductsKey())
		return "old", nil
	})

	if _, ok := c.Cached(ProductsKey()); ok {
		t.Errorf("A load overtaken by an invalidation must not be cached as fresh")
	}
}

func TestFetch_ReadAfterInvalidateDoesNotJoinOlderLoad(t *testing.T) {
	c := setupTestCache(t, Options{ReadAttempts: 1})
	ctx := context.Background()

	var version atomic.Int32
	version.Store(1)
	started := make(chan struct{})
	release := make(chan struct{})
	first := true
	load := func(context.Context) (int32, error) {
		v := version.Load()
		if first {
			first = false
			close(started)
			<-release
		}
		return v, nil
	}

	done := make(chan int32)
	go func() {
		v, _ := Get(ctx, c, ProductsKey(), load)
		done <- v
	}()
	<-started

	version.Store(2)
	c.Invalidate(ctx, ProductsKey())

	v, err := Get(ctx, c, ProductsKey(), load)
	if err != nil || v != 2 {
		t.Errorf("Expected read after invalidation to see version 2, got %d, %v", v, err)
	}

	close(release)
	if old := <-done; old != 1 {
		t.Errorf("Expected the earlier load to finish with version 1, got %d", old)
	}
	if cached, ok := c.Cached(ProductsKey()); !ok || cached != int32(2) {
		t.Errorf("Expected version 2 to stay cached, got %v", cached)
	}
}

func TestFetch_CoalescesConcurrentLoads(t *testing.T) {
	c := setupTestCache(t, Options{ReadAttempts: 1})

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Get(context.Background(), c, ProductsKey(), load)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("Expected one shared load, got %d", n)
	}
}

func TestSubscribe(t *testing.T) {
	c := setupTestCache(t, Options{})
	ctx := context.Background()

	var got []Key
	unsubscribe := c.Subscribe(ProductsKey(), func(k Key) { got = append(got, k) })

	c.Invalidate(ctx, ProductsKey(), ProductKey(3))
	if len(got) != 1 || got[0] != ProductsKey() {
		t.Errorf("Expected one notification for products, got %v", got)
	}

	unsubscribe()
	c.Invalidate(ctx, ProductsKey())
	if len(got) != 1 {
		t.Errorf("Expected no notification after unsubscribe, got %v", got)
	}
}

func TestGet_TypeMismatch(t *testing.T) {
	c := setupTestCache(t, Options{})
	ctx := context.Background()

	_, _ = Get(ctx, c, ProductsKey(), func(context.Context) (int, error) { return 1, nil })
	if _, err := Get(ctx, c, ProductsKey(), func(context.Context) (string, error) { return "", nil }); err == nil {
		t.Errorf("Expected a type mismatch error")
	}
}

func TestKeyString(t *testing.T) {
	if s := ProductsKey().String(); s != "products" {
		t.Errorf("Unexpected key %s", s)
	}
	if s := ProductKey(42).String(); s != "product:42" {
		t.Errorf("Unexpected key %s", s)
	}
}
