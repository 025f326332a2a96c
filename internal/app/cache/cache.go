// Package cache holds read results of the catalog backend until a mutation
// invalidates them.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const (
	EntityProducts = "products"
	EntityProduct  = "product"
)

// Key identifies a cached read.
type Key struct {
	Entity string
	ID     string
}

func (k Key) String() string {
	if k.ID == "" {
		return k.Entity
	}
	return k.Entity + ":" + k.ID
}

// ProductsKey is the key of the full product list.
func ProductsKey() Key { return Key{Entity: EntityProducts} }

// ProductKey is the key of a single product.
func ProductKey(id uint64) Key {
	return Key{Entity: EntityProduct, ID: strconv.FormatUint(id, 10)}
}

// Options configures read retries.
type Options struct {
	// ReadAttempts is the total number of tries per fetch, at least one.
	ReadAttempts uint
	RetryDelay   time.Duration
	// Permanent reports errors that must not be retried.
	Permanent func(error) bool
}

type entry struct {
	value any
	fresh bool
}

// Cache stores fetched values by key. Values are never modified in place;
// writers call Invalidate and the next Fetch reloads.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]*entry
	// gens counts invalidations per key so that a fetch started before an
	// invalidation does not store its result as fresh.
	gens    map[Key]uint64
	subs    map[Key]map[int]func(Key)
	nextSub int
	group   singleflight.Group

	opts    Options
	tracer  trace.Tracer
	logger  *slog.Logger
	lookups metric.Int64Counter
}

// New creates an empty cache
func New(opts Options, tracer trace.Tracer, meter metric.Meter, logger *slog.Logger) *Cache {
	if opts.ReadAttempts == 0 {
		opts.ReadAttempts = 1
	}

	lookups, _ := meter.Int64Counter(
		"cache.lookups",
		metric.WithDescription("Total number of cache lookups"),
	)

	return &Cache{
		entries: make(map[Key]*entry),
		gens:    make(map[Key]uint64),
		subs:    make(map[Key]map[int]func(Key)),
		opts:    opts,
		tracer:  tracer,
		logger:  logger,
		lookups: lookups,
	}
}

// Fetch returns the cached value for key, or loads it with fetch. Failed
// loads are retried up to Options.ReadAttempts in total. Concurrent
// callers for the same key share one load.
func (c *Cache) Fetch(ctx context.Context, key Key, fetch func(ctx context.Context) (any, error)) (any, error) {
	ctx, span := c.tracer.Start(ctx, "Cache.Fetch")
	defer span.End()

	span.SetAttributes(attribute.String("cache.key", key.String()))

	if v, ok := c.Cached(key); ok {
		c.record(ctx, key, "hit")
		span.SetStatus(codes.Ok, "Cache hit")
		return v, nil
	}
	c.record(ctx, key, "miss")

	v, err, shared := c.group.Do(key.String(), func() (any, error) {
		c.mu.Lock()
		gen := c.gens[key]
		c.mu.Unlock()

		attempt := 0
		v, err := backoff.Retry(ctx, func() (any, error) {
			attempt++
			v, err := fetch(ctx)
			if err != nil && c.opts.Permanent != nil && c.opts.Permanent(err) {
				return nil, backoff.Permanent(err)
			}
			return v, err
		},
			backoff.WithBackOff(backoff.NewConstantBackOff(c.opts.RetryDelay)),
			backoff.WithMaxTries(c.opts.ReadAttempts),
			backoff.WithNotify(func(err error, next time.Duration) {
				c.logger.WarnContext(ctx, "Cache load failed, retrying",
					slog.String("key", key.String()),
					slog.Int("attempt", attempt),
					slog.String("error", err.Error()),
				)
			}),
		)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.gens[key] == gen {
			c.entries[key] = &entry{value: v, fresh: true}
		}
		c.mu.Unlock()
		return v, nil
	})
	span.SetAttributes(attribute.Bool("cache.shared", shared))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Cache load failed")
		c.logger.ErrorContext(ctx, "Cache load failed",
			slog.String("key", key.String()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	span.SetStatus(codes.Ok, "Cache loaded")
	return v, nil
}

// Cached returns the value for key if it is present and fresh.
func (c *Cache) Cached(key Key) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.fresh {
		return nil, false
	}
	return e.value, true
}

// Invalidate marks the given keys stale and notifies their subscribers.
// A load already in flight is detached, so later fetches start a new one.
func (c *Cache) Invalidate(ctx context.Context, keys ...Key) {
	var notify []func()

	c.mu.Lock()
	for _, key := range keys {
		c.gens[key]++
		c.group.Forget(key.String())
		if e, ok := c.entries[key]; ok {
			e.fresh = false
		}
		for _, fn := range c.subs[key] {
			notify = append(notify, func() { fn(key) })
		}
	}
	c.mu.Unlock()

	for _, key := range keys {
		c.logger.DebugContext(ctx, "Cache invalidated",
			slog.String("key", key.String()),
		)
	}
	for _, fn := range notify {
		fn()
	}
}

// Subscribe registers fn to be called after key is invalidated. The
// returned function removes the subscription.
func (c *Cache) Subscribe(key Key, fn func(Key)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	if c.subs[key] == nil {
		c.subs[key] = make(map[int]func(Key))
	}
	c.subs[key][id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs[key], id)
	}
}

func (c *Cache) record(ctx context.Context, key Key, result string) {
	c.lookups.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("entity", key.Entity),
			attribute.String("result", result),
		),
	)
}

// Get is a typed Fetch.
func Get[T any](ctx context.Context, c *Cache, key Key, fetch func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("cache entry %s has type %T", key, v)
	}
	return t, nil
}
