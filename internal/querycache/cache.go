// Package querycache memoizes read queries for a fixed time-to-live.
//
// Entries expire lazily: an expired entry is dropped when it is looked up,
// there is no background sweep. Invalidation is global: any write that could
// make a cached read stale calls InvalidateAll. There is no per-key
// invalidation on purpose, the cache trades freshness for fewer reads.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

const DefaultTTL = 5 * time.Minute

var ErrTypeMismatch = errors.New("cached value has unexpected type")

// FetchFunc reads from the backing data source on a cache miss.
type FetchFunc func(ctx context.Context) (any, error)

// Metrics receives cache events. All methods must be cheap.
type Metrics interface {
	Hit()
	Miss()
	Expire()
	Invalidate()
}

type NoopMetrics struct{}

func (NoopMetrics) Hit()        {}
func (NoopMetrics) Miss()       {}
func (NoopMetrics) Expire()     {}
func (NoopMetrics) Invalidate() {}

type entry struct {
	payload  any
	storedAt time.Time
}

type Stats struct {
	Entries       int    `json:"entries"`
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Expired       uint64 `json:"expired"`
	Invalidations uint64 `json:"invalidations"`
}

type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	generation uint64

	ttl          time.Duration
	fetchTimeout time.Duration
	now          func() time.Time
	metrics      Metrics

	sfg singleflight.Group // one fetch per key in flight

	hits, misses, expired, invalidations atomic.Uint64
}

type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithFetchTimeout bounds every fetch. A timed out fetch is a failed fetch
// and is not cached.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *Cache) {
		c.fetchTimeout = d
	}
}

func WithMetrics(m Metrics) Option {
	return func(c *Cache) {
		if m != nil {
			c.metrics = m
		}
	}
}

func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     DefaultTTL,
		now:     time.Now,
		metrics: NoopMetrics{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Read returns the payload stored under key if it is younger than the TTL.
// Otherwise it calls fetch, stores the result and returns it. A fetch error
// is returned as is and nothing is stored.
//
// Concurrent misses on the same key share a single fetch. A fetch that was
// started before an InvalidateAll still answers its callers but its result
// is not stored.
func (c *Cache) Read(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if c.now().Sub(e.storedAt) < c.ttl {
			c.mu.Unlock()
			c.hits.Add(1)
			c.metrics.Hit()
			return e.payload, nil
		}
		delete(c.entries, key)
		c.expired.Add(1)
		c.metrics.Expire()
	}
	gen := c.generation
	c.mu.Unlock()

	c.misses.Add(1)
	c.metrics.Miss()

	// The shared fetch outlives the caller that started it, so it must not
	// inherit that caller's cancellation. Each caller still stops waiting when
	// its own context ends.
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.sfg.DoChan(flightKey(gen, key), func() (any, error) {
		payload, err := c.fetch(fetchCtx, fetch)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		if c.generation == gen {
			c.entries[key] = entry{payload: payload, storedAt: c.now()}
		}
		c.mu.Unlock()

		return payload, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) fetch(ctx context.Context, fetch FetchFunc) (any, error) {
	if c.fetchTimeout <= 0 {
		return fetch(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()
	return fetch(ctx)
}

// InvalidateAll discards every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.generation++
	c.mu.Unlock()

	c.invalidations.Add(1)
	c.metrics.Invalidate()
}

// Len counts stored entries, expired ones included until they are looked up.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) Stats() Stats {
	return Stats{
		Entries:       c.Len(),
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Expired:       c.expired.Load(),
		Invalidations: c.invalidations.Load(),
	}
}

func flightKey(gen uint64, key string) string {
	return strconv.FormatUint(gen, 10) + "#" + key
}

// ReadAs is Read with a typed payload.
func ReadAs[T any](ctx context.Context, c *Cache, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Read(ctx, key, func(ctx context.Context) (any, error) {
		res, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return res, nil
	})
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: key %q holds %T", ErrTypeMismatch, key, v)
	}
	return typed, nil
}
