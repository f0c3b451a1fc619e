// Package cache holds calendar documents in a bounded, expiring, least-recently-used
// map and coalesces concurrent loads of the same key.
package cache

import (
	"container/list"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// ErrMiss is returned by a Remote tier that does not hold a key.
var ErrMiss = errors.New("cache miss")

// Remote is a shared second tier consulted before the loader runs.
type Remote interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// Loader produces the value for a missing key.
type Loader[V any] func(ctx context.Context) (V, error)

// Options configures a Cache.
type Options struct {
	Name       string
	TTL        time.Duration
	MaxEntries int
	Remote     Remote
	// Pattern matches every key of this cache in the remote tier.
	Pattern string
	Now     func() time.Time
}

type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// Cache is safe for concurrent use. At most one load per key is in flight at a time.
type Cache[V any] struct {
	name       string
	ttl        time.Duration
	maxEntries int
	remote     Remote
	pattern    string
	now        func() time.Time

	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List // front is most recently used
	group   singleflight.Group
	metrics counters
}

// New builds a cache. A zero TTL or MaxEntries panics.
func New[V any](opts Options) *Cache[V] {
	if opts.TTL <= 0 || opts.MaxEntries <= 0 {
		panic("cache: TTL and MaxEntries must be positive")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Cache[V]{
		name:       opts.Name,
		ttl:        opts.TTL,
		maxEntries: opts.MaxEntries,
		remote:     opts.Remote,
		pattern:    opts.Pattern,
		now:        now,
		items:      make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Name identifies the cache in logs and metrics.
func (c *Cache[V]) Name() string { return c.name }

// Get returns a live entry and marks it most recently used.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

func (c *Cache[V]) getLocked(key string) (V, bool) {
	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	e := el.Value.(*entry[V])
	if !c.now().Before(e.expiresAt) {
		c.removeLocked(el)
		c.metrics.expired.Add(1)
		return zero, false
	}
	c.order.MoveToFront(el)
	return e.value, true
}

// Set stores value with a fresh expiry and evicts the least recently used
// entries beyond the size bound.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[V])
		e.value = value
		e.expiresAt = expiresAt
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value, expiresAt: expiresAt})

	for c.order.Len() > c.maxEntries {
		c.removeLocked(c.order.Back())
		c.metrics.evictions.Add(1)
	}
}

// GetOrLoad returns the cached value for key or runs load once for all
// concurrent callers. Errors are returned to every waiter and are not cached.
// The load does not inherit the cancellation of whichever caller started it;
// each caller stops waiting when its own ctx ends.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load Loader[V]) (V, error) {
	var zero V
	if v, ok := c.Get(key); ok {
		c.metrics.hits.Add(1)
		log.Debug().Str("cache", c.name).Str("key", key).Msg("cache hit")
		return v, nil
	}
	c.metrics.misses.Add(1)

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// A caller that was waiting on a previous flight may already have filled the key.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		if v, ok := c.fromRemote(loadCtx, key); ok {
			c.Set(key, v)
			return v, nil
		}

		c.metrics.loads.Add(1)
		v, err := load(loadCtx)
		if err != nil {
			c.metrics.loadErrors.Add(1)
			return v, err
		}
		c.Set(key, v)
		c.toRemote(loadCtx, key, v)
		return v, nil
	})

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.metrics.coalesced.Add(1)
		}
		if res.Err != nil {
			return zero, res.Err
		}
		v, _ := res.Val.(V)
		return v, nil
	}
}

func (c *Cache[V]) fromRemote(ctx context.Context, key string) (V, bool) {
	var v V
	if c.remote == nil {
		return v, false
	}
	raw, err := c.remote.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			log.Warn().Err(err).Str("cache", c.name).Str("key", key).Msg("remote cache read failed")
		}
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Warn().Err(err).Str("cache", c.name).Str("key", key).Msg("remote cache entry undecodable")
		return v, false
	}
	c.metrics.remoteHits.Add(1)
	return v, true
}

func (c *Cache[V]) toRemote(ctx context.Context, key string, v V) {
	if c.remote == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("cache", c.name).Msg("encode remote cache entry")
		return
	}
	if err := c.remote.Set(ctx, key, raw, c.ttl); err != nil {
		log.Warn().Err(err).Str("cache", c.name).Str("key", key).Msg("remote cache write failed")
	}
}

// Delete drops key from the local tier.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.removeLocked(el)
	}
}

// Clear empties the local tier and, when configured, this cache's keys in the remote tier.
func (c *Cache[V]) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.items = make(map[string]*list.Element)
	c.order.Init()
	c.mu.Unlock()

	if c.remote == nil || c.pattern == "" {
		return nil
	}
	return c.remote.DeleteByPattern(ctx, c.pattern)
}

// Sweep removes expired entries and reports how many were dropped.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if !now.Before(el.Value.(*entry[V]).expiresAt) {
			c.removeLocked(el)
			removed++
		}
		el = prev
	}
	c.metrics.expired.Add(uint64(removed))
	return removed
}

// Len is the number of entries held locally, live or not yet swept.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Keys lists local keys from most to least recently used.
func (c *Cache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		keys = append(keys, el.Value.(*entry[V]).key)
	}
	return keys
}

func (c *Cache[V]) removeLocked(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry[V]).key)
}

// Metrics returns a snapshot of the cache counters.
func (c *Cache[V]) Metrics() Metrics {
	return Metrics{
		Name:       c.name,
		Hits:       c.metrics.hits.Load(),
		Misses:     c.metrics.misses.Load(),
		RemoteHits: c.metrics.remoteHits.Load(),
		Loads:      c.metrics.loads.Load(),
		LoadErrors: c.metrics.loadErrors.Load(),
		Coalesced:  c.metrics.coalesced.Load(),
		Evictions:  c.metrics.evictions.Load(),
		Expired:    c.metrics.expired.Load(),
		Size:       c.Len(),
		MaxEntries: c.maxEntries,
	}
}
