// Package cache keeps server query results keyed by query identity and
// tells subscribers when a key is invalidated.
//
// Two drivers implement Store: an in-process TTL map (the default) and Redis.
// Cache wraps either one, records hit/miss metrics and fires
// event.CacheInvalidated on the bus for every key it drops:
//
//	page, err := cache.Remember(ctx, c, cache.ProductsPage(1), func(ctx context.Context) (models.ProductPage, error) {
//	    return repo.List(ctx, 1)
//	})
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/stockdesk/config"
	"github.com/shashiranjanraj/stockdesk/pkg/event"
	"github.com/shashiranjanraj/stockdesk/pkg/logger"
	"github.com/shashiranjanraj/stockdesk/pkg/metrics"
)

// Key prefixes. Invalidating a prefix drops every key under it.
const (
	ProductsPrefix     = "products:"
	VariantsPrefix     = "variants:"
	StockReportsPrefix = "stock-reports:"
)

func ProductsPage(page int) string { return fmt.Sprintf("%spage:%d", ProductsPrefix, page) }

func Variants(productID int64) string { return fmt.Sprintf("%s%d", VariantsPrefix, productID) }

// StockReports keys one report query. Empty bounds and "all" are kept
// verbatim so that differing filters never share an entry.
func StockReports(from, to, changeType string) string {
	return fmt.Sprintf("%s%s:%s:%s", StockReportsPrefix, from, to, changeType)
}

// Store is the driver contract. Values are JSON-encoded by the driver.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Forget(ctx context.Context, keys ...string) error
	ForgetPrefix(ctx context.Context, prefix string) ([]string, error)
	Driver() string
	Close() error
}

// Invalidation is the payload fired with event.CacheInvalidated.
type Invalidation struct {
	Key    string `json:"key"`
	Prefix bool   `json:"prefix"`
}

type Cache struct {
	store Store
	bus   *event.Bus
	ttl   time.Duration

	// Invalidation stamps. seq grows on every invalidation; keys and
	// prefixes remember the seq of their last one, so a load that started
	// earlier can tell its result is stale.
	mu       sync.Mutex
	seq      uint64
	keys     map[string]uint64
	prefixes map[string]uint64
}

func New(store Store, bus *event.Bus, ttl time.Duration) *Cache {
	if bus == nil {
		bus = event.NewBus()
	}
	return &Cache{store: store, bus: bus, ttl: ttl, keys: map[string]uint64{}, prefixes: map[string]uint64{}}
}

// FromConfig builds the Cache named by CACHE_DRIVER. An unreachable Redis is
// logged and replaced with the memory driver.
func FromConfig(bus *event.Bus) *Cache {
	ttl := config.CacheTTL()
	if config.CacheDriver() == "redis" {
		r, err := NewRedis(config.RedisAddr(), config.RedisPassword())
		if err == nil {
			return New(r, bus, ttl)
		}
		logger.Warn("cache: redis unavailable, using memory driver", "error", err)
	}
	return New(NewMemory(ttl), bus, ttl)
}

func (c *Cache) Store() string { return c.store.Driver() }

// Get reads key into dest. Driver errors count as a miss.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	ok, err := c.store.Get(ctx, key, dest)
	if err != nil {
		logger.WithCtx(ctx).Warn("cache: get failed", "key", key, "error", err)
	}
	if ok && err == nil {
		metrics.CacheHits.WithLabelValues(c.store.Driver()).Inc()
		return true
	}
	metrics.CacheMisses.WithLabelValues(c.store.Driver()).Inc()
	return false
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	return c.store.Set(ctx, key, value, c.ttl)
}

// Invalidate drops exact keys and notifies subscribers of each.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	c.mu.Lock()
	c.seq++
	for _, k := range keys {
		c.keys[k] = c.seq
	}
	c.mu.Unlock()

	if err := c.store.Forget(ctx, keys...); err != nil {
		return fmt.Errorf("cache: forget: %w", err)
	}
	for _, k := range keys {
		c.bus.Fire(event.CacheInvalidated, Invalidation{Key: k})
	}
	return nil
}

// InvalidatePrefix drops every key under prefix. Subscribers get exactly one
// notification for the prefix, even when nothing under it was cached.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	c.seq++
	c.prefixes[prefix] = c.seq
	c.mu.Unlock()

	if _, err := c.store.ForgetPrefix(ctx, prefix); err != nil {
		return fmt.Errorf("cache: forget prefix %q: %w", prefix, err)
	}
	c.bus.Fire(event.CacheInvalidated, Invalidation{Key: prefix, Prefix: true})
	return nil
}

// Subscribe registers fn for invalidation notifications.
func (c *Cache) Subscribe(fn func(Invalidation)) (unsubscribe func()) {
	return c.bus.Listen(event.CacheInvalidated, func(p interface{}) {
		if inv, ok := p.(Invalidation); ok {
			fn(inv)
		}
	})
}

func (c *Cache) Close() error { return c.store.Close() }

// mark returns the current invalidation stamp.
func (c *Cache) mark() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// invalidatedSince reports whether key, or a prefix of it, was invalidated
// after stamp.
func (c *Cache) invalidatedSince(key string, stamp uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys[key] > stamp {
		return true
	}
	for p, at := range c.prefixes {
		if at > stamp && strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// Remember returns the cached value for key or calls fn, caching its result
// on success. Errors from fn are returned as-is and never cached. A result
// whose key was invalidated while fn ran is returned but not cached, so the
// next read refetches.
func Remember[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	if c.Get(ctx, key, &out) {
		return out, nil
	}
	stamp := c.mark()
	v, err := fn(ctx)
	if err != nil {
		return v, err
	}
	if c.invalidatedSince(key, stamp) {
		logger.WithCtx(ctx).Debug("cache: result outdated by invalidation, not stored", "key", key)
		return v, nil
	}
	if err := c.Set(ctx, key, v); err != nil {
		logger.WithCtx(ctx).Warn("cache: set failed", "key", key, "error", err)
		return v, nil
	}
	// An invalidation that landed between the check and the Set.
	if c.invalidatedSince(key, stamp) {
		_ = c.store.Forget(ctx, key)
	}
	return v, nil
}
