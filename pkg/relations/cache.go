package relations

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Option customises a Cache.
type Option func(*Cache)

// WithTTL expires entries after ttl. Zero keeps entries until invalidated.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl >= 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger attaches a logger for load events.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// Stats reports cache activity.
type Stats struct {
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
	Loads   int `json:"loads"`
	Entries int `json:"entries"`
}

type entry struct {
	keys     []any
	loadedAt time.Time
}

// Cache memoises related keys per lookup key. It is safe for concurrent use
// and meant to be shared by every form built over the same database.
type Cache struct {
	source KeySource
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
	stats   Stats
	group   singleflight.Group
}

// New returns a cache backed by source.
func New(source KeySource, options ...Option) *Cache {
	c := &Cache{
		source:  source,
		logger:  zerolog.Nop(),
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Keys returns the keys for lookup, loading them from the source on a miss.
// Concurrent misses on the same key share a single load. Failed loads are
// not cached.
func (c *Cache) Keys(ctx context.Context, lookup Lookup) ([]any, error) {
	if c == nil || c.source == nil {
		return nil, fmt.Errorf("relations: cache has no key source")
	}
	if keys, ok := c.cached(lookup.Key); ok {
		return keys, nil
	}

	result, err, _ := c.group.Do(lookup.Key, func() (any, error) {
		if keys, ok := c.peek(lookup.Key); ok {
			return keys, nil
		}
		keys, err := c.source.Keys(ctx, lookup)
		if err != nil {
			c.logger.Error().Err(err).Str("lookup", lookup.Key).Str("table", lookup.Table).Msg("failed to load relation keys")
			return nil, fmt.Errorf("relations: load %s: %w", lookup.Key, err)
		}
		c.mu.Lock()
		c.entries[lookup.Key] = entry{keys: keys, loadedAt: c.now()}
		c.stats.Loads++
		c.mu.Unlock()
		c.logger.Debug().Str("lookup", lookup.Key).Str("table", lookup.Table).Int("keys", len(keys)).Msg("loaded relation keys")
		return keys, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]any(nil), result.([]any)...), nil
}

func (c *Cache) cached(key string) ([]any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if ok && !c.expired(e) {
		c.stats.Hits++
		return append([]any(nil), e.keys...), true
	}
	c.stats.Misses++
	return nil, false
}

func (c *Cache) peek(key string) ([]any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || c.expired(e) {
		return nil, false
	}
	return e.keys, true
}

func (c *Cache) expired(e entry) bool {
	return c.ttl > 0 && c.now().Sub(e.loadedAt) >= c.ttl
}

// Invalidate drops a single entry.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Reset drops every entry. Counters are kept.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.logger.Debug().Msg("relation cache reset")
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	stats := c.stats
	stats.Entries = len(c.entries)
	return stats
}
