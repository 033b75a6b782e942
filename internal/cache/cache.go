package cache

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/five82/mantle/internal/library"
)

const (
	DefaultTTL        = 600 * time.Second
	DefaultMaxEntries = 5
)

// Key identifies one sub-fetch.
type Key struct {
	EntryID    int
	URL        string
	InternalID string
}

// FetchFunc loads the chapter list on a miss.
type FetchFunc func(ctx context.Context) ([]library.Chapter, error)

// Options bound the cache. Zero values use the defaults.
type Options struct {
	TTL        time.Duration
	MaxEntries int
	Now        func() time.Time
}

// Stats counts cache activity since creation.
type Stats struct {
	Hits      int
	Misses    int
	Evictions int
}

type entry struct {
	value      []library.Chapter
	insertedAt time.Time
	seq        uint64 // insertion order, immune to clock ties
}

// Cache memoizes chapter lists with a TTL and a maximum entry count.
// It is safe for concurrent use; fetches run without holding the lock.
type Cache struct {
	mu         sync.Mutex
	entries    map[Key]entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	seq        uint64
	stats      Stats
}

// New builds a Cache.
func New(opts Options) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Cache{
		entries:    make(map[Key]entry, opts.MaxEntries),
		ttl:        opts.TTL,
		maxEntries: opts.MaxEntries,
		now:        opts.Now,
	}
}

// GetChapters returns the cached chapters for key or calls fetch on a miss
// or expiry. Failed fetches are not cached. Concurrent misses for the same
// key may both call fetch.
func (c *Cache) GetChapters(ctx context.Context, key Key, fetch FetchFunc) ([]library.Chapter, error) {
	if chapters, ok := c.lookup(key); ok {
		return chapters, nil
	}

	chapters, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.insert(key, chapters)
	return slices.Clone(chapters), nil
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Invalidate drops key.
func (c *Cache) Invalidate(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Purge drops every entry.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Stats returns a copy of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Cache) lookup(key Key) ([]library.Chapter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	if c.now().Sub(e.insertedAt) >= c.ttl {
		delete(c.entries, key)
		c.stats.Evictions++
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	return slices.Clone(e.value), true
}

func (c *Cache) insert(key Key, chapters []library.Chapter) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.maxEntries {
			c.evictOldestLocked()
		}
	}
	c.seq++
	c.entries[key] = entry{value: slices.Clone(chapters), insertedAt: c.now(), seq: c.seq}
}

func (c *Cache) evictOldestLocked() {
	var (
		oldestKey Key
		oldest    uint64
		found     bool
	)
	for k, e := range c.entries {
		if !found || e.seq < oldest {
			oldestKey, oldest, found = k, e.seq, true
		}
	}
	if !found {
		return
	}
	delete(c.entries, oldestKey)
	c.stats.Evictions++
}
