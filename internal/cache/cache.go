// Package cache memoizes analysis results by a hash of their input.
//
// Entries expire lazily: an entry older than the TTL is treated as a miss and
// removed when it is next looked up. When a new key arrives at capacity, the
// oldest 30% of entries are dropped in one pass instead of tracking recency on
// every access.
package cache

import (
	"sort"
	"sync"
	"time"

	"github.com/jonathan/writing-coach/internal/types"
)

// Defaults.
const (
	DefaultTTL        = 5 * time.Minute
	DefaultMaxEntries = 50
	evictFraction     = 0.3
)

// Options configures a Cache. Zero values take the defaults.
type Options struct {
	TTL        time.Duration
	MaxEntries int
	Now        func() time.Time
}

type entry struct {
	result   *types.AnalysisResult
	storedAt time.Time
	seq      uint64
}

// Stats is a point-in-time view of the cache.
type Stats struct {
	Entries    int           `json:"entries"`
	MaxEntries int           `json:"max_entries"`
	TTL        time.Duration `json:"ttl"`
	Hits       uint64        `json:"hits"`
	Misses     uint64        `json:"misses"`
	Evictions  uint64        `json:"evictions"`
	Oldest     *time.Time    `json:"oldest,omitempty"`
	Newest     *time.Time    `json:"newest,omitempty"`
}

// Cache is a process-local, size-bounded result cache. It is safe for
// concurrent use.
type Cache struct {
	mu         sync.Mutex
	entries    map[uint64]*entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	seq        uint64

	hits      uint64
	misses    uint64
	evictions uint64
}

// New creates a cache.
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
		entries:    make(map[uint64]*entry),
		ttl:        opts.TTL,
		maxEntries: opts.MaxEntries,
		now:        opts.Now,
	}
}

// Get returns the cached result for text and textType.
func (c *Cache) Get(text, textType string) (*types.AnalysisResult, bool) {
	key := Key(text, textType)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		cacheMisses.Inc()
		return nil, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		c.misses++
		c.evictions++
		cacheMisses.Inc()
		cacheEvictions.WithLabelValues("expired").Inc()
		return nil, false
	}
	c.hits++
	cacheHits.Inc()
	return e.result, true
}

// Put stores result under text and textType. Inserting a new key into a full
// cache first evicts the oldest entries. Nil results are ignored.
func (c *Cache) Put(text, textType string, result *types.AnalysisResult) {
	if result == nil {
		return
	}
	key := Key(text, textType)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.seq++
	c.entries[key] = &entry{result: result, storedAt: c.now(), seq: c.seq}
}

// evictOldestLocked drops max(1, floor(maxEntries*0.3)) of the oldest entries.
// Entries stored at the same instant are ordered by insertion.
func (c *Cache) evictOldestLocked() {
	n := int(float64(c.maxEntries) * evictFraction)
	if n < 1 {
		n = 1
	}

	type aged struct {
		key      uint64
		storedAt time.Time
		seq      uint64
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{key: k, storedAt: e.storedAt, seq: e.seq})
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].storedAt.Equal(all[j].storedAt) {
			return all[i].storedAt.Before(all[j].storedAt)
		}
		return all[i].seq < all[j].seq
	})

	if n > len(all) {
		n = len(all)
	}
	for _, a := range all[:n] {
		delete(c.entries, a.key)
	}
	c.evictions += uint64(n)
	cacheEvictions.WithLabelValues("capacity").Add(float64(n))
}

// Len returns the number of stored entries, including expired ones not yet
// looked up.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes every entry. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64]*entry)
}

// Stats returns current counters and the age range of stored entries.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Entries:    len(c.entries),
		MaxEntries: c.maxEntries,
		TTL:        c.ttl,
		Hits:       c.hits,
		Misses:     c.misses,
		Evictions:  c.evictions,
	}
	for _, e := range c.entries {
		t := e.storedAt
		if s.Oldest == nil || t.Before(*s.Oldest) {
			s.Oldest = &t
		}
		if s.Newest == nil || t.After(*s.Newest) {
			newest := t
			s.Newest = &newest
		}
	}
	return s
}
