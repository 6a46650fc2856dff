// Package cache provides a bounded TTL cache for suggestion results.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/weboliver/collectsearch/internal/models"
)

// Entry is one cached suggestion list with its TTL bookkeeping.
type Entry struct {
	Results   []models.Suggestion
	CreatedAt time.Time
	TTL       time.Duration
	HitCount  int
}

// IsExpired reports whether the entry has outlived its TTL.
func (e *Entry) IsExpired() bool {
	return time.Since(e.CreatedAt) >= e.TTL
}

// Cache is a bounded key -> suggestion-list store with per-entry TTLs.
// When full, the oldest entry by creation time is evicted; a periodic sweep
// removes expired entries even when their keys are never read again.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]*Entry
	maxEntries int
	defaultTTL time.Duration

	totalQueries int64
	cacheHits    int64

	sweepInterval time.Duration
	done          chan struct{}
	stopOnce      sync.Once
	started       bool
}

// Stats is a snapshot of cache effectiveness counters.
type Stats struct {
	TotalQueries int64   `json:"total_queries"`
	CacheHits    int64   `json:"cache_hits"`
	HitRate      float64 `json:"hit_rate"`
	Entries      int     `json:"entries"`
}

// New creates a cache holding at most maxEntries entries. defaultTTL applies
// to Put; sweepInterval drives the background sweep started by Start.
func New(maxEntries int, defaultTTL, sweepInterval time.Duration) *Cache {
	if maxEntries <= 0 {
		maxEntries = 100
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if sweepInterval <= 0 {
		sweepInterval = 2 * time.Minute
	}
	return &Cache{
		entries:       make(map[string]*Entry),
		maxEntries:    maxEntries,
		defaultTTL:    defaultTTL,
		sweepInterval: sweepInterval,
		done:          make(chan struct{}),
	}
}

// Get returns the cached results for key, or nil/false on a miss. An expired
// entry is removed and counts as a miss. Hits increment the entry's hit
// count and the global hit counter.
func (c *Cache) Get(key string) ([]models.Suggestion, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.totalQueries++

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if entry.IsExpired() {
		delete(c.entries, key)
		return nil, false
	}
	// A nil results slice would be indistinguishable from corruption; treat
	// it as a miss rather than serving it.
	if entry.Results == nil {
		delete(c.entries, key)
		return nil, false
	}

	entry.HitCount++
	c.cacheHits++
	return copyResults(entry.Results), true
}

// Put stores results under key with the default TTL.
func (c *Cache) Put(key string, results []models.Suggestion) {
	c.PutWithTTL(key, results, c.defaultTTL)
}

// PutWithTTL stores results under key with an explicit TTL, evicting the
// oldest entry by creation time when the cache is full.
func (c *Cache) PutWithTTL(key string, results []models.Suggestion, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = &Entry{
		Results:   copyResults(results),
		CreatedAt: time.Now(),
		TTL:       ttl,
	}
}

// Invalidate removes a single key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries. Counters are kept; hit rate reflects the whole
// session, not the current population.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry)
}

// Sweep removes all expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if entry.IsExpired() {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Size returns the current number of entries.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the hit counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		TotalQueries: c.totalQueries,
		CacheHits:    c.cacheHits,
		Entries:      len(c.entries),
	}
	if c.totalQueries > 0 {
		s.HitRate = float64(c.cacheHits) / float64(c.totalQueries)
	}
	return s
}

// Start runs the periodic sweep until ctx is cancelled or Stop is called.
// Calling Start more than once is a no-op.
func (c *Cache) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go func() {
		ticker := time.NewTicker(c.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Sweep()
			case <-ctx.Done():
				return
			case <-c.done:
				return
			}
		}
	}()
}

// Stop terminates the sweep loop. Safe to call multiple times.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
	})
}

// evictOldestLocked removes the entry with the earliest creation time.
// Caller holds c.mu.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.CreatedAt.Before(oldest) {
			oldestKey = key
			oldest = entry.CreatedAt
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// copyResults returns a deep copy so callers cannot mutate cached entries,
// through the slice or through a payload pointer.
func copyResults(results []models.Suggestion) []models.Suggestion {
	out := make([]models.Suggestion, len(results))
	for i := range results {
		out[i] = results[i].Clone()
	}
	return out
}
