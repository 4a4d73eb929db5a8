// Package cache memoizes composite results in process. Scoring is
// deterministic, so identical bundle, evaluation instant and calibration
// always reproduce the same result; caching is therefore safe and lives
// entirely on the caller's side of the engine.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/alphascore/alphascore/internal/domain"
)

// ResultCache is a TTL cache for composite results with LRU eviction once
// the entry limit is reached.
type ResultCache struct {
	mu         sync.Mutex
	entries    map[string]*resultEntry
	maxEntries int
	ttl        time.Duration
	stats      Stats

	stopCh chan struct{}
}

type resultEntry struct {
	result   *domain.CompositeResult
	expires  time.Time
	accessed time.Time
}

// Stats counts cache traffic since construction or the last Clear.
type Stats struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	Entries   int   `json:"entries"`
}

// NewResultCache builds a cache holding at most maxEntries results for ttl
// each, with a background sweep for expired entries. Call Stop when done.
func NewResultCache(maxEntries int, ttl time.Duration) *ResultCache {
	c := &ResultCache{
		entries:    make(map[string]*resultEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		stopCh:     make(chan struct{}),
	}

	go c.sweep()

	return c
}

// Key derives the cache key for one scoring request. Any change to the
// bundle, the evaluation instant or the benchmark calibration produces a
// different key, so stale calibrations can never serve from cache.
func Key(bundle *domain.RawSignalBundle, asOf time.Time, calibration string) (string, error) {
	payload, err := json.Marshal(bundle)
	if err != nil {
		return "", fmt.Errorf("failed to hash bundle: %w", err)
	}

	h := sha256.New()
	h.Write(payload)
	h.Write([]byte(asOf.UTC().Format(time.RFC3339Nano)))
	h.Write([]byte(calibration))
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns the cached result for key, if present and unexpired.
func (c *ResultCache) Get(key string) (*domain.CompositeResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expires) {
		c.stats.Misses++
		return nil, false
	}

	entry.accessed = time.Now()
	c.stats.Hits++
	return entry.result, true
}

// Set stores a result under key, evicting the least recently used entry
// when the cache is full.
func (c *ResultCache) Set(key string, result *domain.CompositeResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLRU()
	}

	now := time.Now()
	c.entries[key] = &resultEntry{
		result:   result,
		expires:  now.Add(c.ttl),
		accessed: now,
	}
}

// Stats returns a snapshot of the traffic counters.
func (c *ResultCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Entries = len(c.entries)
	return s
}

// Clear drops every entry and resets the counters.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*resultEntry)
	c.stats = Stats{}
}

// Stop shuts down the background sweep.
func (c *ResultCache) Stop() {
	close(c.stopCh)
}

// evictLRU removes the least recently accessed entry. Caller holds the lock.
func (c *ResultCache) evictLRU() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.accessed.Before(oldestTime) {
			oldestTime = entry.accessed
			oldestKey = key
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.stats.Evictions++
	}
}

func (c *ResultCache) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *ResultCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
		}
	}
}
