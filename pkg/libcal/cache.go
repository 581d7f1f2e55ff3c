package libcal

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Cache is a shared byte cache used by memoized calls. A missing or expired
// key is reported as an error wrapping ErrCacheMiss; any other error is a
// cache failure.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// CacheEntry is a cached value. A zero ExpiresAt never expires.
type CacheEntry struct {
	Data      []byte    `json:"data"                 yaml:"data"`
	CreatedAt time.Time `json:"created_at"           yaml:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// NewCacheEntry builds an entry that expires after ttl. A ttl of zero or
// less never expires.
func NewCacheEntry(data []byte, ttl time.Duration) *CacheEntry {
	now := time.Now()
	entry := &CacheEntry{Data: data, CreatedAt: now}

	if ttl > 0 {
		entry.ExpiresAt = now.Add(ttl)
	}

	return entry
}

// IsExpired reports whether the entry has expired at now.
func (e *CacheEntry) IsExpired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && !now.Before(e.ExpiresAt)
}

// TTL returns the remaining lifetime, or zero for entries that never expire.
func (e *CacheEntry) TTL(now time.Time) time.Duration {
	if e.ExpiresAt.IsZero() {
		return 0
	}

	return e.ExpiresAt.Sub(now)
}

// MemoryCache is an in-process Cache. With a positive max size the oldest
// entry is evicted when full.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	order   []string
	maxSize int
}

// NewMemoryCache creates a memory cache. maxSize <= 0 is unbounded.
func NewMemoryCache(maxSize int) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]*CacheEntry),
		maxSize: maxSize,
	}
}

// Get returns the entry for key.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: key not found: %s", ErrCacheMiss, key)
	}

	if entry.IsExpired(time.Now()) {
		c.mu.Lock()
		c.remove(key)
		c.mu.Unlock()

		return nil, fmt.Errorf("%w: entry expired: %s", ErrCacheMiss, key)
	}

	return entry, nil
}

// Set stores entry under key.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	if entry == nil {
		return ErrInvalidCacheEntry
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		if c.maxSize > 0 && len(c.entries) >= c.maxSize {
			c.evictOldest()
		}

		c.order = append(c.order, key)
	}

	c.entries[key] = entry

	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.remove(key)

	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*CacheEntry)
	c.order = nil

	return nil
}

// Has reports whether key holds an unexpired entry.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// Cleanup drops expired entries.
func (c *MemoryCache) Cleanup() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.IsExpired(now) {
			c.remove(key)
		}
	}
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (c *MemoryCache) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Cleanup()
			}
		}
	}()
}

// remove must be called with the write lock held.
func (c *MemoryCache) remove(key string) {
	if _, ok := c.entries[key]; !ok {
		return
	}

	delete(c.entries, key)

	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)

			break
		}
	}
}

func (c *MemoryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}

	c.remove(c.order[0])
}

// CacheStats counts memo store activity.
type CacheStats struct {
	Hits   int64 `json:"hits"   yaml:"hits"`
	Misses int64 `json:"misses" yaml:"misses"`
	Sets   int64 `json:"sets"   yaml:"sets"`
}

// GetHitRate returns hits / (hits + misses), or 0 before any lookup.
func (s *CacheStats) GetHitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}
