package libcal

import (
	"context"
	"fmt"
	"time"

	"github.com/fivetwenty-io/libcal/internal/constants"
)

// CacheType selects the shared cache behind memoized calls.
type CacheType string

const (
	// CacheTypeMemory shares results between clients of one process.
	CacheTypeMemory CacheType = "memory"

	// CacheTypeNATS shares results and the token through a JetStream bucket.
	CacheTypeNATS CacheType = "nats"

	// CacheTypeNone keeps results inside each client only.
	CacheTypeNone CacheType = "none"
)

// CacheConfig selects and configures the shared cache.
type CacheConfig struct {
	Type CacheType `json:"type" yaml:"type"`

	// Memory is used when Type is memory; nil takes the defaults.
	Memory *MemoryCacheConfig `json:"memory,omitempty" yaml:"memory,omitempty"`

	// NATS is required when Type is nats.
	NATS *NATSKVConfig `json:"nats,omitempty" yaml:"nats,omitempty"`
}

// MemoryCacheConfig bounds the in-process shared cache.
type MemoryCacheConfig struct {
	// MaxSize caps the number of entries; the oldest is evicted first.
	MaxSize int `json:"max_size" yaml:"max_size"`

	// CleanupInterval is a duration ("1m") between sweeps of expired entries.
	CleanupInterval string `json:"cleanup_interval" yaml:"cleanup_interval"`
}

// DefaultCacheConfig is a bounded memory cache swept every few minutes.
func DefaultCacheConfig() *CacheConfig {
	return &CacheConfig{
		Type: CacheTypeMemory,
		Memory: &MemoryCacheConfig{
			MaxSize:         constants.DefaultCacheSize,
			CleanupInterval: constants.DefaultCleanupInterval.String(),
		},
	}
}

// NewCacheFromConfig creates a cache backend from configuration. Background
// work started for the cache (memory cleanup) stops when ctx is done.
func NewCacheFromConfig(ctx context.Context, config *CacheConfig) (Cache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	switch config.Type {
	case CacheTypeMemory:
		return NewMemoryCacheFromConfig(ctx, config.Memory)

	case CacheTypeNATS:
		if config.NATS == nil {
			return nil, ErrNATSConfigRequired
		}

		return NewNATSKVCache(config.NATS)

	case CacheTypeNone, "":
		return NewNoOpCache(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCacheType, config.Type)
	}
}

// NewMemoryCacheFromConfig builds a MemoryCache and starts its sweeper.
func NewMemoryCacheFromConfig(ctx context.Context, config *MemoryCacheConfig) (*MemoryCache, error) {
	if config == nil {
		config = DefaultCacheConfig().Memory
	}

	cache := NewMemoryCache(config.MaxSize)

	if config.CleanupInterval != "" {
		interval, err := time.ParseDuration(config.CleanupInterval)
		if err != nil {
			return nil, fmt.Errorf("invalid cleanup interval %q: %w", config.CleanupInterval, err)
		}

		cache.StartCleanup(ctx, interval)
	}

	return cache, nil
}

// NoOpCache never stores anything. The memo store treats it as no shared cache.
type NoOpCache struct{}

// NewNoOpCache returns a NoOpCache.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always misses.
func (c *NoOpCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	return nil, ErrCacheMiss
}

// Set does nothing.
func (c *NoOpCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return nil
}

// Delete does nothing.
func (c *NoOpCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Clear does nothing.
func (c *NoOpCache) Clear(ctx context.Context) error {
	return nil
}

// Has always returns false.
func (c *NoOpCache) Has(ctx context.Context, key string) bool {
	return false
}

// CacheBuilder assembles a CacheConfig fluently.
type CacheBuilder struct {
	config *CacheConfig
}

// NewCacheBuilder starts from a memory cache with default settings.
func NewCacheBuilder() *CacheBuilder {
	return &CacheBuilder{
		config: &CacheConfig{Type: CacheTypeMemory},
	}
}

// WithType sets the cache type.
func (b *CacheBuilder) WithType(cacheType CacheType) *CacheBuilder {
	b.config.Type = cacheType

	return b
}

// WithMemoryConfig bounds the memory cache.
func (b *CacheBuilder) WithMemoryConfig(maxSize int, cleanupInterval string) *CacheBuilder {
	b.config.Memory = &MemoryCacheConfig{
		MaxSize:         maxSize,
		CleanupInterval: cleanupInterval,
	}

	return b
}

// WithNATSConfig sets the bucket settings and switches the type to nats.
func (b *CacheBuilder) WithNATSConfig(config *NATSKVConfig) *CacheBuilder {
	b.config.Type = CacheTypeNATS
	b.config.NATS = config

	return b
}

// Config returns the configuration built so far.
func (b *CacheBuilder) Config() *CacheConfig {
	return b.config
}

// Build creates the cache from the configuration.
func (b *CacheBuilder) Build(ctx context.Context) (Cache, error) {
	return NewCacheFromConfig(ctx, b.config)
}
