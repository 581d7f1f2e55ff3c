package libcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fivetwenty-io/libcal/internal/constants"
)

// NATSKVConfig configures the NATS JetStream key-value cache.
type NATSKVConfig struct {
	// URL of the NATS server, e.g. "nats://127.0.0.1:4222".
	URL string `json:"url" yaml:"url"`
	// Bucket is created when missing. Defaults to "libcal-cache".
	Bucket string `json:"bucket" yaml:"bucket"`
	// Description is set on a newly created bucket.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Replicas for a newly created bucket.
	Replicas int `json:"replicas,omitempty" yaml:"replicas,omitempty"`
	// MaxAge caps the lifetime of every key in a newly created bucket.
	// Per entry expiry is enforced by the cache regardless.
	MaxAge time.Duration `json:"max_age,omitempty" yaml:"max_age,omitempty"`
	// Options are passed to nats.Connect.
	Options []nats.Option `json:"-" yaml:"-"`
}

// KeyValueStore is the part of nats.KeyValue the cache uses.
type KeyValueStore interface {
	Get(key string) (nats.KeyValueEntry, error)
	Put(key string, value []byte) (uint64, error)
	Delete(key string, opts ...nats.DeleteOpt) error
	Keys(opts ...nats.WatchOpt) ([]string, error)
}

// NATSKVCache stores entries in a JetStream key-value bucket. Expiry is
// carried inside the stored value so each key keeps its own TTL.
type NATSKVCache struct {
	kv   KeyValueStore
	conn *nats.Conn
	now  func() time.Time
}

// NewNATSKVCache connects to NATS and opens (or creates) the bucket.
func NewNATSKVCache(config *NATSKVConfig) (*NATSKVCache, error) {
	if config == nil || config.URL == "" {
		return nil, ErrNATSConfigRequired
	}

	bucket := config.Bucket
	if bucket == "" {
		bucket = constants.DefaultNATSBucket
	}

	nc, err := nats.Connect(config.URL, config.Options...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("creating JetStream context: %w", err)
	}

	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:      bucket,
			Description: config.Description,
			TTL:         config.MaxAge,
			Replicas:    config.Replicas,
		})
	}

	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("opening key-value bucket %s: %w", bucket, err)
	}

	cache := NewNATSKVCacheWithStore(kv)
	cache.conn = nc

	return cache, nil
}

// NewNATSKVCacheWithStore uses an already opened bucket.
func NewNATSKVCacheWithStore(kv KeyValueStore) *NATSKVCache {
	return &NATSKVCache{kv: kv, now: time.Now}
}

// Get returns the entry for key.
func (c *NATSKVCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	item, err := c.kv.Get(key)
	if err != nil {
		if errors.Is(err, nats.ErrKeyNotFound) || errors.Is(err, nats.ErrKeyDeleted) {
			return nil, fmt.Errorf("%w: key not found: %s", ErrCacheMiss, key)
		}

		return nil, fmt.Errorf("reading key %s: %w", key, err)
	}

	var entry CacheEntry

	err = json.Unmarshal(item.Value(), &entry)
	if err != nil {
		// Unreadable entries are dropped and reported as a miss so the
		// next write replaces them.
		_ = c.kv.Delete(key)

		return nil, fmt.Errorf("%w: %w: %s: %w", ErrCacheMiss, ErrInvalidCacheEntry, key, err)
	}

	if entry.IsExpired(c.now()) {
		// The value is stale either way; a failed delete only leaves it
		// for the next reader to skip.
		_ = c.kv.Delete(key)

		return nil, fmt.Errorf("%w: entry expired: %s", ErrCacheMiss, key)
	}

	return &entry, nil
}

// Set stores entry under key.
func (c *NATSKVCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	if entry == nil {
		return ErrInvalidCacheEntry
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	_, err = c.kv.Put(key, data)
	if err != nil {
		return fmt.Errorf("writing key %s: %w", key, err)
	}

	return nil
}

// Delete removes key.
func (c *NATSKVCache) Delete(ctx context.Context, key string) error {
	err := c.kv.Delete(key)
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("deleting key %s: %w", key, err)
	}

	return nil
}

// Clear removes every key in the bucket.
func (c *NATSKVCache) Clear(ctx context.Context) error {
	keys, err := c.kv.Keys()
	if err != nil {
		if errors.Is(err, nats.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("listing keys: %w", err)
	}

	for _, key := range keys {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err = c.Delete(ctx, key)
		if err != nil {
			return err
		}
	}

	return nil
}

// Has reports whether key holds an unexpired entry.
func (c *NATSKVCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Close closes the NATS connection opened by NewNATSKVCache.
func (c *NATSKVCache) Close() error {
	if c.conn != nil {
		c.conn.Close()
	}

	return nil
}
