// Package memo memoizes producer results per key in two tiers: an optional
// shared libcal.Cache holding JSON, and a map owned by the store holding the
// produced values themselves.
package memo

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fivetwenty-io/libcal/internal/constants"
	"github.com/fivetwenty-io/libcal/internal/jsonmap"
	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

// Tier names used in logs and metrics.
const (
	TierExternal = "external"
	TierLocal    = "local"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]+`)

// Key derives the memo key of a request URI. Runs of non-alphanumeric
// characters become ".", and a digest of the URI (without surrounding
// slashes) keeps distinct URIs apart.
func Key(uri string) string {
	canonical := "/" + strings.Trim(uri, "/")
	sum := sha256.Sum256([]byte(canonical))
	digest := hex.EncodeToString(sum[:])[:constants.MemoKeyHashLength]

	parts := []string{constants.MemoKeyPrefix}

	if slug := strings.Trim(nonAlphanumeric.ReplaceAllString(uri, "."), "."); slug != "" {
		parts = append(parts, slug)
	}

	parts = append(parts, digest)

	return strings.Join(parts, ".")
}

// Store is a two tier memo store. The zero value is not usable; use NewStore.
type Store struct {
	external libcal.Cache
	local    *localTier
	mapper   *jsonmap.Mapper
	group    singleflight.Group
	logger   libcal.Logger
	metrics  *libcal.Metrics

	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
}

// Option configures a Store.
type Option func(*Store)

// WithExternal sets the shared cache consulted before the local tier.
// A *libcal.NoOpCache is treated as no shared cache.
func WithExternal(cache libcal.Cache) Option {
	return func(s *Store) {
		if _, noop := cache.(*libcal.NoOpCache); noop {
			return
		}

		s.external = cache
	}
}

// WithLogger sets the logger.
func WithLogger(logger libcal.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records lookups and producer calls.
func WithMetrics(metrics *libcal.Metrics) Option {
	return func(s *Store) {
		s.metrics = metrics
	}
}

// WithMapper sets the mapper used to encode values for the shared cache.
// Shared entries are always read back leniently.
func WithMapper(mapper *jsonmap.Mapper) Option {
	return func(s *Store) {
		if mapper != nil {
			s.mapper = mapper
		}
	}
}

// NewStore creates a store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		local:  newLocalTier(),
		mapper: jsonmap.New(false),
		logger: libcal.NoOpLogger{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// HasExternal reports whether a shared cache is configured.
func (s *Store) HasExternal() bool {
	return s.external != nil
}

// Stats returns lookup counters.
func (s *Store) Stats() libcal.CacheStats {
	return libcal.CacheStats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
		Sets:   s.sets.Load(),
	}
}

// Memoize returns the value cached under key, or calls produce and caches
// its result. With enabled false, produce is called and nothing is read or
// written. A ttl of zero caches without expiry, except for credentials,
// which are kept for their lifetime minus a safety margin.
//
// Concurrent misses on the same key share one produce call.
func Memoize[T any](
	ctx context.Context,
	s *Store,
	key string,
	enabled bool,
	ttl time.Duration,
	produce func(ctx context.Context) (T, error),
) (T, error) {
	var zero T

	if !enabled {
		s.metrics.ObserveProducer()

		return produce(ctx)
	}

	cached, found, err := lookup[T](ctx, s, key)
	if err != nil {
		return zero, err
	}

	if found {
		return cached, nil
	}

	// Callers waiting on the shared call must not fail because the caller
	// that started it went away.
	detached := context.WithoutCancel(ctx)

	results := s.group.DoChan(key, func() (interface{}, error) {
		s.metrics.ObserveProducer()

		value, err := produce(detached)
		if err != nil {
			return nil, err
		}

		err = s.store(detached, key, value, ttl)
		if err != nil {
			return nil, err
		}

		return value, nil
	})

	var result singleflight.Result

	select {
	case <-ctx.Done():
		return zero, libcal.NewTransportError("request cancelled", ctx.Err())
	case result = <-results:
	}

	if result.Err != nil {
		return zero, result.Err
	}

	shared := result.Val
	if shared == nil {
		// A nil interface value.
		return zero, nil
	}

	value, ok := shared.(T)
	if !ok {
		// Same key produced under another type: not shareable.
		return produce(ctx)
	}

	return value, nil
}

// Invalidate removes key from both tiers.
func (s *Store) Invalidate(ctx context.Context, key string) error {
	s.local.delete(key)

	if s.external == nil {
		return nil
	}

	err := s.external.Delete(ctx, key)
	if err != nil {
		return libcal.NewTransportError("cache entry could not be deleted", err)
	}

	return nil
}

func lookup[T any](ctx context.Context, s *Store, key string) (T, bool, error) {
	var zero T

	if s.external != nil {
		entry, err := s.external.Get(ctx, key)

		switch {
		case err == nil:
			value, decodeErr := decodeCached[T](s, entry.Data)
			if decodeErr == nil {
				s.record(TierExternal, true)
				// Keep the local tier in step; it expires with the shared entry.
				s.local.set(key, value, entry.ExpiresAt)

				return value, true, nil
			}

			s.discard(key, decodeErr)

		case errors.Is(err, libcal.ErrInvalidCacheEntry):
			s.discard(key, err)

		case errors.Is(err, libcal.ErrCacheMiss):
			s.record(TierExternal, false)

		default:
			return zero, false, libcal.NewTransportError("cache could not be read", err)
		}
	}

	stored, ok := s.local.get(key)
	if !ok {
		s.record(TierLocal, false)

		return zero, false, nil
	}

	if stored == nil {
		s.record(TierLocal, true)

		return zero, true, nil
	}

	value, ok := stored.(T)
	if !ok {
		// Same key stored under another type.
		s.record(TierLocal, false)

		return zero, false, nil
	}

	s.record(TierLocal, true)

	return value, true, nil
}

// discard logs an unreadable shared entry. The lookup goes on as a miss and
// the produced value replaces the entry.
func (s *Store) discard(key string, err error) {
	s.record(TierExternal, false)
	s.logger.Warn("Discarding unreadable cache entry", map[string]interface{}{
		"key":   key,
		"error": err.Error(),
	})
}

// decodeCached reads a cached value back as a T. Records go through the
// lenient mapper so entries written before a record gained a field still
// load; anything else is plain JSON.
func decodeCached[T any](s *Store, data []byte) (T, error) {
	var out T

	if isRecord(reflect.TypeOf(out)) {
		err := s.mapper.Lenient().Unmarshal(data, &out)

		return out, err
	}

	err := json.Unmarshal(data, &out)
	if err != nil {
		return out, libcal.NewDecodeError("cached value could not be decoded", err)
	}

	return out, nil
}

func isRecord(t reflect.Type) bool {
	if t == nil {
		return false
	}

	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t.Kind() == reflect.Struct || t.Kind() == reflect.Slice && t.Elem().Kind() != reflect.Uint8
}

func (s *Store) record(tier string, hit bool) {
	if hit {
		s.hits.Add(1)
	} else if tier == TierLocal {
		s.misses.Add(1)
	}

	s.metrics.ObserveLookup(tier, hit)
}

func (s *Store) store(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	ttl, cacheable := resolveTTL(value, ttl)
	if !cacheable {
		s.logger.Debug("Not caching value that is already expired", map[string]interface{}{"key": key})

		return nil
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if s.external != nil {
		data, err := s.mapper.Marshal(value)
		if err != nil {
			return err
		}

		entry := libcal.NewCacheEntry(data, ttl)
		expiresAt = entry.ExpiresAt

		err = s.external.Set(ctx, key, entry)
		if err != nil {
			return libcal.NewTransportError("cache could not be written", err)
		}
	}

	s.local.set(key, value, expiresAt)
	s.sets.Add(1)

	s.logger.Debug("Memoized value", map[string]interface{}{
		"key": key,
		"ttl": ttl.String(),
	})

	return nil
}

// resolveTTL returns the TTL to store value with and whether to store it at
// all. This is the only place a value's type changes caching: a credential
// without an explicit ttl lives for its own lifetime minus a margin, and is
// not stored when that leaves nothing.
func resolveTTL(value interface{}, ttl time.Duration) (time.Duration, bool) {
	if ttl > 0 {
		return ttl, true
	}

	var credential *libcal.Credential

	switch v := value.(type) {
	case *libcal.Credential:
		credential = v
	case libcal.Credential:
		credential = &v
	}

	if credential == nil {
		return 0, true
	}

	derived := time.Duration(credential.ExpiresIn)*time.Second - constants.TokenExpirationBuffer

	return derived, derived > 0
}
