package memo_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/libcal/internal/memo"
	"github.com/fivetwenty-io/libcal/pkg/libcal"
)

var errCacheDown = errors.New("cache down")

// failingCache wraps a MemoryCache and fails the operations it is told to.
type failingCache struct {
	*libcal.MemoryCache

	failGet bool
	failSet bool
	sets    atomic.Int32
}

func newFailingCache() *failingCache {
	return &failingCache{MemoryCache: libcal.NewMemoryCache(0)}
}

func (c *failingCache) Get(ctx context.Context, key string) (*libcal.CacheEntry, error) {
	if c.failGet {
		return nil, errCacheDown
	}

	return c.MemoryCache.Get(ctx, key)
}

func (c *failingCache) Set(ctx context.Context, key string, entry *libcal.CacheEntry) error {
	c.sets.Add(1)

	if c.failSet {
		return errCacheDown
	}

	return c.MemoryCache.Set(ctx, key, entry)
}

func counter(calls *atomic.Int32, value []libcal.Location) func(context.Context) ([]libcal.Location, error) {
	return func(context.Context) ([]libcal.Location, error) {
		calls.Add(1)

		return value, nil
	}
}

func TestKey(t *testing.T) {
	t.Parallel()

	key := memo.Key("/1.1/space/item/1,2?availability=next")
	assert.True(t, strings.HasPrefix(key, "libcal.1.1.space.item.1.2.availability.next."), key)

	assert.Equal(t, memo.Key("/1.1/space/item/1"), memo.Key("1.1/space/item/1/"))
	assert.NotEqual(t, memo.Key("/1.1/space/item/1,2"), memo.Key("/1.1/space/item/1.2"))

	empty := memo.Key("/")
	assert.True(t, strings.HasPrefix(empty, "libcal."))
	assert.Len(t, strings.TrimPrefix(empty, "libcal."), 16)
}

func TestMemoize_CallsProducerOnceWhileCached(t *testing.T) {
	t.Parallel()

	store := memo.NewStore()
	ctx := context.Background()

	var calls atomic.Int32

	want := []libcal.Location{{LID: 1, Name: "Main"}}

	for range 3 {
		got, err := memo.Memoize(ctx, store, "locations", true, time.Minute, counter(&calls, want))
		require.NoError(t, err)
		assert.Equal(t, 1, got[0].LID)
		assert.Equal(t, "Main", got[0].Name)
	}

	assert.Equal(t, int32(1), calls.Load())

	stats := store.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Sets)
}

func TestMemoize_Disabled(t *testing.T) {
	t.Parallel()

	external := newFailingCache()
	store := memo.NewStore(memo.WithExternal(external))
	ctx := context.Background()

	var calls atomic.Int32

	for range 2 {
		_, err := memo.Memoize(ctx, store, "locations", false, 0, counter(&calls, nil))
		require.NoError(t, err)
	}

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int32(0), external.sets.Load())
	assert.Equal(t, 0, external.Len())
}

func TestMemoize_ProducerErrorIsNotCached(t *testing.T) {
	t.Parallel()

	store := memo.NewStore()
	ctx := context.Background()

	_, err := memo.Memoize(ctx, store, "k", true, time.Minute, func(context.Context) (*libcal.Zone, error) {
		return nil, libcal.NewNotFoundError()
	})
	require.ErrorIs(t, err, libcal.ErrNotFound)

	zone, err := memo.Memoize(ctx, store, "k", true, time.Minute, func(context.Context) (*libcal.Zone, error) {
		return &libcal.Zone{ID: 4, Name: "Quiet"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, zone.ID)
}

func TestMemoize_ExternalHitRefreshesLocal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	shared := newFailingCache()

	first := memo.NewStore(memo.WithExternal(shared))
	second := memo.NewStore(memo.WithExternal(shared))

	var calls atomic.Int32

	want := []libcal.Location{{LID: 7, Name: "Annex"}}

	_, err := memo.Memoize(ctx, first, "locations", true, time.Minute, counter(&calls, want))
	require.NoError(t, err)

	got, err := memo.Memoize(ctx, second, "locations", true, time.Minute, counter(&calls, nil))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Annex", got[0].Name)
	assert.Equal(t, int32(1), calls.Load())

	// The second store now answers from its own tier.
	require.NoError(t, shared.Clear(ctx))

	got, err = memo.Memoize(ctx, second, "locations", true, time.Minute, counter(&calls, nil))
	require.NoError(t, err)
	assert.Equal(t, "Annex", got[0].Name)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMemoize_ExternalWriteFailurePropagates(t *testing.T) {
	t.Parallel()

	external := newFailingCache()
	external.failSet = true

	store := memo.NewStore(memo.WithExternal(external))

	_, err := memo.Memoize(context.Background(), store, "k", true, time.Minute, func(context.Context) ([]libcal.Location, error) {
		return []libcal.Location{}, nil
	})
	require.Error(t, err)
	require.ErrorIs(t, err, libcal.ErrTransport)
	require.ErrorIs(t, err, errCacheDown)
}

func TestMemoize_ExternalReadFailure(t *testing.T) {
	t.Parallel()

	external := newFailingCache()
	external.failGet = true

	store := memo.NewStore(memo.WithExternal(external))

	var calls atomic.Int32

	_, err := memo.Memoize(context.Background(), store, "k", true, time.Minute, counter(&calls, nil))
	require.ErrorIs(t, err, libcal.ErrTransport)
	assert.Equal(t, int32(0), calls.Load())
}

func TestMemoize_NoOpCacheIsNoExternal(t *testing.T) {
	t.Parallel()

	store := memo.NewStore(memo.WithExternal(libcal.NewNoOpCache()))
	assert.False(t, store.HasExternal())
}

func TestMemoize_CredentialTTL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		expiresIn int
		cached    bool
		ttl       time.Duration
	}{
		{name: "hour", expiresIn: 3600, cached: true, ttl: 3570 * time.Second},
		{name: "inside margin", expiresIn: 30, cached: false},
		{name: "zero", expiresIn: 0, cached: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			external := newFailingCache()
			store := memo.NewStore(memo.WithExternal(external))
			ctx := context.Background()

			credential, err := memo.Memoize(ctx, store, "1.1/oauth/token", true, 0, func(context.Context) (*libcal.Credential, error) {
				return &libcal.Credential{AccessToken: "abc", ExpiresIn: tt.expiresIn, TokenType: "Bearer"}, nil
			})
			require.NoError(t, err)
			assert.Equal(t, "abc", credential.AccessToken)

			entry, err := external.MemoryCache.Get(ctx, "1.1/oauth/token")
			if !tt.cached {
				require.ErrorIs(t, err, libcal.ErrCacheMiss)

				return
			}

			require.NoError(t, err)
			assert.InDelta(t, tt.ttl.Seconds(), entry.ExpiresAt.Sub(entry.CreatedAt).Seconds(), 0.001)
		})
	}
}

func TestMemoize_ZeroTTLNeverExpires(t *testing.T) {
	t.Parallel()

	external := newFailingCache()
	store := memo.NewStore(memo.WithExternal(external))
	ctx := context.Background()

	_, err := memo.Memoize(ctx, store, "forms", true, 0, func(context.Context) ([]libcal.Form, error) {
		return []libcal.Form{{ID: 1, Name: "Default"}}, nil
	})
	require.NoError(t, err)

	entry, err := external.MemoryCache.Get(ctx, "forms")
	require.NoError(t, err)
	assert.True(t, entry.ExpiresAt.IsZero())
}

func TestMemoize_PlainValues(t *testing.T) {
	t.Parallel()

	store := memo.NewStore()
	ctx := context.Background()

	var calls atomic.Int32

	produce := func(context.Context) (string, error) {
		calls.Add(1)

		return `{"raw":true}`, nil
	}

	for range 2 {
		got, err := memo.Memoize(ctx, store, "raw", true, time.Minute, produce)
		require.NoError(t, err)
		assert.JSONEq(t, `{"raw":true}`, got)
	}

	assert.Equal(t, int32(1), calls.Load())
}

func TestMemoize_ConcurrentMissesShareProducer(t *testing.T) {
	t.Parallel()

	store := memo.NewStore()
	ctx := context.Background()

	var (
		calls   atomic.Int32
		release = make(chan struct{})
		wg      sync.WaitGroup
	)

	produce := func(context.Context) ([]libcal.Location, error) {
		calls.Add(1)
		<-release

		return []libcal.Location{{LID: 1}}, nil
	}

	for range 5 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := memo.Memoize(ctx, store, "locations", true, time.Minute, produce)
			assert.NoError(t, err)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	external := newFailingCache()
	store := memo.NewStore(memo.WithExternal(external))
	ctx := context.Background()

	var calls atomic.Int32

	_, err := memo.Memoize(ctx, store, "k", true, time.Minute, counter(&calls, nil))
	require.NoError(t, err)

	require.NoError(t, store.Invalidate(ctx, "k"))
	assert.False(t, external.Has(ctx, "k"))

	_, err = memo.Memoize(ctx, store, "k", true, time.Minute, counter(&calls, nil))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMemoize_Metrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	metrics, err := libcal.NewMetrics(reg)
	require.NoError(t, err)

	store := memo.NewStore(memo.WithMetrics(metrics))
	ctx := context.Background()

	var calls atomic.Int32

	for range 2 {
		_, err = memo.Memoize(ctx, store, "k", true, time.Minute, counter(&calls, nil))
		require.NoError(t, err)
	}

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ProducerCalls()), 0)
}

type label string

func (l label) String() string { return string(l) }

type labelled struct {
	V fmt.Stringer
}

func TestMemoize_LocalTierKeepsValues(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("interface field", func(t *testing.T) {
		t.Parallel()

		store := memo.NewStore()

		var calls atomic.Int32

		for range 3 {
			got, err := memo.Memoize(ctx, store, "labelled", true, time.Minute, func(context.Context) (labelled, error) {
				calls.Add(1)

				return labelled{V: label("quiet")}, nil
			})
			require.NoError(t, err)
			assert.Equal(t, label("quiet"), got.V)
		}

		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("any", func(t *testing.T) {
		t.Parallel()

		store := memo.NewStore()

		var calls atomic.Int32

		produce := func(context.Context) (any, error) {
			calls.Add(1)

			return label("group"), nil
		}

		first, err := memo.Memoize(ctx, store, "any", true, time.Minute, produce)
		require.NoError(t, err)

		second, err := memo.Memoize(ctx, store, "any", true, time.Minute, produce)
		require.NoError(t, err)

		assert.IsType(t, label(""), second)
		assert.Equal(t, first, second)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("not encodable", func(t *testing.T) {
		t.Parallel()

		store := memo.NewStore()

		var calls atomic.Int32

		for range 2 {
			fn, err := memo.Memoize(ctx, store, "func", true, 0, func(context.Context) (func() int, error) {
				calls.Add(1)

				return func() int { return 42 }, nil
			})
			require.NoError(t, err)
			assert.Equal(t, 42, fn())
		}

		assert.Equal(t, int32(1), calls.Load())
	})
}

func TestMemoize_LocalTierExpires(t *testing.T) {
	t.Parallel()

	store := memo.NewStore()
	ctx := context.Background()

	var calls atomic.Int32

	_, err := memo.Memoize(ctx, store, "k", true, 20*time.Millisecond, counter(&calls, nil))
	require.NoError(t, err)

	time.Sleep(40 * time.Millisecond)

	_, err = memo.Memoize(ctx, store, "k", true, 20*time.Millisecond, counter(&calls, nil))
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestMemoize_NilInterfaceValue(t *testing.T) {
	t.Parallel()

	store := memo.NewStore()
	ctx := context.Background()

	var calls atomic.Int32

	for range 2 {
		got, err := memo.Memoize(ctx, store, "nil", true, time.Minute, func(context.Context) (fmt.Stringer, error) {
			calls.Add(1)

			return nil, nil
		})
		require.NoError(t, err)
		assert.Nil(t, got)
	}

	assert.Equal(t, int32(1), calls.Load())
}

func TestMemoize_WaiterOutlivesCancelledCaller(t *testing.T) {
	t.Parallel()

	store := memo.NewStore()

	var (
		calls   atomic.Int32
		started = make(chan struct{})
		release = make(chan struct{})
	)

	produce := func(ctx context.Context) ([]libcal.Location, error) {
		calls.Add(1)
		close(started)
		<-release

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		return []libcal.Location{{LID: 3}}, nil
	}

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)

	go func() {
		_, err := memo.Memoize(leaderCtx, store, "locations", true, time.Minute, produce)
		leaderErr <- err
	}()

	<-started

	waiter := make(chan []libcal.Location, 1)

	go func() {
		got, err := memo.Memoize(context.Background(), store, "locations", true, time.Minute, produce)
		assert.NoError(t, err)
		waiter <- got
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	err := <-leaderErr
	require.ErrorIs(t, err, libcal.ErrTransport)
	require.ErrorIs(t, err, context.Canceled)

	close(release)

	got := <-waiter
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].LID)
	assert.Equal(t, int32(1), calls.Load())
}

type corruptEntry struct {
	nats.KeyValueEntry

	value []byte
}

func (e corruptEntry) Value() []byte { return e.value }

// bucket is a key-value store seeded with raw stored bytes.
type bucket struct {
	mu     sync.Mutex
	values map[string][]byte
}

func (b *bucket) Get(key string) (nats.KeyValueEntry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	value, ok := b.values[key]
	if !ok {
		return nil, nats.ErrKeyNotFound
	}

	return corruptEntry{value: value}, nil
}

func (b *bucket) Put(key string, value []byte) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.values[key] = value

	return uint64(len(b.values)), nil
}

func (b *bucket) Delete(key string, _ ...nats.DeleteOpt) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.values, key)

	return nil
}

func (b *bucket) Keys(_ ...nats.WatchOpt) ([]string, error) {
	return nil, nats.ErrNoKeysFound
}

func TestMemoize_UnreadableSharedEntryIsReplaced(t *testing.T) {
	t.Parallel()

	kv := &bucket{values: map[string][]byte{"locations": []byte("<not json>")}}
	store := memo.NewStore(memo.WithExternal(libcal.NewNATSKVCacheWithStore(kv)))
	ctx := context.Background()

	var calls atomic.Int32

	want := []libcal.Location{{LID: 9, Name: "Branch"}}

	for range 2 {
		got, err := memo.Memoize(ctx, store, "locations", true, time.Minute, counter(&calls, want))
		require.NoError(t, err)
		assert.Equal(t, "Branch", got[0].Name)
	}

	assert.Equal(t, int32(1), calls.Load())

	// A fresh store reads the replaced entry from the bucket.
	other := memo.NewStore(memo.WithExternal(libcal.NewNATSKVCacheWithStore(kv)))

	got, err := memo.Memoize(ctx, other, "locations", true, time.Minute, counter(&calls, nil))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].LID)
	assert.Equal(t, int32(1), calls.Load())
}
