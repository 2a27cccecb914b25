package docstore

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUncachedLookupsAreCounted(t *testing.T) {
	// Config(NONE, 0, 0): caching disabled, every read is a
	// pass-through miss.
	s := New(Config{Compression: CompressionNone}, NewNullDataStore())

	assert.Equal(t, CacheStats{}, s.CacheStats())

	_, err := s.Read(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, CacheStats{Misses: 1}, s.CacheStats())
}

func TestCachedLookupsAreCounted(t *testing.T) {
	s := New(Config{
		Compression:     CompressionNone,
		MaxCacheBytes:   100000,
		MaxCacheEntries: 100,
	}, NewNullDataStore())

	assert.Equal(t, CacheStats{}, s.CacheStats())

	_, err := s.Read(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, CacheStats{Misses: 1}, s.CacheStats())

	// The empty result is cached: the second read hits.
	_, err = s.Read(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, CacheStats{Misses: 1, Hits: 1}, s.CacheStats())
}

func TestZeroCapacityAllDistinctReadsMiss(t *testing.T) {
	const n = 25
	s := New(Config{Compression: CompressionNone}, NewNullDataStore())

	for lid := Lid(1); lid <= n; lid++ {
		_, err := s.Read(context.Background(), lid)
		require.NoError(t, err)
		// Re-reads stay misses without a cache.
		_, err = s.Read(context.Background(), lid)
		require.NoError(t, err)
	}

	assert.Equal(t, CacheStats{Misses: 2 * n}, s.CacheStats())
}

func TestEitherZeroCapacityDisablesCaching(t *testing.T) {
	for _, cfg := range []Config{
		{MaxCacheBytes: 100000},
		{MaxCacheEntries: 100},
	} {
		s := New(cfg, NewNullDataStore())
		_, _ = s.Read(context.Background(), 1)
		_, _ = s.Read(context.Background(), 1)
		assert.Equal(t, CacheStats{Misses: 2}, s.CacheStats())
	}
}

func TestReadThroughRoundTrip(t *testing.T) {
	for _, compression := range []CompressionType{
		CompressionNone, CompressionLZ4, CompressionZSTD, CompressionSnappy,
	} {
		t.Run(compression.String(), func(t *testing.T) {
			ctx := context.Background()
			backend := NewMemoryDataStore()
			s := New(Config{
				Compression:     compression,
				MaxCacheBytes:   1 << 20,
				MaxCacheEntries: 100,
			}, backend)

			doc := []byte("a document body a document body a document body")
			require.NoError(t, s.Write(ctx, 1, 42, doc))

			// The backend holds the framed (possibly compressed) blob,
			// not the plain document.
			raw, err := backend.Read(ctx, 42)
			require.NoError(t, err)
			assert.NotEqual(t, doc, raw)

			// Write refreshed the cache: first read is already a hit.
			got, err := s.Read(ctx, 42)
			require.NoError(t, err)
			assert.Equal(t, doc, got)
			assert.Equal(t, CacheStats{Hits: 1}, s.CacheStats())

			// A fresh store over the same backend reads through.
			s2 := New(Config{Compression: compression, MaxCacheBytes: 1 << 20, MaxCacheEntries: 100}, backend)
			got, err = s2.Read(ctx, 42)
			require.NoError(t, err)
			assert.Equal(t, doc, got)
			assert.Equal(t, CacheStats{Misses: 1}, s2.CacheStats())
		})
	}
}

func TestRemoveEvicts(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryDataStore()
	s := New(Config{MaxCacheBytes: 1 << 20, MaxCacheEntries: 100}, backend)

	require.NoError(t, s.Write(ctx, 1, 7, []byte("doc")))
	require.NoError(t, s.Remove(ctx, 2, 7))

	got, err := s.Read(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)
	// The read after remove must go to the backend, not the cache.
	assert.Equal(t, uint64(1), s.CacheStats().Misses)
}

func TestReadVisit(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryDataStore()
	s := New(Config{MaxCacheBytes: 1 << 20, MaxCacheEntries: 100}, backend)

	docs := map[Lid][]byte{
		1: []byte("one"),
		2: []byte("two"),
		3: []byte("three"),
	}
	for lid, doc := range docs {
		require.NoError(t, s.Write(ctx, 1, lid, doc))
	}

	// 99 is unknown; 1..3 are cached from the writes.
	lids := []Lid{3, 99, 1, 2}
	var gotOrder []Lid
	err := s.ReadVisit(ctx, lids, BufferVisitorFunc(func(lid Lid, buf []byte) {
		gotOrder = append(gotOrder, lid)
		assert.Equal(t, docs[lid], buf)
	}))
	require.NoError(t, err)
	assert.Equal(t, lids, gotOrder)

	stats := s.CacheStats()
	assert.Equal(t, uint64(3), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)

	// The unknown lid is now cached as empty.
	err = s.ReadVisit(ctx, []Lid{99}, BufferVisitorFunc(func(Lid, []byte) {}))
	require.NoError(t, err)
	assert.Equal(t, uint64(4), s.CacheStats().Hits)
}

func TestReadVisitBufferIsVisitorOwned(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryDataStore()
	s := New(Config{MaxCacheBytes: 1 << 20, MaxCacheEntries: 100}, backend)

	doc := []byte("original content")
	require.NoError(t, s.Write(ctx, 1, 5, doc))

	// One cached hit and one backend miss, both scribbled over.
	err := s.ReadVisit(ctx, []Lid{5}, BufferVisitorFunc(func(_ Lid, buf []byte) {
		for i := range buf {
			buf[i] = 0
		}
	}))
	require.NoError(t, err)

	s2 := New(Config{MaxCacheBytes: 1 << 20, MaxCacheEntries: 100}, backend)
	err = s2.ReadVisit(ctx, []Lid{5}, BufferVisitorFunc(func(_ Lid, buf []byte) {
		for i := range buf {
			buf[i] = 0
		}
	}))
	require.NoError(t, err)

	// The cached entries are untouched by the visitor's writes.
	got, err := s.Read(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, doc, got)

	got, err = s2.Read(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, doc, got)
}

func TestConcurrentReadsExactStats(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryDataStore()
	s := New(Config{MaxCacheBytes: 1 << 20, MaxCacheEntries: 1000}, backend)

	const (
		readers = 8
		reads   = 200
	)

	var wg sync.WaitGroup
	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < reads; i++ {
				_, err := s.Read(ctx, Lid(i%10+1))
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	stats := s.CacheStats()
	assert.Equal(t, uint64(readers*reads), stats.Hits+stats.Misses)
}

func TestMemoryUsageReporting(t *testing.T) {
	ctx := context.Background()
	s := New(Config{MaxCacheBytes: 4096, MaxCacheEntries: 16}, NewMemoryDataStore())

	require.NoError(t, s.Write(ctx, 1, 1, []byte("0123456789")))

	u := s.MemoryUsage()
	assert.Positive(t, u.Used)
	assert.GreaterOrEqual(t, u.Allocated, u.Used)
}

func TestSyncTokenForwarding(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryDataStore()
	s := New(Config{}, backend)

	require.NoError(t, s.Write(ctx, 5, 1, []byte("doc")))
	assert.Equal(t, uint64(5), s.TentativeLastSyncToken())
	assert.Equal(t, uint64(0), s.LastSyncToken())

	assert.Equal(t, uint64(5), s.InitFlush(5))
	require.NoError(t, s.Flush(ctx, 5))
	assert.Equal(t, uint64(5), s.LastSyncToken())
}
