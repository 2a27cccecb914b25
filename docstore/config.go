package docstore

// CacheStats are the cumulative hit/miss counters of a DocumentStore.
// They are monotonically non-decreasing for the store's lifetime and
// exact under concurrent reads.
type CacheStats struct {
	Hits   uint64
	Misses uint64
}

// Config is the capacity and compression policy of a DocumentStore.
type Config struct {
	// Compression is applied to blobs on their way to the backend.
	Compression CompressionType
	// MaxCacheBytes bounds the decompressed bytes held in the cache.
	MaxCacheBytes int
	// MaxCacheEntries bounds the number of cached documents.
	MaxCacheEntries int
}

// cacheEnabled reports whether the configuration allows caching at
// all. A zero in either capacity field disables the cache; reads then
// pass through to the backend and every lookup counts as a miss.
func (c Config) cacheEnabled() bool {
	return c.MaxCacheBytes > 0 && c.MaxCacheEntries > 0
}
