package docstore

import (
	"context"
	"log/slog"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/searchstore/internal/conv"
	"github.com/hupe1980/searchstore/internal/resource"
	"github.com/hupe1980/searchstore/model"
)

// visitFetchParallelism bounds concurrent backend decompression during
// batch visits.
const visitFetchParallelism = 8

// DocumentStore is a read-through cache over a DataStore backend.
// Reads consult the cache first; misses pull from the backend,
// decompress and populate the cache subject to the configured budget.
// Writes compress per the configured policy and go straight through,
// refreshing the cached entry.
type DocumentStore struct {
	config  Config
	backend DataStore
	cache   *docCache // nil when caching is disabled
	group   singleflight.Group
	logger  *slog.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// Option configures a DocumentStore.
type Option func(*DocumentStore)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(s *DocumentStore) {
		s.logger = logger
	}
}

// WithResourceController accounts cached bytes against a global
// memory budget.
func WithResourceController(rc *resource.Controller) Option {
	return func(s *DocumentStore) {
		if s.cache != nil {
			s.cache.rc = rc
		}
	}
}

// New creates a DocumentStore over backend with the given policy.
func New(config Config, backend DataStore, opts ...Option) *DocumentStore {
	s := &DocumentStore{
		config:  config,
		backend: backend,
		logger:  slog.New(slog.DiscardHandler),
	}
	if config.cacheEnabled() {
		s.cache = newDocCache(config.MaxCacheBytes, config.MaxCacheEntries, nil)
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger.Debug("document store created",
		"compression", config.Compression.String(),
		"max_cache_bytes", config.MaxCacheBytes,
		"max_cache_entries", config.MaxCacheEntries,
		"caching", config.cacheEnabled(),
	)
	return s
}

// Read returns the document stored for lid, or nil when the backend
// does not know it. The returned slice is the caller's to keep.
func (s *DocumentStore) Read(ctx context.Context, lid Lid) ([]byte, error) {
	if s.cache != nil {
		if buf, ok := s.cache.get(lid); ok {
			s.hits.Add(1)
			return cloneBuf(buf), nil
		}
	}
	s.misses.Add(1)

	if s.cache == nil {
		return s.readBackend(ctx, lid)
	}

	// Concurrent misses for the same lid share one backend read.
	v, err, _ := s.group.Do(strconv.FormatUint(uint64(lid), 10), func() (any, error) {
		buf, err := s.readBackend(ctx, lid)
		if err != nil {
			return nil, err
		}
		s.cache.set(lid, buf)
		return buf, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneBuf(v.([]byte)), nil
}

func (s *DocumentStore) readBackend(ctx context.Context, lid Lid) ([]byte, error) {
	blob, err := s.backend.Read(ctx, lid)
	if err != nil {
		return nil, err
	}
	return decompressBlob(blob)
}

// ReadVisit streams the documents for lids to visitor in request
// order. Cached documents short-circuit; the rest are fetched from
// the backend and decompressed with bounded parallelism.
func (s *DocumentStore) ReadVisit(ctx context.Context, lids []Lid, visitor BufferVisitor) error {
	docs := make(map[Lid][]byte, len(lids))
	var missing []Lid

	for _, lid := range lids {
		if s.cache != nil {
			if buf, ok := s.cache.get(lid); ok {
				s.hits.Add(1)
				// Cloned so a misbehaving visitor cannot corrupt the
				// cached entry.
				docs[lid] = cloneBuf(buf)
				continue
			}
		}
		s.misses.Add(1)
		missing = append(missing, lid)
	}

	if len(missing) > 0 {
		blobs := make(map[Lid][]byte, len(missing))
		err := s.backend.ReadVisit(ctx, missing, BufferVisitorFunc(func(lid Lid, buf []byte) {
			blobs[lid] = cloneBuf(buf)
		}))
		if err != nil {
			return err
		}

		results := make([][]byte, len(missing))
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(visitFetchParallelism)
		for i, lid := range missing {
			g.Go(func() error {
				doc, err := decompressBlob(blobs[lid])
				if err != nil {
					return err
				}
				results[i] = doc
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for i, lid := range missing {
			docs[lid] = results[i]
			if s.cache != nil {
				s.cache.set(lid, cloneBuf(results[i]))
			}
		}
	}

	for _, lid := range lids {
		visitor.VisitDocument(lid, docs[lid])
	}
	return nil
}

// Write compresses buf per the configured policy, writes it through
// to the backend and refreshes the cached entry.
func (s *DocumentStore) Write(ctx context.Context, syncToken uint64, lid Lid, buf []byte) error {
	blob, err := compressBlob(s.config.Compression, buf)
	if err != nil {
		return err
	}
	if err := s.backend.Write(ctx, syncToken, lid, blob); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.set(lid, cloneBuf(buf))
	}
	return nil
}

// Remove forwards to the backend and evicts the cached entry.
func (s *DocumentStore) Remove(ctx context.Context, syncToken uint64, lid Lid) error {
	if err := s.backend.Remove(ctx, syncToken, lid); err != nil {
		return err
	}
	if s.cache != nil {
		s.cache.remove(lid)
	}
	return nil
}

// Flush forwards to the backend.
func (s *DocumentStore) Flush(ctx context.Context, syncToken uint64) error {
	return s.backend.Flush(ctx, syncToken)
}

// InitFlush forwards to the backend.
func (s *DocumentStore) InitFlush(syncToken uint64) uint64 {
	return s.backend.InitFlush(syncToken)
}

// LastSyncToken forwards to the backend.
func (s *DocumentStore) LastSyncToken() uint64 {
	return s.backend.LastSyncToken()
}

// TentativeLastSyncToken forwards to the backend.
func (s *DocumentStore) TentativeLastSyncToken() uint64 {
	return s.backend.TentativeLastSyncToken()
}

// CacheStats returns the cumulative hit/miss counters. Pure read.
func (s *DocumentStore) CacheStats() CacheStats {
	return CacheStats{
		Hits:   s.hits.Load(),
		Misses: s.misses.Load(),
	}
}

// MemoryUsage reports cache and backend memory for capacity
// monitoring.
func (s *DocumentStore) MemoryUsage() model.MemoryUsage {
	u := model.MemoryUsage{
		Used:      s.backend.MemoryUsed(),
		Allocated: s.backend.MemoryUsed() + s.backend.MemoryMeta(),
	}
	if s.cache != nil {
		if cached, err := conv.IntToUint64(int(s.cache.bytes())); err == nil {
			u.Used += cached
		}
		if budget, err := conv.IntToUint64(s.config.MaxCacheBytes); err == nil {
			u.Allocated += budget
		}
	}
	return u
}

func cloneBuf(buf []byte) []byte {
	if buf == nil {
		return nil
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out
}
