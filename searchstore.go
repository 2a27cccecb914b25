package searchstore

import (
	"context"

	"github.com/hupe1980/searchstore/docstore"
	"github.com/hupe1980/searchstore/model"
	"github.com/hupe1980/searchstore/predicate"
)

// Store composes the interval arena and the cached document store
// behind a single lifecycle. The predicate side holds per-document
// interval lists behind packed references; the document side holds
// the serialized documents themselves.
type Store struct {
	intervals *predicate.IntervalStore
	docs      *docstore.DocumentStore
	logger    *Logger
}

// New creates a Store. By default documents are kept in an in-memory
// backing store with caching disabled; use WithDataStore and
// WithCacheConfig to change that.
func New(opts ...Option) *Store {
	o := options{
		logger: NoopLogger(),
	}

	for _, opt := range opts {
		opt(&o)
	}

	if o.backend == nil {
		o.backend = docstore.NewMemoryDataStore()
	}

	docOpts := []docstore.Option{
		docstore.WithLogger(o.logger.Logger),
	}
	if o.rc != nil {
		docOpts = append(docOpts, docstore.WithResourceController(o.rc))
	}

	return &Store{
		intervals: predicate.NewIntervalStore(),
		docs:      docstore.New(o.cacheConfig, o.backend, docOpts...),
		logger:    o.logger,
	}
}

// Intervals returns the interval store for predicate payloads.
func (s *Store) Intervals() *predicate.IntervalStore {
	return s.intervals
}

// Docs returns the cached document store.
func (s *Store) Docs() *docstore.DocumentStore {
	return s.docs
}

// Write stores a document buffer under lid.
func (s *Store) Write(ctx context.Context, syncToken uint64, lid docstore.Lid, buf []byte) error {
	err := s.docs.Write(ctx, syncToken, lid, buf)
	s.logger.LogWrite(ctx, lid, len(buf), err)
	return err
}

// Read returns the document stored under lid, or nil if absent.
func (s *Store) Read(ctx context.Context, lid docstore.Lid) ([]byte, error) {
	buf, err := s.docs.Read(ctx, lid)
	s.logger.LogRead(ctx, lid, len(buf), err)
	return buf, err
}

// Remove deletes the document stored under lid.
func (s *Store) Remove(ctx context.Context, syncToken uint64, lid docstore.Lid) error {
	return s.docs.Remove(ctx, syncToken, lid)
}

// Commit publishes pending interval removals and reclaims entries no
// reader can still observe.
func (s *Store) Commit(ctx context.Context) {
	s.intervals.Commit()
	s.logger.LogCommit(ctx, s.intervals.Generations().Current())
}

// CacheStats returns cumulative document cache hit/miss counters.
func (s *Store) CacheStats() docstore.CacheStats {
	return s.docs.CacheStats()
}

// MemoryUsage aggregates memory accounting across both sides.
func (s *Store) MemoryUsage() model.MemoryUsage {
	var usage model.MemoryUsage
	usage.Add(s.intervals.MemoryUsage())
	usage.Add(s.docs.MemoryUsage())
	return usage
}

// Close releases the interval arena. The document store has no
// resources of its own beyond the backing store handed in by the
// caller.
func (s *Store) Close() error {
	return s.intervals.Close()
}
