package searchstore

import (
	"github.com/hupe1980/searchstore/docstore"
	"github.com/hupe1980/searchstore/internal/resource"
)

type options struct {
	cacheConfig docstore.Config
	backend     docstore.DataStore
	rc          *resource.Controller
	logger      *Logger
}

// Option configures Store constructor behavior.
type Option func(*options)

// WithCacheConfig configures the document cache capacity and the
// compression applied to stored buffers. Zero capacity in either
// dimension disables caching entirely.
func WithCacheConfig(config docstore.Config) Option {
	return func(o *options) {
		o.cacheConfig = config
	}
}

// WithDataStore configures the backing store documents are written
// through to. If nil is passed, an in-memory store is used.
func WithDataStore(backend docstore.DataStore) Option {
	return func(o *options) {
		if backend == nil {
			backend = docstore.NewMemoryDataStore()
		}
		o.backend = backend
	}
}

// WithResourceLimits bounds cache memory and visit read bandwidth.
// Zero values leave the corresponding resource unbounded.
func WithResourceLimits(memoryLimitBytes, visitBytesPerSec int64) Option {
	return func(o *options) {
		o.rc = resource.NewController(resource.Config{
			MemoryLimitBytes:      memoryLimitBytes,
			VisitLimitBytesPerSec: visitBytesPerSec,
		})
	}
}

// WithLogger configures a logger for store operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}
