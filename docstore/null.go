package docstore

import (
	"context"

	"github.com/hupe1980/searchstore/model"
)

// NullDataStore is a DataStore that stores nothing and answers every
// read with an empty result. It is a fully conforming backend, useful
// for tests and for running a cache-only configuration.
type NullDataStore struct{}

// NewNullDataStore returns the null backend.
func NewNullDataStore() *NullDataStore { return &NullDataStore{} }

func (*NullDataStore) Read(context.Context, Lid) ([]byte, error) { return nil, nil }

func (*NullDataStore) ReadVisit(_ context.Context, lids []Lid, visitor BufferVisitor) error {
	for _, lid := range lids {
		visitor.VisitDocument(lid, nil)
	}
	return nil
}

func (*NullDataStore) Write(context.Context, uint64, Lid, []byte) error { return nil }

func (*NullDataStore) Remove(context.Context, uint64, Lid) error { return nil }

func (*NullDataStore) Flush(context.Context, uint64) error { return nil }

func (*NullDataStore) InitFlush(syncToken uint64) uint64 { return syncToken }

func (*NullDataStore) LastSyncToken() uint64 { return 0 }

func (*NullDataStore) TentativeLastSyncToken() uint64 { return 0 }

func (*NullDataStore) MemoryUsed() uint64 { return 0 }

func (*NullDataStore) MemoryMeta() uint64 { return 0 }

func (*NullDataStore) DiskFootprint() uint64 { return 0 }

func (*NullDataStore) DiskBloat() uint64 { return 0 }

func (*NullDataStore) MemoryUsage() model.MemoryUsage { return model.MemoryUsage{} }

func (*NullDataStore) CompactLidSpace(Lid) {}

func (*NullDataStore) CanShrinkLidSpace() bool { return false }

func (*NullDataStore) EstimatedShrinkLidSpaceGain() uint64 { return 0 }

func (*NullDataStore) ShrinkLidSpace() {}
