package docstore

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/searchstore/internal/resource"
	"github.com/hupe1980/searchstore/model"
)

// MemoryDataStore is an in-memory DataStore. It keeps blobs in a map
// and tracks the valid lid set in a roaring bitmap, which makes the
// lid-space compaction hooks cheap. Thread-safe. Durability is a
// no-op: a flush just publishes the sync token.
type MemoryDataStore struct {
	mu        sync.RWMutex
	docs      map[Lid][]byte
	lids      *roaring.Bitmap
	dataBytes uint64

	lastSync  atomic.Uint64
	tentative atomic.Uint64

	// wantedLidLimit is set by CompactLidSpace; ShrinkLidSpace drops
	// everything at or above it.
	wantedLidLimit Lid

	rc *resource.Controller
}

// MemoryDataStoreOption configures a MemoryDataStore.
type MemoryDataStoreOption func(*MemoryDataStore)

// WithVisitThrottle throttles ReadVisit throughput through rc.
func WithVisitThrottle(rc *resource.Controller) MemoryDataStoreOption {
	return func(s *MemoryDataStore) {
		s.rc = rc
	}
}

// NewMemoryDataStore creates an empty in-memory data store.
func NewMemoryDataStore(opts ...MemoryDataStoreOption) *MemoryDataStore {
	s := &MemoryDataStore{
		docs: make(map[Lid][]byte),
		lids: roaring.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read returns a copy of the blob for lid, or nil when unknown.
func (s *MemoryDataStore) Read(_ context.Context, lid Lid) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	buf, ok := s.docs[lid]
	if !ok {
		return nil, nil
	}
	return cloneBuf(buf), nil
}

// ReadVisit streams blobs for lids to visitor in request order.
func (s *MemoryDataStore) ReadVisit(ctx context.Context, lids []Lid, visitor BufferVisitor) error {
	for _, lid := range lids {
		s.mu.RLock()
		buf := cloneBuf(s.docs[lid])
		s.mu.RUnlock()

		if err := s.rc.WaitVisit(ctx, len(buf)); err != nil {
			return err
		}
		visitor.VisitDocument(lid, buf)
	}
	return nil
}

// Write stores a copy of buf under lid.
func (s *MemoryDataStore) Write(_ context.Context, syncToken uint64, lid Lid, buf []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.docs[lid]; ok {
		s.dataBytes -= uint64(len(old))
	}
	s.docs[lid] = cloneBuf(buf)
	s.dataBytes += uint64(len(buf))
	s.lids.Add(lid)
	s.bumpTentative(syncToken)
	return nil
}

// Remove drops the blob for lid, if present.
func (s *MemoryDataStore) Remove(_ context.Context, syncToken uint64, lid Lid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.docs[lid]; ok {
		s.dataBytes -= uint64(len(old))
		delete(s.docs, lid)
		s.lids.Remove(lid)
	}
	s.bumpTentative(syncToken)
	return nil
}

func (s *MemoryDataStore) bumpTentative(syncToken uint64) {
	for {
		cur := s.tentative.Load()
		if syncToken <= cur || s.tentative.CompareAndSwap(cur, syncToken) {
			return
		}
	}
}

// Flush publishes syncToken as durable. Data already lives in memory,
// so there is nothing else to do.
func (s *MemoryDataStore) Flush(_ context.Context, syncToken uint64) error {
	for {
		cur := s.lastSync.Load()
		if syncToken <= cur || s.lastSync.CompareAndSwap(cur, syncToken) {
			return nil
		}
	}
}

// InitFlush returns the token the next flush will cover.
func (s *MemoryDataStore) InitFlush(syncToken uint64) uint64 {
	return syncToken
}

// LastSyncToken returns the newest flushed token.
func (s *MemoryDataStore) LastSyncToken() uint64 {
	return s.lastSync.Load()
}

// TentativeLastSyncToken returns the newest token seen by a write.
func (s *MemoryDataStore) TentativeLastSyncToken() uint64 {
	return s.tentative.Load()
}

// MemoryUsed returns the bytes held by document blobs.
func (s *MemoryDataStore) MemoryUsed() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataBytes
}

// MemoryMeta returns the bookkeeping overhead: the lid bitmap plus a
// rough per-entry map cost.
func (s *MemoryDataStore) MemoryMeta() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const mapEntryOverhead = 48
	return s.lids.GetSizeInBytes() + uint64(len(s.docs))*mapEntryOverhead
}

// DiskFootprint is zero: nothing touches disk.
func (s *MemoryDataStore) DiskFootprint() uint64 { return 0 }

// DiskBloat is zero: nothing touches disk.
func (s *MemoryDataStore) DiskBloat() uint64 { return 0 }

// MemoryUsage reports blob bytes as used and blob+meta as allocated.
func (s *MemoryDataStore) MemoryUsage() model.MemoryUsage {
	return model.MemoryUsage{
		Used:      s.MemoryUsed(),
		Allocated: s.MemoryUsed() + s.MemoryMeta(),
	}
}

// CompactLidSpace records the wanted lid limit. Documents at or above
// the limit are released by ShrinkLidSpace.
func (s *MemoryDataStore) CompactLidSpace(wantedLidLimit Lid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wantedLidLimit = wantedLidLimit
}

// CanShrinkLidSpace reports whether a recorded limit would release
// anything.
func (s *MemoryDataStore) CanShrinkLidSpace() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wantedLidLimit > 0 && s.shrinkGainLocked() > 0
}

// EstimatedShrinkLidSpaceGain returns the bytes a shrink would free.
func (s *MemoryDataStore) EstimatedShrinkLidSpaceGain() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shrinkGainLocked()
}

func (s *MemoryDataStore) shrinkGainLocked() uint64 {
	if s.wantedLidLimit == 0 || s.lids.IsEmpty() {
		return 0
	}

	var gain uint64
	it := s.lids.Iterator()
	it.AdvanceIfNeeded(s.wantedLidLimit)
	for it.HasNext() {
		gain += uint64(len(s.docs[it.Next()]))
	}
	return gain
}

// ShrinkLidSpace releases all documents at or above the recorded
// limit.
func (s *MemoryDataStore) ShrinkLidSpace() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.wantedLidLimit == 0 {
		return
	}

	it := s.lids.Iterator()
	it.AdvanceIfNeeded(s.wantedLidLimit)
	for it.HasNext() {
		lid := it.Next()
		s.dataBytes -= uint64(len(s.docs[lid]))
		delete(s.docs, lid)
	}

	if !s.lids.IsEmpty() {
		s.lids.RemoveRange(uint64(s.wantedLidLimit), uint64(s.lids.Maximum())+1)
	}
}
