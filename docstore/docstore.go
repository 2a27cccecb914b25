// Package docstore provides the read-through document cache of the
// search core: a DocumentStore fronting a pluggable DataStore backend
// with cumulative hit/miss statistics and explicit capacity and
// compression policy.
package docstore

import (
	"context"

	"github.com/hupe1980/searchstore/model"
)

// Lid is a local document identifier. Lid 0 is reserved.
type Lid = uint32

// BufferVisitor receives documents during batch visitation.
type BufferVisitor interface {
	// VisitDocument is called once per requested lid, in request
	// order. buf is nil for unknown lids and only valid for the
	// duration of the call.
	VisitDocument(lid Lid, buf []byte)
}

// BufferVisitorFunc adapts a function to the BufferVisitor interface.
type BufferVisitorFunc func(lid Lid, buf []byte)

// VisitDocument calls f.
func (f BufferVisitorFunc) VisitDocument(lid Lid, buf []byte) { f(lid, buf) }

// DataStore is the persistent backing store for document blobs. The
// document store consumes it only through this contract; persistence
// guarantees, file formats and durability are the implementation's
// business.
//
// Reads of unknown lids yield (nil, nil); not-found is an ordinary
// result, not an error. Sync tokens order flushes: a completed
// Flush(token) guarantees every write with a smaller or equal token
// is durable.
type DataStore interface {
	// Read returns the blob stored for lid, or nil when unknown.
	Read(ctx context.Context, lid Lid) ([]byte, error)
	// ReadVisit streams the blobs for a batch of lids to visitor.
	ReadVisit(ctx context.Context, lids []Lid, visitor BufferVisitor) error

	Write(ctx context.Context, syncToken uint64, lid Lid, buf []byte) error
	Remove(ctx context.Context, syncToken uint64, lid Lid) error

	Flush(ctx context.Context, syncToken uint64) error
	// InitFlush prepares a flush and returns the token it will cover.
	InitFlush(syncToken uint64) uint64
	// LastSyncToken is the newest token guaranteed durable.
	LastSyncToken() uint64
	// TentativeLastSyncToken is the newest token seen by a write.
	TentativeLastSyncToken() uint64

	// Capacity introspection.
	MemoryUsed() uint64
	MemoryMeta() uint64
	DiskFootprint() uint64
	DiskBloat() uint64
	MemoryUsage() model.MemoryUsage

	// Lid-space compaction hooks. Stores that cannot shrink report
	// CanShrinkLidSpace() == false and treat the rest as no-ops.
	CompactLidSpace(wantedLidLimit Lid)
	CanShrinkLidSpace() bool
	EstimatedShrinkLidSpaceGain() uint64
	ShrinkLidSpace()
}
