// Package minio provides a DataStore backed by MinIO or any
// S3-compatible object store. Each document blob is one object keyed
// by its lid under a configurable prefix.
//
// Sync tokens are tracked in memory only: the object store is assumed
// durable per request, so Flush just publishes the token. Lid-space
// shrinking is not supported.
package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync/atomic"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/searchstore/docstore"
	"github.com/hupe1980/searchstore/model"
)

// Store implements docstore.DataStore on top of a MinIO bucket.
type Store struct {
	client *minio.Client
	bucket string
	prefix string

	lastSync  atomic.Uint64
	tentative atomic.Uint64
}

// NewStore creates a data store writing objects to bucket under
// rootPrefix (e.g. "docs/").
func NewStore(client *minio.Client, bucket, rootPrefix string) *Store {
	return &Store{
		client: client,
		bucket: bucket,
		prefix: rootPrefix,
	}
}

func (s *Store) key(lid docstore.Lid) string {
	return path.Join(s.prefix, fmt.Sprintf("%08x", lid))
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
}

// Read returns the blob for lid, or nil when the object is missing.
func (s *Store) Read(ctx context.Context, lid docstore.Lid) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.key(lid), minio.GetObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	defer obj.Close()

	buf, err := io.ReadAll(obj)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return buf, nil
}

// ReadVisit streams blobs for lids to visitor in request order.
func (s *Store) ReadVisit(ctx context.Context, lids []docstore.Lid, visitor docstore.BufferVisitor) error {
	for _, lid := range lids {
		buf, err := s.Read(ctx, lid)
		if err != nil {
			return err
		}
		visitor.VisitDocument(lid, buf)
	}
	return nil
}

// Write uploads the blob for lid.
func (s *Store) Write(ctx context.Context, syncToken uint64, lid docstore.Lid, buf []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(lid),
		bytes.NewReader(buf), int64(len(buf)), minio.PutObjectOptions{})
	if err != nil {
		return err
	}
	s.bump(&s.tentative, syncToken)
	return nil
}

// Remove deletes the object for lid. A missing object is not an
// error.
func (s *Store) Remove(ctx context.Context, syncToken uint64, lid docstore.Lid) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(lid), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	s.bump(&s.tentative, syncToken)
	return nil
}

func (s *Store) bump(counter *atomic.Uint64, syncToken uint64) {
	for {
		cur := counter.Load()
		if syncToken <= cur || counter.CompareAndSwap(cur, syncToken) {
			return
		}
	}
}

// Flush publishes syncToken; individual puts are already durable.
func (s *Store) Flush(_ context.Context, syncToken uint64) error {
	s.bump(&s.lastSync, syncToken)
	return nil
}

// InitFlush returns the token the next flush will cover.
func (s *Store) InitFlush(syncToken uint64) uint64 { return syncToken }

// LastSyncToken returns the newest flushed token.
func (s *Store) LastSyncToken() uint64 { return s.lastSync.Load() }

// TentativeLastSyncToken returns the newest token seen by a write.
func (s *Store) TentativeLastSyncToken() uint64 { return s.tentative.Load() }

// MemoryUsed is zero: blobs live in the object store.
func (s *Store) MemoryUsed() uint64 { return 0 }

// MemoryMeta is zero.
func (s *Store) MemoryMeta() uint64 { return 0 }

// DiskFootprint sums the object sizes under the store's prefix. This
// lists the bucket and is intended for monitoring, not hot paths.
func (s *Store) DiskFootprint() uint64 {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var total uint64
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			if errors.Is(obj.Err, context.Canceled) {
				break
			}
			continue
		}
		total += uint64(obj.Size)
	}
	return total
}

// DiskBloat is zero: removed objects are gone immediately.
func (s *Store) DiskBloat() uint64 { return 0 }

// MemoryUsage reports nothing: the store holds no process memory.
func (s *Store) MemoryUsage() model.MemoryUsage { return model.MemoryUsage{} }

// CompactLidSpace is a no-op: objects are keyed individually.
func (s *Store) CompactLidSpace(docstore.Lid) {}

// CanShrinkLidSpace is false: there is no lid-ordered layout to
// shrink.
func (s *Store) CanShrinkLidSpace() bool { return false }

// EstimatedShrinkLidSpaceGain is zero.
func (s *Store) EstimatedShrinkLidSpaceGain() uint64 { return 0 }

// ShrinkLidSpace is a no-op.
func (s *Store) ShrinkLidSpace() {}
