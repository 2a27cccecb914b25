package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/searchstore/internal/resource"
)

func TestMemoryDataStoreReadWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDataStore()

	buf, err := s.Read(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, buf)

	require.NoError(t, s.Write(ctx, 1, 1, []byte("one")))
	require.NoError(t, s.Write(ctx, 2, 2, []byte("two")))

	buf, err = s.Read(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), buf)

	// Reads return copies; mutating them must not corrupt the store.
	buf[0] = 'X'
	buf, err = s.Read(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), buf)

	assert.Equal(t, uint64(6), s.MemoryUsed())
	assert.Positive(t, s.MemoryMeta())
	assert.Zero(t, s.DiskFootprint())

	require.NoError(t, s.Remove(ctx, 3, 1))
	buf, err = s.Read(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, buf)
	assert.Equal(t, uint64(3), s.MemoryUsed())
}

func TestMemoryDataStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDataStore()

	require.NoError(t, s.Write(ctx, 1, 1, []byte("short")))
	require.NoError(t, s.Write(ctx, 2, 1, []byte("a longer value")))
	assert.Equal(t, uint64(14), s.MemoryUsed())
}

func TestMemoryDataStoreVisit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDataStore(WithVisitThrottle(
		resource.NewController(resource.Config{VisitLimitBytesPerSec: 1 << 20}),
	))

	require.NoError(t, s.Write(ctx, 1, 1, []byte("one")))
	require.NoError(t, s.Write(ctx, 1, 3, []byte("three")))

	var order []Lid
	err := s.ReadVisit(ctx, []Lid{3, 2, 1}, BufferVisitorFunc(func(lid Lid, buf []byte) {
		order = append(order, lid)
		switch lid {
		case 1:
			assert.Equal(t, []byte("one"), buf)
		case 2:
			assert.Nil(t, buf)
		case 3:
			assert.Equal(t, []byte("three"), buf)
		}
	}))
	require.NoError(t, err)
	assert.Equal(t, []Lid{3, 2, 1}, order)
}

func TestMemoryDataStoreSyncTokens(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDataStore()

	assert.Equal(t, uint64(0), s.LastSyncToken())
	assert.Equal(t, uint64(0), s.TentativeLastSyncToken())

	require.NoError(t, s.Write(ctx, 10, 1, []byte("doc")))
	assert.Equal(t, uint64(10), s.TentativeLastSyncToken())

	// Tokens never move backwards.
	require.NoError(t, s.Write(ctx, 4, 2, []byte("doc")))
	assert.Equal(t, uint64(10), s.TentativeLastSyncToken())

	assert.Equal(t, uint64(10), s.InitFlush(10))
	require.NoError(t, s.Flush(ctx, 10))
	assert.Equal(t, uint64(10), s.LastSyncToken())
}

func TestMemoryDataStoreLidSpaceCompaction(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDataStore()

	for lid := Lid(1); lid <= 10; lid++ {
		require.NoError(t, s.Write(ctx, 1, lid, make([]byte, 100)))
	}

	assert.False(t, s.CanShrinkLidSpace(), "no limit recorded yet")

	s.CompactLidSpace(6)
	assert.True(t, s.CanShrinkLidSpace())
	assert.Equal(t, uint64(500), s.EstimatedShrinkLidSpaceGain(), "lids 6..10")

	s.ShrinkLidSpace()
	assert.Equal(t, uint64(500), s.MemoryUsed())
	assert.False(t, s.CanShrinkLidSpace())

	for lid := Lid(1); lid <= 5; lid++ {
		buf, err := s.Read(ctx, lid)
		require.NoError(t, err)
		assert.Len(t, buf, 100)
	}
	for lid := Lid(6); lid <= 10; lid++ {
		buf, err := s.Read(ctx, lid)
		require.NoError(t, err)
		assert.Nil(t, buf)
	}
}
