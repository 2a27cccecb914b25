package predicate

import (
	"slices"
	"unsafe"

	"github.com/hupe1980/searchstore/internal/hash"
)

const (
	refCacheBuckets = 1024 // power of two
	refCacheWays    = 8
)

type refCacheEntry struct {
	key uint64
	ref PackedRef
}

// refCache collapses repeated identical payloads to one allocation.
// It is an N-way associative map from payload content to an already
// issued packed reference. A miss only costs a redundant allocation;
// a hit is verified word-for-word against the arena, so the cache can
// never return a reference to different content.
//
// Entries are never removed: distinct-payload cardinality is assumed
// low. Full buckets overwrite their oldest slot.
type refCache struct {
	store   *dataStore
	buckets [refCacheBuckets][refCacheWays]refCacheEntry
	cursor  [refCacheBuckets]uint8
}

func newRefCache(store *dataStore) *refCache {
	return &refCache{store: store}
}

func wordBytes(words []uint32) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(words)*wordSize)
}

// find returns a previously issued reference for an identical payload.
func (c *refCache) find(words []uint32) (PackedRef, bool) {
	key := hash.Key64(wordBytes(words))
	bucket := &c.buckets[key&(refCacheBuckets-1)]

	for i := range bucket {
		e := bucket[i]
		if e.ref != 0 && e.key == key && c.matches(e.ref, words) {
			return e.ref, true
		}
	}
	return 0, false
}

// insert records ref as the resident reference for words.
func (c *refCache) insert(words []uint32, ref PackedRef) {
	key := hash.Key64(wordBytes(words))
	idx := key & (refCacheBuckets - 1)

	slot := c.cursor[idx]
	c.buckets[idx][slot] = refCacheEntry{key: key, ref: ref}
	c.cursor[idx] = (slot + 1) % refCacheWays
}

// matches verifies resident content against the requested payload.
func (c *refCache) matches(ref PackedRef, words []uint32) bool {
	var scratch uint32
	resident := c.store.decode(ref, &scratch)
	return slices.Equal(resident, words)
}
