package predicate

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/hupe1980/searchstore/internal/mmap"
	"github.com/hupe1980/searchstore/model"
)

const wordSize = 4 // bytes per uint32 slot

// buffer is one fixed-capacity word array, mmap-backed so the arena
// stays off the Go heap. used only grows (bump allocation); dead
// counts words that were freed and not yet handed back out.
type buffer struct {
	mapping *mmap.Mapping
	words   []uint32
	used    uint32
	dead    uint32
}

type freedRange struct {
	ref  EntryRef
	size uint32
}

type holdList struct {
	gen    uint64
	ranges []freedRange
}

// dataStore is the entry arena: a bump allocator over mmap-backed word
// buffers with generation-deferred reuse of freed ranges.
//
// Concurrency: a single writer allocates, frees and reclaims; any
// number of readers may call get concurrently with the writer as long
// as they hold a generation guard taken before the ranges they read
// were freed. Buffers are published through atomic pointers so the
// read path takes no lock.
type dataStore struct {
	buffers     [numBuffers]atomic.Pointer[buffer]
	bufferCount atomic.Uint32

	// Writer-only state below.
	freed    []freedRange          // freed since the last hold transfer
	holds    []holdList            // oldest generation first
	freeList map[uint32][]EntryRef // reusable ranges keyed by word count
}

func newDataStore() *dataStore {
	s := &dataStore{
		freeList: make(map[uint32][]EntryRef),
	}
	// Reserve slot 0 of buffer 0 so EntryRef 0 stays "no reference".
	b := s.addBuffer()
	b.used = 1
	return s
}

// addBuffer maps a fresh buffer and publishes it. Running out of
// buffer ids or of backing memory is fatal: the arena has no soft
// degradation path.
func (s *dataStore) addBuffer() *buffer {
	id := s.bufferCount.Load()
	if id >= numBuffers {
		panic(fmt.Sprintf("predicate: arena exhausted (%d buffers of %d words)", numBuffers, bufferCap))
	}

	m, err := mmap.MapAnon(bufferCap * wordSize)
	if err != nil {
		panic(fmt.Sprintf("predicate: arena buffer mapping failed: %v", err))
	}

	data := m.Bytes()
	b := &buffer{
		mapping: m,
		words:   unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), bufferCap),
	}

	s.buffers[id].Store(b)
	// Publish the count after the pointer so readers never observe a
	// nil buffer below bufferCount.
	s.bufferCount.Add(1)
	return b
}

// alloc returns a reference to n zeroed words. n must be >= 1.
func (s *dataStore) alloc(n uint32) (EntryRef, []uint32) {
	if n == 0 {
		panic("predicate: zero-size arena allocation")
	}
	if n > bufferCap {
		panic(fmt.Sprintf("predicate: allocation of %d words exceeds buffer capacity %d", n, bufferCap))
	}

	// Reclaimed ranges are reused before growing a buffer.
	if refs := s.freeList[n]; len(refs) > 0 {
		ref := refs[len(refs)-1]
		s.freeList[n] = refs[:len(refs)-1]

		b := s.buffers[ref.BufferID()].Load()
		b.dead -= n
		view := b.words[ref.Offset() : ref.Offset()+n]
		clear(view)
		return ref, view
	}

	id := s.bufferCount.Load() - 1
	b := s.buffers[id].Load()
	if b.used+n > bufferCap {
		// Retire the active buffer; its contents stay readable.
		b = s.addBuffer()
		id++
	}

	offset := b.used
	b.used += n
	view := b.words[offset : offset+n]
	clear(view)
	return makeRef(id, offset), view
}

// get returns the words starting at ref, up to the end of the buffer.
// Callers know the logical length. Stale references are the caller's
// contract violation; out-of-range buffer ids fault on the nil load.
func (s *dataStore) get(ref EntryRef) []uint32 {
	b := s.buffers[ref.BufferID()].Load()
	return b.words[ref.Offset():]
}

// free marks n words at ref logically dead. The range stays readable
// for guards pinned before the free; physical reuse happens after the
// transfer/trim cycle.
func (s *dataStore) free(ref EntryRef, n uint32) {
	s.freed = append(s.freed, freedRange{ref: ref, size: n})
	s.buffers[ref.BufferID()].Load().dead += n
}

// transferHoldLists tags everything freed since the last call with gen.
func (s *dataStore) transferHoldLists(gen uint64) {
	if len(s.freed) == 0 {
		return
	}
	s.holds = append(s.holds, holdList{gen: gen, ranges: s.freed})
	s.freed = nil
}

// trimHoldLists makes ranges freed before firstUsed available for
// reuse. The caller guarantees no reader still pins an older
// generation.
func (s *dataStore) trimHoldLists(firstUsed uint64) {
	i := 0
	for ; i < len(s.holds) && s.holds[i].gen < firstUsed; i++ {
		for _, r := range s.holds[i].ranges {
			s.freeList[r.size] = append(s.freeList[r.size], r.ref)
		}
	}
	s.holds = s.holds[i:]
}

func (s *dataStore) memoryUsage() model.MemoryUsage {
	var u model.MemoryUsage
	n := s.bufferCount.Load()
	for i := uint32(0); i < n; i++ {
		b := s.buffers[i].Load()
		u.Used += uint64(b.used-b.dead) * wordSize
		u.Dead += uint64(b.dead) * wordSize
		u.Allocated += uint64(bufferCap) * wordSize
	}
	return u
}

// close unmaps every buffer. No reads may be in flight.
func (s *dataStore) close() error {
	var firstErr error
	n := s.bufferCount.Load()
	for i := uint32(0); i < n; i++ {
		b := s.buffers[i].Load()
		if err := b.mapping.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.buffers[i].Store(nil)
	}
	s.bufferCount.Store(0)
	return firstErr
}
