// Package predicate implements the in-memory interval storage core of
// the predicate search index: a generation-reclaimed entry arena, a
// packed-reference codec with a single-interval inline fast path, and
// a deduplicating reference cache on top.
package predicate

import (
	"unsafe"

	"github.com/hupe1980/searchstore/model"
)

// Interval is a packed begin/end position pair occupying one arena
// word. The zero value is not a valid interval; positions are 1-based.
type Interval uint32

// NewInterval packs begin and end into an Interval.
func NewInterval(begin, end uint16) Interval {
	return Interval(uint32(begin)<<16 | uint32(end))
}

// Begin returns the interval's begin position.
func (iv Interval) Begin() uint16 { return uint16(uint32(iv) >> 16) }

// End returns the interval's end position.
func (iv Interval) End() uint16 { return uint16(uint32(iv)) }

// IntervalWithBounds is an interval with a bounds word, used by range
// predicates. It occupies two arena words.
type IntervalWithBounds struct {
	Interval Interval
	Bounds   uint32
}

// Entry is the set of element types the interval store can hold.
type Entry interface {
	Interval | IntervalWithBounds
}

// IntervalStore stores arrays of interval entries compactly. Inserts
// are deduplicated against previously stored content; single small
// intervals are encoded inline in the returned reference without
// touching the arena.
//
// One writer may insert and commit; readers holding a Guard may call
// Get concurrently.
type IntervalStore struct {
	store *dataStore
	cache *refCache
	gens  *GenerationHandler
}

// NewIntervalStore returns an empty interval store.
func NewIntervalStore() *IntervalStore {
	store := newDataStore()
	return &IntervalStore{
		store: store,
		cache: newRefCache(store),
		gens:  NewGenerationHandler(),
	}
}

func entryWords[T Entry]() uint32 {
	var zero T
	return uint32(unsafe.Sizeof(zero) / wordSize)
}

func wordsOf[T Entry](entries []T) []uint32 {
	if len(entries) == 0 {
		return nil
	}
	n := len(entries) * int(entryWords[T]())
	return unsafe.Slice((*uint32)(unsafe.Pointer(&entries[0])), n)
}

// Insert stores entries and returns a packed reference to them.
// Inserting an empty slice returns the zero reference.
func Insert[T Entry](s *IntervalStore, entries []T) PackedRef {
	words := wordsOf(entries)
	if len(words) == 0 {
		return 0
	}
	if inlinable(words) {
		return s.store.encode(words)
	}
	if ref, ok := s.cache.find(words); ok {
		return ref
	}
	ref := s.store.encode(words)
	s.cache.insert(words, ref)
	return ref
}

// Get decodes ref into a read-only entry view and its length. For
// inline references the entry is materialized into scratch and the
// returned view aliases it. The view into the arena is valid as long
// as the caller's Guard generation predates any reclamation of ref.
func Get[T Entry](s *IntervalStore, ref PackedRef, scratch *T) ([]T, int) {
	if ref == 0 {
		return nil, 0
	}

	if ref.isInline() {
		var zero T
		*scratch = zero
		*(*uint32)(unsafe.Pointer(scratch)) = ref.inlineWord()
		return unsafe.Slice(scratch, 1), 1
	}

	var w uint32
	words := s.store.decode(ref, &w)
	count := uint32(len(words)) / entryWords[T]()
	return unsafe.Slice((*T)(unsafe.Pointer(&words[0])), count), int(count)
}

// Remove is intentionally a no-op: the reference cache is assumed to
// keep the number of distinct entries low, so reclaiming individual
// entries is not worth invalidating resident references for.
func (s *IntervalStore) Remove(ref PackedRef) {
	_ = ref
}

// Guard pins the current generation for a reader. Release it on every
// exit path, typically with defer.
func (s *IntervalStore) Guard() *Guard {
	return s.gens.TakeGuard()
}

// Generations exposes the store's generation handler to callers that
// drive their own hold/trim cycle.
func (s *IntervalStore) Generations() *GenerationHandler {
	return s.gens
}

// TransferHoldLists tags storage freed since the last call with gen.
func (s *IntervalStore) TransferHoldLists(gen uint64) {
	s.store.transferHoldLists(gen)
}

// TrimHoldLists reuses storage freed before firstUsed. The caller
// guarantees no reader still pins an older generation.
func (s *IntervalStore) TrimHoldLists(firstUsed uint64) {
	s.store.trimHoldLists(firstUsed)
}

// Commit runs one reclamation cycle: held storage is tagged with the
// current generation, the generation advances, and everything no
// pinned reader can still observe becomes reusable.
func (s *IntervalStore) Commit() {
	s.store.transferHoldLists(s.gens.Current())
	s.gens.IncGeneration()
	s.store.trimHoldLists(s.gens.FirstUsed())
}

// MemoryUsage reports arena usage for capacity monitoring.
func (s *IntervalStore) MemoryUsage() model.MemoryUsage {
	return s.store.memoryUsage()
}

// Close unmaps the arena. No reads may be in flight.
func (s *IntervalStore) Close() error {
	return s.store.close()
}
