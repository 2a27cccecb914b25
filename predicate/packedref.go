package predicate

import "unsafe"

// A PackedRef folds "how many words, where" into one 32-bit word. The
// top 8 bits are the size discriminator, the low 24 bits the data:
//
//	size == 0:        the payload is a single word stored inline in
//	                  the data bits; no arena allocation exists.
//	0 < size < 255:   literal word count; data bits hold an EntryRef.
//	size == 255:      overflow; the referenced allocation starts with
//	                  an explicit word count followed by the payload.
//
// Every value produced by encode decodes back to the same payload.
type PackedRef uint32

const (
	sizeShift    = dataRefBits // 24
	maxDirectLen = 0xFE        // largest literal word count
	overflowSize = 0xFF
)

func (r PackedRef) size() uint32 { return uint32(r) >> sizeShift }

func (r PackedRef) dataRef() EntryRef { return EntryRef(uint32(r) & dataRefMask) }

func (r PackedRef) isInline() bool { return r.size() == 0 }

// Valid reports whether r references a payload. The zero value means
// "no reference": it is never produced for a non-empty payload, since
// an inline word of zero would be an invalid entry.
func (r PackedRef) Valid() bool { return r != 0 }

func (r PackedRef) inlineWord() uint32 { return uint32(r) & dataRefMask }

// inlinable reports whether words can be stored without allocation.
func inlinable(words []uint32) bool {
	return len(words) == 1 && words[0]&^uint32(dataRefMask) == 0
}

// encode stores words in the arena (unless inlinable) and returns the
// packed reference. words must not be empty.
func (s *dataStore) encode(words []uint32) PackedRef {
	if inlinable(words) {
		return PackedRef(words[0])
	}

	n := uint32(len(words))
	if n <= maxDirectLen {
		ref, buf := s.alloc(n)
		copy(buf, words)
		return PackedRef(n<<sizeShift | uint32(ref))
	}

	// Count too large for the discriminator: store it explicitly as
	// the first word of the allocation.
	ref, buf := s.alloc(n + 1)
	buf[0] = n
	copy(buf[1:], words)
	return PackedRef(overflowSize<<sizeShift | uint32(ref))
}

// decode returns the payload words for ref. For inline references the
// single word is materialized into scratch.
func (s *dataStore) decode(ref PackedRef, scratch *uint32) []uint32 {
	size := ref.size()
	if size == 0 {
		*scratch = ref.inlineWord()
		return unsafe.Slice(scratch, 1)
	}

	buf := s.get(ref.dataRef())
	if size == overflowSize {
		size = buf[0]
		buf = buf[1:]
	}
	return buf[:size]
}
