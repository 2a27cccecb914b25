package predicate

// EntryRef layout: 18 offset bits above 6 buffer bits. That caps the
// arena at 64 buffers of 256 Ki words (1 MiB) each and keeps a data
// reference inside 24 bits, leaving the top byte of a packed reference
// free for the size discriminator.
const (
	bufferBits = 6
	offsetBits = 18

	numBuffers = 1 << bufferBits
	bufferCap  = 1 << offsetBits // words per buffer

	dataRefBits = offsetBits + bufferBits
	dataRefMask = 1<<dataRefBits - 1
)

// EntryRef is a compact handle to a word range inside the entry arena.
// The zero value means "no reference": slot 0 of buffer 0 is reserved
// at construction so no allocation ever returns it.
type EntryRef uint32

func makeRef(bufferID, offset uint32) EntryRef {
	return EntryRef(offset<<bufferBits | bufferID)
}

// BufferID returns the buffer the reference points into.
func (r EntryRef) BufferID() uint32 { return uint32(r) & (numBuffers - 1) }

// Offset returns the word offset inside the buffer.
func (r EntryRef) Offset() uint32 { return uint32(r) >> bufferBits }

// Valid reports whether r references an allocation.
func (r EntryRef) Valid() bool { return r != 0 }
