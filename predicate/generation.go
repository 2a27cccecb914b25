package predicate

import (
	"sync"
	"sync/atomic"
)

// GenerationHandler coordinates deferred reclamation between a single
// writer and concurrent readers. Readers take a Guard pinning the
// generation current at the start of their operation; the writer
// advances the generation and may only reclaim storage freed before
// the oldest still-pinned generation.
type GenerationHandler struct {
	current atomic.Uint64

	mu     sync.Mutex
	pinned map[uint64]int // generation -> active guard count
}

// NewGenerationHandler returns a handler with the generation set to 1,
// so that 0 can be used as a "never" value by callers.
func NewGenerationHandler() *GenerationHandler {
	h := &GenerationHandler{
		pinned: make(map[uint64]int),
	}
	h.current.Store(1)
	return h
}

// Current returns the current generation.
func (h *GenerationHandler) Current() uint64 {
	return h.current.Load()
}

// IncGeneration advances the current generation. Writer only.
func (h *GenerationHandler) IncGeneration() {
	h.current.Add(1)
}

// FirstUsed returns the oldest generation still pinned by a guard, or
// the current generation when nothing is pinned. Storage freed before
// this generation is safe to reuse.
func (h *GenerationHandler) FirstUsed() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	first := h.current.Load()
	for gen := range h.pinned {
		if gen < first {
			first = gen
		}
	}
	return first
}

// TakeGuard pins the current generation until Release is called.
func (h *GenerationHandler) TakeGuard() *Guard {
	h.mu.Lock()
	defer h.mu.Unlock()

	gen := h.current.Load()
	h.pinned[gen]++
	return &Guard{h: h, gen: gen}
}

// Guard pins a generation on behalf of a reader. Release is idempotent
// and safe to defer on every exit path.
type Guard struct {
	h        *GenerationHandler
	gen      uint64
	released bool
}

// Generation returns the pinned generation.
func (g *Guard) Generation() uint64 { return g.gen }

// Release drops the pin.
func (g *Guard) Release() {
	if g == nil || g.released {
		return
	}
	g.released = true

	g.h.mu.Lock()
	defer g.h.mu.Unlock()

	if n := g.h.pinned[g.gen]; n > 1 {
		g.h.pinned[g.gen] = n - 1
	} else {
		delete(g.h.pinned, g.gen)
	}
}
