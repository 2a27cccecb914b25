package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerationHandler(t *testing.T) {
	h := NewGenerationHandler()
	assert.Equal(t, uint64(1), h.Current())
	assert.Equal(t, uint64(1), h.FirstUsed())

	g1 := h.TakeGuard()
	assert.Equal(t, uint64(1), g1.Generation())

	h.IncGeneration()
	h.IncGeneration()
	assert.Equal(t, uint64(3), h.Current())

	// The oldest pinned generation caps reclamation.
	assert.Equal(t, uint64(1), h.FirstUsed())

	g2 := h.TakeGuard()
	assert.Equal(t, uint64(3), g2.Generation())

	g1.Release()
	assert.Equal(t, uint64(3), h.FirstUsed())

	g2.Release()
	assert.Equal(t, uint64(3), h.FirstUsed())
}

func TestGuardReleaseIdempotent(t *testing.T) {
	h := NewGenerationHandler()

	g := h.TakeGuard()
	g2 := h.TakeGuard()

	g.Release()
	g.Release() // double release must not drop g2's pin
	assert.Equal(t, uint64(1), h.FirstUsed())

	h.IncGeneration()
	g2.Release()
	assert.Equal(t, uint64(2), h.FirstUsed())
}

func TestGuardNilRelease(t *testing.T) {
	var g *Guard
	assert.NotPanics(t, func() { g.Release() })
}
