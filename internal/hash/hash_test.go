package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	// Known CRC32C test vector (RFC 3720 B.4): 32 bytes of zero.
	zeros := make([]byte, 32)
	assert.Equal(t, uint32(0x8A9136AA), CRC32C(zeros))

	h := NewCRC32C()
	_, err := h.Write(zeros[:16])
	assert.NoError(t, err)
	_, err = h.Write(zeros[16:])
	assert.NoError(t, err)
	assert.Equal(t, CRC32C(zeros), h.Sum32())
}

func TestKey64(t *testing.T) {
	a := Key64([]byte("payload-a"))
	b := Key64([]byte("payload-b"))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, Key64([]byte("payload-a")))
}
