package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControllerMemory(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	assert.True(t, c.TryAcquireMemory(60))
	assert.True(t, c.TryAcquireMemory(40))
	assert.Equal(t, int64(100), c.MemoryUsed())

	// Limit hit.
	assert.False(t, c.TryAcquireMemory(1))

	c.ReleaseMemory(40)
	assert.Equal(t, int64(60), c.MemoryUsed())
	assert.True(t, c.TryAcquireMemory(40))
}

func TestControllerUnlimited(t *testing.T) {
	c := NewController(Config{})
	assert.True(t, c.TryAcquireMemory(1<<40))
	assert.Equal(t, int64(1<<40), c.MemoryUsed())
	c.ReleaseMemory(1 << 40)
}

func TestControllerNil(t *testing.T) {
	var c *Controller
	assert.True(t, c.TryAcquireMemory(10))
	c.ReleaseMemory(10)
	assert.Equal(t, int64(0), c.MemoryUsed())
	assert.NoError(t, c.WaitVisit(context.Background(), 10))
}

func TestControllerWaitVisit(t *testing.T) {
	c := NewController(Config{VisitLimitBytesPerSec: 1 << 20})

	// Within burst: immediate.
	start := time.Now()
	require.NoError(t, c.WaitVisit(context.Background(), 1024))
	assert.Less(t, time.Since(start), time.Second)

	// Oversized requests are split into burst-sized installments
	// rather than failing WaitN.
	require.NoError(t, c.WaitVisit(context.Background(), (1<<20)+1))

	// Canceled context aborts the wait.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.WaitVisit(ctx, 1<<20))
}
