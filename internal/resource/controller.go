// Package resource tracks global memory and IO budgets shared between
// the document cache and backing-store visitation.
package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when the memory limit would be exceeded.
var ErrMemoryLimitExceeded = errors.New("resource: memory limit exceeded")

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for managed memory.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// VisitLimitBytesPerSec throttles batch visitation throughput.
	// If 0, unlimited.
	VisitLimitBytesPerSec int64
}

// Controller manages global resources. A nil *Controller is valid and
// enforces nothing.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	visitLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.VisitLimitBytesPerSec > 0 {
		c.visitLimiter = rate.NewLimiter(rate.Limit(cfg.VisitLimitBytesPerSec), int(cfg.VisitLimitBytesPerSec))
	}

	return c
}

// TryAcquireMemory attempts to reserve memory without blocking.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}
	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}
	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory returns previously acquired memory.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsed returns the currently tracked memory in bytes.
func (c *Controller) MemoryUsed() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// WaitVisit blocks until the visitation rate budget allows bytes more
// to be streamed. Unlimited controllers return immediately.
func (c *Controller) WaitVisit(ctx context.Context, bytes int) error {
	if c == nil || c.visitLimiter == nil || bytes <= 0 {
		return nil
	}
	burst := c.visitLimiter.Burst()
	// Oversized payloads are throttled in burst-sized installments.
	for bytes > 0 {
		n := bytes
		if n > burst {
			n = burst
		}
		if err := c.visitLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
