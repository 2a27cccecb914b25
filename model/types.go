// Package model holds small types shared across searchstore packages.
package model

// MemoryUsage describes how a component uses its backing memory.
// All values are in bytes.
type MemoryUsage struct {
	// Used is the number of bytes holding live data.
	Used uint64
	// Dead is the number of bytes that are logically freed but not yet
	// reusable (still on hold for concurrent readers).
	Dead uint64
	// Allocated is the total number of bytes reserved from the OS.
	Allocated uint64
}

// Add accumulates another usage report into u.
func (u *MemoryUsage) Add(o MemoryUsage) {
	u.Used += o.Used
	u.Dead += o.Dead
	u.Allocated += o.Allocated
}
