// SPDX-License-Identifier: Apache-2.0

package memdebug

import (
	"io"
	"iter"
	"sync"
	"unsafe"
)

// ConcurrentAllocator guards an Allocator, its arena, registry and
// counters, with a single mutex.
type ConcurrentAllocator struct {
	mtx sync.Mutex
	a   *Allocator
}

// NewConcurrentAllocator returns an allocator that is safe to be accessed
// concurrently from multiple goroutines.
func NewConcurrentAllocator(a *Allocator) *ConcurrentAllocator {
	return &ConcurrentAllocator{a: a}
}

// Allocate is the concurrent form of Allocator.Allocate.
func (c *ConcurrentAllocator) Allocate(size uintptr, file string, line int) (unsafe.Pointer, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.a.Allocate(size, file, line)
}

// AllocateZeroed is the concurrent form of Allocator.AllocateZeroed.
func (c *ConcurrentAllocator) AllocateZeroed(count, size uintptr, file string, line int) (unsafe.Pointer, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.a.AllocateZeroed(count, size, file, line)
}

// Reallocate is the concurrent form of Allocator.Reallocate.
func (c *ConcurrentAllocator) Reallocate(ptr unsafe.Pointer, size uintptr, file string, line int) (unsafe.Pointer, error) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.a.Reallocate(ptr, size, file, line)
}

// Release is the concurrent form of Allocator.Release.
func (c *ConcurrentAllocator) Release(ptr unsafe.Pointer, file string, line int) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.a.Release(ptr, file, line)
}

// Malloc is Allocate with the caller as allocation site.
func (c *ConcurrentAllocator) Malloc(size uintptr) unsafe.Pointer {
	file, line := callSite(0)
	ptr, _ := c.Allocate(size, file, line)
	return ptr
}

// Calloc is AllocateZeroed with the caller as allocation site.
func (c *ConcurrentAllocator) Calloc(count, size uintptr) unsafe.Pointer {
	file, line := callSite(0)
	ptr, _ := c.AllocateZeroed(count, size, file, line)
	return ptr
}

// Realloc is Reallocate with the caller as allocation site.
func (c *ConcurrentAllocator) Realloc(ptr unsafe.Pointer, size uintptr) unsafe.Pointer {
	file, line := callSite(0)
	fresh, _ := c.Reallocate(ptr, size, file, line)
	return fresh
}

// Free is Release with the caller as call site.
func (c *ConcurrentAllocator) Free(ptr unsafe.Pointer) {
	file, line := callSite(0)
	_ = c.Release(ptr, file, line)
}

// Statistics returns a copy of the allocator's counters.
func (c *ConcurrentAllocator) Statistics() Statistics {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.a.Statistics()
}

// Live returns the number of live allocations.
func (c *ConcurrentAllocator) Live() int {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.a.Live()
}

// PrintStatistics writes the allocator's counters to w.
func (c *ConcurrentAllocator) PrintStatistics(w io.Writer) error {
	return c.Statistics().Print(w)
}

// Leaks yields the live allocations as of the start of the iteration.
func (c *ConcurrentAllocator) Leaks() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		c.mtx.Lock()
		recs := c.a.records.snapshot()
		c.mtx.Unlock()
		for _, rec := range recs {
			if !yield(rec) {
				return
			}
		}
	}
}

// LeakReport writes one line per live allocation to w.
func (c *ConcurrentAllocator) LeakReport(w io.Writer) error {
	return writeLeaks(w, c.Leaks())
}

// Close releases the arena.
func (c *ConcurrentAllocator) Close() error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.a.Close()
}

// Unwrap returns the guarded allocator. Using it directly bypasses the lock.
func (c *ConcurrentAllocator) Unwrap() *Allocator {
	return c.a
}
