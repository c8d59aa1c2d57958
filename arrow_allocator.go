// SPDX-License-Identifier: Apache-2.0

package memdebug

import (
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/pkg/errors"
)

// arrowAlignment matches the buffer alignment of Arrow's own allocators.
const arrowAlignment = 64

// ArrowAllocator lets Arrow buffers draw their memory from an Allocator, so
// Arrow data that is never released shows up in the leak report. The call
// site recorded for each allocation is the Arrow code that requested it.
type ArrowAllocator struct {
	a *Allocator
}

var _ memory.Allocator = (*ArrowAllocator)(nil)

// NewArrowAllocator wraps a for use as an Arrow memory.Allocator.
func NewArrowAllocator(a *Allocator) *ArrowAllocator {
	return &ArrowAllocator{a: a}
}

// Allocate satisfies memory.Allocator. Buffers start on a 64-byte boundary.
// Zero-length requests are served
// without touching the allocator. Like Arrow's own allocators it panics when
// memory cannot be allocated.
func (m *ArrowAllocator) Allocate(size int) []byte {
	if size <= 0 {
		return []byte{}
	}
	file, line := callSite(0)
	ptr, err := m.a.allocateZeroed(uintptr(size), 1, arrowAlignment, file, line)
	if err != nil {
		panic(errors.Wrapf(err, "memdebug: arrow allocate %d bytes", size))
	}
	return unsafe.Slice((*byte)(ptr), size)
}

// Reallocate satisfies memory.Allocator.
func (m *ArrowAllocator) Reallocate(size int, b []byte) []byte {
	if cap(b) == 0 {
		return m.Allocate(size)
	}
	if size <= 0 {
		m.Free(b)
		return []byte{}
	}
	file, line := callSite(0)
	ptr, err := m.a.reallocate(unsafe.Pointer(unsafe.SliceData(b)), uintptr(size), arrowAlignment, file, line)
	if err != nil {
		panic(errors.Wrapf(err, "memdebug: arrow reallocate %d bytes", size))
	}
	out := unsafe.Slice((*byte)(ptr), size)
	if size > len(b) {
		clear(out[len(b):])
	}
	return out
}

// Free satisfies memory.Allocator.
func (m *ArrowAllocator) Free(b []byte) {
	if cap(b) == 0 {
		return
	}
	file, line := callSite(0)
	_ = m.a.Release(unsafe.Pointer(unsafe.SliceData(b)), file, line)
}
