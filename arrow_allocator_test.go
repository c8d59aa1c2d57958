// SPDX-License-Identifier: Apache-2.0

package memdebug

import (
	"bytes"
	"testing"
	"unsafe"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/require"
)

func TestArrowAllocatorAllocateFree(t *testing.T) {
	a, _ := newTestAllocator(t, 64*1024, WithFill(0xFF))
	mem := NewArrowAllocator(a)

	b := mem.Allocate(128)
	require.Len(t, b, 128)
	require.Equal(t, make([]byte, 128), b)
	require.Equal(t, 1, a.Live())

	mem.Free(b)
	require.Equal(t, 0, a.Live())
}

func TestArrowAllocatorAligned(t *testing.T) {
	a, _ := newTestAllocator(t, 64*1024)
	mem := NewArrowAllocator(a)

	odd := mem.Allocate(3)
	require.Len(t, odd, 3)

	b := mem.Allocate(64)
	require.Zero(t, uintptr(unsafe.Pointer(unsafe.SliceData(b)))%arrowAlignment)

	_, err := a.Allocate(7, "main.c", 1)
	require.NoError(t, err)

	b = mem.Reallocate(200, b)
	require.Len(t, b, 200)
	require.Zero(t, uintptr(unsafe.Pointer(unsafe.SliceData(b)))%arrowAlignment)

	// Padding is skipped, not accounted
	require.Equal(t, uint64(3+7+200), a.Statistics().ActiveBytes)
}

func TestArrowAllocatorZeroLength(t *testing.T) {
	a, _ := newTestAllocator(t, 1024)
	mem := NewArrowAllocator(a)

	b := mem.Allocate(0)
	require.Len(t, b, 0)
	mem.Free(b)

	require.Equal(t, uint64(0), a.Statistics().TotalCount)
	require.Equal(t, uint64(0), a.Statistics().FailedCount)
}

func TestArrowAllocatorReallocate(t *testing.T) {
	a, _ := newTestAllocator(t, 64*1024, WithFill(0xFF))
	mem := NewArrowAllocator(a)

	b := mem.Allocate(4)
	copy(b, "arrw")

	b = mem.Reallocate(16, b)
	require.Len(t, b, 16)
	require.Equal(t, "arrw", string(b[:4]))
	require.Equal(t, make([]byte, 12), b[4:])
	require.Equal(t, 1, a.Live())

	b = mem.Reallocate(2, b)
	require.Equal(t, "ar", string(b))

	b = mem.Reallocate(0, b)
	require.Len(t, b, 0)
	require.Equal(t, 0, a.Live())

	b = mem.Reallocate(8, nil)
	require.Len(t, b, 8)
	require.Equal(t, 1, a.Live())
}

func TestArrowAllocatorPanicsWhenExhausted(t *testing.T) {
	a, _ := newTestAllocator(t, 64)
	mem := NewArrowAllocator(a)
	require.Panics(t, func() { mem.Allocate(65) })
}

func TestArrowAllocatorResizableBuffer(t *testing.T) {
	a, _ := newTestAllocator(t, 64*1024)
	mem := NewArrowAllocator(a)

	buf := memory.NewResizableBuffer(mem)
	buf.Resize(100)
	copy(buf.Bytes(), bytes.Repeat([]byte{7}, 100))
	buf.Resize(1000)
	require.Equal(t, byte(7), buf.Bytes()[99])
	require.Equal(t, 1, a.Live())

	// A released buffer leaves nothing behind
	buf.Release()
	require.Equal(t, 0, a.Live())

	out := &bytes.Buffer{}
	require.NoError(t, a.LeakReport(out))
	require.Empty(t, out.String())
}

func TestArrowAllocatorLeakedBuffer(t *testing.T) {
	a, _ := newTestAllocator(t, 64*1024)
	mem := NewArrowAllocator(a)

	buf := memory.NewResizableBuffer(mem)
	buf.Resize(10)

	out := &bytes.Buffer{}
	require.NoError(t, a.LeakReport(out))
	require.Contains(t, out.String(), "Leak Check: ")
	require.Contains(t, out.String(), "with size 64")
}
