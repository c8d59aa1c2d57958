// SPDX-License-Identifier: Apache-2.0

package memdebug

import (
	"fmt"
	"io"
	"unsafe"

	"github.com/dustin/go-humanize"
)

// Statistics is a snapshot of an allocator's counters.
type Statistics struct {
	ActiveCount uint64 // allocations currently live
	ActiveBytes uint64 // bytes in live allocations
	TotalCount  uint64 // successful allocations, ever
	TotalBytes  uint64 // bytes in successful allocations, ever
	FailedCount uint64 // failed allocation requests
	FailedBytes uint64 // bytes requested by failed allocations

	// HeapMin and HeapMax bound every byte ever handed out.
	// Both are zero until the first successful allocation.
	HeapMin uintptr
	HeapMax uintptr
}

func (s *Statistics) allocated(ptr unsafe.Pointer, size uintptr) {
	s.ActiveCount++
	s.ActiveBytes += uint64(size)
	s.TotalCount++
	s.TotalBytes += uint64(size)

	lo := uintptr(ptr)
	hi := lo + size - 1
	if s.HeapMin == 0 || lo < s.HeapMin {
		s.HeapMin = lo
	}
	if hi > s.HeapMax {
		s.HeapMax = hi
	}
}

func (s *Statistics) released(size uintptr) {
	s.ActiveCount--
	s.ActiveBytes -= uint64(size)
}

func (s *Statistics) failed(size uintptr) {
	s.FailedCount++
	s.FailedBytes += uint64(size)
}

// String returns a one-line, human readable summary.
func (s Statistics) String() string {
	return fmt.Sprintf("active %d (%s), total %d (%s), failed %d (%s)",
		s.ActiveCount, humanize.IBytes(s.ActiveBytes),
		s.TotalCount, humanize.IBytes(s.TotalBytes),
		s.FailedCount, humanize.IBytes(s.FailedBytes))
}

// Print writes the counters as two fixed-width lines.
func (s Statistics) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"alloc count: active %10d   total %10d   fail %10d\n"+
			"alloc size:  active %10d   total %10d   fail %10d\n",
		s.ActiveCount, s.TotalCount, s.FailedCount,
		s.ActiveBytes, s.TotalBytes, s.FailedBytes)
	return err
}
