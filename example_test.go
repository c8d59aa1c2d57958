// SPDX-License-Identifier: Apache-2.0

package memdebug_test

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"github.com/wundergraph/go-memdebug"
)

func Example() {
	arena := memdebug.NewMonotonicArena(memdebug.WithCapacity(1 << 20))
	alloc := memdebug.NewAllocator(arena, memdebug.WithDiagnostics(os.Stdout))
	defer alloc.Close()

	kept, _ := alloc.Allocate(24, "example.c", 10)
	freed, _ := alloc.Allocate(8, "example.c", 11)
	_ = alloc.Release(freed, "example.c", 12)

	_ = alloc.PrintStatistics(os.Stdout)
	for rec := range alloc.Leaks() {
		fmt.Printf("leak: %s:%d size %d\n", rec.File, rec.Line, rec.Size)
	}
	_ = alloc.Release(kept, "example.c", 13)
	fmt.Println(alloc.Statistics())

	// Output:
	// alloc count: active          1   total          2   fail          0
	// alloc size:  active         24   total         32   fail          0
	// leak: example.c:10 size 24
	// active 0 (0 B), total 2 (32 B), failed 0 (0 B)
}

func ExampleAllocator_AllocateZeroed() {
	alloc := memdebug.NewAllocator(memdebug.NewMonotonicArena(memdebug.WithReserver(memdebug.HeapReserver)))
	defer alloc.Close()

	ptr, err := alloc.AllocateZeroed(3, 8, "example.c", 20)
	fmt.Println(err, unsafe.Slice((*byte)(ptr), 24)[23])

	_, err = alloc.AllocateZeroed(^uintptr(0), 2, "example.c", 21)
	fmt.Println(errors.Is(err, memdebug.ErrOverflow))

	// Output:
	// <nil> 0
	// true
}

func ExampleConcurrentAllocator() {
	alloc := memdebug.NewConcurrentAllocator(
		memdebug.NewAllocator(memdebug.NewMonotonicArena(memdebug.WithCapacity(4096))))
	defer alloc.Close()

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			ptr, _ := alloc.Allocate(16, "worker.c", 1)
			_ = alloc.Release(ptr, "worker.c", 2)
			done <- struct{}{}
		}()
	}
	for i := 0; i < 4; i++ {
		<-done
	}
	s := alloc.Statistics()
	fmt.Println(s.TotalCount, s.ActiveCount)

	// Output:
	// 4 0
}
