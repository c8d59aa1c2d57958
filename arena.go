// SPDX-License-Identifier: Apache-2.0

// Package memdebug is a diagnostic allocator. It hands out memory from a
// single pre-reserved arena and remembers where every live allocation came
// from, so invalid or double frees are reported at the offending call site
// and anything still live can be listed as a leak.
//
// Freed space is never reused: every address is unique for the lifetime of
// the arena.
package memdebug

import (
	"unsafe"
)

// Arena is an interface that describes a bump-allocated memory region.
type Arena interface {
	// Reserve carves n bytes off the end of the arena and returns a pointer to them.
	// It fails with ErrOutOfSpace, leaving the arena untouched, when fewer than n bytes remain.
	Reserve(n uintptr) (unsafe.Pointer, error)

	// ReserveAligned is Reserve with the returned address rounded up to a
	// multiple of align, which must be a power of two. The skipped bytes are
	// consumed and count towards Len.
	ReserveAligned(n, align uintptr) (unsafe.Pointer, error)

	// Contains reports whether ptr points into the arena's region.
	Contains(ptr unsafe.Pointer) bool

	// Release gives the arena's region back to the system.
	// After invoking this method, every Reserve call fails with ErrArenaReleased.
	Release() error

	// Len returns the number of bytes handed out so far.
	Len() int

	// Cap returns the total capacity of the arena in bytes.
	Cap() int
}
