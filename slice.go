// SPDX-License-Identifier: Apache-2.0

package memdebug

import (
	"math/bits"
	"unsafe"

	"github.com/pkg/errors"
)

const growThreshold = 256

// AllocateSlice creates a zeroed slice of type T with a given length and
// capacity whose backing array is allocated, and tracked, by a.
// If a is nil, or the slice needs no memory, it returns a slice from make.
//
// The garbage collector does not scan allocator memory, so T must not
// contain Go pointers.
func AllocateSlice[T any](a *Allocator, len, cap int) ([]T, error) {
	file, line := callSite(0)
	return allocateSlice[T](a, len, cap, file, line)
}

// SliceAppend appends data to s, growing the backing array through a when
// it is too small. A backing array tracked by a is reallocated, anything
// else is copied into a fresh allocation. On failure s is returned unchanged
// together with the error.
func SliceAppend[T any](a *Allocator, s []T, data ...T) ([]T, error) {
	file, line := callSite(0)
	return sliceAppend(a, s, file, line, data...)
}

// FreeSlice releases the backing array of a slice returned by
// AllocateSlice or SliceAppend.
func FreeSlice[T any](a *Allocator, s []T) error {
	if a == nil || cap(s) == 0 {
		return nil
	}
	file, line := callSite(0)
	return a.Release(unsafe.Pointer(unsafe.SliceData(s)), file, line)
}

func allocateSlice[T any](a *Allocator, len, cap int, file string, line int) ([]T, error) {
	if len < 0 || len > cap {
		panic("memdebug: slice len out of range")
	}
	var x T
	if a == nil || cap == 0 || unsafe.Sizeof(x) == 0 {
		return make([]T, len, cap), nil
	}
	ptr, err := a.allocateZeroed(uintptr(cap), unsafe.Sizeof(x), unsafe.Alignof(x), file, line)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*T)(ptr), cap)[:len], nil
}

func sliceAppend[T any](a *Allocator, s []T, file string, line int, data ...T) ([]T, error) {
	var x T
	newLen := len(s) + len(data)
	if a == nil || newLen <= cap(s) || unsafe.Sizeof(x) == 0 {
		return append(s, data...), nil
	}
	newCap := growCap(cap(s), newLen)
	hi, size := bits.Mul(uint(newCap), uint(unsafe.Sizeof(x)))
	if hi != 0 {
		return s, errors.Wrapf(ErrOverflow, "grow slice to %d elements", newCap)
	}

	old := unsafe.Pointer(unsafe.SliceData(s))
	var ptr unsafe.Pointer
	var err error
	if _, tracked := a.records.find(old); tracked {
		ptr, err = a.reallocate(old, uintptr(size), unsafe.Alignof(x), file, line)
	} else {
		ptr, err = a.allocate(uintptr(size), unsafe.Alignof(x), file, line)
		if err == nil {
			copy(unsafe.Slice((*T)(ptr), newCap), s)
		}
	}
	if err != nil {
		return s, err
	}
	grown := unsafe.Slice((*T)(ptr), newCap)[:len(s)]
	return append(grown, data...), nil
}

func growCap(oldCap, newLen int) int {
	if oldCap == 0 {
		return newLen
	}
	newCap := oldCap
	for newLen > newCap {
		if newCap < growThreshold {
			newCap *= 2
		} else {
			newCap += newCap / 4
		}
	}
	return newCap
}
