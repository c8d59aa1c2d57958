// SPDX-License-Identifier: Apache-2.0

package memdebug

import (
	"runtime"
	"unsafe"
)

// callSite returns the file and line of the function skip frames above its caller.
func callSite(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip + 2)
	if !ok {
		return "", 0
	}
	return file, line
}

// Malloc is Allocate with the caller as allocation site. It returns nil on failure.
func (a *Allocator) Malloc(size uintptr) unsafe.Pointer {
	file, line := callSite(0)
	ptr, _ := a.Allocate(size, file, line)
	return ptr
}

// Calloc is AllocateZeroed with the caller as allocation site. It returns nil on failure.
func (a *Allocator) Calloc(count, size uintptr) unsafe.Pointer {
	file, line := callSite(0)
	ptr, _ := a.AllocateZeroed(count, size, file, line)
	return ptr
}

// Realloc is Reallocate with the caller as allocation site. It returns nil on failure.
func (a *Allocator) Realloc(ptr unsafe.Pointer, size uintptr) unsafe.Pointer {
	file, line := callSite(0)
	fresh, _ := a.Reallocate(ptr, size, file, line)
	return fresh
}

// Free is Release with the caller as call site.
func (a *Allocator) Free(ptr unsafe.Pointer) {
	file, line := callSite(0)
	_ = a.Release(ptr, file, line)
}
