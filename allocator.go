// SPDX-License-Identifier: Apache-2.0

package memdebug

import (
	"fmt"
	"io"
	"log/slog"
	"math/bits"
	"os"
	"unsafe"

	"github.com/pkg/errors"
)

// Allocator services allocations from an Arena and keeps a record of every
// live allocation together with the file and line that requested it.
//
// Allocator is not safe for concurrent use; wrap it with
// NewConcurrentAllocator when several goroutines share it.
type Allocator struct {
	arena   Arena
	records *registry
	stats   Statistics

	diag    io.Writer
	logger  *slog.Logger
	fill    byte
	fillSet bool
}

// Option represents a configuration option for an Allocator.
type Option func(*Allocator)

// WithDiagnostics sets where invalid-free diagnostics are written.
// The default is os.Stderr.
func WithDiagnostics(w io.Writer) Option {
	return func(a *Allocator) {
		if w != nil {
			a.diag = w
		}
	}
}

// WithLogger sets the structured logger. By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Allocator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithFill makes Allocate write b into every byte of a fresh allocation,
// so reads of uninitialized memory stand out.
func WithFill(b byte) Option {
	return func(a *Allocator) {
		a.fill, a.fillSet = b, true
	}
}

// NewAllocator creates an allocator serving requests from arena.
// The allocator owns the arena from here on; Close releases it.
func NewAllocator(arena Arena, opts ...Option) *Allocator {
	a := &Allocator{
		arena:   arena,
		records: newRegistry(),
		diag:    os.Stderr,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate returns a pointer to size bytes of uninitialized memory, recording
// file and line as the allocation site. Zero-sized requests and requests the
// arena cannot satisfy fail with a nil pointer and are counted as failures.
func (a *Allocator) Allocate(size uintptr, file string, line int) (unsafe.Pointer, error) {
	return a.allocate(size, 1, file, line)
}

// allocate is Allocate with the start address aligned to align, which must
// be a power of two. Padding skipped to reach alignment is not accounted.
func (a *Allocator) allocate(size, align uintptr, file string, line int) (unsafe.Pointer, error) {
	if size == 0 {
		a.stats.failed(size)
		a.logger.Warn("allocation failed", "file", file, "line", line, "size", size, "error", ErrZeroSize)
		return nil, ErrZeroSize
	}
	ptr, err := a.arena.ReserveAligned(size, align)
	if err != nil {
		a.stats.failed(size)
		a.logger.Warn("allocation failed", "file", file, "line", line, "size", size, "error", err)
		return nil, err
	}
	if err := a.records.insert(Record{Ptr: ptr, Size: size, File: file, Line: line}); err != nil {
		// The arena never hands out the same address twice.
		panic(err)
	}
	a.stats.allocated(ptr, size)
	if a.fillSet {
		b := unsafe.Slice((*byte)(ptr), size)
		for i := range b {
			b[i] = a.fill
		}
	}
	a.logger.Debug("allocated", "file", file, "line", line, "size", size, "ptr", ptr)
	return ptr, nil
}

// AllocateZeroed returns a pointer to count*size zeroed bytes.
//
// When count*size overflows the request fails with ErrOverflow. The failure
// is accounted with the wrapped product, which is what the reference
// allocator did; the resulting FailedBytes value carries no real meaning.
func (a *Allocator) AllocateZeroed(count, size uintptr, file string, line int) (unsafe.Pointer, error) {
	return a.allocateZeroed(count, size, 1, file, line)
}

func (a *Allocator) allocateZeroed(count, size, align uintptr, file string, line int) (unsafe.Pointer, error) {
	hi, total := bits.Mul(uint(count), uint(size))
	if hi != 0 {
		a.stats.failed(uintptr(total))
		err := errors.Wrapf(ErrOverflow, "%d * %d", count, size)
		a.logger.Warn("allocation failed", "file", file, "line", line, "count", count, "size", size, "error", err)
		return nil, err
	}
	ptr, err := a.allocate(uintptr(total), align, file, line)
	if err != nil {
		return nil, err
	}
	clear(unsafe.Slice((*byte)(ptr), total))
	return ptr, nil
}

// Reallocate resizes the allocation at ptr to size bytes. A nil ptr behaves
// like Allocate and a zero size like Release. Otherwise a fresh block is
// allocated, the common prefix copied over, and the old block released. When
// the fresh allocation fails the old block is left untouched and stays live.
func (a *Allocator) Reallocate(ptr unsafe.Pointer, size uintptr, file string, line int) (unsafe.Pointer, error) {
	return a.reallocate(ptr, size, 1, file, line)
}

func (a *Allocator) reallocate(ptr unsafe.Pointer, size, align uintptr, file string, line int) (unsafe.Pointer, error) {
	if ptr == nil {
		return a.allocate(size, align, file, line)
	}
	if size == 0 {
		return nil, a.Release(ptr, file, line)
	}
	old, ok := a.records.find(ptr)
	if !ok {
		return nil, a.invalidFree(ptr, file, line)
	}
	fresh, err := a.allocate(size, align, file, line)
	if err != nil {
		return nil, err
	}
	copy(unsafe.Slice((*byte)(fresh), size), unsafe.Slice((*byte)(ptr), old.Size))
	a.records.findAndRemove(ptr)
	a.stats.released(old.Size)
	return fresh, nil
}

// Release frees the allocation at ptr. Releasing nil does nothing.
// Releasing an address that is not live writes a diagnostic naming the call
// site and returns ErrInvalidFree; the allocator's state is unchanged.
func (a *Allocator) Release(ptr unsafe.Pointer, file string, line int) error {
	if ptr == nil {
		return nil
	}
	rec, ok := a.records.findAndRemove(ptr)
	if !ok {
		return a.invalidFree(ptr, file, line)
	}
	a.stats.released(rec.Size)
	a.logger.Debug("released", "file", file, "line", line, "size", rec.Size, "ptr", ptr)
	return nil
}

func (a *Allocator) invalidFree(ptr unsafe.Pointer, file string, line int) error {
	file = siteFile(file)
	fmt.Fprintf(a.diag, "Invalid free or double free at %s:%d for pointer %p\n", file, line, ptr)
	a.logger.Error("invalid free", "file", file, "line", line, "ptr", ptr, "in_arena", a.arena.Contains(ptr))
	return errors.Wrapf(ErrInvalidFree, "%s:%d: pointer %p", file, line, ptr)
}

// Close releases the arena. Allocations fail afterwards; the records of
// allocations still live remain available for leak reporting.
func (a *Allocator) Close() error {
	return a.arena.Release()
}

func siteFile(file string) string {
	if file == "" {
		return "???"
	}
	return file
}
