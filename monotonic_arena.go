// SPDX-License-Identifier: Apache-2.0

package memdebug

import (
	"math"
	"os"
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// DefaultCapacity is the size of the region reserved by a monotonic arena
// when no capacity option is given.
const DefaultCapacity = 8 << 20 // 8 MiB

type monotonicArena struct {
	reserver Reserver
	buf      []byte
	ptr      unsafe.Pointer
	offset   uintptr
	size     uintptr
	released bool
	err      error // deferred configuration error, reported by Reserve
}

// NewMonotonicArena creates an arena over a single fixed region.
// The region is reserved lazily, on the first call to Reserve.
// If no options are provided, it reserves DefaultCapacity bytes from SystemReserver.
func NewMonotonicArena(opts ...MonotonicArenaOption) Arena {
	a := &monotonicArena{
		reserver: SystemReserver,
		size:     DefaultCapacity,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// MonotonicArenaOption represents a configuration option for a monotonic arena.
type MonotonicArenaOption func(*monotonicArena)

// WithCapacity sets the size of the arena's region in bytes.
func WithCapacity(size int) MonotonicArenaOption {
	return func(a *monotonicArena) {
		if size < 0 {
			a.err = errors.Errorf("memdebug: negative arena capacity %d", size)
			return
		}
		a.size = uintptr(size)
	}
}

// WithCapacityFromEnv reads the arena capacity from the environment variable
// name. Values may carry a unit, e.g. "16MiB" or "4 MB". An unset or empty
// variable keeps the current capacity.
func WithCapacityFromEnv(name string) MonotonicArenaOption {
	return func(a *monotonicArena) {
		value := os.Getenv(name)
		if value == "" {
			return
		}
		size, err := humanize.ParseBytes(value)
		if err != nil {
			a.err = errors.Wrapf(err, "memdebug: parse %s", name)
			return
		}
		if size > math.MaxInt {
			a.err = errors.Errorf("memdebug: %s: arena capacity %d too large", name, size)
			return
		}
		a.size = uintptr(size)
	}
}

// WithReserver sets where the arena's region comes from.
func WithReserver(r Reserver) MonotonicArenaOption {
	return func(a *monotonicArena) {
		if r != nil {
			a.reserver = r
		}
	}
}

func (a *monotonicArena) init() error {
	if a.err != nil {
		return a.err
	}
	buf, err := a.reserver.Reserve(int(a.size))
	if err != nil {
		return errors.Wrap(err, "memdebug: reserve arena region")
	}
	if uintptr(len(buf)) < a.size {
		return errors.Errorf("memdebug: reserver returned %d bytes, want %d", len(buf), a.size)
	}
	a.buf = buf
	a.ptr = unsafe.Pointer(unsafe.SliceData(buf))
	return nil
}

// Reserve satisfies the Arena interface.
func (a *monotonicArena) Reserve(n uintptr) (unsafe.Pointer, error) {
	return a.ReserveAligned(n, 1)
}

// ReserveAligned satisfies the Arena interface.
func (a *monotonicArena) ReserveAligned(n, align uintptr) (unsafe.Pointer, error) {
	if align == 0 || align&(align-1) != 0 {
		panic("memdebug: alignment must be a power of two")
	}
	if a.released {
		return nil, ErrArenaReleased
	}
	if a.buf == nil {
		if err := a.init(); err != nil {
			return nil, err
		}
	}
	// offset <= size always holds, so the subtraction cannot wrap.
	avail := a.size - a.offset
	pad := -(uintptr(a.ptr) + a.offset) & (align - 1)
	if pad > avail || n > avail-pad {
		return nil, errors.Wrapf(ErrOutOfSpace, "reserve %d bytes aligned to %d, %d available", n, align, avail)
	}
	ptr := unsafe.Add(a.ptr, a.offset+pad)
	a.offset += pad + n
	return ptr, nil
}

// Contains satisfies the Arena interface.
func (a *monotonicArena) Contains(ptr unsafe.Pointer) bool {
	if a.ptr == nil || ptr == nil {
		return false
	}
	base, addr := uintptr(a.ptr), uintptr(ptr)
	return addr >= base && addr < base+a.size
}

// Release satisfies the Arena interface. The region is given back exactly once;
// further calls are no-ops.
func (a *monotonicArena) Release() error {
	if a.released {
		return nil
	}
	a.released = true
	buf := a.buf
	a.buf, a.ptr = nil, nil
	if buf == nil {
		return nil
	}
	return errors.Wrap(a.reserver.Unreserve(buf), "memdebug: release arena region")
}

// Len returns the number of bytes handed out so far.
func (a *monotonicArena) Len() int {
	return int(a.offset)
}

// Cap returns the total capacity of the arena in bytes.
func (a *monotonicArena) Cap() int {
	return int(a.size)
}
