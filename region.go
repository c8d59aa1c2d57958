// SPDX-License-Identifier: Apache-2.0

package memdebug

import (
	"github.com/pkg/errors"
)

// Reserver supplies the one contiguous, writable region an arena carves
// allocations from, and takes it back at teardown.
type Reserver interface {
	// Reserve returns a read/write region of exactly size bytes.
	// The content of the region is unspecified.
	Reserve(size int) ([]byte, error)

	// Unreserve gives back a region previously returned by Reserve.
	Unreserve(b []byte) error
}

// SystemReserver reserves regions straight from the operating system
// (mmap on unix, VirtualAlloc on windows). On platforms without either it
// behaves like HeapReserver.
var SystemReserver Reserver = systemReserver{}

// HeapReserver backs regions with Go heap memory. The region stays alive for
// as long as the arena holding it is reachable.
var HeapReserver Reserver = heapReserver{}

type heapReserver struct{}

func (heapReserver) Reserve(size int) ([]byte, error) {
	if size < 0 {
		return nil, errors.Errorf("memdebug: negative region size %d", size)
	}
	return make([]byte, size), nil
}

func (heapReserver) Unreserve([]byte) error {
	return nil
}
