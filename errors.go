// SPDX-License-Identifier: Apache-2.0

package memdebug

import (
	"github.com/pkg/errors"
)

var (
	// ErrOutOfSpace is returned when the arena cannot satisfy a request.
	ErrOutOfSpace = errors.New("memdebug: arena out of space")

	// ErrZeroSize is returned for zero-byte allocation requests.
	ErrZeroSize = errors.New("memdebug: zero-sized allocation")

	// ErrOverflow is returned when count*size does not fit in a uintptr.
	ErrOverflow = errors.New("memdebug: allocation size overflows")

	// ErrInvalidFree is returned when releasing an address that is not live.
	ErrInvalidFree = errors.New("memdebug: invalid free or double free")

	// ErrArenaReleased is returned when reserving from a released arena.
	ErrArenaReleased = errors.New("memdebug: arena released")

	// ErrDuplicateRecord means the registry already tracks an address.
	ErrDuplicateRecord = errors.New("memdebug: address already registered")
)
