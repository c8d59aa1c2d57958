// SPDX-License-Identifier: Apache-2.0

//go:build unix

package memdebug

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

type systemReserver struct{}

func (systemReserver) Reserve(size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	b, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrapf(err, "mmap %d bytes", size)
	}
	return b, nil
}

func (systemReserver) Unreserve(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return errors.Wrap(unix.Munmap(b), "munmap")
}
