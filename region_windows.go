// SPDX-License-Identifier: Apache-2.0

//go:build windows

package memdebug

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

type systemReserver struct{}

func (systemReserver) Reserve(size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	addr, err := windows.VirtualAlloc(0, uintptr(size),
		windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, errors.Wrapf(err, "VirtualAlloc %d bytes", size)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), nil
}

func (systemReserver) Unreserve(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	return errors.Wrap(windows.VirtualFree(addr, 0, windows.MEM_RELEASE), "VirtualFree")
}
