// SPDX-License-Identifier: Apache-2.0

package memdebug

import (
	"io"
	"unsafe"
)

const readBufferSize = 4 * 1024 // 4KB read buffer

// Buffer is a bytes.Buffer-like struct whose storage is allocated, and
// tracked, by an Allocator. Every allocation it makes is attributed to the
// NewBuffer call site, so a Buffer that is never freed shows up in the leak
// report there. A nil allocator falls back to standard Go allocation.
type Buffer struct {
	alloc   *Allocator
	file    string
	line    int
	buf     []byte // unread data is buf[:len(buf)]
	readBuf []byte // intermediate buffer for ReadFrom
}

// NewBuffer creates a new Buffer backed by the given allocator.
func NewBuffer(a *Allocator) *Buffer {
	file, line := callSite(0)
	return &Buffer{alloc: a, file: file, line: line}
}

// Write implements io.Writer interface.
// It writes len(p) bytes from p to the buffer.
func (b *Buffer) Write(p []byte) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	buf, err := sliceAppend(b.alloc, b.buf, b.file, b.line, p...)
	if err != nil {
		return 0, err
	}
	b.buf = buf
	return len(p), nil
}

// WriteByte writes a single byte to the buffer.
func (b *Buffer) WriteByte(c byte) error {
	buf, err := sliceAppend(b.alloc, b.buf, b.file, b.line, c)
	if err != nil {
		return err
	}
	b.buf = buf
	return nil
}

// WriteString writes a string to the buffer.
func (b *Buffer) WriteString(s string) (n int, err error) {
	if len(s) == 0 {
		return 0, nil
	}
	return b.Write(unsafe.Slice(unsafe.StringData(s), len(s)))
}

// WriteTo implements io.WriterTo. Written bytes are removed from the buffer.
func (b *Buffer) WriteTo(w io.Writer) (n int64, err error) {
	if len(b.buf) == 0 {
		return 0, nil
	}
	m, err := w.Write(b.buf)
	if m > 0 {
		n = int64(m)
		b.discard(m)
	}
	return n, err
}

// Read reads up to len(p) bytes from the buffer into p.
func (b *Buffer) Read(p []byte) (n int, err error) {
	if len(b.buf) == 0 {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n = copy(p, b.buf)
	b.discard(n)
	return n, nil
}

// ReadByte reads and returns the next byte from the buffer.
func (b *Buffer) ReadByte() (byte, error) {
	if len(b.buf) == 0 {
		return 0, io.EOF
	}
	c := b.buf[0]
	b.discard(1)
	return c, nil
}

// ReadFrom implements io.ReaderFrom interface.
// It reads data from r until EOF or error, writing it to the buffer.
// The intermediate read buffer is allocated through the buffer's allocator.
func (b *Buffer) ReadFrom(r io.Reader) (n int64, err error) {
	if b.readBuf == nil {
		readBuf, err := allocateSlice[byte](b.alloc, readBufferSize, readBufferSize, b.file, b.line)
		if err != nil {
			return 0, err
		}
		b.readBuf = readBuf
	}
	for {
		nr, er := r.Read(b.readBuf)
		if nr > 0 {
			if _, ew := b.Write(b.readBuf[:nr]); ew != nil {
				return n, ew
			}
			n += int64(nr)
		}
		if er == io.EOF {
			return n, nil
		}
		if er != nil {
			return n, er
		}
	}
}

// Bytes returns a slice of length b.Len() holding the unread portion of the buffer.
// The slice is valid for use only until the next buffer modification.
func (b *Buffer) Bytes() []byte {
	if len(b.buf) == 0 {
		return []byte{}
	}
	return b.buf
}

// String returns the contents of the unread portion of the buffer as a string.
func (b *Buffer) String() string {
	return string(b.buf)
}

// Len returns the number of bytes of the unread portion of the buffer.
func (b *Buffer) Len() int {
	return len(b.buf)
}

// Cap returns the capacity of the buffer's underlying byte slice.
func (b *Buffer) Cap() int {
	return cap(b.buf)
}

// Reset empties the buffer but keeps its storage.
func (b *Buffer) Reset() {
	b.buf = b.buf[:0]
}

// Truncate discards all but the first n unread bytes from the buffer.
// It panics if n is negative or greater than the length of the buffer.
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > len(b.buf) {
		panic("memdebug: truncation out of range")
	}
	b.buf = b.buf[:n]
}

// Free releases the buffer's storage. The buffer is empty and usable afterwards.
func (b *Buffer) Free() error {
	var err error
	if b.alloc != nil {
		if cap(b.buf) > 0 {
			err = b.alloc.Release(unsafe.Pointer(unsafe.SliceData(b.buf)), b.file, b.line)
		}
		if cap(b.readBuf) > 0 {
			if rerr := b.alloc.Release(unsafe.Pointer(unsafe.SliceData(b.readBuf)), b.file, b.line); err == nil {
				err = rerr
			}
		}
	}
	b.buf, b.readBuf = nil, nil
	return err
}

func (b *Buffer) discard(n int) {
	copy(b.buf, b.buf[n:])
	b.buf = b.buf[:len(b.buf)-n]
}
