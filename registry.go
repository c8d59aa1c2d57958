// SPDX-License-Identifier: Apache-2.0

package memdebug

import (
	"iter"
	"unsafe"

	"github.com/pkg/errors"
)

// Record describes one live allocation.
type Record struct {
	Ptr  unsafe.Pointer
	Size uintptr
	File string
	Line int
}

// registry tracks live allocations by address. Iteration follows insertion
// order: order holds every inserted address tagged with its insertion
// sequence, and entries that no longer match a live record are skipped and
// compacted away once they dominate.
type registry struct {
	live  map[unsafe.Pointer]entry
	order []slot
	seq   uint64
	dead  int
}

type entry struct {
	rec Record
	seq uint64
}

type slot struct {
	ptr unsafe.Pointer
	seq uint64
}

const compactThreshold = 64

func newRegistry() *registry {
	return &registry{live: make(map[unsafe.Pointer]entry)}
}

func (r *registry) insert(rec Record) error {
	if _, ok := r.live[rec.Ptr]; ok {
		return errors.Wrapf(ErrDuplicateRecord, "%p", rec.Ptr)
	}
	r.seq++
	r.live[rec.Ptr] = entry{rec: rec, seq: r.seq}
	r.order = append(r.order, slot{ptr: rec.Ptr, seq: r.seq})
	return nil
}

func (r *registry) find(ptr unsafe.Pointer) (Record, bool) {
	e, ok := r.live[ptr]
	return e.rec, ok
}

func (r *registry) findAndRemove(ptr unsafe.Pointer) (Record, bool) {
	e, ok := r.live[ptr]
	if !ok {
		return Record{}, false
	}
	delete(r.live, ptr)
	r.dead++
	if r.dead > compactThreshold && r.dead > len(r.live) {
		r.compact()
	}
	return e.rec, true
}

func (r *registry) current(s slot) (Record, bool) {
	e, ok := r.live[s.ptr]
	if !ok || e.seq != s.seq {
		return Record{}, false
	}
	return e.rec, true
}

// compact drops released slots from order. It builds a fresh slice so an
// iteration already ranging over the old one is not disturbed.
func (r *registry) compact() {
	order := make([]slot, 0, len(r.live))
	for _, s := range r.order {
		if _, ok := r.current(s); ok {
			order = append(order, s)
		}
	}
	r.order = order
	r.dead = 0
}

func (r *registry) len() int {
	return len(r.live)
}

func (r *registry) all() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, s := range r.order {
			rec, ok := r.current(s)
			if !ok {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

func (r *registry) snapshot() []Record {
	recs := make([]Record, 0, len(r.live))
	for rec := range r.all() {
		recs = append(recs, rec)
	}
	return recs
}
