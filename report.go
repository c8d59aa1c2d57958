// SPDX-License-Identifier: Apache-2.0

package memdebug

import (
	"fmt"
	"io"
	"iter"
)

// Statistics returns a copy of the allocator's counters.
func (a *Allocator) Statistics() Statistics {
	return a.stats
}

// PrintStatistics writes the allocator's counters to w.
func (a *Allocator) PrintStatistics(w io.Writer) error {
	return a.stats.Print(w)
}

// Leaks yields every live allocation in the order it was made.
// The allocator must not be modified while the sequence is being consumed.
func (a *Allocator) Leaks() iter.Seq[Record] {
	return a.records.all()
}

// Live returns the number of live allocations.
func (a *Allocator) Live() int {
	return a.records.len()
}

// LeakReport writes one line per live allocation to w. Nothing is written
// when no allocation is live.
func (a *Allocator) LeakReport(w io.Writer) error {
	return writeLeaks(w, a.records.all())
}

func writeLeaks(w io.Writer, leaks iter.Seq[Record]) error {
	for rec := range leaks {
		if _, err := fmt.Fprintf(w, "Leak Check: %s:%d: allocated object %p with size %d\n",
			siteFile(rec.File), rec.Line, rec.Ptr, rec.Size); err != nil {
			return err
		}
	}
	return nil
}
