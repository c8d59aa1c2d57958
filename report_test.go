// SPDX-License-Identifier: Apache-2.0

package memdebug

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLeakReport(t *testing.T) {
	a, _ := newTestAllocator(t, 1024)

	freed, err := a.Allocate(10, "alpha.c", 12)
	require.NoError(t, err)
	leaked, err := a.Allocate(20, "beta.c", 34)
	require.NoError(t, err)
	require.NoError(t, a.Release(freed, "alpha.c", 13))

	out := &bytes.Buffer{}
	require.NoError(t, a.LeakReport(out))
	want := fmt.Sprintf("Leak Check: beta.c:34: allocated object %p with size 20\n", leaked)
	require.Equal(t, want, out.String())
}

func TestLeakReportEmpty(t *testing.T) {
	a, _ := newTestAllocator(t, 1024)
	out := &bytes.Buffer{}
	require.NoError(t, a.LeakReport(out))
	require.Empty(t, out.String())

	ptr, err := a.Allocate(10, "alpha.c", 1)
	require.NoError(t, err)
	require.NoError(t, a.Release(ptr, "alpha.c", 2))
	require.NoError(t, a.LeakReport(out))
	require.Empty(t, out.String())
}

func TestLeakReportOrderAndUnknownFile(t *testing.T) {
	a, _ := newTestAllocator(t, 1024)
	for i := 1; i <= 3; i++ {
		_, err := a.Allocate(uintptr(i), "", i)
		require.NoError(t, err)
	}

	out := &bytes.Buffer{}
	require.NoError(t, a.LeakReport(out))
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	for i, line := range lines {
		require.True(t, strings.HasPrefix(line, fmt.Sprintf("Leak Check: ???:%d: allocated object 0x", i+1)), line)
		require.True(t, strings.HasSuffix(line, fmt.Sprintf("with size %d", i+1)), line)
	}
}

func TestLeakReportReadOnly(t *testing.T) {
	a, _ := newTestAllocator(t, 1024)
	_, err := a.Allocate(10, "alpha.c", 1)
	require.NoError(t, err)

	before := a.Statistics()
	require.NoError(t, a.LeakReport(&bytes.Buffer{}))
	require.NoError(t, a.LeakReport(&bytes.Buffer{}))
	require.Equal(t, before, a.Statistics())
	require.Equal(t, 1, a.Live())
}

func TestStatisticsSnapshotIsCopy(t *testing.T) {
	a, _ := newTestAllocator(t, 1024)
	snap := a.Statistics()
	_, err := a.Allocate(10, "alpha.c", 1)
	require.NoError(t, err)
	require.Equal(t, uint64(0), snap.ActiveCount)
	require.Equal(t, uint64(1), a.Statistics().ActiveCount)
}

func TestPrintStatistics(t *testing.T) {
	a, _ := newTestAllocator(t, 1024)
	ptr, err := a.Allocate(100, "alpha.c", 1)
	require.NoError(t, err)
	_, err = a.Allocate(50, "alpha.c", 2)
	require.NoError(t, err)
	_, err = a.Allocate(4096, "alpha.c", 3)
	require.Error(t, err)
	require.NoError(t, a.Release(ptr, "alpha.c", 4))

	out := &bytes.Buffer{}
	require.NoError(t, a.PrintStatistics(out))
	require.Equal(t,
		"alloc count: active          1   total          2   fail          1\n"+
			"alloc size:  active         50   total        150   fail       4096\n",
		out.String())
}

func TestStatisticsString(t *testing.T) {
	s := Statistics{
		ActiveCount: 1, ActiveBytes: 2048,
		TotalCount: 3, TotalBytes: 3 << 20,
		FailedCount: 1, FailedBytes: 10,
	}
	require.Equal(t, "active 1 (2.0 KiB), total 3 (3.0 MiB), failed 1 (10 B)", s.String())
}
