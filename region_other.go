// SPDX-License-Identifier: Apache-2.0

//go:build !unix && !windows

package memdebug

type systemReserver struct {
	heapReserver
}
