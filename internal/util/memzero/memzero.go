// Package memzero wipes key material held in byte slices.
package memzero

import "runtime"

// Zero overwrites b with zeros. The write is kept even when b is never read
// again.
func Zero(b []byte) {
	clear(b)
	runtime.KeepAlive(b)
}
