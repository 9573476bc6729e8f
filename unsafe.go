package slabpool

import "unsafe"

// sliceDataPointer returns the address of b's backing array. Used only
// for Allocation.Address(); never for arithmetic on the returned value.
func sliceDataPointer(b []byte) unsafe.Pointer {
	return unsafe.Pointer(&b[0])
}
