package slabpool

import (
	"sync/atomic"

	"github.com/kesh-labs/slabpool/internal/slabstore"
)

// Allocation is an owning handle to a single contiguous byte range. It
// remembers whether the range was carved from a slab or obtained
// directly from the process allocator, and releases the underlying
// memory exactly once.
//
// Go has no destructors, so unlike the Rust type this is modelled on,
// releasing an Allocation is an explicit call (Release) rather than
// something that happens implicitly when the value goes out of scope.
// Release is safe to call from any goroutine and is a no-op on every
// call after the first.
type Allocation struct {
	data []byte

	// allocator is nil when this Allocation was built by a Buffer with
	// no Allocator of its own; Release skips stats bookkeeping in that
	// case since there is nothing to report them to.
	allocator *Allocator

	// slabOffset/slab are only meaningful when slab is non-nil.
	slab       slabstore.Slab
	slabOffset uintptr

	released atomic.Bool
}

func newSlabAllocation(allocator *Allocator, slab slabstore.Slab, offset, length uintptr) *Allocation {
	return &Allocation{
		data:       slab.Bytes(offset, length),
		allocator:  allocator,
		slab:       slab,
		slabOffset: offset,
	}
}

func newGlobalAllocation(allocator *Allocator, length int) *Allocation {
	return &Allocation{
		data:      make([]byte, length),
		allocator: allocator,
	}
}

// Address returns the address of the first byte of this allocation.
// Callers should prefer Bytes/MutableBytes for actually reading or
// writing the memory; Address exists for parity with the allocator this
// package is modelled on and for diagnostics.
func (a *Allocation) Address() uintptr {
	if len(a.data) == 0 {
		return 0
	}
	return uintptr(sliceDataPointer(a.data))
}

// Len returns the length, in bytes, of this allocation.
func (a *Allocation) Len() int {
	return len(a.data)
}

// Bytes returns an immutable view of this allocation's memory.
//
// Slab-backed allocations are guaranteed zero-initialized only the
// first time a given stripe range is handed out; a stripe range reused
// after a Release is not re-zeroed. Process-backed allocations are
// always zero-initialized.
func (a *Allocation) Bytes() []byte {
	return a.data
}

// MutableBytes returns an exclusive, mutable view of this allocation's
// memory. Callers are responsible for not sharing the returned slice
// across goroutines without their own synchronization.
func (a *Allocation) MutableBytes() []byte {
	return a.data
}

// IsSlabBacked reports whether this allocation was carved from a slab,
// as opposed to served directly by the process allocator.
func (a *Allocation) IsSlabBacked() bool {
	return !a.slab.IsNil()
}

// Release returns this allocation's memory to its source: the owning
// slab's free-span list, or the process allocator. It is idempotent -
// calling it more than once has no effect after the first call
// succeeds.
func (a *Allocation) Release() {
	if !a.released.CompareAndSwap(false, true) {
		return
	}

	if a.allocator != nil {
		a.allocator.liveAllocations.Add(-1)
	}

	if a.slab.IsNil() {
		if a.allocator != nil {
			a.allocator.fallbackLiveBytes.Add(-int64(len(a.data)))
		}
		a.data = nil
		return
	}

	a.slab.Free(a.slabOffset, uintptr(len(a.data)))
	a.slab.Release()
	a.data = nil
}
