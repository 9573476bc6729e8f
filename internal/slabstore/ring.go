// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package slabstore

import "sync"

// RingConfig carries the immutable sizing knobs a SlabRing needs. It
// mirrors AllocConfig in offheap/internal/pointerstore, but for
// stripe-based slabs rather than fixed-size object slots.
type RingConfig struct {
	StripeSize          uintptr
	MaximumFastPathSize uintptr
	SlabSize            int
	MemoryCap           int64 // <= 0 means unlimited
}

// SlabRing is a shared, growable collection of Slabs plus a rotating
// start cursor. It routes allocation requests to whichever slab can
// serve them fastest, creating new slabs on demand up to the configured
// memory cap.
//
// Allocating to an existing slab only needs a read lock on the slab
// list; adding a new slab requires the write lock. This mirrors the
// locking discipline in offheap/internal/pointerstore.Store between
// allocFromOffset's read-locked fast path and growObjects's write lock.
type SlabRing struct {
	conf RingConfig

	listLock sync.RWMutex
	slabs    []Slab

	cursor cursor
}

// NewSlabRing constructs an empty ring. No slabs are created until the
// first allocation demands one.
func NewSlabRing(conf RingConfig) *SlabRing {
	return &SlabRing{conf: conf}
}

// Allocate attempts to serve a request for length bytes from this ring.
// It returns ok=false if length is at or above the fast-path ceiling, if
// length needs more stripes than a single slab holds, or if the memory
// cap has been reached and no existing slab can serve the request - in
// every case the caller is expected to fall back to the process
// allocator. The returned Slab does not carry an extra
// reference on top of what the ring itself already holds; a caller that
// keeps the Slab alongside the allocation (as Allocation does) must call
// Retain on it first.
func (r *SlabRing) Allocate(length int) (slab Slab, offset uintptr, allocatedLength uintptr, ok bool) {
	if uintptr(length) >= r.conf.MaximumFastPathSize {
		return Slab{}, 0, 0, false
	}

	stripesNeeded := (uintptr(length) + r.conf.StripeSize - 1) / r.conf.StripeSize
	if stripesNeeded > uintptr(r.conf.SlabSize)/r.conf.StripeSize {
		// Not even an empty slab could hold this request.
		return Slab{}, 0, 0, false
	}

	if slab, offset, allocatedLength, ok := r.tryExisting(stripesNeeded); ok {
		return slab, offset, allocatedLength, true
	}

	for {
		newSlab, grew := r.growSlab()
		if !grew {
			// Memory cap reached; caller falls back to the process
			// allocator.
			return Slab{}, 0, 0, false
		}
		if offset, allocatedLength, ok := newSlab.Allocate(stripesNeeded); ok {
			return newSlab, offset, allocatedLength, true
		}
		// The request fits an empty slab (checked above), so a miss
		// here means the fresh slab lost its try-lock race to a
		// concurrent allocation that reached it first via
		// tryExisting; loop to grow another slab.
	}
}

// tryExisting iterates the current slab list starting from a rotating
// offset, attempting a non-blocking allocate on each, for one full lap.
func (r *SlabRing) tryExisting(stripesNeeded uintptr) (Slab, uintptr, uintptr, bool) {
	r.listLock.RLock()
	defer r.listLock.RUnlock()

	n := len(r.slabs)
	if n == 0 {
		return Slab{}, 0, 0, false
	}

	start := r.cursor.next(n)
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		slab := r.slabs[idx]
		if offset, allocatedLength, ok := slab.Allocate(stripesNeeded); ok {
			return slab, offset, allocatedLength, true
		}
	}

	return Slab{}, 0, 0, false
}

// growSlab creates and registers a new slab, provided doing so would not
// exceed the configured memory cap. The returned Slab shares the same
// backing region as the copy stored in the ring's list, but does not
// carry an extra reference of its own - the ring's refcount on a freshly
// created slab starts at one. Callers that intend to hold onto the
// returned Slab past the current call (e.g. to hand it to a long-lived
// Allocation) must call Retain first.
func (r *SlabRing) growSlab() (Slab, bool) {
	r.listLock.Lock()
	defer r.listLock.Unlock()

	if r.conf.MemoryCap > 0 && int64(len(r.slabs)+1)*int64(r.conf.SlabSize) > r.conf.MemoryCap {
		return Slab{}, false
	}

	slab, err := NewSlab(r.conf.SlabSize, r.conf.StripeSize)
	if err != nil {
		// Out-of-memory from the operating system is not a condition
		// this library recovers from; a process-allocator fallback
		// would fail identically, so there is nothing gentler to do.
		panic(err)
	}

	r.slabs = append(r.slabs, slab)
	return slab, true
}

// SlabCount returns the number of slabs currently held by this ring.
func (r *SlabRing) SlabCount() int {
	r.listLock.RLock()
	defer r.listLock.RUnlock()
	return len(r.slabs)
}

// BytesReserved returns the total length of every slab's backing region
// currently held by this ring, whether allocated or free.
func (r *SlabRing) BytesReserved() int64 {
	r.listLock.RLock()
	defer r.listLock.RUnlock()

	var total int64
	for _, slab := range r.slabs {
		total += int64(slab.Len())
	}
	return total
}

// BytesLive returns the subset of BytesReserved currently handed out to
// outstanding allocations.
func (r *SlabRing) BytesLive() int64 {
	r.listLock.RLock()
	defer r.listLock.RUnlock()

	var total int64
	for _, slab := range r.slabs {
		usable := (uintptr(slab.Len()) / slab.StripeSize()) * slab.StripeSize()
		total += int64(usable) - int64(slab.FreeBytes())
	}
	return total
}

// Close releases the ring's reference to every slab it holds. Slabs
// with outstanding Allocations stay alive via their own references
// until those Allocations are released too.
func (r *SlabRing) Close() error {
	r.listLock.Lock()
	defer r.listLock.Unlock()

	var first error
	for _, slab := range r.slabs {
		if err := slab.Release(); err != nil && first == nil {
			first = err
		}
	}
	r.slabs = nil
	return first
}
