// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

// Package slabstore holds the concurrency-sensitive core of the
// allocator: the per-slab free-span bookkeeping and the ring that
// distributes allocation pressure across slabs. It is kept internal the
// same way offheap keeps pointerstore internal - callers of the public
// slabpool package never see a span or a slab directly, only an
// Allocation.
package slabstore

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Slab is a reference-counted handle to a single contiguous backing
// region, partitioned into equal-sized stripes. Copies of a Slab share
// the same backing region and free-span bookkeeping; the region is
// released back to the operating system only once every outstanding
// handle - the SlabRing's and every live Allocation's - has called
// Release.
type Slab struct {
	core *slabCore
}

type slabCore struct {
	stripeSize uintptr
	data       []byte

	// refs counts every live handle to this slab: one held by the
	// SlabRing's slab list, and one held by every Allocation carved
	// from it. The backing region is munmapped when this reaches zero.
	refs atomic.Int32

	// freeLock guards freeSpans. Allocate acquires it non-blocking;
	// Free acquires it blocking. This asymmetry is load-bearing: a
	// slab that is momentarily busy being freed-into should not stall
	// an allocation attempt, but a free must never be allowed to fail.
	freeLock  sync.Mutex
	freeSpans []span
}

// NewSlab reserves a zero-initialized backing region of length bytes,
// subdivided into stripes of stripeSize bytes each. Any remainder
// (length % stripeSize) is left permanently unused.
func NewSlab(length int, stripeSize uintptr) (Slab, error) {
	data, err := mmapRegion(length)
	if err != nil {
		return Slab{}, err
	}

	totalStripes := uintptr(length) / stripeSize

	core := &slabCore{
		stripeSize: stripeSize,
		data:       data,
		freeSpans: []span{{
			offset:  0,
			stripes: totalStripes,
		}},
	}
	core.refs.Store(1)

	return Slab{core: core}, nil
}

// IsNil reports whether s is the zero Slab (no backing region).
func (s Slab) IsNil() bool {
	return s.core == nil
}

// Retain returns a new handle sharing this slab's backing region,
// incrementing the shared reference count. Every Retain must be matched
// by exactly one Release.
func (s Slab) Retain() Slab {
	s.core.refs.Add(1)
	return Slab{core: s.core}
}

// Release drops this handle's share of the slab. When the last handle
// (SlabRing's or an Allocation's) is released, the backing region is
// unmapped.
func (s Slab) Release() error {
	if s.core == nil {
		return nil
	}
	if s.core.refs.Add(-1) == 0 {
		return munmapRegion(s.core.data)
	}
	return nil
}

// StripeSize returns the stripe size this slab carves allocations in.
func (s Slab) StripeSize() uintptr {
	return s.core.stripeSize
}

// Len returns the backing region's total length in bytes.
func (s Slab) Len() int {
	return len(s.core.data)
}

// Allocate attempts to carve stripesNeeded contiguous stripes from this
// slab's free space. It never blocks: if the free-span lock is
// contended it returns ok=false immediately so the caller (SlabRing)
// can move on to another slab. A false result with no contention means
// this slab currently has no span large enough.
func (s Slab) Allocate(stripesNeeded uintptr) (offset uintptr, allocatedLength uintptr, ok bool) {
	if !s.core.freeLock.TryLock() {
		return 0, 0, false
	}
	defer s.core.freeLock.Unlock()

	bestIndex := -1
	bestExtra := uintptr(0)
	for i, sp := range s.core.freeSpans {
		if sp.stripes < stripesNeeded {
			continue
		}
		extra := sp.stripes - stripesNeeded
		if bestIndex == -1 || extra < bestExtra {
			bestIndex = i
			bestExtra = extra
			if extra == 0 {
				break
			}
		}
	}

	if bestIndex == -1 {
		return 0, 0, false
	}

	chosen := &s.core.freeSpans[bestIndex]
	offset = chosen.offset
	allocatedLength = stripesNeeded * s.core.stripeSize

	chosen.stripes -= stripesNeeded
	chosen.offset += allocatedLength
	if chosen.stripes == 0 {
		s.core.freeSpans = append(s.core.freeSpans[:bestIndex], s.core.freeSpans[bestIndex+1:]...)
	}

	return offset, allocatedLength, true
}

// Free returns a previously allocated byte range to this slab's free
// space, coalescing it with any adjacent free spans. offset and length
// must have been returned by a prior call to Allocate on this exact
// slab. An offset outside the backing region panics; other misuse is
// not detected.
func (s Slab) Free(offset uintptr, length uintptr) {
	if offset >= uintptr(len(s.core.data)) {
		panic(fmt.Errorf("slabstore: free offset %d out of range for slab of length %d", offset, len(s.core.data)))
	}

	freed := span{
		offset:  offset,
		stripes: length / s.core.stripeSize,
	}

	s.core.freeLock.Lock()
	defer s.core.freeLock.Unlock()

	spans := s.core.freeSpans

	for i := range spans {
		sp := &spans[i]

		if sp.offset < freed.offset && sp.end(s.core.stripeSize) == freed.offset {
			// freed extends the end of sp.
			sp.stripes += freed.stripes
			s.mergeNext(i)
			return
		}

		if freed.offset < sp.offset {
			if sp.offset == freed.end(s.core.stripeSize) {
				// freed extends the front of sp.
				sp.offset = freed.offset
				sp.stripes += freed.stripes
				s.mergeNext(i)
				return
			}

			// Cannot be merged with sp or its predecessor; insert
			// standalone, preserving offset order.
			s.core.freeSpans = append(spans[:i:i], append([]span{freed}, spans[i:]...)...)
			return
		}
	}

	// freed belongs after every existing span.
	s.core.freeSpans = append(s.core.freeSpans, freed)
}

// mergeNext absorbs freeSpans[index+1] into freeSpans[index] if they are
// now contiguous. Must be called with freeLock held.
func (s Slab) mergeNext(index int) {
	spans := s.core.freeSpans
	if index+1 >= len(spans) {
		return
	}
	if spans[index].end(s.core.stripeSize) == spans[index+1].offset {
		spans[index].stripes += spans[index+1].stripes
		s.core.freeSpans = append(spans[:index+1], spans[index+2:]...)
	}
}

// Bytes returns a view over [offset, offset+length) of this slab's
// backing region.
func (s Slab) Bytes(offset, length uintptr) []byte {
	return s.core.data[offset : offset+length]
}

// FreeSpanCount returns the number of disjoint free spans currently
// tracked by this slab. Exposed for tests that assert on coalescing
// behaviour.
func (s Slab) FreeSpanCount() int {
	s.core.freeLock.Lock()
	defer s.core.freeLock.Unlock()
	return len(s.core.freeSpans)
}

// FreeBytes returns the total number of free bytes currently tracked by
// this slab's free-span list.
func (s Slab) FreeBytes() uintptr {
	s.core.freeLock.Lock()
	defer s.core.freeLock.Unlock()

	var total uintptr
	for _, sp := range s.core.freeSpans {
		total += sp.stripes * s.core.stripeSize
	}
	return total
}
