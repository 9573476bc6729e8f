package slabpool

import (
	"sync/atomic"

	"github.com/kesh-labs/slabpool/internal/slabstore"
)

// Allocator carves byte ranges out of a ring of pre-claimed slabs,
// falling back to the process allocator for requests the ring declines
// (because they are too large for the fast path, or because the
// configured memory cap has been reached).
//
// An Allocator is safe for concurrent use from any number of
// goroutines. Build one with NewConfig().Finish().
type Allocator struct {
	ring *slabstore.SlabRing

	fastPathHits  atomic.Uint64
	fallbackCount atomic.Uint64

	liveAllocations   atomic.Int64
	fallbackLiveBytes atomic.Int64
}

// Build returns a fresh Config populated with default knobs, mirroring
// the builder entry point on the allocator this package is modelled on.
func Build() *Config {
	return NewConfig()
}

// NewDefault returns an Allocator configured with every default knob.
// It never fails, since the default slab size is always constructible.
func NewDefault() *Allocator {
	a, err := NewConfig().Finish()
	if err != nil {
		panic(err)
	}
	return a
}

// Allocate returns an owning handle to at least length bytes of memory.
// It never fails: requests the slab ring declines are served directly
// by the process allocator instead. Slab-backed allocations are rounded
// up to a multiple of the stripe size; see Allocation.Bytes for when the
// memory is zero-initialized.
func (a *Allocator) Allocate(length int) *Allocation {
	slab, offset, allocatedLength, ok := a.ring.Allocate(length)
	if !ok {
		a.fallbackCount.Add(1)
		a.liveAllocations.Add(1)
		a.fallbackLiveBytes.Add(int64(length))
		return newGlobalAllocation(a, length)
	}

	a.fastPathHits.Add(1)
	a.liveAllocations.Add(1)
	return newSlabAllocation(a, slab.Retain(), offset, allocatedLength)
}

// Close releases every slab this allocator's ring is holding. Live
// Allocations sourced from those slabs are unaffected - each holds its
// own reference to its source slab and keeps it alive until Released.
func (a *Allocator) Close() error {
	return a.ring.Close()
}

// Stats reports point-in-time counters for this allocator. These are
// advisory diagnostics, not part of the allocator's correctness
// contract.
type Stats struct {
	// Slabs is the number of slabs currently held by the ring.
	Slabs int
	// LiveAllocations is the number of Allocations currently
	// outstanding - handed out by Allocate and not yet Released.
	LiveAllocations int64
	// FastPathAllocations is the number of Allocate calls served by the
	// slab ring.
	FastPathAllocations uint64
	// FallbackAllocations is the number of Allocate calls served
	// directly by the process allocator, because the request reached
	// the fast-path ceiling or the ring's memory cap was reached.
	FallbackAllocations uint64
	// BytesReserved is the total backing memory the slab ring currently
	// holds, whether allocated or free. It does not include bytes
	// served by the process-allocator fallback, which reserves nothing
	// ahead of time.
	BytesReserved int64
	// BytesLive is the total number of bytes currently handed out to
	// outstanding Allocations, across both the slab ring and the
	// process-allocator fallback.
	BytesLive int64
}

// Stats returns the current counters for this allocator.
func (a *Allocator) Stats() Stats {
	return Stats{
		Slabs:               a.ring.SlabCount(),
		LiveAllocations:     a.liveAllocations.Load(),
		FastPathAllocations: a.fastPathHits.Load(),
		FallbackAllocations: a.fallbackCount.Load(),
		BytesReserved:       a.ring.BytesReserved(),
		BytesLive:           a.ring.BytesLive() + a.fallbackLiveBytes.Load(),
	}
}
