package slabstore

import (
	"fmt"
	"testing"

	"github.com/kesh-labs/slabpool/internal/fuzzutil"
)

// FuzzSlabCoalescing drives random alloc/free interleavings against a
// single slab and checks, after every step, that the free-span list
// stays ordered, pairwise disjoint and - once every outstanding
// allocation has been freed - fully coalesced back into one span
// covering the whole slab. These are invariants 1, 6 and 7 from the
// allocator's testable properties.
func FuzzSlabCoalescing(f *testing.F) {
	for _, seed := range fuzzutil.MakeRandomSeeds() {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, bytes []byte) {
		newSlabTestRun(bytes).Run()
	})
}

const (
	fuzzStripeSize   = 16
	fuzzTotalStripes = 32
)

type slabFuzzState struct {
	slab      Slab
	live      []liveSpan
	maxStripe uintptr
}

type liveSpan struct {
	offset uintptr
	length uintptr
}

func newSlabTestRun(bytes []byte) *fuzzutil.TestRun {
	slab, err := NewSlab(fuzzStripeSize*fuzzTotalStripes, fuzzStripeSize)
	if err != nil {
		panic(err)
	}

	state := &slabFuzzState{slab: slab, maxStripe: 4}

	stepMaker := func(byteConsumer *fuzzutil.ByteConsumer) fuzzutil.Step {
		chooser := byteConsumer.Byte()
		switch chooser % 2 {
		case 0:
			return newAllocStep(state, byteConsumer)
		case 1:
			return newFreeStep(state, byteConsumer)
		}
		panic("unreachable")
	}

	cleanup := func() {
		for _, a := range state.live {
			state.slab.Free(a.offset, a.length)
		}
		state.live = nil
		assertFullyCoalesced(state.slab)
		state.slab.Release()
	}

	return fuzzutil.NewTestRun(bytes, stepMaker, cleanup)
}

type allocStep struct {
	state   *slabFuzzState
	stripes uintptr
}

func newAllocStep(state *slabFuzzState, byteConsumer *fuzzutil.ByteConsumer) *allocStep {
	stripes := uintptr(byteConsumer.Byte())%state.maxStripe + 1
	return &allocStep{state: state, stripes: stripes}
}

func (s *allocStep) DoStep() {
	offset, length, ok := s.state.slab.Allocate(s.stripes)
	if ok {
		s.state.live = append(s.state.live, liveSpan{offset, length})
	}
	assertSpansWellFormed(s.state.slab)
}

type freeStep struct {
	state *slabFuzzState
	index uint32
}

func newFreeStep(state *slabFuzzState, byteConsumer *fuzzutil.ByteConsumer) *freeStep {
	return &freeStep{state: state, index: byteConsumer.Uint32()}
}

func (s *freeStep) DoStep() {
	if len(s.state.live) == 0 {
		return
	}
	idx := int(s.index % uint32(len(s.state.live)))
	a := s.state.live[idx]
	s.state.live = append(s.state.live[:idx], s.state.live[idx+1:]...)
	s.state.slab.Free(a.offset, a.length)
	assertSpansWellFormed(s.state.slab)
}

// assertSpansWellFormed checks invariant 1: free spans are ordered by
// offset, pairwise disjoint, and no two adjacent spans are contiguous.
func assertSpansWellFormed(slab Slab) {
	slab.core.freeLock.Lock()
	defer slab.core.freeLock.Unlock()

	spans := slab.core.freeSpans
	for i := 1; i < len(spans); i++ {
		prev, cur := spans[i-1], spans[i]
		if prev.end(slab.core.stripeSize) > cur.offset {
			panic(fmt.Sprintf("free spans overlap: %+v then %+v", prev, cur))
		}
		if prev.end(slab.core.stripeSize) == cur.offset {
			panic(fmt.Sprintf("adjacent free spans not coalesced: %+v then %+v", prev, cur))
		}
	}
}

func assertFullyCoalesced(slab Slab) {
	assertSpansWellFormed(slab)
	if got := slab.FreeSpanCount(); got != 1 {
		panic(fmt.Sprintf("expected a single fully-coalesced free span once everything is freed, got %d spans", got))
	}
	if got, want := slab.FreeBytes(), uintptr(fuzzStripeSize*fuzzTotalStripes); got != want {
		panic(fmt.Sprintf("expected %d free bytes, got %d", want, got))
	}
}
