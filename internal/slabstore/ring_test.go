package slabstore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRing(stripeSize, slabSize uintptr, memoryCap int64) *SlabRing {
	return NewSlabRing(RingConfig{
		StripeSize:          stripeSize,
		MaximumFastPathSize: 16 * 1024,
		SlabSize:            int(slabSize),
		MemoryCap:           memoryCap,
	})
}

func TestRingSingleSlabBestFit(t *testing.T) {
	r := newTestRing(16, 64, 64)
	defer r.Close()

	sizes := []int{1, 2, 8, 16}
	for _, size := range sizes {
		_, _, allocLen, ok := r.Allocate(size)
		require.True(t, ok)
		assert.Equal(t, uintptr(16), allocLen)
	}

	_, _, _, ok := r.Allocate(16)
	assert.False(t, ok, "fifth allocation should be declined by the ring")
	assert.Equal(t, 1, r.SlabCount())
}

func TestRingGrowthUnderCap(t *testing.T) {
	r := newTestRing(16, 64, 128)
	defer r.Close()

	for i := 0; i < 4; i++ {
		_, _, _, ok := r.Allocate(16)
		require.True(t, ok)
	}
	assert.Equal(t, 1, r.SlabCount())

	// Fifth allocation forces a second slab.
	_, _, _, ok := r.Allocate(16)
	require.True(t, ok)
	assert.Equal(t, 2, r.SlabCount())

	for i := 0; i < 3; i++ {
		_, _, _, ok := r.Allocate(16)
		require.True(t, ok)
	}

	// Ninth allocation: cap reached (2 slabs * 64 bytes == 128 cap).
	_, _, _, ok = r.Allocate(16)
	assert.False(t, ok)
	assert.Equal(t, 2, r.SlabCount())
}

func TestRingFastPathBoundary(t *testing.T) {
	r := NewSlabRing(RingConfig{
		StripeSize:          16,
		MaximumFastPathSize: 1024,
		SlabSize:            4096,
	})
	defer r.Close()

	_, _, _, ok := r.Allocate(1024)
	assert.False(t, ok, "a request equal to the maximum must bypass the ring")

	_, _, _, ok = r.Allocate(1023)
	assert.True(t, ok, "a request just below the maximum must use the ring")
}

func TestRingLargerThanSlabFallsBack(t *testing.T) {
	r := newTestRing(16, 64, 0)
	defer r.Close()

	_, _, _, ok := r.Allocate(4096)
	assert.False(t, ok)
}

func TestRingRotationSpreadsLoad(t *testing.T) {
	// Each slab is 160KB / 16 bytes/stripe = 10240 stripes, comfortably
	// more than the 1000 16-byte requests below will ever need, so no
	// new slab is created mid-test - this isolates the rotating-cursor
	// behaviour from slab-growth behaviour.
	r := NewSlabRing(RingConfig{
		StripeSize:          16,
		MaximumFastPathSize: 1024,
		SlabSize:            160 * 1024,
	})
	defer r.Close()

	// Seed three slabs up front so all three are visible to every
	// goroutine's iteration.
	seeds := make([]Slab, 3)
	for i := range seeds {
		slab, ok := r.growSlab()
		require.True(t, ok)
		seeds[i] = slab
	}

	served := make([]int, 3)
	var mu sync.Mutex
	var wg sync.WaitGroup

	const requests = 1000
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			slab, _, _, ok := r.Allocate(16)
			require.True(t, ok)
			mu.Lock()
			for i, s := range seeds {
				if s == slab {
					served[i]++
					break
				}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, r.SlabCount())
	total := 0
	for _, c := range served {
		total += c
		assert.Greater(t, c, 0, "every slab should serve a non-zero share of 1000 requests")
	}
	assert.Equal(t, requests, total)
}
