package slabpool

import (
	"fmt"

	"github.com/kesh-labs/slabpool/internal/slabstore"
)

// Default configuration knobs, matching the reference allocator this
// package's design is carried over from.
const (
	DefaultStripeSize          = 16
	DefaultMaximumFastPathSize = 16 * 1024
	DefaultSlabSize            = 256 * 1024
)

// Config is a builder for an Allocator. Zero value is not directly
// usable; start from NewConfig.
type Config struct {
	stripeSize          int
	maximumFastPathSize int
	slabSize            int
	memoryCap           int64 // 0 means unlimited
}

// NewConfig returns a Config populated with the Default* knobs above
// and no memory cap.
func NewConfig() *Config {
	return &Config{
		stripeSize:          DefaultStripeSize,
		maximumFastPathSize: DefaultMaximumFastPathSize,
		slabSize:            DefaultSlabSize,
	}
}

// StripeSize sets the minimum allocation size (and carve granularity)
// for slab-backed allocations. Every slab-backed allocation's length is
// rounded up to a multiple of this.
func (c *Config) StripeSize(size int) *Config {
	c.stripeSize = size
	return c
}

// MaximumFastPathSize sets the exclusive fast-path ceiling: requests of
// this size or larger always bypass the slab ring and go straight to the
// process allocator.
// It is clamped down to SlabSize when the Config is finished.
func (c *Config) MaximumFastPathSize(size int) *Config {
	c.maximumFastPathSize = size
	return c
}

// SlabSize sets the byte length of each slab's backing region.
func (c *Config) SlabSize(size int) *Config {
	c.slabSize = size
	return c
}

// MemoryCap sets the maximum total bytes the ring may hold across all of
// its slabs. When the cap is reached, new allocation requests that
// would otherwise grow the ring fall back to the process allocator
// instead.
func (c *Config) MemoryCap(limit int64) *Config {
	c.memoryCap = limit
	return c
}

// Finish validates the configuration and builds an Allocator. It fails
// only when the stripe size is below one byte or the slab size is
// smaller than the stripe size. No slab is reserved here; the ring
// creates slabs on the first allocations that need them.
func (c *Config) Finish() (*Allocator, error) {
	if c.slabSize < c.stripeSize {
		return nil, fmt.Errorf("slabpool: slab size %d is smaller than stripe size %d", c.slabSize, c.stripeSize)
	}
	if c.stripeSize < 1 {
		return nil, fmt.Errorf("slabpool: stripe size must be at least 1 byte")
	}

	maxFastPath := c.maximumFastPathSize
	if c.slabSize < maxFastPath {
		maxFastPath = c.slabSize
	}

	ring := slabstore.NewSlabRing(slabstore.RingConfig{
		StripeSize:          uintptr(c.stripeSize),
		MaximumFastPathSize: uintptr(maxFastPath),
		SlabSize:            c.slabSize,
		MemoryCap:           c.memoryCap,
	})

	return &Allocator{ring: ring}, nil
}
