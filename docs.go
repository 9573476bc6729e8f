// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

// # Usage
//
// Package slabpool is a reusable byte-buffer allocator for workloads
// that repeatedly acquire and release moderately sized byte regions -
// I/O buffers, serialization scratch space - across many goroutines. It
// amortizes the cost of going to the operating system for memory by
// carving small allocations out of a ring of larger pre-claimed
// backing regions ("slabs"), and transparently falls back to the
// process allocator for sizes that exceed the fast path.
//
//	alloc, err := slabpool.Build().
//		StripeSize(16).
//		SlabSize(256 * 1024).
//		Finish()
//	if err != nil {
//		// the only failure mode is an invalid stripe or slab size
//	}
//
//	a := alloc.Allocate(64)
//	copy(a.MutableBytes(), []byte("hello"))
//	a.Release()
//
// Allocations may be moved between goroutines freely. A Slab is shared
// between the ring and every live Allocation carved from it, and its
// backing memory is only released once the last of those has called
// Release.
//
// A growable Buffer is built on top of a single Allocator for callers
// that want append/reserve/write semantics instead of calling Allocate
// directly:
//
//	buf := slabpool.NewBuffer(alloc)
//	buf.Extend([]byte("hello, "))
//	fmt.Fprintf(buf, "world!")
package slabpool
