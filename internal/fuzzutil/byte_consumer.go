// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

// Package fuzzutil turns a fuzz target's raw []byte input into a bounded
// sequence of domain operations: each Step consumes a fixed number of
// bytes off the front to decide what it does, so the same seed corpus
// always replays the same sequence of steps.
package fuzzutil

import (
	"encoding/binary"
)

// ByteConsumer hands out fixed-size chunks of a byte slice in order,
// zero-filling once the slice runs out rather than erroring - a fuzz
// input that's too short to describe a full step should still produce
// a deterministic (if short) run, not a panic.
type ByteConsumer struct {
	bytes []byte
}

func NewByteConsumer(bytes []byte) *ByteConsumer {
	return &ByteConsumer{
		bytes: bytes,
	}
}

func (c *ByteConsumer) Len() int {
	return len(c.bytes)
}

func (c *ByteConsumer) Bytes(size int) []byte {
	consumed := make([]byte, size)
	copy(consumed, c.bytes)

	if len(c.bytes) <= size {
		c.bytes = c.bytes[:0]
	} else {
		c.bytes = c.bytes[size:]
	}
	return consumed
}

// Test only
func (c *ByteConsumer) pushBytes(bytes []byte) {
	c.bytes = append(c.bytes, bytes...)
}

// Byte consumes a single byte, used by callers to choose which step to
// take next (e.g. allocate vs. free) or to size a small quantity like a
// stripe count.
func (c *ByteConsumer) Byte() byte {
	dest := c.Bytes(1)
	return dest[0]
}

// Test only
func (c *ByteConsumer) pushByte(b byte) {
	c.pushBytes([]byte{b})
}

// Uint32 consumes four bytes, used by callers that need a wider index
// than a single byte can express, such as picking an arbitrary live
// allocation out of a long-running run by index modulo count.
func (c *ByteConsumer) Uint32() uint32 {
	dest := c.Bytes(4)
	return binary.LittleEndian.Uint32(dest)
}

// Test only
func (c *ByteConsumer) pushUint32(value uint32) {
	bytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(bytes, value)
	c.pushBytes(bytes)
}
