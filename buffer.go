package slabpool

// Buffer is a growable byte buffer backed by an Allocator: a thin,
// pushable/extendable façade over an Allocation that grows by
// reallocating and copying, the same way a plain byte slice would.
//
// The zero value is a valid, empty Buffer with no Allocator: it falls
// back to process-backed allocations on first growth, same as a Buffer
// built from a nil allocator would.
type Buffer struct {
	allocator *Allocator
	alloc     *Allocation
	length    int
}

// NewBuffer returns an empty Buffer that grows using alloc.
func NewBuffer(alloc *Allocator) *Buffer {
	return &Buffer{allocator: alloc}
}

// NewBufferWithCapacity returns an empty Buffer pre-sized to hold at
// least capacity bytes without reallocating.
func NewBufferWithCapacity(alloc *Allocator, capacity int) *Buffer {
	b := &Buffer{allocator: alloc}
	b.ReserveCapacity(capacity)
	return b
}

// NewBufferWithLen returns a Buffer of length bytes. The bytes are zero
// for memory never handed out before, stale otherwise.
func NewBufferWithLen(alloc *Allocator, length int) *Buffer {
	b := &Buffer{allocator: alloc}
	b.alloc = b.allocate(length)
	b.length = length
	return b
}

func (b *Buffer) allocate(length int) *Allocation {
	if b.allocator != nil {
		return b.allocator.Allocate(length)
	}
	return newGlobalAllocation(nil, length)
}

// Len returns the number of bytes currently stored in the buffer.
func (b *Buffer) Len() int {
	return b.length
}

// IsEmpty reports whether the buffer currently holds zero bytes.
func (b *Buffer) IsEmpty() bool {
	return b.length == 0
}

// Cap returns the number of bytes the buffer can hold without growing.
func (b *Buffer) Cap() int {
	if b.alloc == nil {
		return 0
	}
	return b.alloc.Len()
}

// SetLen grows the buffer's capacity to at least newLength, if needed,
// and sets its length to newLength. Bytes between the old and new
// length are whatever the backing allocation already held there - zero
// for memory never handed out before, stale otherwise.
func (b *Buffer) SetLen(newLength int) {
	b.ReserveCapacity(newLength)
	b.length = newLength
}

// Clear resets the buffer's length to zero without releasing its
// current capacity.
func (b *Buffer) Clear() {
	b.length = 0
}

// Bytes returns a view of the buffer's currently occupied bytes.
func (b *Buffer) Bytes() []byte {
	if b.alloc == nil {
		return nil
	}
	return b.alloc.Bytes()[:b.length]
}

// MutableBytes returns a mutable view of the buffer's currently occupied
// bytes.
func (b *Buffer) MutableBytes() []byte {
	if b.alloc == nil {
		return nil
	}
	return b.alloc.MutableBytes()[:b.length]
}

// ReserveCapacity grows the buffer's backing allocation, if needed, so
// that it can hold at least totalCapacity bytes without reallocating
// again. It never shrinks the buffer.
func (b *Buffer) ReserveCapacity(totalCapacity int) {
	if b.Cap() >= totalCapacity {
		return
	}

	newAlloc := b.allocate(totalCapacity)
	if b.length > 0 {
		copy(newAlloc.MutableBytes(), b.Bytes())
	}
	if b.alloc != nil {
		b.alloc.Release()
	}
	b.alloc = newAlloc
}

// ExtendCapacityBy grows the buffer's capacity by additionalBytes beyond
// its current capacity.
func (b *Buffer) ExtendCapacityBy(additionalBytes int) {
	b.ReserveCapacity(b.Cap() + additionalBytes)
}

// PreallocateFor ensures the buffer has room for additionalBytes more
// bytes beyond its current length, growing if needed.
func (b *Buffer) PreallocateFor(additionalBytes int) {
	b.ReserveCapacity(b.length + additionalBytes)
}

// Push appends a single byte, growing the buffer if necessary.
func (b *Buffer) Push(value byte) {
	if b.length == b.Cap() {
		b.PreallocateFor(1)
	}
	insertAt := b.length
	b.length++
	b.MutableBytes()[insertAt] = value
}

// Extend appends bytes to the buffer, growing it if necessary.
func (b *Buffer) Extend(bytes []byte) {
	b.PreallocateFor(len(bytes))
	insertAt := b.length
	b.length += len(bytes)
	copy(b.MutableBytes()[insertAt:], bytes)
}

// Write implements io.Writer, always returning len(p), nil.
func (b *Buffer) Write(p []byte) (int, error) {
	b.Extend(p)
	return len(p), nil
}

// Release returns the buffer's current backing allocation, if any, to
// its source. The buffer is empty and has zero capacity after this
// call.
func (b *Buffer) Release() {
	if b.alloc != nil {
		b.alloc.Release()
		b.alloc = nil
	}
	b.length = 0
}
