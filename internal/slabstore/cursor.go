package slabstore

import "sync/atomic"

// cursor is a single shared counter used to spread allocation pressure
// across a SlabRing's slabs. It carries no causal information and is
// read purely as a starting hint - concurrent readers may see a stale
// or already-consumed value, and that is fine: the goal is to spread
// contention, not to guarantee any particular slab gets visited.
type cursor struct {
	value atomic.Uint64
}

// next rotates the cursor backwards by one, modulo listLength, and
// returns the new value. An empty list always yields 0.
func (c *cursor) next(listLength int) int {
	if listLength == 0 {
		return 0
	}
	n := uint64(listLength)
	for {
		current := c.value.Load()
		var next uint64
		if current == 0 {
			next = n - 1
		} else {
			next = current - 1
		}
		if c.value.CompareAndSwap(current, next) {
			return int(next)
		}
	}
}
