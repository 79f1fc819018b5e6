package ring

import "sync/atomic"

// cacheLinePad is the assumed cache line size used to keep hot fields from
// sharing a line with their neighbors. Mirrors the padding convention used
// throughout the wait-free ring buffer this package started from.
const cacheLinePad = 64

// slot is a single ring cell. index doubles as both the cell's position
// (index/2 mod capacity) and its state: even means EMPTY, odd means FULL.
// See SPEC_FULL.md §4.1 for why value is a plain field rather
// than part of a double-word CAS: Go has no portable 16-byte CAS, so
// exclusive ownership of a slot transition is established by a CAS on the
// owning Ring's write/read sequence counter instead of on the slot itself.
// Push, pop and PushKeepN touch value only while holding that exclusive
// ownership. Ring.Peek is the exception: it reads value after an acquire
// load of index without claiming the slot.
type slot[T any] struct {
	index atomic.Uint64
	_     [cacheLinePad - 8]byte
	value T
}

// loadIndex returns the slot's current index with acquire ordering.
func (s *slot[T]) loadIndex() uint64 {
	return s.index.Load()
}

// publish release-stores a new index, making any value written beforehand
// visible to a goroutine that subsequently loads this same index.
func (s *slot[T]) publish(index uint64) {
	s.index.Store(index)
}

// init sets the slot's starting index for lap 0 at array position p:
// EMPTY(0) == 2p.
func (s *slot[T]) init(p uint64) {
	s.index.Store(2 * p)
}
