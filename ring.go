package ring

import "sync/atomic"

// Config holds the construction-time options for a Ring. LazyPush and LazyPop
// mirror the lazy_push/lazy_pop knobs of the original design (see
// SPEC_FULL.md §4.2 and §9): in this Go realization, a push or pop cannot
// complete at all until the ring-counter CAS that grants exclusive slot
// ownership succeeds, so there is no "skip the counter CAS" variant left to
// offer — these flags are retained purely so callers migrating from the
// double-word-CAS design keep a familiar construction surface, and they are
// exposed back via LazyPush/LazyPop for introspection.
type Config struct {
	LazyPush bool
	LazyPop  bool
}

// Option configures a Ring at construction time.
type Option func(*Config)

// WithLazyPush marks the ring as using the lazy-push optimization.
func WithLazyPush() Option { return func(c *Config) { c.LazyPush = true } }

// WithLazyPop marks the ring as using the lazy-pop optimization.
func WithLazyPop() Option { return func(c *Config) { c.LazyPop = true } }

// Ring is a bounded lock-free MPMC queue of capacity N, N a power of two.
type Ring[T any] struct {
	slots    []slot[T]
	mask     uint64
	capacity uint64
	cfg      Config

	writeSeq atomic.Uint64
	_        [cacheLinePad - 8]byte
	readSeq  atomic.Uint64
	_        [cacheLinePad - 8]byte
}

// New constructs a Ring with the given capacity, which must be a power of
// two >= 1. It panics otherwise, matching the teacher ring buffer's
// constructor-time validation convention.
func New[T any](capacity uint64, opts ...Option) *Ring[T] {
	if capacity == 0 || capacity&(capacity-1) != 0 {
		panic("ring: capacity must be a power of two >= 1")
	}

	var cfg Config
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Ring[T]{
		slots:    make([]slot[T], capacity),
		mask:     capacity - 1,
		capacity: capacity,
		cfg:      cfg,
	}
	for i := uint64(0); i < capacity; i++ {
		r.slots[i].init(i)
	}
	return r
}

// LazyPush reports whether the ring was constructed with WithLazyPush.
func (r *Ring[T]) LazyPush() bool { return r.cfg.LazyPush }

// LazyPop reports whether the ring was constructed with WithLazyPop.
func (r *Ring[T]) LazyPop() bool { return r.cfg.LazyPop }

// Capacity returns the fixed capacity of the ring.
func (r *Ring[T]) Capacity() uint64 { return r.capacity }

// Size returns write_seq - read_seq, an approximation of the number of
// queued items. Under contention the true count may change between the two
// loads this makes, so the result should be treated as a hint.
func (r *Ring[T]) Size() uint64 {
	return r.writeSeq.Load() - r.readSeq.Load()
}

// Empty reports whether the ring's next read position is currently empty.
// It does not mutate any state.
func (r *Ring[T]) Empty() bool {
	rs := r.readSeq.Load()
	idx := r.slots[rs&r.mask].loadIndex()
	return idx != 2*rs+1
}

// TryPush attempts to enqueue v. It returns false if the ring is
// conclusively full; it never blocks.
func (r *Ring[T]) TryPush(v T) bool {
	_, ok := r.TryPushIndex(v)
	return ok
}

// TryPushIndex is TryPush, additionally returning the sequence number the
// value was published at on success.
func (r *Ring[T]) TryPushIndex(v T) (index uint64, ok bool) {
	for {
		ws := r.writeSeq.Load()
		p := ws & r.mask
		s := &r.slots[p]
		idx := s.loadIndex()

		switch {
		case idx == 2*ws:
			// EMPTY at the current lap: try to claim it.
			if r.writeSeq.CompareAndSwap(ws, ws+1) {
				s.value = v
				s.publish(2*ws + 1)
				return ws, true
			}
			// Lost the claim race; reread writeSeq and retry.
		case idx < 2*ws:
			// Still FULL from the previous lap: the ring is full.
			return 0, false
		default:
			// idx > 2*ws: another producer already advanced past this
			// slot (writeSeq is stale from our point of view); retry.
		}
	}
}

// TryPop attempts to dequeue into *v. It returns false if the ring is
// conclusively empty; it never blocks.
func (r *Ring[T]) TryPop(v *T) bool {
	_, ok := r.TryPopIndex(v)
	return ok
}

// TryPopIndex is TryPop, additionally returning the sequence number the
// value was originally published at on success.
func (r *Ring[T]) TryPopIndex(v *T) (index uint64, ok bool) {
	for {
		rs := r.readSeq.Load()
		p := rs & r.mask
		s := &r.slots[p]
		idx := s.loadIndex()

		switch {
		case idx == 2*rs+1:
			// FULL at the current lap: try to claim it.
			if r.readSeq.CompareAndSwap(rs, rs+1) {
				*v = s.value
				s.publish(2 * (rs + r.capacity))
				return rs, true
			}
			// Lost the claim race; reread readSeq and retry.
		case idx < 2*rs+1:
			// Still EMPTY: the ring is empty.
			return 0, false
		default:
			// idx > 2*rs+1: another consumer already advanced past this
			// slot; retry.
		}
	}
}

// Peek returns the value currently at the head of the ring without removing
// it. It is not linearizable against concurrent pops: by the time the
// caller observes the result, another goroutine may already have popped it.
func (r *Ring[T]) Peek() (v T, ok bool) {
	rs := r.readSeq.Load()
	s := &r.slots[rs&r.mask]
	if s.loadIndex() == 2*rs+1 {
		return s.value, true
	}
	var zero T
	return zero, false
}

// PushKeepN always succeeds on a ring with capacity >= 1: if the ring has
// room, it behaves exactly like TryPush; if the ring is full, it overwrites
// the oldest unread entry so that the N most recent PushKeepN callers always
// win. It returns the sequence number the value was published at.
func (r *Ring[T]) PushKeepN(v T) uint64 {
	for {
		ws := r.writeSeq.Load()
		p := ws & r.mask
		s := &r.slots[p]
		idx := s.loadIndex()

		switch {
		case idx == 2*ws:
			if r.writeSeq.CompareAndSwap(ws, ws+1) {
				s.value = v
				s.publish(2*ws + 1)
				return ws
			}
		case idx == 2*(ws-r.capacity)+1:
			// Full: claim the drop of the stale entry at read_seq, which
			// the invariant write_seq-read_seq<=capacity guarantees is
			// exactly ws-capacity when the ring is full.
			rs := ws - r.capacity
			if !r.readSeq.CompareAndSwap(rs, rs+1) {
				// Lost the race to a concurrent pop or PushKeepN.
				continue
			}
			// Exclusive owner of this slot's FULL(ws-capacity)->FULL(ws)
			// transition: no other producer can claim ws while the slot
			// was still FULL, so this write_seq CAS cannot be contended.
			s.value = v
			s.publish(2*ws + 1)
			for !r.writeSeq.CompareAndSwap(ws, ws+1) {
			}
			return ws
		case idx < 2*ws:
			// The previous lap's push or pop of this slot has claimed its
			// sequence number but not yet published; retry.
		default:
			// idx > 2*ws: lapped; retry with a fresh writeSeq.
		}
	}
}
