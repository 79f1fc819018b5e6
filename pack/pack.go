// Package pack composes several independent ring.Ring instances ("stripes")
// behind sticky producer and consumer handles, trading perfect global FIFO
// order for reduced cross-core cache contention: each producer hammers its
// own ring's writeSeq counter instead of contending with every other
// producer on one shared counter.
package pack

import (
	"sync/atomic"

	"github.com/mpmcring/ring"
)

// Pack is a fixed-size collection of G independent rings, each of the same
// element type and capacity.
type Pack[T any] struct {
	rings []*ring.Ring[T]
	g     uint64
	k     uint64

	writersAssigned atomic.Uint64
	readersAssigned atomic.Uint64
}

// New builds a Pack of g rings, each with the given per-ring capacity. k is
// the number of consecutive successful pops a Consumer will take from its
// current ring before advancing to the next ring in order (index+1 mod g).
// g and ringCapacity must both be >= 1, and ringCapacity must be a power of
// two; New panics otherwise, via ring.New's own validation.
func New[T any](ringCapacity, g, k uint64, opts ...ring.Option) *Pack[T] {
	if g == 0 {
		panic("pack: g must be >= 1")
	}
	if k == 0 {
		k = 1
	}
	rings := make([]*ring.Ring[T], g)
	for i := range rings {
		rings[i] = ring.New[T](ringCapacity, opts...)
	}
	return &Pack[T]{rings: rings, g: g, k: k}
}

// Stripes returns the number of independent rings in the pack.
func (p *Pack[T]) Stripes() uint64 { return p.g }

// Size returns the sum of each stripe's approximate size. Like Ring.Size,
// this is a hint, not a linearizable snapshot.
func (p *Pack[T]) Size() uint64 {
	var total uint64
	for _, r := range p.rings {
		total += r.Size()
	}
	return total
}

// Producer is a handle bound to exactly one of the pack's rings, assigned
// round-robin at creation time. All pushes through a Producer go to that
// single ring; the producer never touches any other stripe.
type Producer[T any] struct {
	ring *ring.Ring[T]
}

// NewProducer creates a Producer with sticky affinity to one stripe,
// chosen by incrementing the pack's writer counter modulo g.
func (p *Pack[T]) NewProducer() *Producer[T] {
	idx := p.writersAssigned.Add(1) - 1
	return &Producer[T]{ring: p.rings[idx%p.g]}
}

// TryPush enqueues v onto the producer's assigned ring.
func (pr *Producer[T]) TryPush(v T) bool {
	return pr.ring.TryPush(v)
}

// PushKeepN enqueues v onto the producer's assigned ring, overwriting the
// oldest unread entry on that ring if it is full.
func (pr *Producer[T]) PushKeepN(v T) uint64 {
	return pr.ring.PushKeepN(v)
}

// Consumer is a handle with sticky affinity to its current ring, assigned
// round-robin at creation time. When its current ring is empty, it scans
// the remaining rings in order starting just past its current position
// rather than returning false immediately — a single idle stripe should
// not starve a consumer whose stripe happens to be momentarily empty.
type Consumer[T any] struct {
	pack   *Pack[T]
	cur    uint64
	streak uint64
}

// NewConsumer creates a Consumer with sticky affinity to one stripe, chosen
// by incrementing the pack's reader counter modulo g.
func (p *Pack[T]) NewConsumer() *Consumer[T] {
	idx := p.readersAssigned.Add(1) - 1
	return &Consumer[T]{pack: p, cur: idx % p.g}
}

// TryPop attempts to dequeue from the consumer's current ring; on failure
// it scans the rest of the pack once, in ring order starting just after
// the current ring. After k consecutive successful pops from its current
// ring (the pack's K), the consumer advances to the next ring in order
// (index+1 mod g), so that no single busy stripe can monopolize a
// consumer forever.
func (c *Consumer[T]) TryPop(v *T) bool {
	if c.pack.rings[c.cur].TryPop(v) {
		c.streak++
		if c.streak >= c.pack.k {
			c.streak = 0
			c.cur = (c.cur + 1) % c.pack.g
		}
		return true
	}
	c.streak = 0

	for i := uint64(1); i < c.pack.g; i++ {
		idx := (c.cur + i) % c.pack.g
		if c.pack.rings[idx].TryPop(v) {
			c.cur = idx
			c.streak = 1
			return true
		}
	}
	return false
}
