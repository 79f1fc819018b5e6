// Package testhash computes an order-independent digest over a stream of
// values, so tests can compare the items popped from a ring with the items
// pushed, without caring which producer or consumer goroutine handled which
// item. Per-item hashes are combined with XOR, so a value added an even
// number of times cancels out: the digest tells apart the sets of values
// added an odd number of times, not full multisets. Concurrent MPMC access gives no ordering
// guarantee across producers, so a plain running hash (which is sensitive
// to order) cannot be compared across two goroutine schedules of the same
// logical test.
package testhash

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Digest accumulates a commutative (XOR) combination of per-item hashes:
// items may be added in any order, or spread over several Digests combined
// with Merge, and the final Sum is identical either way.
type Digest struct {
	sum uint64
}

// Add folds v's hash into the digest. Safe to call from multiple goroutines
// only if the caller serializes access to a shared *Digest itself (Digest
// has no internal locking); parallel tests typically keep one Digest per
// goroutine and combine with Merge at the end.
func (d *Digest) Add(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	d.sum ^= xxhash.Sum64(buf[:])
}

// Merge folds another digest's accumulated value into d, order-independent.
func (d *Digest) Merge(other *Digest) {
	d.sum ^= other.sum
}

// Sum returns the current combined digest.
func (d *Digest) Sum() uint64 {
	return d.sum
}
