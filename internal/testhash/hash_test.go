package testhash

import "testing"

func TestDigest_OrderIndependent(t *testing.T) {
	var forward, backward Digest
	values := []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

	for _, v := range values {
		forward.Add(v)
	}
	for i := len(values) - 1; i >= 0; i-- {
		backward.Add(values[i])
	}

	if forward.Sum() != backward.Sum() {
		t.Fatalf("digest is order-dependent: forward=%d backward=%d", forward.Sum(), backward.Sum())
	}
}

func TestDigest_MergeMatchesSingleDigest(t *testing.T) {
	values := []uint64{100, 200, 300, 400}

	var whole Digest
	for _, v := range values {
		whole.Add(v)
	}

	var a, b Digest
	a.Add(values[0])
	a.Add(values[1])
	b.Add(values[2])
	b.Add(values[3])
	a.Merge(&b)

	if a.Sum() != whole.Sum() {
		t.Fatalf("merged digest = %d, want %d", a.Sum(), whole.Sum())
	}
}

func TestDigest_DifferentMultisetsDiffer(t *testing.T) {
	var a, b Digest
	a.Add(1)
	a.Add(2)
	b.Add(1)
	b.Add(3)

	if a.Sum() == b.Sum() {
		t.Fatalf("different multisets produced the same digest")
	}
}
