package ring

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/mpmcring/ring/internal/testhash"
)

func TestRing_FillAndDrain(t *testing.T) {
	r := New[int](8)

	for i := 0; i < 8; i++ {
		if !r.TryPush(i) {
			t.Fatalf("TryPush(%d) failed on non-full ring", i)
		}
	}
	if r.TryPush(99) {
		t.Fatalf("TryPush succeeded on a full ring")
	}

	for i := 0; i < 8; i++ {
		var v int
		if !r.TryPop(&v) {
			t.Fatalf("TryPop failed on non-empty ring")
		}
		if v != i {
			t.Fatalf("TryPop returned %d, want %d (FIFO order violated)", v, i)
		}
	}
	var v int
	if r.TryPop(&v) {
		t.Fatalf("TryPop succeeded on an empty ring")
	}
}

func TestRing_IndexedFillAndDrainTwice(t *testing.T) {
	r := New[string](4)

	for lap := 0; lap < 2; lap++ {
		for i := 0; i < 4; i++ {
			idx, ok := r.TryPushIndex("x")
			if !ok {
				t.Fatalf("lap %d: TryPushIndex(%d) failed", lap, i)
			}
			want := uint64(lap*4 + i)
			if idx != want {
				t.Fatalf("lap %d: TryPushIndex returned index %d, want %d", lap, idx, want)
			}
		}
		for i := 0; i < 4; i++ {
			var v string
			idx, ok := r.TryPopIndex(&v)
			if !ok {
				t.Fatalf("lap %d: TryPopIndex(%d) failed", lap, i)
			}
			want := uint64(lap*4 + i)
			if idx != want {
				t.Fatalf("lap %d: TryPopIndex returned index %d, want %d", lap, idx, want)
			}
		}
	}
}

func TestRing_PushKeepNOverwritesOldest(t *testing.T) {
	r := New[int](4)

	for i := 0; i < 4; i++ {
		r.PushKeepN(i)
	}
	// Ring now holds 0,1,2,3. Overwrite twice: the 2 oldest entries (0,1)
	// should be dropped, leaving 2,3,4,5.
	r.PushKeepN(4)
	r.PushKeepN(5)

	want := []int{2, 3, 4, 5}
	for _, w := range want {
		var v int
		if !r.TryPop(&v) {
			t.Fatalf("TryPop failed while draining after PushKeepN overwrite")
		}
		if v != w {
			t.Fatalf("TryPop returned %d, want %d", v, w)
		}
	}
	if !r.Empty() {
		t.Fatalf("ring not empty after draining all PushKeepN survivors")
	}
}

func TestRing_PushKeepNWithCapacityOne(t *testing.T) {
	r := New[int](1)

	for i := 0; i < 5; i++ {
		r.PushKeepN(i)
	}
	v, ok := r.Peek()
	if !ok {
		t.Fatalf("Peek failed on a ring that should hold the last PushKeepN value")
	}
	if v != 4 {
		t.Fatalf("Peek returned %d, want 4 (only the most recent PushKeepN survives)", v)
	}

	var popped int
	found := r.TryPop(&popped)
	if !found || popped != 4 {
		t.Fatalf("TryPop returned (%d, found=%v), want (4, true)", popped, found)
	}
	if !r.Empty() {
		t.Fatalf("ring not empty after draining its single slot")
	}
}

func TestRing_EmptyAndPeek(t *testing.T) {
	r := New[int](2)
	if !r.Empty() {
		t.Fatalf("freshly constructed ring is not empty")
	}
	if _, ok := r.Peek(); ok {
		t.Fatalf("Peek succeeded on an empty ring")
	}

	r.TryPush(42)
	if r.Empty() {
		t.Fatalf("ring reports empty after a successful push")
	}
	v, ok := r.Peek()
	if !ok || v != 42 {
		t.Fatalf("Peek returned (%d, %v), want (42, true)", v, ok)
	}
	// Peek must not consume.
	v, ok = r.Peek()
	if !ok || v != 42 {
		t.Fatalf("second Peek returned (%d, %v), want (42, true); Peek must not mutate state", v, ok)
	}
}

func TestRing_ConcurrentProducersConsumersPreserveCount(t *testing.T) {
	const (
		producers    = 8
		consumers    = 8
		perProducer  = 5000
		ringCapacity = 256
		total        = producers * perProducer
	)

	r := New[int](ringCapacity)

	var producersWg sync.WaitGroup
	producersWg.Add(producers)
	for p := 0; p < producers; p++ {
		go func() {
			defer producersWg.Done()
			for i := 0; i < perProducer; i++ {
				for !r.TryPush(i) {
				}
			}
		}()
	}

	var consumed atomic.Int64
	stop := make(chan struct{})
	var consumersWg sync.WaitGroup
	consumersWg.Add(consumers)
	for c := 0; c < consumers; c++ {
		go func() {
			defer consumersWg.Done()
			var v int
			for {
				if r.TryPop(&v) {
					consumed.Add(1)
					continue
				}
				select {
				case <-stop:
					return
				default:
				}
			}
		}()
	}

	producersWg.Wait()
	for consumed.Load() < total {
	}
	close(stop)
	consumersWg.Wait()

	if consumed.Load() != total {
		t.Fatalf("consumed %d items, want %d", consumed.Load(), int64(total))
	}
}

func TestRing_SingleProducerSingleConsumerDigestRoundTrip(t *testing.T) {
	const total = 1_000_000
	r := New[uint64](1024)

	var pushDigest, popDigest testhash.Digest
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := uint64(0); i < total; i++ {
			for !r.TryPush(i) {
			}
			pushDigest.Add(i)
		}
	}()

	var v uint64
	for i := uint64(0); i < total; i++ {
		for !r.TryPop(&v) {
		}
		popDigest.Add(v)
	}
	<-done

	if pushDigest.Sum() != popDigest.Sum() {
		t.Fatalf("digest mismatch after round-tripping %d items: pushed=%d popped=%d", total, pushDigest.Sum(), popDigest.Sum())
	}
}

func TestRing_MultiProducerPerProducerDigestRoundTrip(t *testing.T) {
	const (
		producers    = 4
		consumers    = 4
		perProducer  = 50_000
		ringCapacity = 512
		total        = producers * perProducer
	)

	r := New[uint64](ringCapacity)

	// Each value is globally unique (producer index packed into the high
	// bits), so the combined digest is sensitive to dropped or duplicated
	// items even though producers and consumers interleave freely.
	var pushDigests [producers]testhash.Digest
	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		p := p
		go func() {
			defer wg.Done()
			base := uint64(p) << 32
			for i := uint64(0); i < perProducer; i++ {
				v := base + i
				for !r.TryPush(v) {
				}
				pushDigests[p].Add(v)
			}
		}()
	}

	popDigests := make([]testhash.Digest, consumers)
	var consumed atomic.Int64
	stop := make(chan struct{})
	var cwg sync.WaitGroup
	cwg.Add(consumers)
	for c := 0; c < consumers; c++ {
		c := c
		go func() {
			defer cwg.Done()
			var v uint64
			for {
				if r.TryPop(&v) {
					popDigests[c].Add(v)
					consumed.Add(1)
					continue
				}
				select {
				case <-stop:
					return
				default:
				}
			}
		}()
	}

	wg.Wait()
	for consumed.Load() < total {
	}
	close(stop)
	cwg.Wait()

	var pushed, popped testhash.Digest
	for i := range pushDigests {
		pushed.Merge(&pushDigests[i])
	}
	for i := range popDigests {
		popped.Merge(&popDigests[i])
	}

	if pushed.Sum() != popped.Sum() {
		t.Fatalf("merged digest mismatch across %d producers/%d consumers: pushed=%d popped=%d", producers, consumers, pushed.Sum(), popped.Sum())
	}
}

func TestRing_PanicsOnInvalidCapacity(t *testing.T) {
	cases := []uint64{0, 3, 5, 6, 100}
	for _, c := range cases {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("New(%d) did not panic", c)
				}
			}()
			New[int](c)
		}()
	}
}

func TestRing_LazyOptionsAreIntrospectable(t *testing.T) {
	r := New[int](4, WithLazyPush(), WithLazyPop())
	if !r.LazyPush() {
		t.Fatalf("LazyPush() = false, want true after WithLazyPush()")
	}
	if !r.LazyPop() {
		t.Fatalf("LazyPop() = false, want true after WithLazyPop()")
	}
}

func BenchmarkRing_PushPop(b *testing.B) {
	r := New[int](1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for !r.TryPush(i) {
		}
		var v int
		for !r.TryPop(&v) {
		}
	}
}
