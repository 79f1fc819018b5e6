// Copyright (c) 2026 The Ring Queue Authors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package ring provides a bounded, lock-free multi-producer / multi-consumer
// (MPMC) ring queue for high-throughput, low-latency inter-goroutine
// communication.
//
// # Thread-Safety Guarantees
//
// Ring[T] is safe for concurrent use by any number of producer and consumer
// goroutines simultaneously. Unlike a single-producer single-consumer ring
// buffer, no access pattern is restricted: every exported method may be
// called from as many goroutines as the caller wishes, in any combination.
//
// # Performance Characteristics
//
//   - Lock-free O(1) operations under contention: TryPush and TryPop make
//     bounded-step progress; no goroutine blocks another.
//   - Zero allocations on the push/pop path: all slots are pre-allocated at
//     construction.
//   - Cache-line padding: the write and read sequence counters, and each
//     slot, are padded to avoid false sharing.
//   - Full-queue and empty-queue behavior are both non-blocking: TryPush and
//     TryPop return false rather than waiting.
//
// # Usage Example
//
//	r := ring.New[int](64) // capacity must be a power of 2
//
//	var wg sync.WaitGroup
//	wg.Add(1)
//	go func() {
//	    defer wg.Done()
//	    for i := 0; i < 100; i++ {
//	        for !r.TryPush(i) {
//	            runtime.Gosched()
//	        }
//	    }
//	}()
//
//	for i := 0; i < 100; i++ {
//	    var v int
//	    for !r.TryPop(&v) {
//	        runtime.Gosched()
//	    }
//	    fmt.Println(v)
//	}
//	wg.Wait()
//
// # Related packages
//
//   - [github.com/mpmcring/ring/pack] stripes several Rings together to
//     reduce cross-core contention, at the cost of cross-ring ordering.
//   - [github.com/mpmcring/ring/shared] places a Ring inside a memory-mapped
//     file so unrelated processes can attach as producers or consumers.
package ring
