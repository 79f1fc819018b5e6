// Package spin provides a small backoff helper for code that busy-waits on
// a Ring's TryPush/TryPop returning false. It is never used by the ring
// package itself — the core stays a pure try-once primitive — only by the
// benchmark harness, which needs to wait for a condition without pegging a
// CPU core at 100% doing nothing useful.
package spin

import (
	"runtime"
	"time"
)

// Backoff yields increasingly to the scheduler on each call, starting with
// a runtime.Gosched and escalating to short sleeps under sustained
// contention. Callers reset it with Reset once their wait condition is
// satisfied.
type Backoff struct {
	attempts int
}

// New returns a Backoff ready for its first Wait call.
func New() *Backoff {
	return &Backoff{}
}

// Wait performs one backoff step.
func (b *Backoff) Wait() {
	b.attempts++
	switch {
	case b.attempts < 32:
		runtime.Gosched()
	case b.attempts < 256:
		time.Sleep(time.Microsecond)
	default:
		time.Sleep(time.Millisecond)
	}
}

// Reset clears the accumulated attempt count, e.g. after a successful
// TryPush/TryPop following a run of failures.
func (b *Backoff) Reset() {
	b.attempts = 0
}
