package ra_ring_buffer_go

import (
	"runtime"
	"sync/atomic"
)

// spinLock guards the (segment 0, segment 1, write cursor) triple so a
// snapshot of all three appears atomically consistent to the other thread.
// Critical sections hold it only for descriptor copies, never while
// element data is being copied, so spinning stays cheap.
type spinLock struct {
	held atomic.Bool
}

func (l *spinLock) lock() {
	for !l.held.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (l *spinLock) unlock() {
	l.held.Store(false)
}
