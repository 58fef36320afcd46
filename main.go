// Package ra_ring_buffer_go implements a random-access ring buffer: a
// fixed-capacity cache over an abstract stream of fixed-size elements
// addressed by absolute 64-bit position, intended for audio playback.
//
// A single writer fills the buffer sequentially from a given start
// position. A single reader may read any cached range, including ranges
// it has already consumed, without invalidating data; a configurable
// reservation of most-recently-read elements is guaranteed never to be
// overwritten, which is what makes backward micro-seeks possible.
//
// For non-linear playback (looping) the buffer holds up to two disjoint
// cached ranges at once, so the end of a loop and the start of the next
// iteration can coexist. Before writing past a loop point the writer
// should check CanRead: if the whole loop fits, it only needs to be
// written once.
//
// The writer and the seek path may block; the reader never does. Known
// limitations, inherited from the protocol and deliberately not papered
// over: moving the read cursor backward by more than the reservation
// breaks WriteSpace's forward-monotonic assumption, and shortening a
// loop while both segments hold live data leaves the writer with no slot
// to open (Write keeps returning 0 until the reader drains a segment or
// the writer calls Reset).
package ra_ring_buffer_go

import (
	"sync"
	"sync/atomic"
)

type RaRingBuffer[T any] struct {
	data        []T
	size        uint64
	mask        uint64
	reservation uint64

	seg [2]segment

	// Stamped onto segments as they open; writer thread only.
	writeReversed bool

	// Ring-relative cursors, each one past the most recently
	// written/read element. Atomic so the space queries stay lock-free.
	writeIdx atomic.Uint64
	readIdx  atomic.Uint64

	// segLock keeps (seg[0], seg[1], writeIdx) mutually consistent for
	// snapshot and publish.
	segLock spinLock

	// resetLock separates Reset from Read. Reset blocks on it; Read
	// only ever tries it.
	resetLock sync.Mutex
}

// calculateBufferSize returns the smallest power of two that can hold
// the requested capacity plus the rewind reservation.
func calculateBufferSize(size, reservation int) uint64 {
	total := uint64(size + reservation)

	power := uint64(1)
	for power < total {
		power <<= 1
	}

	return power
}

// NewRaRingBuffer allocates a buffer able to cache at least size
// elements on top of a reservation of re-readable history. Capacity is
// rounded up to a power of two and never changes afterwards.
func NewRaRingBuffer[T any](size int, reservation int) *RaRingBuffer[T] {
	if size <= 0 || reservation < 0 {
		panic("ra_ring_buffer: size must be >0 and reservation >=0")
	}

	bufferSize := calculateBufferSize(size, reservation)

	buffer := &RaRingBuffer[T]{
		data:        make([]T, bufferSize),
		size:        bufferSize,
		mask:        bufferSize - 1,
		reservation: uint64(reservation),
	}

	buffer.Reset(0)

	return buffer
}

// Reset discards all cached history and restarts sequential writing at
// the given absolute position. It is the seek path: it blocks until any
// in-flight Read has finished, and concurrent Reads return 0 while it
// runs.
func (buffer *RaRingBuffer[T]) Reset(start int64) {
	buffer.resetLock.Lock()
	defer buffer.resetLock.Unlock()

	buffer.segLock.lock()
	buffer.seg[0].startPos = start
	buffer.seg[0].written = 0
	buffer.seg[1].written = 0
	buffer.writeIdx.Store(buffer.readIdx.Load())
	buffer.segLock.unlock()
}

// Write appends src starting at absolute position start and returns the
// number of elements actually written. Writes must continue a cached
// segment or open a fresh one; a non-contiguous start while both
// segments hold live data returns 0, as does a full buffer. Both are
// backpressure, not errors: retry after the reader has advanced, or
// Reset.
//
// A short write means the buffer ran out of space; re-issue the
// remainder at the advanced position once the reader catches up.
func (buffer *RaRingBuffer[T]) Write(src []T, start int64) int {
	buffer.segLock.lock()
	s := buffer.seg
	buffer.segLock.unlock()

	w := buffer.writeIdx.Load()

	var target int
	switch {
	case !s[0].active() && !s[1].active():
		target = 0
		s[0] = segment{index: w, startPos: start, reversed: buffer.writeReversed}
	case s[0].active() && !s[1].active():
		target = 0
	case s[1].active() && !s[0].active():
		target = 1
	default:
		target = segmentToUse(s[0], s[1], w, buffer.size)
		if start != s[target].rangeEnd() {
			// Both slots hold live data and start continues neither:
			// there is no free slot to open a new run in.
			return 0
		}
	}

	if start != s[target].rangeEnd() {
		// Non-contiguous write with a free slot available: open the
		// other segment there. This is the loop-wrap path.
		target = 1 - target
		s[target] = segment{index: w, startPos: start, reversed: buffer.writeReversed}
	}

	free := buffer.WriteSpace()
	if free == 0 {
		return 0
	}

	toWrite := len(src)
	if toWrite > free {
		toWrite = free
	}

	w = buffer.copyIn(src[:toWrite], w)

	s[target].written += int64(toWrite)

	buffer.segLock.lock()
	buffer.seg[target] = s[target]
	buffer.writeIdx.Store(w)
	buffer.segLock.unlock()

	return toWrite
}

// Read copies len(dest) elements cached at absolute position start into
// dest. The match is all-or-nothing: if no segment covers the whole
// range, Read copies nothing and returns 0 (and, when committing, snaps
// the read cursor forward to the write cursor to resynchronize).
//
// With commit set, the read cursor advances past the delivered range and
// consumed data in a superseded segment is handed back to the writer as
// free space. Without it the read is a pure peek and may be repeated.
//
// Read never blocks: if a Reset is in progress it returns 0 immediately
// with no side effects, and the caller should simply try again later.
func (buffer *RaRingBuffer[T]) Read(dest []T, start int64, commit bool) int {
	if !buffer.resetLock.TryLock() {
		// Seek in progress.
		return 0
	}
	defer buffer.resetLock.Unlock()

	count := len(dest)

	buffer.segLock.lock()
	s := buffer.seg
	w := buffer.writeIdx.Load()
	buffer.segLock.unlock()

	match := 0
	var r uint64
	for i := range s {
		if !s[i].covers(start, count, buffer.size) {
			continue
		}
		end := (s[i].index + uint64(s[i].written)) & buffer.mask
		back := uint64(s[i].rangeEnd() - start)
		r = (end + buffer.size - back) & buffer.mask
		match |= i + 1
	}

	if match != 1 && match != 2 {
		if commit {
			// Cache miss: give up on the requested range and
			// resynchronize the reader to the newest data.
			buffer.readIdx.Store(w)
		}
		return 0
	}

	r = buffer.copyOut(dest, r)

	if commit {
		if s[0].active() && s[1].active() {
			// One segment is the writer's current run, the other the
			// stale remainder of the previous one. Committing a read
			// from the stale segment releases the consumed portion
			// back to the writer while keeping its unread tail
			// addressable.
			stale := 1 - segmentToUse(s[0], s[1], w, buffer.size)
			if match-1 == stale {
				buffer.shrinkSegment(stale, start+int64(count), r)
			}
		}
		buffer.readIdx.Store(r)
	}

	return count
}

// shrinkSegment advances segment i past the consumed range ending at
// end, re-anchoring it at ring slot r. A segment shrunk to zero written
// elements becomes inactive and its slot is free to reuse.
func (buffer *RaRingBuffer[T]) shrinkSegment(i int, end int64, r uint64) {
	buffer.segLock.lock()
	defer buffer.segLock.unlock()

	delta := end - buffer.seg[i].startPos
	if delta < 0 || delta > buffer.seg[i].written {
		panic("ra_ring_buffer: consumed range outside stale segment")
	}

	buffer.seg[i].startPos = end
	buffer.seg[i].written -= delta
	buffer.seg[i].index = r
}

// CanRead reports whether [start, start+count) is fully covered by a
// cached segment, without copying or moving any cursor. The writer uses
// it across a loop boundary to skip re-writing data that is already
// cached.
func (buffer *RaRingBuffer[T]) CanRead(start int64, count int) bool {
	buffer.segLock.lock()
	s := buffer.seg
	buffer.segLock.unlock()

	return s[0].covers(start, count, buffer.size) || s[1].covers(start, count, buffer.size)
}

// NextWritePos returns the absolute position the writer is expected to
// supply on its next sequential Write.
func (buffer *RaRingBuffer[T]) NextWritePos() int64 {
	buffer.segLock.lock()
	s := buffer.seg
	w := buffer.writeIdx.Load()
	buffer.segLock.unlock()

	switch {
	case !s[0].active() && !s[1].active():
		return s[0].startPos
	case s[0].active() && s[1].active():
		return s[segmentToUse(s[0], s[1], w, buffer.size)].rangeEnd()
	case s[0].active():
		return s[0].rangeEnd()
	default:
		return s[1].rangeEnd()
	}
}

// WriteSpace returns how many elements Write can currently accept.
// Lock-free; derived from the two cursors only.
//
// One slot short of the reservation boundary is always withheld, so the
// result never exceeds BufSize()-1-Reservation(). If the read cursor has
// moved backward into the reservation (e.g. a declick fade after
// stopping capture), WriteSpace degrades to 0 rather than promising
// space it cannot defend.
func (buffer *RaRingBuffer[T]) WriteSpace() int {
	w := buffer.writeIdx.Load()
	r := buffer.readIdx.Load()

	var space uint64
	switch {
	case w > r:
		space = (r - w + buffer.size) & buffer.mask
	case w < r:
		space = r - w
	default:
		space = buffer.size
	}

	if space > buffer.reservation {
		return int(space - 1 - buffer.reservation)
	}
	return 0
}

// ReadSpace returns the ring distance from the read cursor to the write
// cursor: how much sequentially written data the reader has not yet
// consumed. Lock-free.
func (buffer *RaRingBuffer[T]) ReadSpace() int {
	w := buffer.writeIdx.Load()
	r := buffer.readIdx.Load()

	if w > r {
		return int(w - r)
	}
	return int((w - r + buffer.size) & buffer.mask)
}

// IncrementReadIdx advances the read cursor by count elements without
// copying any data, for skip/discard. Clamped to ReadSpace.
func (buffer *RaRingBuffer[T]) IncrementReadIdx(count int) {
	if count <= 0 {
		return
	}
	if space := buffer.ReadSpace(); count > space {
		count = space
	}
	buffer.readIdx.Store((buffer.readIdx.Load() + uint64(count)) & buffer.mask)
}

// ReadFlush snaps the read cursor to the write cursor, discarding all
// pending unread data.
func (buffer *RaRingBuffer[T]) ReadFlush() {
	buffer.readIdx.Store(buffer.writeIdx.Load())
}

// SetWriteReversed tags segments opened by subsequent Writes as holding
// reverse-playback data. The buffer itself never interprets the flag; it
// is carried for the consumer's benefit and reported by Segments.
// Writer thread only.
func (buffer *RaRingBuffer[T]) SetWriteReversed(reversed bool) {
	buffer.writeReversed = reversed
}

// Segments reports the current state of both segment slots.
func (buffer *RaRingBuffer[T]) Segments() [2]SegmentInfo {
	buffer.segLock.lock()
	s := buffer.seg
	buffer.segLock.unlock()

	var info [2]SegmentInfo
	for i := range s {
		if !s[i].active() {
			continue
		}
		info[i] = SegmentInfo{
			Active:    true,
			Start:     s[i].rangeStart(buffer.size),
			End:       s[i].rangeEnd(),
			RingIndex: int(s[i].index),
			Reversed:  s[i].reversed,
		}
	}
	return info
}

// GetWriteIdx returns the ring-relative write cursor. Lock-free.
func (buffer *RaRingBuffer[T]) GetWriteIdx() int {
	return int(buffer.writeIdx.Load())
}

// GetReadIdx returns the ring-relative read cursor. Lock-free.
func (buffer *RaRingBuffer[T]) GetReadIdx() int {
	return int(buffer.readIdx.Load())
}

// BufSize returns the physical capacity, a power of two.
func (buffer *RaRingBuffer[T]) BufSize() int {
	return int(buffer.size)
}

// Reservation returns how many most-recently-read elements the writer
// guarantees never to overwrite.
func (buffer *RaRingBuffer[T]) Reservation() int {
	return int(buffer.reservation)
}

// copyIn copies src into the ring starting at slot w, wrapping at the
// boundary, and returns the slot one past the last element written.
func (buffer *RaRingBuffer[T]) copyIn(src []T, w uint64) uint64 {
	n := copy(buffer.data[w:], src)
	if n < len(src) {
		return uint64(copy(buffer.data, src[n:]))
	}
	return (w + uint64(n)) & buffer.mask
}

// copyOut copies len(dest) elements out of the ring starting at slot r,
// wrapping at the boundary, and returns the slot one past the last
// element read.
func (buffer *RaRingBuffer[T]) copyOut(dest []T, r uint64) uint64 {
	n := copy(dest, buffer.data[r:])
	if n < len(dest) {
		return uint64(copy(dest[n:], buffer.data))
	}
	return (r + uint64(n)) & buffer.mask
}
