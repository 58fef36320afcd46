package ra_ring_buffer_go

// RaRingBufferInterface defines the public API for the random-access
// ring buffer.
//
// Positions are absolute: monotonic logical indices into the conceptual
// stream (e.g. sample numbers), independent of physical ring layout. The
// buffer caches up to two disjoint position ranges ("segments") at once
// and keeps a reservation of most-recently-read elements re-readable for
// backward micro-seeks.
//
// Notes on semantics:
//   - Exactly one writer thread and one reader thread are assumed. Write,
//     Reset, SetWriteReversed and NextWritePos belong to the writer;
//     Read, IncrementReadIdx and ReadFlush to the reader. CanRead,
//     Segments and the space/cursor queries may be called from either.
//   - Write appends sequentially; a non-contiguous start opens the
//     second segment (the loop-wrap path) when one is free, and returns
//     0 when both segments already hold live data. 0 is backpressure,
//     not an error: retry after the reader advances, or Reset.
//   - Read is all-or-nothing on the requested range: it returns len(dest)
//     on a segment hit, or 0 on a cache miss or while a Reset holds the
//     seek gate. A committing miss resynchronizes the read cursor to the
//     write cursor.
//   - A committing Read may also shrink a superseded segment, handing the
//     consumed portion back to the writer as free space; a segment shrunk
//     to nothing becomes inactive.
//   - Reset blocks (the seek path is not latency-critical); Read never
//     blocks (the real-time path must not stall behind a seek).
//   - WriteSpace and ReadSpace are lock-free cursor queries. WriteSpace
//     never reports more than BufSize()-1-Reservation().
//
// Methods are safe for concurrent use only under the single-writer,
// single-reader discipline above.
type RaRingBufferInterface[T any] interface {
	Reset(start int64)
	Write(src []T, start int64) int
	Read(dest []T, start int64, commit bool) int
	CanRead(start int64, count int) bool
	NextWritePos() int64
	WriteSpace() int
	ReadSpace() int
	IncrementReadIdx(count int)
	ReadFlush()
	SetWriteReversed(reversed bool)
	Segments() [2]SegmentInfo
	GetWriteIdx() int
	GetReadIdx() int
	BufSize() int
	Reservation() int
}

var _ RaRingBufferInterface[byte] = &RaRingBuffer[byte]{}
var _ RaRingBufferInterface[float32] = &RaRingBuffer[float32]{}

// SegmentInfo is a point-in-time snapshot of one segment slot, as
// reported by Segments. Start and End bound the absolute positions still
// physically retained (End is exclusive); an inactive slot is all zero.
type SegmentInfo struct {
	Active    bool
	Start     int64
	End       int64
	RingIndex int
	Reversed  bool
}
