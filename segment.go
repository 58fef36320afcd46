package ra_ring_buffer_go

// segment describes one contiguous run of cached elements: the absolute
// position the run started at, how many elements have been written into
// it since, and the ring slot that start position landed on. written == 0
// means the slot is free and the other fields carry no meaning.
type segment struct {
	index    uint64 // ring slot of startPos at the moment the segment opened
	startPos int64  // absolute position of the first element written
	written  int64  // elements written since opening; 0: inactive
	reversed bool   // data was produced for reverse playback (metadata only)
}

func (s segment) active() bool {
	return s.written != 0
}

// rangeEnd returns one past the last absolute position written.
func (s segment) rangeEnd() int64 {
	return s.startPos + s.written
}

// rangeStart returns the earliest absolute position still physically
// retained. written may exceed the ring capacity when a segment is
// appended to indefinitely; the circular overwrite keeps only the most
// recent size-1 elements, so the derived range clamps accordingly.
func (s segment) rangeStart(size uint64) int64 {
	return s.rangeEnd() - min(s.written, int64(size-1))
}

// covers reports whether [start, start+count) lies fully inside the
// segment's retained range. Inactive segments cover nothing.
func (s segment) covers(start int64, count int, size uint64) bool {
	if !s.active() {
		return false
	}
	return start >= s.rangeStart(size) && start+int64(count) <= s.rangeEnd()
}

// segmentToUse resolves which of two live segments the write cursor w
// currently belongs to: the one whose anchor slot is the shorter forward
// ring distance behind w, i.e. the one most recently appended to. Two
// live segments never share an anchor slot, so a distance tie means the
// descriptors are corrupt.
func segmentToUse(s0, s1 segment, w, size uint64) int {
	d0 := forwardDistance(s0.index, w, size)
	d1 := forwardDistance(s1.index, w, size)
	if d0 == d1 {
		panic("ra_ring_buffer: segment anchors collide")
	}
	if d0 < d1 {
		return 0
	}
	return 1
}

// forwardDistance is the ring distance from to back to from, in (0, size].
// from == to counts as a full lap, matching the anchor-vs-cursor
// convention: a segment whose anchor equals the cursor was opened a whole
// buffer ago.
func forwardDistance(from, to, size uint64) uint64 {
	d := (to - from) & (size - 1)
	if d == 0 {
		return size
	}
	return d
}
