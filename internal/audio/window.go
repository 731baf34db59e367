// SPDX-License-Identifier: MIT
package audio

import "barvis/pkg/bitint"

// RollingWindow is a fixed-capacity queue of the most recent samples. Pushing
// past capacity evicts exactly one sample from the head. Capacity is always a
// power of two, which lets the ring index wrap with a mask.
//
// RollingWindow is not safe for concurrent use; the analyzer that owns it
// serialises pushes and snapshots.
type RollingWindow struct {
	buf   []float32
	mask  int
	head  int // index of the oldest sample
	count int
}

// NewRollingWindow returns an empty window whose capacity is capacity rounded
// up to the next power of two (minimum 1).
func NewRollingWindow(capacity int) *RollingWindow {
	size := bitint.NextPowerOfTwo(capacity)
	return &RollingWindow{
		buf:  make([]float32, size),
		mask: size - 1,
	}
}

// Push appends s at the tail, dropping the oldest sample when full.
func (w *RollingWindow) Push(s float32) {
	if w.count < len(w.buf) {
		w.buf[(w.head+w.count)&w.mask] = s
		w.count++
		return
	}
	w.buf[w.head] = s
	w.head = (w.head + 1) & w.mask
}

// Len returns the number of samples currently held.
func (w *RollingWindow) Len() int { return w.count }

// Cap returns the effective (power-of-two) capacity.
func (w *RollingWindow) Cap() int { return len(w.buf) }

// Snapshot returns a freshly allocated, oldest-first copy of the window.
func (w *RollingWindow) Snapshot() []float32 {
	return w.SnapshotInto(make([]float32, 0, w.count))
}

// SnapshotInto writes the window oldest-first into dst (reusing its backing
// array when large enough) and returns the filled slice. The window itself
// is not modified.
func (w *RollingWindow) SnapshotInto(dst []float32) []float32 {
	if cap(dst) < w.count {
		dst = make([]float32, w.count)
	}
	dst = dst[:w.count]

	// Two contiguous runs: head..end of buffer, then the wrapped part.
	first := min(w.count, len(w.buf)-w.head)
	copy(dst, w.buf[w.head:w.head+first])
	copy(dst[first:], w.buf[:w.count-first])
	return dst
}
