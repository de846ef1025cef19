// SPDX-License-Identifier: MIT
package analysis

import "sync"

// Tap is a ring buffer of the most recently played mono samples. The audio
// callback writes into it and the analyser reads the latest window from the
// frame loop.
type Tap struct {
	mu      sync.Mutex
	buf     []float32
	pos     int
	written uint64 // Total frames written; the analyser keys its cache on it.
}

// NewTap returns a tap holding size frames.
func NewTap(size int) *Tap {
	if size < 1 {
		size = 1
	}
	return &Tap{buf: make([]float32, size)}
}

// Size returns the ring capacity in frames.
func (t *Tap) Size() int { return len(t.buf) }

// WriteInterleaved downmixes interleaved frames to mono and appends them.
// Called from the audio callback; it does not allocate.
func (t *Tap) WriteInterleaved(samples []float32, channels int) {
	if channels < 1 {
		channels = 1
	}
	frames := len(samples) / channels
	scale := 1 / float32(channels)

	t.mu.Lock()
	for f := range frames {
		var sum float32
		for c := range channels {
			sum += samples[f*channels+c]
		}
		t.buf[t.pos] = sum * scale
		t.pos++
		if t.pos == len(t.buf) {
			t.pos = 0
		}
	}
	t.written += uint64(frames)
	t.mu.Unlock()
}

// Latest fills dst with the newest len(dst) frames in chronological order and
// returns the write counter at the time of the copy. Frames older than the
// ring capacity read as silence.
func (t *Tap) Latest(dst []float32) uint64 {
	n := len(dst)
	size := len(t.buf)

	t.mu.Lock()
	defer t.mu.Unlock()

	pad := 0
	if n > size {
		pad = n - size
		n = size
	}
	clear(dst[:pad])
	start := (t.pos - n + size) % size
	for i := range n {
		dst[pad+i] = t.buf[(start+i)%size]
	}
	return t.written
}

// Written returns the total number of frames written since creation or the
// last Reset.
func (t *Tap) Written() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.written
}

// Reset fills the ring with silence. The write counter keeps counting so a
// cached analysis never survives a reset.
func (t *Tap) Reset() {
	t.mu.Lock()
	clear(t.buf)
	t.pos = 0
	t.written++
	t.mu.Unlock()
}
