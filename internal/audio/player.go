// SPDX-License-Identifier: MIT
package audio

import (
	"sync/atomic"

	"audiovis/internal/analysis"
)

// outputChannels is the channel count of every output stream. Mono assets
// are duplicated and channels beyond the second are dropped.
const outputChannels = 2

// player is the state shared between the engine and the audio callback.
// Everything in it is either atomic or internally locked.
type player struct {
	asset   atomic.Pointer[Asset]
	cursor  atomic.Int64 // Next frame to render.
	playing atomic.Bool
	volume  *Volume
	tap     *analysis.Tap
	capture atomic.Pointer[recorder]
}

// fill renders the next output buffer and feeds the tap.
//
// Performance Critical (Hot Path):
// - No allocations
// - A concurrent seek wins over the cursor advance
func (p *player) fill(out []float32) {
	frames := len(out) / outputChannels
	a := p.asset.Load()

	if a == nil || !p.playing.Load() {
		clear(out)
	} else {
		pos := p.cursor.Load()
		gain := float32(p.volume.Get())
		left := a.samples[0]
		right := left
		if len(a.samples) > 1 {
			right = a.samples[1]
		}

		n := int(min(int64(frames), max(int64(a.frames)-pos, 0)))
		for f := range n {
			idx := pos + int64(f)
			out[f*outputChannels] = left[idx] * gain
			out[f*outputChannels+1] = right[idx] * gain
		}
		clear(out[n*outputChannels:])
		p.cursor.CompareAndSwap(pos, pos+int64(n))
	}

	p.tap.WriteInterleaved(out, outputChannels)
	if rec := p.capture.Load(); rec != nil {
		rec.write(out)
	}
}
