// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"sync/atomic"
)

// Volume is an output gain in [0, 1] shared with the audio callback.
type Volume struct {
	bits atomic.Uint64
}

// NewVolume returns a Volume set to v.
func NewVolume(v float64) *Volume {
	vol := &Volume{}
	vol.Set(v)
	return vol
}

// Set stores v clamped to [0, 1] and returns the stored value. NaN mutes.
func (v *Volume) Set(gain float64) float64 {
	if gain < 0.0 || math.IsNaN(gain) {
		gain = 0.0
	}
	if gain > 1.0 {
		gain = 1.0
	}
	v.bits.Store(math.Float64bits(gain))
	return gain
}

// Get returns the current gain.
func (v *Volume) Get() float64 {
	return math.Float64frombits(v.bits.Load())
}
