// SPDX-License-Identifier: MIT
package analysis

import "math"

// Time-domain bytes are unsigned 8-bit samples centred on 128. A higher
// resolution analyser output needs these re-derived.
const (
	byteCenter = 128.0
	byteScale  = 128.0
)

// Levels returns the peak and RMS amplitude of an 8-bit waveform, both
// normalised to [0, 1].
func Levels(waveform []byte) (peak, rms float64) {
	if len(waveform) == 0 {
		return 0, 0
	}
	var sumSquares float64
	for _, b := range waveform {
		v := (float64(b) - byteCenter) / byteScale
		sumSquares += v * v
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	rms = math.Sqrt(sumSquares / float64(len(waveform)))
	return min(peak, 1), min(rms, 1)
}
