// SPDX-License-Identifier: MIT
package analysis

// Band boundaries as fractions of the bin count. Bass covers [0, 0.1N),
// mid [0.1N, 0.3N) and treble [0.3N, N).
const (
	bassFraction = 0.1
	midFraction  = 0.3
)

// Bands holds band-averaged magnitudes in [0, 255].
type Bands struct {
	Bass   float64 `json:"bass"`
	Mid    float64 `json:"mid"`
	Treble float64 `json:"treble"`
}

// BandRanges returns the exclusive end indices of the bass and mid bands for
// n bins. Treble runs from midEnd to n.
func BandRanges(n int) (bassEnd, midEnd int) {
	if n <= 0 {
		return 0, 0
	}
	// Integer form of floor(0.1n) and floor(0.3n), exact for every n.
	return n / 10, n * 3 / 10
}

// SplitBands averages the bins of each band. An empty band averages to 0.
func SplitBands(frequencies []byte) Bands {
	bassEnd, midEnd := BandRanges(len(frequencies))
	return Bands{
		Bass:   Mean(frequencies[:bassEnd]),
		Mid:    Mean(frequencies[bassEnd:midEnd]),
		Treble: Mean(frequencies[midEnd:]),
	}
}

// Mean returns the arithmetic mean of the values, or 0 for an empty slice.
func Mean(values []byte) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum int
	for _, v := range values {
		sum += int(v)
	}
	return float64(sum) / float64(len(values))
}
