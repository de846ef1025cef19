// SPDX-License-Identifier: MIT
package analysis

// FeatureBuffer is one analysis frame. Slices are owned by the buffer and
// must not be modified by consumers; the analyser may hand the same buffer to
// several callers until new audio arrives.
type FeatureBuffer struct {
	Frequencies []byte    `json:"frequencies"`  // Magnitude per bin, 0-255.
	Waveform    []byte    `json:"waveform"`     // Time-domain samples, 128 is silence.
	FrequencyDB []float32 `json:"frequency_db"` // Smoothed magnitude per bin in dB.
	Peak        float64   `json:"peak"`         // [0, 1]
	RMS         float64   `json:"rms"`          // [0, 1]
	Bass        float64   `json:"bass"`         // [0, 255]
	Mid         float64   `json:"mid"`          // [0, 255]
	Treble      float64   `json:"treble"`       // [0, 255]
	Average     float64   `json:"average"`      // Mean of all bins, [0, 255].
	TimestampMs int64     `json:"timestamp_ms"`
}

// NewFeatureBuffer copies the given spectra and derives the band and level
// scalars from them. freqDB may be nil.
func NewFeatureBuffer(frequencies, waveform []byte, freqDB []float32, timestampMs int64) FeatureBuffer {
	fb := FeatureBuffer{
		Frequencies: append(make([]byte, 0, len(frequencies)), frequencies...),
		Waveform:    append(make([]byte, 0, len(waveform)), waveform...),
		FrequencyDB: append(make([]float32, 0, len(freqDB)), freqDB...),
		TimestampMs: timestampMs,
	}
	bands := SplitBands(fb.Frequencies)
	fb.Bass, fb.Mid, fb.Treble = bands.Bass, bands.Mid, bands.Treble
	fb.Average = Mean(fb.Frequencies)
	fb.Peak, fb.RMS = Levels(fb.Waveform)
	return fb
}

// EmptyFeatureBuffer is the all-zero buffer returned when nothing is loaded.
// Its slices are empty rather than nil so encoders emit [] instead of null.
func EmptyFeatureBuffer() FeatureBuffer {
	return FeatureBuffer{
		Frequencies: []byte{},
		Waveform:    []byte{},
		FrequencyDB: []float32{},
	}
}

// Bin returns the magnitude of bin i, or 0 when i is out of range.
func (fb FeatureBuffer) Bin(i int) byte {
	if i < 0 || i >= len(fb.Frequencies) {
		return 0
	}
	return fb.Frequencies[i]
}

// LowBandEnergy is the mean magnitude of the first n bins, the energy reading
// fed to the beat detector. Fewer bins than n are averaged as available.
func (fb FeatureBuffer) LowBandEnergy(n int) float64 {
	if n > len(fb.Frequencies) {
		n = len(fb.Frequencies)
	}
	if n <= 0 {
		return 0
	}
	return Mean(fb.Frequencies[:n])
}
