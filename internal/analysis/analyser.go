// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"audiovis/internal/config"
	applog "audiovis/internal/log"
	"audiovis/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

var logger = applog.For("analysis")

// WindowFunc defines the type for selecting an FFT window function.
type WindowFunc int

// Enum for available window functions.
const (
	BartlettHann WindowFunc = iota
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

// String returns the canonical name accepted by ParseWindowFunc.
func (w WindowFunc) String() string {
	switch w {
	case BartlettHann:
		return "BartlettHann"
	case Blackman:
		return "Blackman"
	case BlackmanNuttall:
		return "BlackmanNuttall"
	case Hann:
		return "Hann"
	case Hamming:
		return "Hamming"
	case Lanczos:
		return "Lanczos"
	case Nuttall:
		return "Nuttall"
	default:
		return fmt.Sprintf("WindowFunc(%d)", int(w))
	}
}

// Pre-allocated buffers for one analysis pass.
type workspace struct {
	samples   []float32    // Latest fftSize frames from the tap.
	input     []float64    // Windowed input signal.
	fftOutput []complex128 // FFT complex results, fftSize/2 + 1 values.
	smoothed  []float64    // Smoothed linear magnitude per bin, carried across frames.
	window    []float64    // Pre-calculated window coefficients.
	freqDB    []float32
	freqBytes []byte
	timeBytes []byte
}

// Analyser turns the newest fftSize samples of a Tap into a FeatureBuffer
// using the same pipeline as a browser AnalyserNode: window, real FFT,
// magnitude scaled by 1/N, one-pole smoothing, decibels and byte scaling.
//
// An Analyser is not safe for concurrent use. It is driven from the frame
// loop; only the Tap is shared with the audio callback.
type Analyser struct {
	fftCalculator *fourier.FFT
	fftSize       int
	smoothing     float64
	minDecibels   float64
	maxDecibels   float64
	windowType    WindowFunc
	workspace     workspace

	lastWritten uint64
	cached      FeatureBuffer
	hasCache    bool
}

// NewAnalyser validates cfg and pre-allocates every buffer the analysis pass
// needs.
func NewAnalyser(cfg config.AnalysisConfig) (*Analyser, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	windowType, err := ParseWindowFunc(cfg.Window)
	if err != nil {
		return nil, err
	}

	n := cfg.FFTSize
	coeffs := make([]float64, n)
	applyWindow(coeffs, windowType)

	logger.Debugf("analyser fft=%d (2^%d) smoothing=%.2f range=[%g, %g] dB window=%v",
		n, bitint.Log2(n), cfg.Smoothing, cfg.MinDecibels, cfg.MaxDecibels, windowType)

	return &Analyser{
		fftCalculator: fourier.NewFFT(n),
		fftSize:       n,
		smoothing:     cfg.Smoothing,
		minDecibels:   cfg.MinDecibels,
		maxDecibels:   cfg.MaxDecibels,
		windowType:    windowType,
		workspace: workspace{
			samples:   make([]float32, n),
			input:     make([]float64, n),
			fftOutput: make([]complex128, n/2+1),
			smoothed:  make([]float64, n/2),
			window:    coeffs,
			freqDB:    make([]float32, n/2),
			freqBytes: make([]byte, n/2),
			timeBytes: make([]byte, n),
		},
	}, nil
}

// FFTSize returns the number of samples per analysis window.
func (a *Analyser) FFTSize() int { return a.fftSize }

// BinCount returns the number of frequency bins, fftSize/2.
func (a *Analyser) BinCount() int { return a.fftSize / 2 }

// Analyse returns the features of the newest window in tap. When the tap has
// not advanced since the previous call the cached buffer is returned and
// smoothing is not applied again.
func (a *Analyser) Analyse(tap *Tap, timestampMs int64) FeatureBuffer {
	ws := &a.workspace
	written := tap.Latest(ws.samples)
	if a.hasCache && written == a.lastWritten {
		return a.cached
	}

	// --- 1. Window ---
	for i, s := range ws.samples {
		ws.input[i] = float64(s) * ws.window[i]
	}

	// --- 2. FFT ---
	a.fftCalculator.Coefficients(ws.fftOutput, ws.input)

	// --- 3. Smoothed magnitude, decibels and bytes ---
	scale := 1 / float64(a.fftSize)
	rangeScale := 255 / (a.maxDecibels - a.minDecibels)
	for k := range ws.smoothed {
		mag := cmplx.Abs(ws.fftOutput[k]) * scale
		s := a.smoothing*ws.smoothed[k] + (1-a.smoothing)*mag
		if math.IsNaN(s) || math.IsInf(s, 0) {
			s = 0
		}
		ws.smoothed[k] = s

		db := 20 * math.Log10(s) // -Inf for silence.
		ws.freqDB[k] = float32(db)
		ws.freqBytes[k] = clampByte(math.Floor(rangeScale * (db - a.minDecibels)))
	}

	// --- 4. Time domain ---
	for i, s := range ws.samples {
		ws.timeBytes[i] = clampByte(math.Floor(byteCenter * (1 + float64(s))))
	}

	a.cached = NewFeatureBuffer(ws.freqBytes, ws.timeBytes, ws.freqDB, timestampMs)
	a.lastWritten = written
	a.hasCache = true
	return a.cached
}

// Reset clears the smoothing state and the cached snapshot.
func (a *Analyser) Reset() {
	clear(a.workspace.smoothed)
	a.cached = FeatureBuffer{}
	a.hasCache = false
}

func clampByte(v float64) byte {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 255:
		return 255
	default:
		return byte(v)
	}
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc
// enum, returns a known default (Hann) and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "bartletthann":
		return BartlettHann, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// applyWindow fills coeffs with the selected window. Unknown types fall back
// to Hann.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	// gonum windows scale the slice in place, so start from all ones.
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		logger.Warnf("unknown window function type %d, defaulting to Hann", windowType)
		window.Hann(coeffs)
	}
}
