// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"audiovis/internal/config"
)

// BeatEstimate is the detector's state after one energy reading.
type BeatEstimate struct {
	BPM        float64 `json:"bpm"`        // 0 until two onsets have been seen.
	Onsets     []int64 `json:"onsets"`     // Most recent onset times in ms, oldest first.
	Onset      bool    `json:"onset"`      // Whether this reading fired an onset.
	Confidence float64 `json:"confidence"` // [0, 1], grows with the onset history.
}

// BeatDetector turns successive low-frequency energy readings into onsets and
// a tempo estimate. An onset fires when the reading exceeds mean+sigma*stddev
// of the recent window and the refractory period has passed since the last
// onset. This is an energy threshold, not a spectral-flux onset function; it
// is good enough to drive visuals but not for beat-accurate analysis.
//
// A BeatDetector is not safe for concurrent use.
type BeatDetector struct {
	sigma        float64
	refractoryMs int64
	historySize  int

	energies []float64 // Ring of the last len(energies) readings.
	next     int
	count    int

	onsets []int64
	bpm    float64
}

// NewBeatDetector returns a detector tuned by cfg. Out-of-range values fall
// back to the defaults.
func NewBeatDetector(cfg config.BeatConfig) *BeatDetector {
	def := config.Default().Beat
	if cfg.WindowSize < 2 {
		cfg.WindowSize = def.WindowSize
	}
	if cfg.Sigma < 0 || math.IsNaN(cfg.Sigma) {
		cfg.Sigma = def.Sigma
	}
	if cfg.Refractory < 0 {
		cfg.Refractory = def.Refractory
	}
	if cfg.History < 2 {
		cfg.History = def.History
	}
	return &BeatDetector{
		sigma:        cfg.Sigma,
		refractoryMs: cfg.Refractory.Milliseconds(),
		historySize:  cfg.History,
		energies:     make([]float64, cfg.WindowSize),
		onsets:       make([]int64, 0, cfg.History),
	}
}

// Process adds one energy reading taken at nowMs and returns the updated
// estimate. Non-finite or negative readings are ignored.
func (d *BeatDetector) Process(energy float64, nowMs int64) BeatEstimate {
	if math.IsNaN(energy) || math.IsInf(energy, 0) || energy < 0 {
		return d.estimate(false)
	}

	d.energies[d.next] = energy
	d.next = (d.next + 1) % len(d.energies)
	if d.count < len(d.energies) {
		d.count++
	}

	mean, stddev := d.stats()
	threshold := mean + d.sigma*stddev

	fired := false
	if energy > threshold && d.refractoryElapsed(nowMs) {
		d.recordOnset(nowMs)
		fired = true
	}
	return d.estimate(fired)
}

// Estimate returns the current estimate without consuming a reading.
func (d *BeatDetector) Estimate() BeatEstimate {
	return d.estimate(false)
}

// Reset forgets all readings and onsets.
func (d *BeatDetector) Reset() {
	clear(d.energies)
	d.next, d.count = 0, 0
	d.onsets = d.onsets[:0]
	d.bpm = 0
}

// stats returns the population mean and standard deviation of the window.
func (d *BeatDetector) stats() (mean, stddev float64) {
	window := d.energies[:d.count]
	if d.count == len(d.energies) {
		window = d.energies
	}
	var sum float64
	for _, e := range window {
		sum += e
	}
	mean = sum / float64(len(window))

	var sq float64
	for _, e := range window {
		diff := e - mean
		sq += diff * diff
	}
	return mean, math.Sqrt(sq / float64(len(window)))
}

func (d *BeatDetector) refractoryElapsed(nowMs int64) bool {
	if len(d.onsets) == 0 {
		return true
	}
	return nowMs-d.onsets[len(d.onsets)-1] >= d.refractoryMs
}

func (d *BeatDetector) recordOnset(nowMs int64) {
	if len(d.onsets) == d.historySize {
		copy(d.onsets, d.onsets[1:])
		d.onsets = d.onsets[:len(d.onsets)-1]
	}
	d.onsets = append(d.onsets, nowMs)

	if len(d.onsets) < 2 {
		return
	}
	// Mean of consecutive intervals telescopes to (last-first)/(n-1).
	span := d.onsets[len(d.onsets)-1] - d.onsets[0]
	meanInterval := float64(span) / float64(len(d.onsets)-1)
	if meanInterval > 0 {
		d.bpm = 60000 / meanInterval
	}
}

func (d *BeatDetector) estimate(fired bool) BeatEstimate {
	return BeatEstimate{
		BPM:        d.bpm,
		Onsets:     append(make([]int64, 0, len(d.onsets)), d.onsets...),
		Onset:      fired,
		Confidence: min(float64(len(d.onsets))/float64(d.historySize), 1),
	}
}
