// SPDX-License-Identifier: MIT
package analysis

import (
	"testing"

	"audiovis/internal/config"
	"audiovis/pkg/utils"
)

const (
	testFFTSize    = 2048
	testSampleRate = 44100
)

func newTestAnalyser(t testing.TB) *Analyser {
	t.Helper()
	cfg := config.Default().Analysis
	cfg.FFTSize = testFFTSize
	a, err := NewAnalyser(cfg)
	if err != nil {
		t.Fatalf("NewAnalyser() error = %v", err)
	}
	return a
}

func TestNewAnalyserRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.AnalysisConfig)
	}{
		{"not power of two", func(c *config.AnalysisConfig) { c.FFTSize = 1000 }},
		{"smoothing out of range", func(c *config.AnalysisConfig) { c.Smoothing = 1.5 }},
		{"inverted decibels", func(c *config.AnalysisConfig) { c.MinDecibels, c.MaxDecibels = 0, -100 }},
		{"unknown window", func(c *config.AnalysisConfig) { c.Window = "triangle" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default().Analysis
			tt.mutate(&cfg)
			if _, err := NewAnalyser(cfg); err == nil {
				t.Error("NewAnalyser() error = nil, want error")
			}
		})
	}
}

func TestAnalyserSilence(t *testing.T) {
	a := newTestAnalyser(t)
	tap := NewTap(testFFTSize)
	tap.WriteInterleaved(make([]float32, testFFTSize), 1)

	fb := a.Analyse(tap, 10)

	if len(fb.Frequencies) != testFFTSize/2 {
		t.Fatalf("bins = %d, want %d", len(fb.Frequencies), testFFTSize/2)
	}
	if len(fb.Waveform) != testFFTSize {
		t.Fatalf("waveform length = %d, want %d", len(fb.Waveform), testFFTSize)
	}
	for i, v := range fb.Frequencies {
		if v != 0 {
			t.Fatalf("bin %d = %d, want 0 for silence", i, v)
		}
	}
	for i, v := range fb.Waveform {
		if v != 128 {
			t.Fatalf("waveform[%d] = %d, want 128 for silence", i, v)
		}
	}
	if fb.Peak != 0 || fb.RMS != 0 || fb.Average != 0 {
		t.Errorf("levels = peak %v rms %v avg %v, want zeros", fb.Peak, fb.RMS, fb.Average)
	}
	if fb.TimestampMs != 10 {
		t.Errorf("TimestampMs = %d, want 10", fb.TimestampMs)
	}
}

func TestAnalyserPeakBin(t *testing.T) {
	const bin = 64
	freq := float64(bin) * testSampleRate / testFFTSize

	a := newTestAnalyser(t)
	tap := NewTap(testFFTSize)
	tap.WriteInterleaved(utils.GenerateSineWave(testFFTSize, testSampleRate, freq, 0.5), 1)

	fb := a.Analyse(tap, 0)

	if got := utils.FindPeakBin(fb.Frequencies, 0, len(fb.Frequencies)-1); got != bin {
		t.Errorf("peak bin = %d, want %d", got, bin)
	}
	if fb.Frequencies[bin] == 0 {
		t.Error("peak bin magnitude is 0")
	}
	if fb.Bass == 0 {
		t.Error("bass band empty for a low tone")
	}
	if fb.Peak < 0.45 || fb.Peak > 0.55 {
		t.Errorf("Peak = %v, want about 0.5", fb.Peak)
	}
}

func TestAnalyserCachesUntilTapAdvances(t *testing.T) {
	const bin = 32
	freq := float64(bin) * testSampleRate / testFFTSize
	tone := utils.GenerateSineWave(testFFTSize, testSampleRate, freq, 0.5)

	a := newTestAnalyser(t)
	tap := NewTap(testFFTSize)
	tap.WriteInterleaved(tone, 1)

	first := a.Analyse(tap, 100)
	again := a.Analyse(tap, 116)
	if again.TimestampMs != first.TimestampMs || again.Frequencies[bin] != first.Frequencies[bin] {
		t.Errorf("repeated call without new audio changed the snapshot: %d/%d -> %d/%d",
			first.TimestampMs, first.Frequencies[bin], again.TimestampMs, again.Frequencies[bin])
	}

	// The same tone again: smoothing converges upwards.
	tap.WriteInterleaved(tone, 1)
	next := a.Analyse(tap, 132)
	if next.TimestampMs != 132 {
		t.Errorf("TimestampMs = %d, want 132", next.TimestampMs)
	}
	if next.Frequencies[bin] <= first.Frequencies[bin] {
		t.Errorf("smoothed magnitude did not rise: %d -> %d", first.Frequencies[bin], next.Frequencies[bin])
	}

	a.Reset()
	tap.Reset()
	if fb := a.Analyse(tap, 148); fb.Frequencies[bin] != 0 {
		t.Errorf("bin %d = %d after reset, want 0", bin, fb.Frequencies[bin])
	}
}

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		in      string
		want    WindowFunc
		wantErr bool
	}{
		{"Blackman", Blackman, false},
		{"hanning", Hann, false},
		{" NUTTALL ", Nuttall, false},
		{"rectangular", Hann, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWindowFunc(tt.in)
			if got != tt.want || (err != nil) != tt.wantErr {
				t.Errorf("ParseWindowFunc(%q) = (%v, %v), want (%v, err=%v)", tt.in, got, err, tt.want, tt.wantErr)
			}
		})
	}
}

func BenchmarkAnalyse(b *testing.B) {
	a := newTestAnalyser(b)
	tap := NewTap(testFFTSize)
	wave := utils.GenerateComplexWave(512, testSampleRate)

	b.ReportAllocs()

	var ts int64
	for b.Loop() {
		tap.WriteInterleaved(wave, 1)
		ts += 16
		a.Analyse(tap, ts)
	}
}
