// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"sync"
	"testing"
	"time"

	"audiovis/internal/config"
	"audiovis/pkg/utils"
)

const testRate = 8000

// fakeClock is a manually advanced Clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeHost hands out streams that only render when the test pulls them.
type fakeHost struct {
	initErr  error
	openErr  error
	inits    int
	terms    int
	streams  []*fakeStream
	lastFill FillFunc
	lastCfg  StreamConfig
}

func (h *fakeHost) Init() error {
	h.inits++
	return h.initErr
}

func (h *fakeHost) Terminate() error {
	h.terms++
	return nil
}

func (h *fakeHost) OpenStream(cfg StreamConfig, fill FillFunc) (Stream, error) {
	if h.openErr != nil {
		return nil, h.openErr
	}
	s := &fakeStream{}
	h.streams = append(h.streams, s)
	h.lastFill = fill
	h.lastCfg = cfg
	return s, nil
}

// pull renders frames through the most recent stream and returns them.
func (h *fakeHost) pull(frames int) []float32 {
	out := make([]float32, frames*h.lastCfg.Channels)
	h.lastFill(out)
	return out
}

type fakeStream struct {
	started, closed bool
}

func (s *fakeStream) Start() error {
	if s.closed {
		return errors.New("stream closed")
	}
	s.started = true
	return nil
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *fakeHost, *fakeClock) {
	t.Helper()
	cfg := config.Default()
	cfg.Analysis.FFTSize = 256
	host := &fakeHost{}
	clock := newFakeClock()
	e := NewEngine(cfg.Analysis, cfg.Beat, host, WithClock(clock), WithFramesPerBuffer(64))
	return e, host, clock
}

// toneWAV returns a seconds long mono WAV tone at testRate.
func toneWAV(t *testing.T, seconds float64, amplitude float64) []byte {
	t.Helper()
	samples := utils.GenerateSineWave(int(seconds*testRate), testRate, 250, amplitude)
	data, err := utils.WAVBytes(testRate, samples)
	if err != nil {
		t.Fatalf("WAVBytes() error = %v", err)
	}
	return data
}
