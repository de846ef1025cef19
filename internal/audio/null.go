// SPDX-License-Identifier: MIT
package audio

import (
	"sync"
	"time"
)

// NullHost is a headless host. Its streams pull buffers in real time from a
// goroutine and discard them, so the analyser sees exactly what would have
// been played.
type NullHost struct{}

var _ Host = NullHost{}

func (NullHost) Init() error      { return nil }
func (NullHost) Terminate() error { return nil }

func (NullHost) OpenStream(cfg StreamConfig, fill FillFunc) (Stream, error) {
	period := time.Duration(float64(cfg.FramesPerBuffer) / cfg.SampleRate * float64(time.Second))
	if period <= 0 {
		period = 10 * time.Millisecond
	}
	return &nullStream{
		fill:   fill,
		buf:    make([]float32, cfg.FramesPerBuffer*cfg.Channels),
		period: period,
		done:   make(chan struct{}),
	}, nil
}

type nullStream struct {
	fill   FillFunc
	buf    []float32
	period time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

func (s *nullStream) Start() error {
	s.startOnce.Do(func() {
		s.wg.Add(1)
		go s.run()
	})
	return nil
}

func (s *nullStream) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.fill(s.buf)
		}
	}
}

func (s *nullStream) Close() error {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
	return nil
}
