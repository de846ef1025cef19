// SPDX-License-Identifier: MIT
package audio

import (
	"runtime"
	"time"

	"github.com/gordonklaus/portaudio"
)

// PortAudioHost plays through a PortAudio output device.
type PortAudioHost struct {
	DeviceID   int  // config.MinDeviceID selects the system default.
	LowLatency bool // Request the device's low output latency.
}

var _ Host = (*PortAudioHost)(nil)

func (h *PortAudioHost) Init() error { return Initialize() }

func (h *PortAudioHost) Terminate() error { return Terminate() }

// OpenStream opens an output-only stream on the configured device.
func (h *PortAudioHost) OpenStream(cfg StreamConfig, fill FillFunc) (Stream, error) {
	device, err := OutputDevice(h.DeviceID)
	if err != nil {
		return nil, err
	}

	var latency time.Duration
	if h.LowLatency {
		latency = device.DefaultLowOutputLatency
	} else {
		latency = device.DefaultHighOutputLatency
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 0, // No input device
			Device:   nil,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: cfg.Channels,
			Device:   device,
			Latency:  latency,
		},
		FramesPerBuffer: cfg.FramesPerBuffer,
		SampleRate:      cfg.SampleRate,
	}

	// processOutputStream is the real-time callback.
	// Performance Critical:
	// - Runs in a dedicated OS thread (LockOSThread)
	// - Uses pre-allocated buffers only
	processOutputStream := func(out []float32) {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		fill(out)
	}

	stream, err := portaudio.OpenStream(params, processOutputStream)
	if err != nil {
		return nil, err
	}
	return &portAudioStream{stream: stream}, nil
}

type portAudioStream struct {
	stream  *portaudio.Stream
	started bool
}

func (s *portAudioStream) Start() error {
	if err := s.stream.Start(); err != nil {
		return err
	}
	s.started = true
	return nil
}

func (s *portAudioStream) Close() error {
	if s.started {
		if err := s.stream.Stop(); err != nil {
			s.stream.Close()
			return err
		}
		s.started = false
	}
	return s.stream.Close()
}
