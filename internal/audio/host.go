// SPDX-License-Identifier: MIT
package audio

// FillFunc renders the next buffer of interleaved output samples. It runs on
// the host's audio thread and must not block or allocate.
type FillFunc func(out []float32)

// StreamConfig describes an output stream.
type StreamConfig struct {
	SampleRate      float64
	Channels        int
	FramesPerBuffer int
}

// Host is the platform audio subsystem.
type Host interface {
	// Init acquires the subsystem. It is called once per engine.
	Init() error
	// OpenStream opens an output stream that pulls audio from fill. The stream
	// is created stopped.
	OpenStream(cfg StreamConfig, fill FillFunc) (Stream, error)
	// Terminate releases the subsystem.
	Terminate() error
}

// Stream is an open output stream.
type Stream interface {
	Start() error
	// Close stops the stream if needed and releases it.
	Close() error
}
