// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const captureBitDepth = 16

// recorder writes the post-gain output stream to a 16-bit WAV file.
type recorder struct {
	mu         sync.Mutex
	file       *os.File
	wavEncoder *wav.Encoder
	sampleBuf  *audio.IntBuffer // Reusable buffer for format conversion
	closed     bool
	err        error // First write error, reported by close.
}

func newRecorder(filename string, sampleRate, channels, framesPerBuffer int) (*recorder, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	return &recorder{
		file:       file,
		wavEncoder: wav.NewEncoder(file, sampleRate, captureBitDepth, channels, 1),
		sampleBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			Data:           make([]int, framesPerBuffer*channels),
			SourceBitDepth: captureBitDepth,
		},
	}, nil
}

// write encodes one interleaved output buffer. Called from the audio callback.
func (r *recorder) write(out []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.err != nil {
		return
	}

	if cap(r.sampleBuf.Data) < len(out) {
		r.sampleBuf.Data = make([]int, len(out))
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(out)]
	for i, s := range out {
		r.sampleBuf.Data[i] = int(math.Round(float64(max(-1, min(1, s))) * math.MaxInt16))
	}
	if err := r.wavEncoder.Write(r.sampleBuf); err != nil {
		r.err = err
	}
}

// close finalises the WAV header and closes the file.
func (r *recorder) close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	if r.err != nil {
		errs = append(errs, fmt.Errorf("write: %w", r.err))
	}
	if err := r.wavEncoder.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
