// SPDX-License-Identifier: MIT
package utils

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV encodes planar float samples as integer PCM WAV at path.
func WriteWAV(path string, sampleRate, bitDepth int, channels ...[]float32) error {
	if len(channels) == 0 {
		return fmt.Errorf("no channels")
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(file, sampleRate, bitDepth, len(channels), 1)
	fullScale := float64(int64(1)<<(bitDepth-1)) - 1
	interleaved := Interleave(channels...)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: len(channels),
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(interleaved)),
		SourceBitDepth: bitDepth,
	}
	for i, s := range interleaved {
		buf.Data[i] = int(math.Round(float64(s) * fullScale))
	}

	if err := enc.Write(buf); err != nil {
		file.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// WAVBytes returns the bytes of a 16-bit WAV file holding channels.
func WAVBytes(sampleRate int, channels ...[]float32) ([]byte, error) {
	tmp, err := os.CreateTemp("", "audiovis-*.wav")
	if err != nil {
		return nil, err
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	if err := WriteWAV(path, sampleRate, 16, channels...); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}
