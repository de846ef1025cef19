// SPDX-License-Identifier: MIT
package codec

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-audio/wav"
)

func decodeWAV(data []byte) (*PCM, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		return nil, errors.New("invalid WAV header")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, errors.New("WAV has no channels")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(d.BitDepth)
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported WAV bit depth %d", bitDepth)
	}

	// Integer PCM: full scale is 2^(bits-1). 8-bit WAV is unsigned.
	scale := 1 / float32(int64(1)<<(bitDepth-1))
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}

	channels := buf.Format.NumChannels
	frames := len(buf.Data) / channels
	out := planar(channels, frames)
	for f := range frames {
		for c := range channels {
			out[c] = append(out[c], float32(buf.Data[f*channels+c]-offset)*scale)
		}
	}
	return &PCM{Channels: out, SampleRate: buf.Format.SampleRate}, nil
}
