// SPDX-License-Identifier: MIT
package codec

import (
	"bytes"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
)

// streamChunk is the number of frames pulled from a beep streamer per call.
const streamChunk = 4096

func decodeMP3(data []byte) (*PCM, error) {
	s, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, err
	}
	return drain(s, format)
}

func decodeFLAC(data []byte) (*PCM, error) {
	s, format, err := flac.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return drain(s, format)
}

func decodeVorbis(data []byte) (*PCM, error) {
	s, format, err := vorbis.Decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, err
	}
	return drain(s, format)
}

// drain reads a beep streamer to the end. beep always yields stereo frames;
// mono sources are read from the left channel only.
func drain(s beep.StreamSeekCloser, format beep.Format) (*PCM, error) {
	defer s.Close()

	channels := min(max(format.NumChannels, 1), 2)
	out := planar(channels, max(s.Len(), 0))

	buf := make([][2]float64, streamChunk)
	for {
		n, ok := s.Stream(buf)
		for _, frame := range buf[:n] {
			for c := range channels {
				out[c] = append(out[c], float32(frame[c]))
			}
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return &PCM{Channels: out, SampleRate: int(format.SampleRate)}, nil
}
