// SPDX-License-Identifier: MIT
package codec

import (
	"bytes"
	"errors"
	"io"

	"gopkg.in/hraban/opus.v2"
)

// Opus always decodes at 48 kHz regardless of the input rate in the header.
const opusSampleRate = 48000

func decodeOpus(data []byte) (*PCM, error) {
	channels := opusChannels(data)
	if channels == 0 {
		return nil, errors.New("missing OpusHead")
	}

	s, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer s.Close()

	out := planar(channels, 0)
	// 120 ms is the longest Opus frame.
	pcm := make([]float32, opusSampleRate*120/1000*channels)
	for {
		n, err := s.ReadFloat32(pcm)
		for f := range n {
			for c := range channels {
				out[c] = append(out[c], pcm[f*channels+c])
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if n == 0 {
			break
		}
	}
	return &PCM{Channels: out, SampleRate: opusSampleRate}, nil
}

// opusChannels reads the output channel count from the OpusHead packet.
// Layout: "OpusHead", version byte, channel count byte.
func opusChannels(data []byte) int {
	idx := bytes.Index(data, []byte("OpusHead"))
	if idx < 0 || idx+9 >= len(data) {
		return 0
	}
	return int(data[idx+9])
}
