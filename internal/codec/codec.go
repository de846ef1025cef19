// SPDX-License-Identifier: MIT

// Package codec decodes encoded audio into planar float32 PCM. The container
// is sniffed from the leading bytes, never from a file name.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// Format names a supported encoding.
type Format string

const (
	FormatWAV    Format = "wav"
	FormatMP3    Format = "mp3"
	FormatFLAC   Format = "flac"
	FormatVorbis Format = "vorbis"
	FormatOpus   Format = "opus"
)

var (
	// ErrUnsupported is returned for input that is not a supported audio format.
	ErrUnsupported = errors.New("unsupported audio format")
	// ErrEmpty is returned when the input decodes to zero frames.
	ErrEmpty = errors.New("audio contains no samples")
)

// PCM is decoded audio, one slice of samples in [-1, 1] per channel.
type PCM struct {
	Channels   [][]float32
	SampleRate int
	Format     Format
}

// Frames returns the number of samples per channel.
func (p *PCM) Frames() int {
	if len(p.Channels) == 0 {
		return 0
	}
	return len(p.Channels[0])
}

// Duration returns the playing time.
func (p *PCM) Duration() time.Duration {
	if p.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(p.Frames()) / float64(p.SampleRate) * float64(time.Second))
}

// decoder turns a complete encoded file into PCM.
type decoder func(data []byte) (*PCM, error)

// Detect reports the format of data, or ErrUnsupported.
func Detect(data []byte) (Format, error) {
	mt := mimetype.Detect(data)
	switch {
	case mt.Is("audio/wav"):
		return FormatWAV, nil
	case mt.Is("audio/mpeg"):
		return FormatMP3, nil
	case mt.Is("audio/flac"):
		return FormatFLAC, nil
	case mt.Is("audio/ogg"), mt.Is("application/ogg"), mt.Is("video/ogg"):
		// Ogg is a container; the first packet names the codec.
		head := data[:min(len(data), 128)]
		switch {
		case bytes.Contains(head, []byte("OpusHead")):
			return FormatOpus, nil
		case bytes.Contains(head, []byte("\x01vorbis")):
			return FormatVorbis, nil
		}
	}
	return "", fmt.Errorf("%w: detected %s", ErrUnsupported, mt.String())
}

// Decode sniffs and decodes a complete encoded file held in memory.
func Decode(data []byte) (*PCM, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUnsupported)
	}
	format, err := Detect(data)
	if err != nil {
		return nil, err
	}

	var dec decoder
	switch format {
	case FormatWAV:
		dec = decodeWAV
	case FormatMP3:
		dec = decodeMP3
	case FormatFLAC:
		dec = decodeFLAC
	case FormatVorbis:
		dec = decodeVorbis
	case FormatOpus:
		dec = decodeOpus
	}

	pcm, err := dec(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	if pcm.Frames() == 0 {
		return nil, fmt.Errorf("decode %s: %w", format, ErrEmpty)
	}
	if pcm.SampleRate <= 0 {
		return nil, fmt.Errorf("decode %s: invalid sample rate %d", format, pcm.SampleRate)
	}
	pcm.Format = format
	return pcm, nil
}

// planar allocates channels slices with capacity for frames samples each.
func planar(channels, frames int) [][]float32 {
	out := make([][]float32, channels)
	for c := range out {
		out[c] = make([]float32, 0, frames)
	}
	return out
}
