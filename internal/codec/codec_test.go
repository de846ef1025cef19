// SPDX-License-Identifier: MIT
package codec

import (
	"errors"
	"math"
	"testing"
	"time"

	"audiovis/pkg/utils"
)

func TestDecodeWAV(t *testing.T) {
	left := utils.GenerateSineWave(4410, 44100, 440, 0.5)
	right := make([]float32, len(left))
	for i := range right {
		right[i] = -left[i]
	}
	data, err := utils.WAVBytes(44100, left, right)
	if err != nil {
		t.Fatalf("WAVBytes() error = %v", err)
	}

	pcm, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if pcm.Format != FormatWAV || pcm.SampleRate != 44100 || len(pcm.Channels) != 2 {
		t.Fatalf("Decode() = format %s rate %d channels %d", pcm.Format, pcm.SampleRate, len(pcm.Channels))
	}
	if pcm.Frames() != len(left) {
		t.Errorf("Frames() = %d, want %d", pcm.Frames(), len(left))
	}
	if d := pcm.Duration(); d != 100*time.Millisecond {
		t.Errorf("Duration() = %v, want 100ms", d)
	}
	for i := 0; i < len(left); i += 97 {
		if math.Abs(float64(pcm.Channels[0][i]-left[i])) > 1e-3 {
			t.Fatalf("left[%d] = %v, want %v", i, pcm.Channels[0][i], left[i])
		}
		if math.Abs(float64(pcm.Channels[1][i]-right[i])) > 1e-3 {
			t.Fatalf("right[%d] = %v, want %v", i, pcm.Channels[1][i], right[i])
		}
	}
}

func TestDecodeRejectsNonAudio(t *testing.T) {
	inputs := map[string][]byte{
		"empty": nil,
		"text":  []byte("this is definitely not an audio file"),
		"png":   {0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0},
		"json":  []byte(`{"name":"Default","gridSize":8}`),
	}
	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(data)
			if !errors.Is(err, ErrUnsupported) {
				t.Errorf("Decode() error = %v, want ErrUnsupported", err)
			}
		})
	}
}

func TestDecodeTruncatedWAV(t *testing.T) {
	data, err := utils.WAVBytes(8000, make([]float32, 800))
	if err != nil {
		t.Fatalf("WAVBytes() error = %v", err)
	}
	// Keep the RIFF header so detection succeeds but drop the data chunk.
	if _, err := Decode(data[:20]); err == nil {
		t.Error("Decode(truncated) error = nil, want error")
	}
}

func TestDetectOggCodec(t *testing.T) {
	page := func(packet string) []byte {
		b := make([]byte, 0, 64)
		b = append(b, "OggS"...)
		b = append(b, 0, 2) // version, BOS flag
		b = append(b, make([]byte, 20)...)
		b = append(b, 1, byte(len(packet)))
		return append(b, packet...)
	}

	tests := []struct {
		name   string
		data   []byte
		want   Format
		wantOK bool
	}{
		{"opus", page("OpusHead\x01\x02\x38\x01"), FormatOpus, true},
		{"vorbis", page("\x01vorbis\x00\x00\x00\x00\x02"), FormatVorbis, true},
		{"unknown codec", page("\x80theora"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect(tt.data)
			if (err == nil) != tt.wantOK || got != tt.want {
				t.Errorf("Detect() = (%q, %v), want %q ok=%v", got, err, tt.want, tt.wantOK)
			}
		})
	}
}

func TestOpusChannels(t *testing.T) {
	if got := opusChannels([]byte("xxOpusHead\x01\x02\x38\x01")); got != 2 {
		t.Errorf("opusChannels() = %d, want 2", got)
	}
	if got := opusChannels([]byte("OpusHead")); got != 0 {
		t.Errorf("opusChannels(short) = %d, want 0", got)
	}
}
