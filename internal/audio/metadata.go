// SPDX-License-Identifier: MIT
package audio

import (
	"bytes"
	"path/filepath"
	"strings"

	"audiovis/internal/codec"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
)

// Metadata describes a loaded asset for display.
type Metadata struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Artist     string  `json:"artist,omitempty"`
	Album      string  `json:"album,omitempty"`
	Format     string  `json:"format"`
	Duration   float64 `json:"duration"` // Seconds.
	SampleRate int     `json:"sample_rate"`
	Channels   int     `json:"channels"`
}

// Asset is a decoded audio buffer. It is never modified after loading.
type Asset struct {
	meta    Metadata
	samples [][]float32
	frames  int
}

func newAsset(pcm *codec.PCM, name string, data []byte) *Asset {
	meta := Metadata{
		ID:         uuid.NewString(),
		Format:     string(pcm.Format),
		Duration:   pcm.Duration().Seconds(),
		SampleRate: pcm.SampleRate,
		Channels:   len(pcm.Channels),
	}
	readTags(&meta, data)
	if meta.Title == "" {
		meta.Title = titleFromName(name)
	}
	return &Asset{meta: meta, samples: pcm.Channels, frames: pcm.Frames()}
}

// Metadata returns the asset's descriptive fields.
func (a *Asset) Metadata() Metadata { return a.meta }

// Frames returns the number of samples per channel.
func (a *Asset) Frames() int { return a.frames }

// Duration returns the playing time in seconds.
func (a *Asset) Duration() float64 { return a.meta.Duration }

// frameAt converts a position in seconds to a frame index in [0, Frames()].
func (a *Asset) frameAt(seconds float64) int64 {
	f := int64(seconds * float64(a.meta.SampleRate))
	return min(max(f, 0), int64(a.frames))
}

// readTags fills title, artist and album from embedded tags when present.
func readTags(meta *Metadata, data []byte) {
	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return
	}
	meta.Title = strings.TrimSpace(m.Title())
	meta.Artist = strings.TrimSpace(m.Artist())
	meta.Album = strings.TrimSpace(m.Album())
}

// titleFromName strips directories and the extension; "Unknown" when
// nothing is left.
func titleFromName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == "" {
		return "Unknown"
	}
	if title := strings.TrimSuffix(base, filepath.Ext(base)); title != "" {
		return title
	}
	return "Unknown"
}
