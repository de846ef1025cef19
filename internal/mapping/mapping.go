// SPDX-License-Identifier: MIT

// Package mapping derives per-mesh transforms, group rotation and scene
// lighting from one feature snapshot and one preset.
//
// Every function here is pure: no I/O, no retained state and no mutation of
// its inputs, so identical inputs always produce bit-identical output. Short
// or empty spectra read as zero and never index out of range.
package mapping

import (
	"math"

	"audiovis/internal/analysis"
	"audiovis/internal/preset"

	"github.com/lucasb-eyer/go-colorful"
)

// Mapping constants.
const (
	Spacing = 0.5 // Distance between lattice points.

	maxByte      = 255.0
	maxHueWeight = 3 * maxByte // Weighted band sum at unit sensitivity.

	scaleGain      = 2.0
	pulseSpeed     = 4.0
	pulsePhase     = 0.1
	pulseDepth     = 0.2
	waveSpeed      = 2.0
	wavePhase      = 0.2
	waveHeight     = 2.0
	emissiveGain   = 0.3
	colorSat       = 0.8
	colorLight     = 0.6
	emissiveSat    = 0.5
	groupSpin      = 0.5
	groupLevelGain = 0.01

	ambientIntensity    = 0.4
	directionalBase     = 0.6
	directionalBassGain = 0.4
	pointBase           = 1.0
	pointDistance       = 20.0
)

var white = preset.MustColor("#ffffff")

// Vector3 is a position, rotation (radians) or scale.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HSL is a colour with every component in [0, 1].
type HSL struct {
	H float64 `json:"h"`
	S float64 `json:"s"`
	L float64 `json:"l"`
}

// RGB converts the colour to sRGB.
func (c HSL) RGB() colorful.Color {
	return colorful.Hsl(c.H*360, c.S, c.L)
}

// MeshTransform is everything written to one mesh in one frame.
type MeshTransform struct {
	Scale             Vector3 `json:"scale"`
	Rotation          Vector3 `json:"rotation"`
	Position          Vector3 `json:"position"`
	Color             HSL     `json:"color"`
	Emissive          HSL     `json:"emissive"`
	EmissiveIntensity float64 `json:"emissive_intensity"`
	Level             float64 `json:"level"` // Normalised bin magnitude in [0, 1] that drove this mesh.
}

// Light is one scene light. Lights without a position or range leave those
// zero.
type Light struct {
	Intensity float64      `json:"intensity"`
	Color     preset.Color `json:"color"`
	Position  Vector3      `json:"position"`
	Distance  float64      `json:"distance,omitempty"`
}

// LightingState holds the three scene lights.
type LightingState struct {
	Ambient     Light `json:"ambient"`
	Directional Light `json:"directional"`
	Point       Light `json:"point"`
}

// RestPose is the transform of mesh meshIndex before any audio is applied:
// unit scale, no rotation, seated on the lattice.
func RestPose(gridSize, meshIndex int) MeshTransform {
	return MeshTransform{
		Scale:    Vector3{1, 1, 1},
		Position: LatticePoint(gridSize, meshIndex),
	}
}

// Mesh computes the transform of mesh meshIndex out of meshCount. Fields an
// effect leaves untouched keep their rest values. ok is false when
// meshCount <= 0, in which case nothing should be written.
func Mesh(buf analysis.FeatureBuffer, p preset.Preset, elapsed float64, meshIndex, meshCount int) (t MeshTransform, ok bool) {
	if meshCount <= 0 {
		return MeshTransform{}, false
	}
	t = RestPose(p.GridSize, meshIndex)

	freqIndex := -1
	if meshIndex >= 0 {
		freqIndex = meshIndex * len(buf.Frequencies) / meshCount
	}
	level := float64(buf.Bin(freqIndex)) / maxByte
	t.Level = level

	if p.Effects.Scaling {
		t.Scale.Y = 1 + level*scaleGain
	}
	if p.Effects.Rotation {
		t.Rotation.Y = elapsed + level*math.Pi
	}
	if p.Effects.Pulsing {
		pulse := math.Sin(elapsed*pulseSpeed+float64(meshIndex)*pulsePhase)*pulseDepth + 1
		t.Scale.X = pulse
		t.Scale.Z = pulse
	}

	hue := Hue(buf, p.Sensitivity)
	t.Color = HSL{hue, colorSat, colorLight}
	t.Emissive = HSL{hue, emissiveSat, level * emissiveGain}
	t.EmissiveIntensity = level * emissiveGain

	if p.Geometry == preset.Waves {
		t.Position.Y = math.Sin(elapsed*waveSpeed+float64(meshIndex)*wavePhase) * level * waveHeight
	}
	return t, true
}

// Hue is the sensitivity-weighted band sum over its maximum at unit
// sensitivity, wrapped into [0, 1).
func Hue(buf analysis.FeatureBuffer, s preset.Sensitivity) float64 {
	h := (buf.Bass*s.Bass + buf.Mid*s.Mid + buf.Treble*s.Treble) / maxHueWeight
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	return h - math.Floor(h)
}

// GroupRotation returns the whole grid's rotation about Y, applied once per
// frame. ok is false when the preset does not rotate.
func GroupRotation(buf analysis.FeatureBuffer, p preset.Preset, elapsed float64) (float64, bool) {
	if !p.Effects.Rotation {
		return 0, false
	}
	return elapsed*groupSpin + buf.Average*groupLevelGain, true
}

// Lighting derives the light intensities and colours.
func Lighting(buf analysis.FeatureBuffer, p preset.Preset) LightingState {
	return LightingState{
		Ambient: Light{
			Intensity: ambientIntensity,
			Color:     white,
		},
		Directional: Light{
			Intensity: directionalBase + buf.Bass/maxByte*directionalBassGain,
			Color:     p.Colors.Accent,
			Position:  Vector3{5, 5, 5},
		},
		Point: Light{
			Intensity: pointBase + buf.Average/maxByte,
			Color:     p.Colors.Secondary,
			Position:  Vector3{0, 3, 0},
			Distance:  pointDistance,
		},
	}
}

// LatticePoint returns the rest position of mesh index on a gridSize ×
// gridSize lattice centred at the origin. x advances every gridSize meshes,
// z within each row.
func LatticePoint(gridSize, index int) Vector3 {
	if gridSize < 1 {
		return Vector3{}
	}
	offset := float64(gridSize-1) * Spacing / 2
	x, z := index/gridSize, index%gridSize
	return Vector3{
		X: float64(x)*Spacing - offset,
		Z: float64(z)*Spacing - offset,
	}
}

// Lattice returns all gridSize² rest positions in mesh order.
func Lattice(gridSize int) []Vector3 {
	if gridSize < 1 {
		return []Vector3{}
	}
	points := make([]Vector3, gridSize*gridSize)
	for i := range points {
		points[i] = LatticePoint(gridSize, i)
	}
	return points
}
