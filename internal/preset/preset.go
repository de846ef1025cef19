// SPDX-License-Identifier: MIT

// Package preset defines the declarative visualization presets consumed by
// the parameter mapper and the scene controller, and the read-only sources
// they are loaded from.
package preset

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Limits on preset values.
const (
	DefaultName = "Untitled"
	MinGridSize = 1
	MaxGridSize = 64
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid preset")

// Geometry is the primitive every mesh of the grid is built from.
type Geometry int

const (
	Cubes Geometry = iota
	Spheres
	Waves
	Particles
)

var geometryNames = [...]string{"cubes", "spheres", "waves", "particles"}

func (g Geometry) String() string {
	if g.valid() {
		return geometryNames[g]
	}
	return fmt.Sprintf("Geometry(%d)", int(g))
}

func (g Geometry) valid() bool { return g >= Cubes && g <= Particles }

// ParseGeometry converts a case-insensitive name to a Geometry.
func ParseGeometry(name string) (Geometry, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range geometryNames {
		if s == n {
			return Geometry(i), nil
		}
	}
	return Cubes, fmt.Errorf("%w: unknown geometry %q", ErrInvalid, name)
}

func (g Geometry) MarshalText() ([]byte, error) {
	if !g.valid() {
		return nil, fmt.Errorf("%w: unknown geometry %d", ErrInvalid, int(g))
	}
	return []byte(g.String()), nil
}

func (g *Geometry) UnmarshalText(text []byte) error {
	parsed, err := ParseGeometry(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// Color is an sRGB colour written as "#rrggbb" in preset files.
type Color struct {
	colorful.Color
}

// ParseColor parses a "#rrggbb" or "#rgb" hex colour.
func ParseColor(hex string) (Color, error) {
	hex = strings.TrimSpace(hex)
	if len(hex) == 4 && hex[0] == '#' {
		hex = "#" + strings.Repeat(hex[1:2], 2) + strings.Repeat(hex[2:3], 2) + strings.Repeat(hex[3:4], 2)
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("%w: color %q: %w", ErrInvalid, hex, err)
	}
	return Color{c}, nil
}

// MustColor is ParseColor for built-in constants. It panics on a bad value.
func MustColor(hex string) Color {
	c, err := ParseColor(hex)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Color) String() string { return c.Hex() }

func (c Color) MarshalText() ([]byte, error) { return []byte(c.Hex()), nil }

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ColorScheme colours the mesh material and the two coloured lights.
type ColorScheme struct {
	Primary   Color `yaml:"primary" json:"primary"`     // Base mesh material.
	Secondary Color `yaml:"secondary" json:"secondary"` // Point light.
	Accent    Color `yaml:"accent" json:"accent"`       // Directional light.
}

// Effects toggles the per-frame animations.
type Effects struct {
	Rotation  bool `yaml:"rotation" json:"rotation"`
	Scaling   bool `yaml:"scaling" json:"scaling"`
	Pulsing   bool `yaml:"pulsing" json:"pulsing"`
	Particles bool `yaml:"particles" json:"particles"`
}

// Sensitivity weights each band in the hue computation.
type Sensitivity struct {
	Bass   float64 `yaml:"bass" json:"bass"`
	Mid    float64 `yaml:"mid" json:"mid"`
	Treble float64 `yaml:"treble" json:"treble"`
}

// Preset is a named, immutable bundle of visualization parameters. Presets
// are plain values; obtain validated ones through New or a Source.
type Preset struct {
	Name        string      `yaml:"name" json:"name"`
	Geometry    Geometry    `yaml:"type" json:"type"`
	GridSize    int         `yaml:"grid_size" json:"gridSize"`
	Colors      ColorScheme `yaml:"color_scheme" json:"colorScheme"`
	Effects     Effects     `yaml:"effects" json:"effects"`
	Sensitivity Sensitivity `yaml:"sensitivity" json:"sensitivity"`
}

// New normalises p and validates it. An empty name becomes DefaultName.
func New(p Preset) (Preset, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = DefaultName
	}
	if err := p.Validate(); err != nil {
		return Preset{}, err
	}
	return p, nil
}

// Validate reports every field outside its allowed range.
func (p Preset) Validate() error {
	var errs []error
	if !p.Geometry.valid() {
		errs = append(errs, fmt.Errorf("%w: unknown geometry %d", ErrInvalid, int(p.Geometry)))
	}
	if p.GridSize < MinGridSize || p.GridSize > MaxGridSize {
		errs = append(errs, fmt.Errorf("%w: grid_size %d must be in [%d, %d]", ErrInvalid, p.GridSize, MinGridSize, MaxGridSize))
	}
	for name, v := range map[string]float64{
		"bass":   p.Sensitivity.Bass,
		"mid":    p.Sensitivity.Mid,
		"treble": p.Sensitivity.Treble,
	} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			errs = append(errs, fmt.Errorf("%w: sensitivity.%s %v must be finite and non-negative", ErrInvalid, name, v))
		}
	}
	return errors.Join(errs...)
}

// MeshCount returns the number of primitives in the grid, GridSize².
func (p Preset) MeshCount() int { return p.GridSize * p.GridSize }

// Default is the preset used when nothing else is selected.
func Default() Preset {
	return Preset{
		Name:     "Default",
		Geometry: Cubes,
		GridSize: 8,
		Colors: ColorScheme{
			Primary:   MustColor("#8B5CF6"),
			Secondary: MustColor("#06B6D4"),
			Accent:    MustColor("#F59E0B"),
		},
		Effects:     Effects{Rotation: true, Scaling: true},
		Sensitivity: Sensitivity{Bass: 1.0, Mid: 0.8, Treble: 0.6},
	}
}

// Builtins returns the presets shipped with the binary, Default first.
func Builtins() []Preset {
	return []Preset{
		Default(),
		{
			Name:     "Electronic",
			Geometry: Cubes,
			GridSize: 10,
			Colors: ColorScheme{
				Primary:   MustColor("#8B5CF6"),
				Secondary: MustColor("#06B6D4"),
				Accent:    MustColor("#F59E0B"),
			},
			Effects:     Effects{Rotation: true, Scaling: true, Pulsing: true},
			Sensitivity: Sensitivity{Bass: 1.5, Mid: 1.0, Treble: 0.8},
		},
		{
			Name:     "Ambient",
			Geometry: Spheres,
			GridSize: 6,
			Colors: ColorScheme{
				Primary:   MustColor("#10B981"),
				Secondary: MustColor("#3B82F6"),
				Accent:    MustColor("#8B5CF6"),
			},
			Effects:     Effects{Rotation: true, Pulsing: true, Particles: true},
			Sensitivity: Sensitivity{Bass: 0.8, Mid: 1.2, Treble: 1.0},
		},
		{
			Name:     "Heavy",
			Geometry: Cubes,
			GridSize: 12,
			Colors: ColorScheme{
				Primary:   MustColor("#EF4444"),
				Secondary: MustColor("#F59E0B"),
				Accent:    MustColor("#DC2626"),
			},
			Effects:     Effects{Scaling: true},
			Sensitivity: Sensitivity{Bass: 2.0, Mid: 1.0, Treble: 0.5},
		},
		{
			Name:     "Wave",
			Geometry: Waves,
			GridSize: 8,
			Colors: ColorScheme{
				Primary:   MustColor("#06B6D4"),
				Secondary: MustColor("#0EA5E9"),
				Accent:    MustColor("#0284C7"),
			},
			Effects:     Effects{Pulsing: true},
			Sensitivity: Sensitivity{Bass: 1.0, Mid: 1.5, Treble: 1.2},
		},
	}
}
