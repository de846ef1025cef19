// SPDX-License-Identifier: MIT
package preset

import (
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseGeometry(t *testing.T) {
	tests := []struct {
		in      string
		want    Geometry
		wantErr bool
	}{
		{"cubes", Cubes, false},
		{" Spheres ", Spheres, false},
		{"WAVES", Waves, false},
		{"particles", Particles, false},
		{"torus", Cubes, true},
		{"", Cubes, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseGeometry(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustRoundTripGeometry(t, got))
		})
	}
	assert.Equal(t, "Geometry(9)", Geometry(9).String())
}

func mustRoundTripGeometry(t *testing.T, g Geometry) Geometry {
	t.Helper()
	text, err := g.MarshalText()
	require.NoError(t, err)
	var out Geometry
	require.NoError(t, out.UnmarshalText(text))
	return out
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#8B5CF6")
	require.NoError(t, err)
	assert.Equal(t, "#8b5cf6", c.Hex())

	short, err := ParseColor("#f00")
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", short.String())

	_, err = ParseColor("violet")
	assert.ErrorIs(t, err, ErrInvalid)

	assert.Panics(t, func() { MustColor("nope") })
}

func TestNew(t *testing.T) {
	p, err := New(Preset{GridSize: 4})
	require.NoError(t, err)
	assert.Equal(t, DefaultName, p.Name)

	p, err = New(Preset{Name: "  Club  ", GridSize: 1})
	require.NoError(t, err)
	assert.Equal(t, "Club", p.Name)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Preset)
		errMsg string
	}{
		{"valid default", func(*Preset) {}, ""},
		{"grid zero", func(p *Preset) { p.GridSize = 0 }, "grid_size 0"},
		{"grid too large", func(p *Preset) { p.GridSize = MaxGridSize + 1 }, "grid_size 65"},
		{"unknown geometry", func(p *Preset) { p.Geometry = Geometry(7) }, "unknown geometry 7"},
		{"negative bass", func(p *Preset) { p.Sensitivity.Bass = -0.1 }, "sensitivity.bass"},
		{"NaN mid", func(p *Preset) { p.Sensitivity.Mid = math.NaN() }, "sensitivity.mid"},
		{"Inf treble", func(p *Preset) { p.Sensitivity.Treble = math.Inf(1) }, "sensitivity.treble"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(&p)
			err := p.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestBuiltins(t *testing.T) {
	builtins := Builtins()
	require.Len(t, builtins, 5)
	assert.Equal(t, Default(), builtins[0])

	seen := map[string]bool{}
	for _, p := range builtins {
		assert.NoError(t, p.Validate(), p.Name)
		assert.False(t, seen[p.Name], "duplicate %s", p.Name)
		seen[p.Name] = true
	}
	assert.Equal(t, 64, Default().MeshCount())
}

func TestPresetYAMLAndJSON(t *testing.T) {
	p := Builtins()[2]

	data, err := yaml.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), "type: spheres")
	assert.Contains(t, string(data), "#10b981")

	var back Preset
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, p, back)

	js, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(js), `"gridSize":6`)
	assert.Contains(t, string(js), `"secondary":"#3b82f6"`)
}

func TestActive(t *testing.T) {
	a := NewActive(Preset{Name: "broken"})
	assert.Equal(t, Default(), a.Load(), "invalid initial preset falls back to Default")

	heavy := Builtins()[3]
	require.NoError(t, a.Store(heavy))
	assert.Equal(t, heavy, a.Load())

	bad := heavy
	bad.GridSize = 0
	assert.ErrorIs(t, a.Store(bad), ErrInvalid)
	assert.Equal(t, heavy, a.Load(), "failed Store keeps the current preset")
}

func TestActiveConcurrentSwap(t *testing.T) {
	a := NewActive(Default())
	builtins := Builtins()

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 200 {
				a.Store(builtins[(i+j)%len(builtins)])
				p := a.Load()
				if p.Validate() != nil {
					t.Errorf("loaded invalid preset %+v", p)
					return
				}
			}
		}()
	}
	wg.Wait()
}
