// SPDX-License-Identifier: MIT
package preset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	applog "audiovis/internal/log"

	"gopkg.in/yaml.v3"
)

var logger = applog.For("preset")

// ErrNotFound is returned by Get when no preset has the requested name.
var ErrNotFound = errors.New("preset not found")

// Source is a read-only collection of presets. Names match
// case-insensitively.
type Source interface {
	List(ctx context.Context) ([]Preset, error)
	Get(ctx context.Context, name string) (Preset, error)
}

// find returns the preset in list whose name matches name.
func find(list []Preset, name string) (Preset, error) {
	for _, p := range list {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Next returns the preset after current in list, wrapping around. With an
// unknown current name it returns the first preset.
func Next(list []Preset, current string) (Preset, bool) {
	if len(list) == 0 {
		return Preset{}, false
	}
	i := slices.IndexFunc(list, func(p Preset) bool { return strings.EqualFold(p.Name, current) })
	return list[(i+1)%len(list)], true
}

// StaticSource serves a fixed list, normally Builtins().
type StaticSource []Preset

func (s StaticSource) List(context.Context) ([]Preset, error) {
	return slices.Clone([]Preset(s)), nil
}

func (s StaticSource) Get(_ context.Context, name string) (Preset, error) {
	return find(s, name)
}

// YAMLSource reads one preset per *.yaml or *.yml file in Dir. A file
// without a name takes its base name. Files are re-read on every call so
// edits show up without a restart.
type YAMLSource struct {
	Dir string
}

func (s YAMLSource) List(ctx context.Context) ([]Preset, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset directory: %w", err)
	}

	var presets []Preset
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		p, err := readYAML(filepath.Join(s.Dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		presets = append(presets, p)
	}
	slices.SortFunc(presets, byName)
	logger.Debugf("loaded %d presets from %s", len(presets), s.Dir)
	return presets, nil
}

// byName orders presets by name, ignoring case like every lookup does.
func byName(a, b Preset) int {
	return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
}

func (s YAMLSource) Get(ctx context.Context, name string) (Preset, error) {
	list, err := s.List(ctx)
	if err != nil {
		return Preset{}, err
	}
	return find(list, name)
}

func readYAML(path string) (Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preset{}, fmt.Errorf("failed to read preset file: %w", err)
	}
	p := Preset{GridSize: Default().GridSize}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Preset{}, fmt.Errorf("failed to parse preset file %s: %w", path, err)
	}
	if strings.TrimSpace(p.Name) == "" {
		base := filepath.Base(path)
		p.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	p, err = New(p)
	if err != nil {
		return Preset{}, fmt.Errorf("preset file %s: %w", path, err)
	}
	return p, nil
}

// Chain queries sources in order. List merges them, earlier sources win on
// duplicate names; Get returns the first match.
type Chain []Source

func (c Chain) List(ctx context.Context) ([]Preset, error) {
	var out []Preset
	seen := make(map[string]bool)
	for _, src := range c {
		list, err := src.List(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range list {
			key := strings.ToLower(p.Name)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, p)
		}
	}
	return out, nil
}

func (c Chain) Get(ctx context.Context, name string) (Preset, error) {
	for _, src := range c {
		p, err := src.Get(ctx, name)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return Preset{}, err
		}
	}
	return Preset{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}
