// SPDX-License-Identifier: MIT

// Package scene owns the grid of primitives for the active preset and
// writes the mapper's output into a retained scene graph once per frame.
package scene

import (
	"errors"
	"fmt"

	"audiovis/internal/analysis"
	applog "audiovis/internal/log"
	"audiovis/internal/mapping"
	"audiovis/internal/preset"
)

var logger = applog.For("scene")

// Features supplies the snapshot for one tick. ok is false while playback
// is not active, in which case the grid holds its last pose.
type Features interface {
	Poll() (buf analysis.FeatureBuffer, ok bool)
}

// FeaturesFunc adapts a function to Features.
type FeaturesFunc func() (analysis.FeatureBuffer, bool)

func (f FeaturesFunc) Poll() (analysis.FeatureBuffer, bool) { return f() }

// Presets yields the preset to render. It is read again on every tick.
type Presets interface {
	Load() preset.Preset
}

// grid is the set of handles created for one preset.
type grid struct {
	preset   preset.Preset
	geometry Handle
	base     Handle
	meshes   []Handle
	clones   []Handle
}

// Controller drives one grid in one Graph. It must be used from a single
// goroutine, the display-refresh loop.
type Controller struct {
	graph    Graph
	features Features
	presets  Presets

	grid   *grid
	failed *preset.Preset // Preset whose build failed; not retried until it changes.
	closed bool
}

// NewController returns a controller with no grid. The first Tick builds it.
func NewController(g Graph, f Features, p Presets) *Controller {
	return &Controller{graph: g, features: f, presets: p}
}

// Tick advances one display frame. elapsed is the scene clock in seconds.
// It polls the features, rebuilds the grid when the preset changed, then
// writes the group rotation, every mesh transform and the lighting. With no
// active playback nothing is written after a rebuild.
func (c *Controller) Tick(elapsed float64) error {
	if c.closed {
		return errors.New("scene controller closed")
	}
	buf, playing := c.features.Poll()

	// Re-read after polling so a swap in between is never paired with a
	// stale grid.
	p := c.presets.Load()
	if c.grid == nil || c.grid.preset != p {
		if c.failed != nil && *c.failed == p {
			return nil
		}
		if err := c.rebuild(p); err != nil {
			c.failed = &p
			return err
		}
		c.failed = nil
	}
	if !playing {
		return nil
	}

	if rot, ok := mapping.GroupRotation(buf, p, elapsed); ok {
		c.graph.SetGroupRotation(rot)
	}
	n := len(c.grid.meshes)
	for i, mesh := range c.grid.meshes {
		if t, ok := mapping.Mesh(buf, p, elapsed, i, n); ok {
			c.graph.SetMesh(mesh, t)
		}
	}
	c.graph.SetLighting(mapping.Lighting(buf, p))
	return nil
}

// Preset returns the preset the current grid was built for and whether a
// grid exists.
func (c *Controller) Preset() (preset.Preset, bool) {
	if c.grid == nil {
		return preset.Preset{}, false
	}
	return c.grid.preset, true
}

// MeshCount returns the number of meshes in the current grid.
func (c *Controller) MeshCount() int {
	if c.grid == nil {
		return 0
	}
	return len(c.grid.meshes)
}

// Close releases the grid. Later ticks fail.
func (c *Controller) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	err := c.release()
	c.grid = nil
	return err
}

// rebuild replaces the grid with gridSize² meshes for p, seated at their
// lattice rest pose. The old grid is released first.
func (c *Controller) rebuild(p preset.Preset) error {
	if err := c.release(); err != nil {
		logger.Warnf("releasing previous grid: %v", err)
	}
	c.grid = nil

	g := &grid{preset: p}
	fail := func(err error) error {
		c.grid = g
		if rerr := c.release(); rerr != nil {
			logger.Warnf("releasing partial grid: %v", rerr)
		}
		c.grid = nil
		return fmt.Errorf("build grid for preset %q: %w", p.Name, err)
	}

	var err error
	if g.geometry, err = c.graph.NewGeometry(GeometryFor(p.Geometry)); err != nil {
		return fail(err)
	}
	if g.base, err = c.graph.NewMaterial(MaterialFor(p)); err != nil {
		return fail(err)
	}

	count := p.MeshCount()
	g.meshes = make([]Handle, 0, count)
	g.clones = make([]Handle, 0, count)
	for i := range count {
		clone, err := c.graph.CloneMaterial(g.base)
		if err != nil {
			return fail(err)
		}
		g.clones = append(g.clones, clone)

		mesh, err := c.graph.NewMesh(g.geometry, clone, mapping.RestPose(p.GridSize, i))
		if err != nil {
			return fail(err)
		}
		g.meshes = append(g.meshes, mesh)
	}

	c.grid = g
	logger.Debugf("built %d %s for preset %q", count, p.Geometry, p.Name)
	return nil
}

// release disposes every mesh, then the material clones, the base material
// and the geometry they share.
func (c *Controller) release() error {
	if c.grid == nil {
		return nil
	}
	var errs []error
	dispose := func(h Handle) {
		if h == 0 {
			return
		}
		if err := c.graph.Dispose(h); err != nil {
			errs = append(errs, err)
		}
	}
	for _, h := range c.grid.meshes {
		dispose(h)
	}
	for _, h := range c.grid.clones {
		dispose(h)
	}
	dispose(c.grid.base)
	dispose(c.grid.geometry)
	return errors.Join(errs...)
}
