// SPDX-License-Identifier: MIT
package scene

import (
	"errors"

	"audiovis/internal/mapping"
	"audiovis/internal/preset"
)

// ErrUnknownHandle is returned when a handle was never created or has
// already been disposed.
var ErrUnknownHandle = errors.New("unknown scene handle")

// Handle identifies a geometry, material or mesh node in a Graph. Zero is
// never a valid handle.
type Handle uint64

// GeometryKind is the primitive a geometry is built from.
type GeometryKind string

const (
	Box    GeometryKind = "box"
	Sphere GeometryKind = "sphere"
	Plane  GeometryKind = "plane"
)

// GeometrySpec describes a geometry resource. Unused dimensions are zero.
type GeometrySpec struct {
	Kind           GeometryKind `json:"kind"`
	Width          float64      `json:"width,omitempty"`
	Height         float64      `json:"height,omitempty"`
	Depth          float64      `json:"depth,omitempty"`
	Radius         float64      `json:"radius,omitempty"`
	WidthSegments  int          `json:"width_segments,omitempty"`
	HeightSegments int          `json:"height_segments,omitempty"`
}

// GeometryFor returns the primitive used for g.
func GeometryFor(g preset.Geometry) GeometrySpec {
	switch g {
	case preset.Spheres:
		return GeometrySpec{Kind: Sphere, Radius: 0.1, WidthSegments: 8, HeightSegments: 6}
	case preset.Waves:
		return GeometrySpec{Kind: Plane, Width: 0.2, Height: 0.2, WidthSegments: 4, HeightSegments: 4}
	case preset.Particles:
		return GeometrySpec{Kind: Sphere, Radius: 0.05, WidthSegments: 4, HeightSegments: 4}
	default:
		return GeometrySpec{Kind: Box, Width: 0.2, Height: 0.2, Depth: 0.2}
	}
}

// MaterialSpec describes a shaded material.
type MaterialSpec struct {
	Shading     string       `json:"shading"`
	Color       preset.Color `json:"color"`
	Transparent bool         `json:"transparent"`
	Opacity     float64      `json:"opacity"`
}

// MaterialFor returns the base material every mesh of p's grid clones.
func MaterialFor(p preset.Preset) MaterialSpec {
	return MaterialSpec{
		Shading:     "phong",
		Color:       p.Colors.Primary,
		Transparent: true,
		Opacity:     0.8,
	}
}

// Graph is the retained scene graph the controller writes into. The
// controller owns every handle it creates and disposes them explicitly;
// meshes are children of a single group whose rotation is set once per
// frame.
//
// Creation may fail when the renderer is out of resources. Per-frame writes
// never fail; writes to unknown handles are ignored.
type Graph interface {
	NewGeometry(GeometrySpec) (Handle, error)
	NewMaterial(MaterialSpec) (Handle, error)
	CloneMaterial(Handle) (Handle, error)
	NewMesh(geometry, material Handle, pose mapping.MeshTransform) (Handle, error)

	SetMesh(mesh Handle, t mapping.MeshTransform)
	SetGroupRotation(y float64)
	SetLighting(mapping.LightingState)

	Dispose(Handle) error
}
