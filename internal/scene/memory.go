// SPDX-License-Identifier: MIT
package scene

import (
	"fmt"
	"slices"
	"sync"

	"audiovis/internal/mapping"
)

type kind int

const (
	geometryNode kind = iota
	materialNode
	meshNode
)

type node struct {
	kind      kind
	geometry  GeometrySpec
	material  MaterialSpec
	geomRef   Handle
	matRef    Handle
	transform mapping.MeshTransform
}

// MeshState is one mesh in a Snapshot.
type MeshState struct {
	Handle    Handle                `json:"handle"`
	Geometry  GeometrySpec          `json:"geometry"`
	Material  MaterialSpec          `json:"material"`
	Transform mapping.MeshTransform `json:"transform"`
}

// Snapshot is a copy of the retained graph at one point in time.
type Snapshot struct {
	GroupRotation float64               `json:"group_rotation"`
	Lighting      mapping.LightingState `json:"lighting"`
	Meshes        []MeshState           `json:"meshes"`
}

// MemoryGraph is an in-process retained scene graph. It keeps every live
// resource so frames can be published to external renderers and so tests
// can check that nothing leaks. It is safe for concurrent use.
type MemoryGraph struct {
	mu       sync.RWMutex
	next     Handle
	nodes    map[Handle]*node
	order    []Handle // Meshes in creation order.
	group    float64
	lighting mapping.LightingState
}

var _ Graph = (*MemoryGraph)(nil)

// NewMemoryGraph returns an empty graph.
func NewMemoryGraph() *MemoryGraph {
	return &MemoryGraph{nodes: make(map[Handle]*node)}
}

func (g *MemoryGraph) add(n *node) Handle {
	g.next++
	g.nodes[g.next] = n
	return g.next
}

func (g *MemoryGraph) lookup(h Handle, want kind) (*node, error) {
	n, ok := g.nodes[h]
	if !ok || n.kind != want {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	return n, nil
}

func (g *MemoryGraph) NewGeometry(spec GeometrySpec) (Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.add(&node{kind: geometryNode, geometry: spec}), nil
}

func (g *MemoryGraph) NewMaterial(spec MaterialSpec) (Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.add(&node{kind: materialNode, material: spec}), nil
}

func (g *MemoryGraph) CloneMaterial(h Handle) (Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	src, err := g.lookup(h, materialNode)
	if err != nil {
		return 0, err
	}
	return g.add(&node{kind: materialNode, material: src.material}), nil
}

func (g *MemoryGraph) NewMesh(geometry, material Handle, pose mapping.MeshTransform) (Handle, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, err := g.lookup(geometry, geometryNode); err != nil {
		return 0, err
	}
	if _, err := g.lookup(material, materialNode); err != nil {
		return 0, err
	}
	h := g.add(&node{kind: meshNode, geomRef: geometry, matRef: material, transform: pose})
	g.order = append(g.order, h)
	return h, nil
}

func (g *MemoryGraph) SetMesh(mesh Handle, t mapping.MeshTransform) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if n, err := g.lookup(mesh, meshNode); err == nil {
		n.transform = t
	}
}

func (g *MemoryGraph) SetGroupRotation(y float64) {
	g.mu.Lock()
	g.group = y
	g.mu.Unlock()
}

func (g *MemoryGraph) SetLighting(l mapping.LightingState) {
	g.mu.Lock()
	g.lighting = l
	g.mu.Unlock()
}

// Dispose releases h. A geometry or material still referenced by a live
// mesh cannot be disposed.
func (g *MemoryGraph) Dispose(h Handle) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, h)
	}
	if n.kind != meshNode {
		for _, m := range g.order {
			if mesh := g.nodes[m]; mesh.geomRef == h || mesh.matRef == h {
				return fmt.Errorf("handle %d still used by mesh %d", h, m)
			}
		}
	}
	delete(g.nodes, h)
	if n.kind == meshNode {
		g.order = slices.DeleteFunc(g.order, func(m Handle) bool { return m == h })
	}
	return nil
}

// Live returns the number of undisposed geometries, materials and meshes.
func (g *MemoryGraph) Live() (geometries, materials, meshes int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, n := range g.nodes {
		switch n.kind {
		case geometryNode:
			geometries++
		case materialNode:
			materials++
		case meshNode:
			meshes++
		}
	}
	return geometries, materials, meshes
}

// Snapshot copies the group rotation, the lighting and every mesh in
// creation order.
func (g *MemoryGraph) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s := Snapshot{
		GroupRotation: g.group,
		Lighting:      g.lighting,
		Meshes:        make([]MeshState, 0, len(g.order)),
	}
	for _, h := range g.order {
		n := g.nodes[h]
		s.Meshes = append(s.Meshes, MeshState{
			Handle:    h,
			Geometry:  g.nodes[n.geomRef].geometry,
			Material:  g.nodes[n.matRef].material,
			Transform: n.transform,
		})
	}
	return s
}
