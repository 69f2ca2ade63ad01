// Package mesh provides a polygon-mesh object model with UV layers and
// shape keys, the host-independent counterpart of a 3D application's
// mesh data block.
package mesh

import (
	"errors"
	"fmt"

	"github.com/meshforge/sktransfer/pkg/math"
)

// Mesh errors.
var (
	ErrNoVertices        = errors.New("mesh has no vertices")
	ErrPolygonTooSmall   = errors.New("polygon has fewer than 3 vertices")
	ErrVertexOutOfRange  = errors.New("polygon vertex index out of range")
	ErrLoopCountMismatch = errors.New("UV layer loop count does not match mesh")
	ErrKeySizeMismatch   = errors.New("shape key vertex count does not match mesh")
	ErrNoSuchKey         = errors.New("no such shape key")
	ErrNoSuchUVLayer     = errors.New("no such UV layer")
	ErrNoReferenceKey    = errors.New("mesh has no reference shape key")
)

// Polygon is an ordered ring of mesh corners. Vertices holds one vertex
// index per corner; LoopStart is the index of the polygon's first corner
// in the mesh's flattened loop sequence, so corner i of the polygon is
// loop LoopStart+i.
type Polygon struct {
	Vertices  []int
	LoopStart int
}

// UVLayer holds one UV coordinate per loop, flattened across polygons in
// polygon order.
type UVLayer struct {
	Name string
	UV   []math.Vec2
}

// VertexBuffer is an array of absolute vertex positions indexed by
// vertex id.
type VertexBuffer []math.Vec3

// ShapeKey is an immutable snapshot of a vertex buffer plus slider
// metadata. The first key added to a mesh is its reference ("Basis")
// key; every other key's deformation is the per-vertex offset from the
// reference positions.
type ShapeKey struct {
	Name      string
	Positions VertexBuffer
	SliderMin float32
	SliderMax float32
}

// Delta returns the offset of vertex v from the reference key.
func (k *ShapeKey) Delta(ref *ShapeKey, v int) math.Vec3 {
	return k.Positions[v].Sub(ref.Positions[v])
}

// Mesh is a polygon mesh with UV layers and shape keys. Vertex positions
// live in the shape keys; the mesh itself only records topology.
type Mesh struct {
	Name        string
	NumVertices int
	Polygons    []Polygon
	UVLayers    []UVLayer
	Keys        []*ShapeKey

	numLoops int
}

// New creates an empty mesh with the given vertex count.
func New(name string, numVertices int) *Mesh {
	return &Mesh{Name: name, NumVertices: numVertices}
}

// NumLoops returns the total number of polygon corners.
func (m *Mesh) NumLoops() int { return m.numLoops }

// AddPolygon appends a polygon over the given vertex indices.
func (m *Mesh) AddPolygon(vertices []int) {
	p := Polygon{
		Vertices:  append([]int(nil), vertices...),
		LoopStart: m.numLoops,
	}
	m.Polygons = append(m.Polygons, p)
	m.numLoops += len(vertices)
}

// AddUVLayer appends a UV layer. The layer must carry exactly one UV per
// loop.
func (m *Mesh) AddUVLayer(name string, uv []math.Vec2) error {
	if len(uv) != m.numLoops {
		return fmt.Errorf("%w: layer %q has %d UVs for %d loops",
			ErrLoopCountMismatch, name, len(uv), m.numLoops)
	}
	m.UVLayers = append(m.UVLayers, UVLayer{Name: name, UV: append([]math.Vec2(nil), uv...)})
	return nil
}

// UVLayer returns the UV layer at the given index.
func (m *Mesh) UVLayer(idx int) (*UVLayer, error) {
	if idx < 0 || idx >= len(m.UVLayers) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrNoSuchUVLayer, idx, len(m.UVLayers))
	}
	return &m.UVLayers[idx], nil
}

// AddShapeKey appends a shape key holding a copy of the given absolute
// positions. The first key added becomes the mesh's reference key.
// Slider metadata defaults to [0, 1].
func (m *Mesh) AddShapeKey(name string, positions []math.Vec3) (*ShapeKey, error) {
	if len(positions) != m.NumVertices {
		return nil, fmt.Errorf("%w: key %q has %d positions for %d vertices",
			ErrKeySizeMismatch, name, len(positions), m.NumVertices)
	}
	k := &ShapeKey{
		Name:      name,
		Positions: append(VertexBuffer(nil), positions...),
		SliderMin: 0,
		SliderMax: 1,
	}
	m.Keys = append(m.Keys, k)
	return k, nil
}

// Key returns the shape key at the given index.
func (m *Mesh) Key(idx int) (*ShapeKey, error) {
	if idx < 0 || idx >= len(m.Keys) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrNoSuchKey, idx, len(m.Keys))
	}
	return m.Keys[idx], nil
}

// KeyByName returns the shape key with the given name.
func (m *Mesh) KeyByName(name string) (*ShapeKey, error) {
	for _, k := range m.Keys {
		if k.Name == name {
			return k, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoSuchKey, name)
}

// ReferenceKey returns the reference (first) shape key, or an error if
// the mesh has none.
func (m *Mesh) ReferenceKey() (*ShapeKey, error) {
	if len(m.Keys) == 0 {
		return nil, ErrNoReferenceKey
	}
	return m.Keys[0], nil
}

// Validate checks the structural invariants: vertex indices in range,
// polygons of at least 3 corners with consistent loop offsets, UV layers
// sized to the loop count, and shape keys sized to the vertex count.
func (m *Mesh) Validate() error {
	if m.NumVertices <= 0 {
		return ErrNoVertices
	}
	loops := 0
	for pi, p := range m.Polygons {
		if len(p.Vertices) < 3 {
			return fmt.Errorf("%w: polygon %d has %d", ErrPolygonTooSmall, pi, len(p.Vertices))
		}
		if p.LoopStart != loops {
			return fmt.Errorf("polygon %d: loop start %d, want %d", pi, p.LoopStart, loops)
		}
		for _, v := range p.Vertices {
			if v < 0 || v >= m.NumVertices {
				return fmt.Errorf("%w: polygon %d references vertex %d of %d",
					ErrVertexOutOfRange, pi, v, m.NumVertices)
			}
		}
		loops += len(p.Vertices)
	}
	for _, l := range m.UVLayers {
		if len(l.UV) != loops {
			return fmt.Errorf("%w: layer %q has %d UVs for %d loops",
				ErrLoopCountMismatch, l.Name, len(l.UV), loops)
		}
	}
	for _, k := range m.Keys {
		if len(k.Positions) != m.NumVertices {
			return fmt.Errorf("%w: key %q has %d positions for %d vertices",
				ErrKeySizeMismatch, k.Name, len(k.Positions), m.NumVertices)
		}
	}
	return nil
}
