// Package raster implements the UV-space sampling grids used to carry a
// shape-key deformation between meshes: a sparse scatter raster that
// accumulates per-vertex displacement samples as running means, and a
// dense raster produced by filling the triangulated samples.
package raster

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"

	"github.com/meshforge/sktransfer/pkg/math"
	"github.com/meshforge/sktransfer/pkg/mesh"
)

// ErrInvalidResolution is returned for grids smaller than 1x1.
var ErrInvalidResolution = errors.New("raster resolution must be at least 1x1")

// UVError reports a UV coordinate outside the unit square. The transfer
// pipeline fails fast on it rather than clamping.
type UVError struct {
	U, V float32
}

func (e *UVError) Error() string {
	return fmt.Sprintf("uv coordinate outside [0,1]: (%v, %v)", e.U, e.V)
}

// GridPoint is an integer cell coordinate on a raster.
type GridPoint struct {
	X, Y int
}

// MapUV maps a UV coordinate in [0,1]x[0,1] to the nearest cell of a
// w x h grid: round(u*(w-1)), round(v*(h-1)). The mapping is many-to-one;
// distinct loops may land on the same cell. Out-of-range coordinates
// return a *UVError.
func MapUV(u, v float32, w, h int) (GridPoint, error) {
	if u < 0 || u > 1 || v < 0 || v > 1 {
		return GridPoint{}, &UVError{U: u, V: v}
	}
	return GridPoint{
		X: int(math32.Round(u * float32(w-1))),
		Y: int(math32.Round(v * float32(h-1))),
	}, nil
}

type scatterCell struct {
	mean  math.Vec3
	count int
}

// ScatterRaster is a w x h grid of (running mean, sample count) cells.
type ScatterRaster struct {
	w, h  int
	cells []scatterCell
}

// NewScatterRaster creates an empty scatter raster.
func NewScatterRaster(w, h int) (*ScatterRaster, error) {
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidResolution, w, h)
	}
	return &ScatterRaster{w: w, h: h, cells: make([]scatterCell, w*h)}, nil
}

// Width returns the grid width.
func (r *ScatterRaster) Width() int { return r.w }

// Height returns the grid height.
func (r *ScatterRaster) Height() int { return r.h }

// Add scatters one displacement sample into the cell under (u, v),
// folding it into the cell's running mean:
//
//	new_mean = (old_mean*count + delta) / (count+1)
func (r *ScatterRaster) Add(u, v float32, delta math.Vec3) error {
	p, err := MapUV(u, v, r.w, r.h)
	if err != nil {
		return err
	}

	c := &r.cells[p.Y*r.w+p.X]
	if c.count == 0 {
		c.mean = delta
		c.count = 1
		return nil
	}
	c.mean = c.mean.Scale(float32(c.count)).Add(delta).Scale(1 / float32(c.count+1))
	c.count++
	return nil
}

// CountAt returns the number of samples folded into cell (x, y).
func (r *ScatterRaster) CountAt(x, y int) int {
	return r.cells[y*r.w+x].count
}

// MeanAt returns the mean displacement of cell (x, y), zero if empty.
func (r *ScatterRaster) MeanAt(x, y int) math.Vec3 {
	return r.cells[y*r.w+x].mean
}

// Points returns the occupied cells (count > 0) in row-major order,
// y outer ascending, x inner ascending. The scan order is stable so the
// downstream triangulation is reproducible.
func (r *ScatterRaster) Points() []GridPoint {
	var pts []GridPoint
	for y := 0; y < r.h; y++ {
		for x := 0; x < r.w; x++ {
			if r.cells[y*r.w+x].count > 0 {
				pts = append(pts, GridPoint{X: x, Y: y})
			}
		}
	}
	return pts
}

// Counts returns the per-cell sample counts in row-major order.
func (r *ScatterRaster) Counts() []int {
	out := make([]int, len(r.cells))
	for i, c := range r.cells {
		out[i] = c.count
	}
	return out
}

// Means returns the per-cell mean displacements in row-major order.
func (r *ScatterRaster) Means() []math.Vec3 {
	out := make([]math.Vec3, len(r.cells))
	for i, c := range r.cells {
		out[i] = c.mean
	}
	return out
}

// Sample scatters the displacement of shape key keyIdx (relative to the
// mesh's reference key) into a fresh w x h raster, visiting every polygon
// loop through the given UV layer. A vertex shared by several polygons is
// folded in once per incident loop; the multiplicity weights the mean by
// local mesh density on purpose.
func Sample(m *mesh.Mesh, keyIdx, uvIdx, w, h int) (*ScatterRaster, error) {
	key, err := m.Key(keyIdx)
	if err != nil {
		return nil, err
	}
	ref, err := m.ReferenceKey()
	if err != nil {
		return nil, err
	}
	layer, err := m.UVLayer(uvIdx)
	if err != nil {
		return nil, err
	}

	r, err := NewScatterRaster(w, h)
	if err != nil {
		return nil, err
	}

	for _, poly := range m.Polygons {
		for ci, v := range poly.Vertices {
			uv := layer.UV[poly.LoopStart+ci]
			delta := key.Delta(ref, v)
			if err := r.Add(uv.X, uv.Y, delta); err != nil {
				return nil, fmt.Errorf("vertex %d: %w", v, err)
			}
		}
	}
	return r, nil
}

// DenseRaster is a w x h grid of displacement vectors, zero where no
// triangle covered the cell.
type DenseRaster struct {
	w, h int
	vals []math.Vec3
}

// NewDenseRaster creates a zeroed dense raster.
func NewDenseRaster(w, h int) (*DenseRaster, error) {
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidResolution, w, h)
	}
	return &DenseRaster{w: w, h: h, vals: make([]math.Vec3, w*h)}, nil
}

// Width returns the grid width.
func (d *DenseRaster) Width() int { return d.w }

// Height returns the grid height.
func (d *DenseRaster) Height() int { return d.h }

// At returns the value of cell (x, y).
func (d *DenseRaster) At(x, y int) math.Vec3 {
	return d.vals[y*d.w+x]
}

// Set writes the value of cell (x, y).
func (d *DenseRaster) Set(x, y int, v math.Vec3) {
	d.vals[y*d.w+x] = v
}

// Values returns the cell values in row-major order.
func (d *DenseRaster) Values() []math.Vec3 {
	return d.vals
}
