package raster

import (
	"sort"

	"github.com/meshforge/sktransfer/pkg/math"
)

// ValuedVertex is a grid point carrying the displacement to interpolate.
// It is a rasterisation sample, not a mesh vertex.
type ValuedVertex struct {
	X, Y int
	Val  math.Vec3
}

// Triangle is a triangle over three valued vertices.
type Triangle [3]ValuedVertex

// FillTriangles rasterises each triangle into a fresh dense raster,
// linearly interpolating the vertex displacements across the covered
// cells. Triangles are filled in slice order; at shared edges the later
// triangle overwrites the earlier one, which is harmless because
// adjacent triangles agree on the shared-edge values up to float error.
func FillTriangles(w, h int, tris []Triangle) (*DenseRaster, error) {
	dst, err := NewDenseRaster(w, h)
	if err != nil {
		return nil, err
	}
	for _, t := range tris {
		drawTriangle(dst, t)
	}
	return dst, nil
}

// drawTriangle scanline-fills one triangle. The general case is split at
// the middle vertex's height into a bottom-flat and a top-flat triangle.
func drawTriangle(dst *DenseRaster, t Triangle) {
	// Stable sort by y so ties keep their input order and results are
	// reproducible.
	sort.SliceStable(t[:], func(i, j int) bool { return t[i].Y < t[j].Y })
	v1, v2, v3 := t[0], t[1], t[2]

	switch {
	case v2.Y == v3.Y:
		fillBottomFlat(dst, v1, v2, v3)
	case v1.Y == v2.Y:
		fillTopFlat(dst, v1, v2, v3)
	default:
		// Synthetic vertex on edge v1-v3 at the middle height. The
		// displacement fraction divides by dy3+1 where the position
		// fraction divides by dy3, so the value sits slightly above the
		// geometric split point; kept as-is to match reference output.
		dx3 := float32(v3.X - v1.X)
		dy2 := float32(v2.Y - v1.Y)
		dy3 := float32(v3.Y - v1.Y)
		k4 := dy2 / (dy3 + 1)
		v4 := ValuedVertex{
			X:   int(float32(v1.X) + (dy2/dy3)*dx3),
			Y:   v2.Y,
			Val: v1.Val.Lerp(v3.Val, k4),
		}
		fillBottomFlat(dst, v1, v2, v4)
		fillTopFlat(dst, v2, v4, v3)
	}
}

// fillBottomFlat fills a triangle whose flat edge is v2-v3 at the bottom,
// scanning from v1.Y down to the flat edge inclusive. The span bounds
// walk by the edges' inverse slopes and truncate to cell indices.
func fillBottomFlat(dst *DenseRaster, v1, v2, v3 ValuedVertex) {
	dy := v2.Y - v1.Y
	if dy <= 0 {
		return
	}

	invslope1 := float32(v2.X-v1.X) / float32(v2.Y-v1.Y)
	invslope2 := float32(v3.X-v1.X) / float32(v3.Y-v1.Y)

	curx1 := float32(v1.X)
	curx2 := float32(v1.X)

	for y := v1.Y; y <= v2.Y; y++ {
		ky := float32(y-v1.Y) / float32(dy)
		val1 := v1.Val.Lerp(v2.Val, ky)
		val2 := v1.Val.Lerp(v3.Val, ky)
		drawSpan(dst, int(curx1), int(curx2), y, val1, val2)
		curx1 += invslope1
		curx2 += invslope2
	}
}

// fillTopFlat fills a triangle whose flat edge is v1-v2 at the top,
// scanning upward from v3.Y with the walkers retreating toward the flat
// edge.
func fillTopFlat(dst *DenseRaster, v1, v2, v3 ValuedVertex) {
	dy := v3.Y - v1.Y
	if dy <= 0 {
		return
	}

	invslope1 := float32(v3.X-v1.X) / float32(v3.Y-v1.Y)
	invslope2 := float32(v3.X-v2.X) / float32(v3.Y-v2.Y)

	curx1 := float32(v3.X)
	curx2 := float32(v3.X)

	for y := v3.Y; y >= v1.Y; y-- {
		ky := float32(y-v1.Y) / float32(dy)
		val1 := v1.Val.Lerp(v3.Val, ky)
		val2 := v2.Val.Lerp(v3.Val, ky)
		drawSpan(dst, int(curx1), int(curx2), y, val1, val2)
		curx1 -= invslope1
		curx2 -= invslope2
	}
}

// drawSpan fills one horizontal run between (x1, val1) and (x2, val2).
// A single-cell span writes val1 only, never an average. Float drift in
// the edge walkers can push a bound one cell past the grid; those writes
// are dropped.
func drawSpan(dst *DenseRaster, x1, x2, y int, val1, val2 math.Vec3) {
	if y < 0 || y >= dst.h {
		return
	}
	if x1 == x2 {
		if x1 >= 0 && x1 < dst.w {
			dst.Set(x1, y, val1)
		}
		return
	}

	if x1 > x2 {
		x1, x2 = x2, x1
		val1, val2 = val2, val1
	}

	dx := float32(x2 - x1)
	for x := x1; x <= x2; x++ {
		if x < 0 || x >= dst.w {
			continue
		}
		k := float32(x-x1) / dx
		dst.Set(x, y, val1.Lerp(val2, k))
	}
}
