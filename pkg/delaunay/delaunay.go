// Package delaunay triangulates planar point sets with integer
// coordinates. The result covers the convex hull of the input; fewer
// than three points, or a fully collinear set, triangulates to nothing.
//
// The implementation is Bowyer-Watson incremental insertion over a
// super-triangle. With integer inputs the orientation and in-circle
// determinants are exact in float64 for coordinates up to a few
// thousand, which covers any raster resolution this package is used
// with.
package delaunay

// Point is a 2D point with integer coordinates.
type Point struct {
	X, Y int
}

// Triangle is a triangle over three input points.
type Triangle [3]Point

// tri references three vertices by index.
type tri [3]int

// edge is a directed vertex pair.
type edge struct {
	a, b int
}

// key returns the edge with its endpoints ordered, for undirected
// matching.
func (e edge) key() edge {
	if e.a > e.b {
		return edge{e.b, e.a}
	}
	return e
}

// Triangulate returns a Delaunay triangulation of the given points.
// Duplicate points are folded together; insertion follows input order,
// which fixes the diagonal chosen for cocircular configurations.
func Triangulate(points []Point) []Triangle {
	pts := dedupe(points)
	n := len(pts)
	if n < 3 {
		return nil
	}

	// Vertex table: input points first, then the three super-triangle
	// vertices, all in float64.
	vx := make([]float64, n+3)
	vy := make([]float64, n+3)
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for i, p := range pts {
		vx[i] = float64(p.X)
		vy[i] = float64(p.Y)
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	// Super-triangle on integer coordinates. Its vertices must lie
	// outside the circumcircle of every triple of real points; for
	// lattice points within a span s the circumradius of a near-collinear
	// triple can reach order s^3, hence the cubic margin.
	span := max(maxX-minX, maxY-minY) + 1
	margin := 2 * span * span * span
	midX, midY := (minX+maxX)/2, (minY+maxY)/2
	vx[n], vy[n] = float64(midX-margin), float64(midY-margin)
	vx[n+1], vy[n+1] = float64(midX), float64(midY+margin)
	vx[n+2], vy[n+2] = float64(midX+margin), float64(midY-margin)

	tris := []tri{orient(vx, vy, tri{n, n + 1, n + 2})}

	var bad []int
	var boundary []edge
	for i := 0; i < n; i++ {
		// Triangles whose circumcircle contains the new point form the
		// insertion cavity.
		bad = bad[:0]
		for ti, t := range tris {
			if inCircumcircle(vx, vy, t, vx[i], vy[i]) {
				bad = append(bad, ti)
			}
		}

		// Cavity boundary: edges of bad triangles not shared between two
		// bad triangles. Collected in encounter order to keep the output
		// deterministic.
		boundary = boundary[:0]
		seen := make(map[edge]int, 3*len(bad))
		for _, ti := range bad {
			t := tris[ti]
			for k := 0; k < 3; k++ {
				e := edge{t[k], t[(k+1)%3]}
				seen[e.key()]++
			}
		}
		for _, ti := range bad {
			t := tris[ti]
			for k := 0; k < 3; k++ {
				e := edge{t[k], t[(k+1)%3]}
				if seen[e.key()] == 1 {
					boundary = append(boundary, e)
				}
			}
		}

		// Replace the cavity with a fan around the new point.
		tris = removeIndices(tris, bad)
		for _, e := range boundary {
			tris = append(tris, orient(vx, vy, tri{e.a, e.b, i}))
		}
	}

	// Drop every triangle touching the super-triangle.
	out := make([]Triangle, 0, len(tris))
	for _, t := range tris {
		if t[0] >= n || t[1] >= n || t[2] >= n {
			continue
		}
		out = append(out, Triangle{pts[t[0]], pts[t[1]], pts[t[2]]})
	}
	return out
}

// dedupe removes duplicate points, keeping first occurrences in order.
func dedupe(points []Point) []Point {
	seen := make(map[Point]struct{}, len(points))
	out := make([]Point, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// removeIndices deletes the triangles at the given ascending indices,
// preserving the order of the rest.
func removeIndices(tris []tri, idx []int) []tri {
	if len(idx) == 0 {
		return tris
	}
	out := tris[:0]
	j := 0
	for i, t := range tris {
		if j < len(idx) && idx[j] == i {
			j++
			continue
		}
		out = append(out, t)
	}
	return out
}

// orient returns t with its vertices in counterclockwise order.
func orient(vx, vy []float64, t tri) tri {
	ax, ay := vx[t[0]], vy[t[0]]
	bx, by := vx[t[1]], vy[t[1]]
	cx, cy := vx[t[2]], vy[t[2]]
	if (bx-ax)*(cy-ay)-(by-ay)*(cx-ax) < 0 {
		t[1], t[2] = t[2], t[1]
	}
	return t
}

// inCircumcircle reports whether (px, py) lies strictly inside the
// circumcircle of the counterclockwise triangle t.
func inCircumcircle(vx, vy []float64, t tri, px, py float64) bool {
	adx, ady := vx[t[0]]-px, vy[t[0]]-py
	bdx, bdy := vx[t[1]]-px, vy[t[1]]-py
	cdx, cdy := vx[t[2]]-px, vy[t[2]]-py

	ad := adx*adx + ady*ady
	bd := bdx*bdx + bdy*bdy
	cd := cdx*cdx + cdy*cdy

	return adx*(bdy*cd-bd*cdy)-ady*(bdx*cd-bd*cdx)+ad*(bdx*cdy-bdy*cdx) > 0
}
