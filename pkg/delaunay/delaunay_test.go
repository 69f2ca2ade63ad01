package delaunay

import (
	"testing"
)

// doubledArea returns twice the signed area of t.
func doubledArea(t Triangle) int {
	return (t[1].X-t[0].X)*(t[2].Y-t[0].Y) - (t[1].Y-t[0].Y)*(t[2].X-t[0].X)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// containsPoint reports whether p lies inside or on triangle t.
func containsPoint(t Triangle, p Point) bool {
	sign := func(a, b Point) int {
		return (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
	}
	d1, d2, d3 := sign(t[0], t[1]), sign(t[1], t[2]), sign(t[2], t[0])
	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func covered(tris []Triangle, p Point) bool {
	for _, t := range tris {
		if containsPoint(t, p) {
			return true
		}
	}
	return false
}

func TestTriangulate_TooFewPoints(t *testing.T) {
	if got := Triangulate(nil); got != nil {
		t.Errorf("Triangulate(nil) = %v, want nil", got)
	}
	if got := Triangulate([]Point{{0, 0}, {5, 5}}); got != nil {
		t.Errorf("Triangulate(2 points) = %v, want nil", got)
	}
}

func TestTriangulate_Collinear(t *testing.T) {
	pts := []Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}}
	if got := Triangulate(pts); len(got) != 0 {
		t.Errorf("Triangulate(collinear) returned %d triangles, want 0", len(got))
	}
}

func TestTriangulate_SingleTriangle(t *testing.T) {
	pts := []Point{{0, 0}, {4, 0}, {0, 4}}
	tris := Triangulate(pts)
	if len(tris) != 1 {
		t.Fatalf("Triangulate returned %d triangles, want 1", len(tris))
	}
	if got := abs(doubledArea(tris[0])); got != 16 {
		t.Errorf("triangle doubled area = %d, want 16", got)
	}
	for _, p := range pts {
		if !covered(tris, p) {
			t.Errorf("input point %v not covered", p)
		}
	}
}

func TestTriangulate_Square(t *testing.T) {
	pts := []Point{{0, 0}, {2, 0}, {0, 2}, {2, 2}}
	tris := Triangulate(pts)
	if len(tris) != 2 {
		t.Fatalf("Triangulate returned %d triangles, want 2", len(tris))
	}

	total := 0
	for _, tr := range tris {
		a := abs(doubledArea(tr))
		if a == 0 {
			t.Errorf("degenerate triangle %v", tr)
		}
		total += a
	}
	if total != 8 {
		t.Errorf("total doubled area = %d, want 8 (the full square)", total)
	}
}

func TestTriangulate_GridCoversHull(t *testing.T) {
	var pts []Point
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			pts = append(pts, Point{x, y})
		}
	}

	tris := Triangulate(pts)

	// Euler: T = 2n - 2 - h for n points with h on the hull.
	if len(tris) != 18 {
		t.Errorf("Triangulate returned %d triangles, want 18", len(tris))
	}

	total := 0
	for _, tr := range tris {
		total += abs(doubledArea(tr))
	}
	if total != 18 {
		t.Errorf("total doubled area = %d, want 18 (the 3x3 hull)", total)
	}

	// Every lattice point of the hull is covered, without gaps.
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if !covered(tris, Point{x, y}) {
				t.Errorf("grid point (%d,%d) not covered", x, y)
			}
		}
	}

	// Every input point appears as a triangle vertex.
	used := make(map[Point]bool)
	for _, tr := range tris {
		for _, p := range tr {
			used[p] = true
		}
	}
	for _, p := range pts {
		if !used[p] {
			t.Errorf("input point %v unused", p)
		}
	}
}

func TestTriangulate_CollinearRunOnHullEdge(t *testing.T) {
	// Points on a line plus one apex: the run along the base must stay
	// subdivided, giving 3 triangles of total doubled area 12.
	pts := []Point{{0, 0}, {1, 0}, {2, 0}, {3, 0}, {1, 2}}
	tris := Triangulate(pts)
	if len(tris) != 3 {
		t.Fatalf("Triangulate returned %d triangles, want 3", len(tris))
	}
	total := 0
	for _, tr := range tris {
		total += abs(doubledArea(tr))
	}
	if total != 12 {
		t.Errorf("total doubled area = %d, want 12", total)
	}
}

func TestTriangulate_DuplicatesFolded(t *testing.T) {
	pts := []Point{{0, 0}, {4, 0}, {0, 4}, {0, 0}, {4, 0}}
	tris := Triangulate(pts)
	if len(tris) != 1 {
		t.Errorf("Triangulate with duplicates returned %d triangles, want 1", len(tris))
	}
}

func TestTriangulate_Deterministic(t *testing.T) {
	var pts []Point
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			pts = append(pts, Point{x * 2, y * 3})
		}
	}

	first := Triangulate(pts)
	for run := 0; run < 3; run++ {
		again := Triangulate(pts)
		if len(again) != len(first) {
			t.Fatalf("run %d: %d triangles, want %d", run, len(again), len(first))
		}
		for i := range first {
			if again[i] != first[i] {
				t.Fatalf("run %d: triangle %d = %v, want %v", run, i, again[i], first[i])
			}
		}
	}
}
