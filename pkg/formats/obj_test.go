package formats

import (
	"errors"
	"testing"

	"github.com/meshforge/sktransfer/pkg/math"
)

// createTestOBJ builds a minimal quad OBJ with UVs.
func createTestOBJ() []byte {
	return []byte(`# test quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1 2/2 3/3 4/4
`)
}

func TestParseOBJ_ValidFile(t *testing.T) {
	o, err := ParseOBJ(createTestOBJ())
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	if len(o.Positions) != 4 {
		t.Errorf("expected 4 positions, got %d", len(o.Positions))
	}
	if len(o.TexCoords) != 4 {
		t.Errorf("expected 4 texcoords, got %d", len(o.TexCoords))
	}
	if len(o.Faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(o.Faces))
	}
	if len(o.Faces[0].Corners) != 4 {
		t.Errorf("expected 4 corners, got %d", len(o.Faces[0].Corners))
	}
	if o.Positions[2] != (math.Vec3{X: 1, Y: 1, Z: 0}) {
		t.Errorf("position 2 = %v, want {1 1 0}", o.Positions[2])
	}
	if o.Faces[0].Corners[1] != (OBJCorner{Vertex: 1, TexCoord: 1}) {
		t.Errorf("corner 1 = %v, want {1 1}", o.Faces[0].Corners[1])
	}
}

func TestParseOBJ_NegativeIndices(t *testing.T) {
	data := []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nvt 1 0\nvt 0 1\nf -3/-3 -2/-2 -1/-1\n")
	o, err := ParseOBJ(data)
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	want := []OBJCorner{{0, 0}, {1, 1}, {2, 2}}
	for i, c := range o.Faces[0].Corners {
		if c != want[i] {
			t.Errorf("corner %d = %v, want %v", i, c, want[i])
		}
	}
}

func TestParseOBJ_IndexOutOfRange(t *testing.T) {
	data := []byte("v 0 0 0\nvt 0 0\nf 1/1 2/1 3/1\n")
	if _, err := ParseOBJ(data); !errors.Is(err, ErrOBJIndexOutOfRange) {
		t.Errorf("ParseOBJ = %v, want ErrOBJIndexOutOfRange", err)
	}
}

func TestParseOBJ_MalformedVertex(t *testing.T) {
	data := []byte("v 0 zero 0\n")
	if _, err := ParseOBJ(data); !errors.Is(err, ErrMalformedOBJStatement) {
		t.Errorf("ParseOBJ = %v, want ErrMalformedOBJStatement", err)
	}
}

func TestParseOBJ_SkipsUnknownStatements(t *testing.T) {
	data := []byte("o thing\ns off\nvn 0 0 1\nv 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nf 1/1 2/1 3/1\n")
	o, err := ParseOBJ(data)
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if len(o.Positions) != 3 || len(o.Faces) != 1 {
		t.Errorf("got %d positions, %d faces", len(o.Positions), len(o.Faces))
	}
}

func TestOBJMesh(t *testing.T) {
	o, err := ParseOBJ(createTestOBJ())
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	m, err := o.Mesh("quad")
	if err != nil {
		t.Fatalf("Mesh failed: %v", err)
	}

	if m.NumVertices != 4 {
		t.Errorf("NumVertices = %d, want 4", m.NumVertices)
	}
	if m.NumLoops() != 4 {
		t.Errorf("NumLoops = %d, want 4", m.NumLoops())
	}

	ref, err := m.ReferenceKey()
	if err != nil {
		t.Fatalf("ReferenceKey failed: %v", err)
	}
	if ref.Name != "Basis" {
		t.Errorf("reference key = %q, want Basis", ref.Name)
	}

	layer, err := m.UVLayer(0)
	if err != nil {
		t.Fatalf("UVLayer failed: %v", err)
	}
	if layer.UV[2] != (math.Vec2{X: 1, Y: 1}) {
		t.Errorf("loop 2 UV = %v, want {1 1}", layer.UV[2])
	}
}

func TestOBJMesh_MissingUV(t *testing.T) {
	data := []byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n")
	o, err := ParseOBJ(data)
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if _, err := o.Mesh("bare"); !errors.Is(err, ErrOBJMissingUV) {
		t.Errorf("Mesh = %v, want ErrOBJMissingUV", err)
	}
}

func TestWriteOBJ_RoundTrip(t *testing.T) {
	o, err := ParseOBJ(createTestOBJ())
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	data, err := WriteOBJ(o, nil)
	if err != nil {
		t.Fatalf("WriteOBJ failed: %v", err)
	}

	back, err := ParseOBJ(data)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if len(back.Positions) != len(o.Positions) ||
		len(back.TexCoords) != len(o.TexCoords) ||
		len(back.Faces) != len(o.Faces) {
		t.Errorf("round trip changed counts: %d/%d/%d, want %d/%d/%d",
			len(back.Positions), len(back.TexCoords), len(back.Faces),
			len(o.Positions), len(o.TexCoords), len(o.Faces))
	}
	for i := range o.Positions {
		if back.Positions[i] != o.Positions[i] {
			t.Errorf("position %d = %v, want %v", i, back.Positions[i], o.Positions[i])
		}
	}
}

func TestWriteOBJ_PositionOverride(t *testing.T) {
	o, err := ParseOBJ(createTestOBJ())
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	deformed := []math.Vec3{{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1}, {X: 1, Y: 1, Z: 1}, {X: 0, Y: 1, Z: 1}}
	data, err := WriteOBJ(o, deformed)
	if err != nil {
		t.Fatalf("WriteOBJ failed: %v", err)
	}

	back, err := ParseOBJ(data)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	if back.Positions[0] != (math.Vec3{X: 0, Y: 0, Z: 1}) {
		t.Errorf("position 0 = %v, want {0 0 1}", back.Positions[0])
	}

	if _, err := WriteOBJ(o, deformed[:2]); err == nil {
		t.Error("WriteOBJ with short override should fail")
	}
}
