// Package formats provides parsers for mesh interchange file formats.
// Wavefront OBJ reader and writer for triangle/polygon meshes with UVs.
package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/meshforge/sktransfer/pkg/math"
	"github.com/meshforge/sktransfer/pkg/mesh"
)

// OBJ format errors.
var (
	ErrMalformedOBJStatement = errors.New("malformed OBJ statement")
	ErrOBJIndexOutOfRange    = errors.New("OBJ face index out of range")
	ErrOBJMissingUV          = errors.New("OBJ face corner has no UV coordinate")
)

// OBJCorner is one corner of an OBJ face: a 0-based position index and a
// 0-based texture-coordinate index, or -1 when the corner carries no UV.
type OBJCorner struct {
	Vertex   int
	TexCoord int
}

// OBJFace is an ordered ring of corners.
type OBJFace struct {
	Corners []OBJCorner
}

// OBJ represents a parsed Wavefront OBJ file. Normals, groups, and
// material statements are skipped.
type OBJ struct {
	Positions []math.Vec3
	TexCoords []math.Vec2
	Faces     []OBJFace
}

// ParseOBJ parses OBJ data from a byte slice.
func ParseOBJ(data []byte) (*OBJ, error) {
	o := &OBJ{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "v":
			p, err := parseVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: %q", lineNo, ErrMalformedOBJStatement, line)
			}
			o.Positions = append(o.Positions, p)

		case "vt":
			uv, err := parseVec2(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: %q", lineNo, ErrMalformedOBJStatement, line)
			}
			o.TexCoords = append(o.TexCoords, uv)

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: %w: face needs at least 3 corners", lineNo, ErrMalformedOBJStatement)
			}
			face := OBJFace{Corners: make([]OBJCorner, 0, len(fields)-1)}
			for _, ref := range fields[1:] {
				c, err := o.parseCorner(ref)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNo, err)
				}
				face.Corners = append(face.Corners, c)
			}
			o.Faces = append(o.Faces, face)

		default:
			// vn, o, g, s, usemtl, mtllib: not needed for transfer
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return o, nil
}

// LoadOBJ reads and parses an OBJ file from disk.
func LoadOBJ(path string) (*OBJ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	o, err := ParseOBJ(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return o, nil
}

// parseCorner parses a face corner reference of the form "v", "v/vt",
// "v//vn" or "v/vt/vn", resolving 1-based and negative indices.
func (o *OBJ) parseCorner(ref string) (OBJCorner, error) {
	parts := strings.Split(ref, "/")

	v, err := resolveIndex(parts[0], len(o.Positions))
	if err != nil {
		return OBJCorner{}, fmt.Errorf("%w: vertex %q", err, ref)
	}

	vt := -1
	if len(parts) >= 2 && parts[1] != "" {
		vt, err = resolveIndex(parts[1], len(o.TexCoords))
		if err != nil {
			return OBJCorner{}, fmt.Errorf("%w: texcoord %q", err, ref)
		}
	}

	return OBJCorner{Vertex: v, TexCoord: vt}, nil
}

// resolveIndex converts a 1-based (or negative, relative-to-end) OBJ
// index into a 0-based index, checking range against n.
func resolveIndex(s string, n int) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, ErrMalformedOBJStatement
	}
	switch {
	case idx > 0:
		idx--
	case idx < 0:
		idx = n + idx
	default:
		return 0, ErrOBJIndexOutOfRange
	}
	if idx < 0 || idx >= n {
		return 0, ErrOBJIndexOutOfRange
	}
	return idx, nil
}

func parseVec3(fields []string) (math.Vec3, error) {
	if len(fields) < 3 {
		return math.Vec3{}, ErrMalformedOBJStatement
	}
	var out [3]float32
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math.Vec3{}, ErrMalformedOBJStatement
		}
		out[i] = float32(f)
	}
	return math.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}

func parseVec2(fields []string) (math.Vec2, error) {
	if len(fields) < 2 {
		return math.Vec2{}, ErrMalformedOBJStatement
	}
	var out [2]float32
	for i := 0; i < 2; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math.Vec2{}, ErrMalformedOBJStatement
		}
		out[i] = float32(f)
	}
	return math.Vec2{X: out[0], Y: out[1]}, nil
}

// Mesh converts the parsed OBJ into a mesh with a "Basis" shape key
// holding the file's positions and a "UVMap" layer holding its per-corner
// UVs. Every face corner must reference a texture coordinate.
func (o *OBJ) Mesh(name string) (*mesh.Mesh, error) {
	m := mesh.New(name, len(o.Positions))

	var uvs []math.Vec2
	for fi, face := range o.Faces {
		verts := make([]int, len(face.Corners))
		for ci, c := range face.Corners {
			if c.TexCoord < 0 {
				return nil, fmt.Errorf("%w: face %d corner %d", ErrOBJMissingUV, fi, ci)
			}
			verts[ci] = c.Vertex
			uvs = append(uvs, o.TexCoords[c.TexCoord])
		}
		m.AddPolygon(verts)
	}

	if err := m.AddUVLayer("UVMap", uvs); err != nil {
		return nil, err
	}
	if _, err := m.AddShapeKey("Basis", o.Positions); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// WriteOBJ serialises the OBJ to text. Positions may be overridden by a
// same-length buffer (e.g. a shape key's positions); pass nil to use the
// OBJ's own.
func WriteOBJ(o *OBJ, positions []math.Vec3) ([]byte, error) {
	if positions == nil {
		positions = o.Positions
	}
	if len(positions) != len(o.Positions) {
		return nil, fmt.Errorf("position override has %d entries for %d vertices",
			len(positions), len(o.Positions))
	}

	var buf bytes.Buffer
	for _, p := range positions {
		fmt.Fprintf(&buf, "v %g %g %g\n", p.X, p.Y, p.Z)
	}
	for _, uv := range o.TexCoords {
		fmt.Fprintf(&buf, "vt %g %g\n", uv.X, uv.Y)
	}
	for _, face := range o.Faces {
		buf.WriteString("f")
		for _, c := range face.Corners {
			if c.TexCoord >= 0 {
				fmt.Fprintf(&buf, " %d/%d", c.Vertex+1, c.TexCoord+1)
			} else {
				fmt.Fprintf(&buf, " %d", c.Vertex+1)
			}
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// SaveOBJ writes the OBJ to disk, optionally with overridden positions.
func SaveOBJ(path string, o *OBJ, positions []math.Vec3) error {
	data, err := WriteOBJ(o, positions)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
