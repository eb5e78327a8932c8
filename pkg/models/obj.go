package models

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/facet/pkg/math3d"
)

// LoadOBJ reads a Wavefront OBJ file. Polygon faces are fan-triangulated and
// faces without normals get flat face normals.
func LoadOBJ(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	mesh, err := ParseOBJ(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("obj %s: %w", path, err)
	}
	logger().Debug("obj loaded", "path", path, "faces", len(mesh.Faces))
	return mesh, nil
}

// objRef is one "v/vt/vn" corner of a face, as zero-based indices; -1 marks
// a missing attribute.
type objRef struct {
	v, vt, vn int
}

// ParseOBJ reads OBJ geometry from r. Only v, vt, vn and f statements are
// interpreted; everything else (groups, materials, smoothing) is ignored.
func ParseOBJ(r io.Reader, name string) (*Mesh, error) {
	var (
		positions []math3d.Vec3
		uvs       []math3d.Vec2
		normals   []math3d.Vec3
		mesh      = NewMesh(name)
		missingN  bool
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		fields := strings.Fields(text)

		switch fields[0] {
		case "v":
			xyz, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: vertex: %w", line, err)
			}
			positions = append(positions, math3d.V3(xyz[0], xyz[1], xyz[2]))
		case "vt":
			st, err := parseFloats(fields[1:], 2)
			if err != nil {
				return nil, fmt.Errorf("line %d: texcoord: %w", line, err)
			}
			uvs = append(uvs, math3d.V2(st[0], st[1]))
		case "vn":
			xyz, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("line %d: normal: %w", line, err)
			}
			normals = append(normals, math3d.V3(xyz[0], xyz[1], xyz[2]))
		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", line)
			}
			face := Face{Vertices: make([]Vertex, 0, len(fields)-1)}
			for _, tok := range fields[1:] {
				ref, err := parseRef(tok, len(positions), len(uvs), len(normals))
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", line, err)
				}
				var v Vertex
				v.Position = math3d.Point(positions[ref.v])
				if ref.vt >= 0 {
					v.UV = uvs[ref.vt]
				}
				if ref.vn >= 0 {
					v.Normal = math3d.Dir(normals[ref.vn])
				} else {
					missingN = true
				}
				face.Vertices = append(face.Vertices, v)
			}
			mesh.Faces = append(mesh.Faces, face)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if len(mesh.Faces) == 0 {
		return nil, ErrEmptyMesh
	}

	mesh.Triangulate()
	if missingN {
		fillFlatNormals(mesh)
	}
	mesh.CalculateBounds()
	return mesh, nil
}

// fillFlatNormals assigns the face normal to vertices that have none.
func fillFlatNormals(m *Mesh) {
	for i := range m.Faces {
		vs := m.Faces[i].Vertices
		n := math3d.Dir(faceNormal(m.Faces[i]))
		for j := range vs {
			if vs[j].Normal.Vec3().LenSq() == 0 {
				vs[j].Normal = n
			}
		}
	}
}

func parseFloats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("want %d components, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i := range n {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// parseRef parses "v", "v/vt", "v//vn" or "v/vt/vn". Indices are 1-based;
// negative values count back from the most recent element.
func parseRef(tok string, nv, nvt, nvn int) (objRef, error) {
	ref := objRef{v: -1, vt: -1, vn: -1}
	parts := strings.Split(tok, "/")
	if len(parts) > 3 {
		return ref, fmt.Errorf("bad face vertex %q", tok)
	}

	counts := [3]int{nv, nvt, nvn}
	dst := [3]*int{&ref.v, &ref.vt, &ref.vn}
	for i, p := range parts {
		if p == "" {
			if i == 0 {
				return ref, fmt.Errorf("face vertex %q has no position", tok)
			}
			continue
		}
		idx, err := strconv.Atoi(p)
		if err != nil {
			return ref, fmt.Errorf("bad index in %q: %w", tok, err)
		}
		switch {
		case idx > 0:
			idx--
		case idx < 0:
			idx += counts[i]
		default:
			return ref, fmt.Errorf("zero index in %q", tok)
		}
		if idx < 0 || idx >= counts[i] {
			return ref, fmt.Errorf("index out of range in %q", tok)
		}
		*dst[i] = idx
	}
	return ref, nil
}
