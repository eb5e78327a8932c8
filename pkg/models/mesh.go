// Package models holds the geometry fed to the rasterizer (meshes, faces,
// vertices and textures) and the loaders that build them from OBJ, glTF and
// image files.
package models

import (
	"errors"
	"math"

	"github.com/taigrr/facet/pkg/math3d"
)

var (
	// ErrEmptyMesh is returned when a file parses but yields no faces.
	ErrEmptyMesh = errors.New("models: mesh has no faces")
	// ErrUnsupportedFormat is returned for file extensions with no loader.
	ErrUnsupportedFormat = errors.New("models: unsupported format")
)

// Vertex holds the per-vertex attributes read by the vertex shader.
// Position is a point (w=1) and Normal a direction (w=0), both in model
// space.
type Vertex struct {
	Position math3d.Vec4
	Normal   math3d.Vec4
	UV       math3d.Vec2
}

// NewVertex builds a vertex from a position, normal and texture coordinate.
func NewVertex(pos, normal math3d.Vec3, uv math3d.Vec2) Vertex {
	return Vertex{
		Position: math3d.Point(pos),
		Normal:   math3d.Dir(normal),
		UV:       uv,
	}
}

// Face is an ordered polygon. Counter-clockwise order, seen from the front,
// is front-facing. The rasterizer only draws faces with exactly three
// vertices; call Mesh.Triangulate for polygon input.
type Face struct {
	Vertices []Vertex
}

// Tri builds a triangular face.
func Tri(a, b, c Vertex) Face {
	return Face{Vertices: []Vertex{a, b, c}}
}

// IsTriangle reports whether the face has exactly three vertices.
func (f Face) IsTriangle() bool {
	return len(f.Vertices) == 3
}

// Mesh is an immutable-after-load list of faces plus an optional texture.
// Several scene objects may share one mesh.
type Mesh struct {
	Name    string
	Faces   []Face
	Texture *Texture

	// Axis-aligned bounds in model space, filled by CalculateBounds.
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// AddFace appends a face.
func (m *Mesh) AddFace(vs ...Vertex) {
	m.Faces = append(m.Faces, Face{Vertices: vs})
}

// CalculateBounds computes the axis-aligned bounding box of every vertex.
func (m *Mesh) CalculateBounds() {
	first := true
	for _, f := range m.Faces {
		for _, v := range f.Vertices {
			p := v.Position.Vec3()
			if first {
				m.BoundsMin, m.BoundsMax = p, p
				first = false
				continue
			}
			m.BoundsMin = m.BoundsMin.Min(p)
			m.BoundsMax = m.BoundsMax.Max(p)
		}
	}
}

// Bounds returns the axis-aligned bounding box.
func (m *Mesh) Bounds() (lo, hi math3d.Vec3) {
	return m.BoundsMin, m.BoundsMax
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the extent of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles the mesh would draw after
// triangulation.
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, f := range m.Faces {
		if len(f.Vertices) >= 3 {
			n += len(f.Vertices) - 2
		}
	}
	return n
}

// Triangulate replaces every polygon with a triangle fan around its first
// vertex. Faces with fewer than three vertices are dropped.
func (m *Mesh) Triangulate() {
	out := make([]Face, 0, m.TriangleCount())
	for _, f := range m.Faces {
		vs := f.Vertices
		if len(vs) < 3 {
			continue
		}
		if len(vs) == 3 {
			out = append(out, f)
			continue
		}
		for i := 1; i+1 < len(vs); i++ {
			out = append(out, Tri(vs[0], vs[i], vs[i+1]))
		}
	}
	m.Faces = out
}

// faceNormal returns the unit normal of the plane through the first three
// vertices, using counter-clockwise orientation.
func faceNormal(f Face) math3d.Vec3 {
	if len(f.Vertices) < 3 {
		return math3d.Vec3{}
	}
	p0 := f.Vertices[0].Position.Vec3()
	p1 := f.Vertices[1].Position.Vec3()
	p2 := f.Vertices[2].Position.Vec3()
	return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
}

// CalculateFlatNormals gives every vertex the normal of its face.
func (m *Mesh) CalculateFlatNormals() {
	for i := range m.Faces {
		n := math3d.Dir(faceNormal(m.Faces[i]))
		vs := m.Faces[i].Vertices
		for j := range vs {
			vs[j].Normal = n
		}
	}
}

// CalculateSmoothNormals averages the area-weighted normals of all faces that
// share a vertex position.
func (m *Mesh) CalculateSmoothNormals() {
	acc := make(map[math3d.Vec3]math3d.Vec3)
	for _, f := range m.Faces {
		if len(f.Vertices) < 3 {
			continue
		}
		p0 := f.Vertices[0].Position.Vec3()
		p1 := f.Vertices[1].Position.Vec3()
		p2 := f.Vertices[2].Position.Vec3()
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		for _, v := range f.Vertices {
			p := v.Position.Vec3()
			acc[p] = acc[p].Add(n)
		}
	}
	for i := range m.Faces {
		vs := m.Faces[i].Vertices
		for j := range vs {
			vs[j].Normal = math3d.Dir(acc[vs[j].Position.Vec3()].Normalize())
		}
	}
}

// hasNormals reports whether any vertex carries a non-zero normal.
func (m *Mesh) hasNormals() bool {
	for _, f := range m.Faces {
		for _, v := range f.Vertices {
			if v.Normal.Vec3().LenSq() > 1e-12 {
				return true
			}
		}
	}
	return false
}

// Transform applies mat to every position and its inverse-transpose to
// every normal, then recomputes the bounds.
func (m *Mesh) Transform(mat math3d.Mat4) error {
	nm, err := mat.NormalMatrix()
	if err != nil {
		return err
	}
	for i := range m.Faces {
		vs := m.Faces[i].Vertices
		for j := range vs {
			vs[j].Position = math3d.Point(mat.MulPoint(vs[j].Position.Vec3()))
			vs[j].Normal = math3d.Dir(nm.MulDir(vs[j].Normal.Vec3()).Normalize())
		}
	}
	m.CalculateBounds()
	return nil
}

// Normalize centers the mesh on the origin and scales it uniformly so the
// largest side of its bounding box is 2 units.
func (m *Mesh) Normalize() error {
	m.CalculateBounds()
	extent := m.Size().MaxComponent()
	if extent == 0 || math.IsNaN(extent) {
		return ErrEmptyMesh
	}
	mat := math3d.ScaleUniform(2 / extent).Mul(math3d.Translate(m.Center().Negate()))
	return m.Transform(mat)
}

// Clone returns a deep copy whose faces may be modified independently.
// The texture is shared.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Name:      m.Name,
		Faces:     make([]Face, len(m.Faces)),
		Texture:   m.Texture,
		BoundsMin: m.BoundsMin,
		BoundsMax: m.BoundsMax,
	}
	for i, f := range m.Faces {
		c.Faces[i].Vertices = append([]Vertex(nil), f.Vertices...)
	}
	return c
}
