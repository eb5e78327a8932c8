package models

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/facet/pkg/math3d"
)

// GLTFLoader converts glTF 2.0 documents (.gltf or .glb) into a Mesh.
// Node transforms are not applied; every triangle primitive of every mesh is
// merged into one Mesh in model space.
type GLTFLoader struct {
	// SmoothNormals averages normals across shared positions when the file
	// has none; otherwise flat face normals are used.
	SmoothNormals bool
	// SkipTexture leaves Mesh.Texture nil even when the file embeds images.
	SkipTexture bool
}

// NewGLTFLoader returns a loader with smooth normal generation enabled.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{SmoothNormals: true}
}

// LoadGLTF loads a .gltf or .glb file with the default loader.
func LoadGLTF(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load opens path and builds a mesh. The first decodable image in the
// document becomes the mesh texture.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh := NewMesh(filepath.Base(path))
	for _, m := range doc.Meshes {
		if err := l.appendMesh(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("mesh %q: %w", m.Name, err)
		}
	}
	if len(mesh.Faces) == 0 {
		return nil, ErrEmptyMesh
	}

	if !mesh.hasNormals() {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateFlatNormals()
		}
	}
	mesh.CalculateBounds()

	if !l.SkipTexture {
		mesh.Texture = firstTexture(doc, filepath.Dir(path))
	}
	logger().Debug("gltf loaded", "path", path, "faces", len(mesh.Faces), "textured", mesh.Texture != nil)
	return mesh, nil
}

// appendMesh adds the triangles of every triangle-list primitive of m.
// glTF winding is counter-clockwise front-facing, which matches Face.
func (l *GLTFLoader) appendMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for i, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			logger().Debug("gltf primitive skipped", "mesh", m.Name, "primitive", i, "mode", prim.Mode)
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := readVec3(doc, posIdx)
		if err != nil {
			return fmt.Errorf("positions: %w", err)
		}
		var normals []math3d.Vec3
		if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
			if normals, err = readVec3(doc, idx); err != nil {
				return fmt.Errorf("normals: %w", err)
			}
		}
		var uvs []math3d.Vec2
		if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			if uvs, err = readVec2(doc, idx); err != nil {
				return fmt.Errorf("texcoords: %w", err)
			}
		}

		vertex := func(k int) (Vertex, error) {
			if k < 0 || k >= len(positions) {
				return Vertex{}, fmt.Errorf("index %d out of range", k)
			}
			v := Vertex{Position: math3d.Point(positions[k])}
			if k < len(normals) {
				v.Normal = math3d.Dir(normals[k])
			}
			if k < len(uvs) {
				// glTF puts v=0 at the top of the image; textures here are
				// stored bottom row first.
				v.UV = math3d.V2(uvs[k].X, 1-uvs[k].Y)
			}
			return v, nil
		}

		indices := make([]int, len(positions))
		for k := range indices {
			indices[k] = k
		}
		if prim.Indices != nil {
			if indices, err = readIndices(doc, *prim.Indices); err != nil {
				return fmt.Errorf("indices: %w", err)
			}
		}

		for k := 0; k+2 < len(indices); k += 3 {
			var tri [3]Vertex
			for c := range 3 {
				if tri[c], err = vertex(indices[k+c]); err != nil {
					return err
				}
			}
			mesh.Faces = append(mesh.Faces, Tri(tri[0], tri[1], tri[2]))
		}
	}
	return nil
}

// accessorBytes returns the buffer bytes an accessor reads from plus the
// element stride.
func accessorBytes(doc *gltf.Document, idx int, elemSize int) (*gltf.Accessor, []byte, int, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, nil, 0, fmt.Errorf("accessor %d out of range", idx)
	}
	acc := doc.Accessors[idx]
	if acc.BufferView == nil {
		return nil, nil, 0, fmt.Errorf("accessor %d has no buffer view", idx)
	}
	view := doc.BufferViews[*acc.BufferView]
	buf := doc.Buffers[view.Buffer]
	if buf.Data == nil {
		return nil, nil, 0, fmt.Errorf("buffer %d has no data", view.Buffer)
	}
	stride := view.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	start := view.ByteOffset + acc.ByteOffset
	end := start + (acc.Count-1)*stride + elemSize
	if acc.Count == 0 {
		end = start
	}
	if end > len(buf.Data) {
		return nil, nil, 0, fmt.Errorf("accessor %d overruns its buffer", idx)
	}
	return acc, buf.Data[start:end], stride, nil
}

func readFloat32(b []byte) float64 {
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
}

func readVec3(doc *gltf.Document, idx int) ([]math3d.Vec3, error) {
	acc, data, stride, err := accessorBytes(doc, idx, 12)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltf.AccessorVec3 || acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("want float VEC3, got %v/%v", acc.Type, acc.ComponentType)
	}
	out := make([]math3d.Vec3, acc.Count)
	for i := range out {
		o := i * stride
		out[i] = math3d.V3(readFloat32(data[o:]), readFloat32(data[o+4:]), readFloat32(data[o+8:]))
	}
	return out, nil
}

func readVec2(doc *gltf.Document, idx int) ([]math3d.Vec2, error) {
	acc, data, stride, err := accessorBytes(doc, idx, 8)
	if err != nil {
		return nil, err
	}
	if acc.Type != gltf.AccessorVec2 || acc.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("want float VEC2, got %v/%v", acc.Type, acc.ComponentType)
	}
	out := make([]math3d.Vec2, acc.Count)
	for i := range out {
		o := i * stride
		out[i] = math3d.V2(readFloat32(data[o:]), readFloat32(data[o+4:]))
	}
	return out, nil
}

func readIndices(doc *gltf.Document, idx int) ([]int, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	var size int
	switch doc.Accessors[idx].ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unsupported index type %v", doc.Accessors[idx].ComponentType)
	}

	acc, data, stride, err := accessorBytes(doc, idx, size)
	if err != nil {
		return nil, err
	}
	out := make([]int, acc.Count)
	for i := range out {
		b := data[i*stride:]
		switch size {
		case 1:
			out[i] = int(b[0])
		case 2:
			out[i] = int(binary.LittleEndian.Uint16(b))
		case 4:
			out[i] = int(binary.LittleEndian.Uint32(b))
		}
	}
	return out, nil
}

// firstTexture decodes the first image the document carries, either from a
// buffer view or from a file next to the document. Data URIs are skipped.
func firstTexture(doc *gltf.Document, dir string) *Texture {
	for i, img := range doc.Images {
		var data []byte
		switch {
		case img.BufferView != nil:
			view := doc.BufferViews[*img.BufferView]
			buf := doc.Buffers[view.Buffer]
			if buf.Data == nil || view.ByteOffset+view.ByteLength > len(buf.Data) {
				continue
			}
			data = buf.Data[view.ByteOffset : view.ByteOffset+view.ByteLength]
		case img.URI != "" && !strings.HasPrefix(img.URI, "data:"):
			b, err := os.ReadFile(filepath.Join(dir, img.URI))
			if err != nil {
				logger().Debug("gltf image unreadable", "image", i, "err", err)
				continue
			}
			data = b
		default:
			continue
		}

		tex, err := DecodeTexture(bytes.NewReader(data))
		if err != nil {
			logger().Debug("gltf image undecodable", "image", i, "err", err)
			continue
		}
		return tex
	}
	return nil
}
