package render

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"math"

	"github.com/taigrr/facet/pkg/math3d"
	"github.com/taigrr/facet/pkg/models"
	"github.com/taigrr/facet/pkg/scene"
)

// ErrNilShader is returned by Render when the renderer has no shader.
var ErrNilShader = errors.New("render: nil shader")

// Mode selects how triangles are drawn.
type Mode int

const (
	// ModeFill rasterizes triangles through the shader.
	ModeFill Mode = iota
	// ModeWireframe draws triangle edges in Renderer.WireColor.
	ModeWireframe
)

func (m Mode) String() string {
	switch m {
	case ModeFill:
		return "fill"
	case ModeWireframe:
		return "wireframe"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Stats counts what happened during one Render call.
type Stats struct {
	Objects       int // objects considered
	CulledObjects int // objects rejected by frustum culling
	Faces         int // triangles sent to the vertex stage
	NonTriangular int // faces skipped because they are not triangles
	BehindEye     int // triangles with a vertex at or behind the eye plane
	Backfaces     int // triangles culled for clockwise winding
	Degenerate    int // triangles with zero screen area
	Fragments     int // covered pixels handed to the fragment stage
	Discarded     int // fragments the shader discarded
	DepthRejected int // fragments that failed the depth test
	PixelsWritten int
}

// LogValue groups the counters for structured logging.
func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("objects", s.Objects),
		slog.Int("culled_objects", s.CulledObjects),
		slog.Int("faces", s.Faces),
		slog.Int("non_triangular", s.NonTriangular),
		slog.Int("behind_eye", s.BehindEye),
		slog.Int("backfaces", s.Backfaces),
		slog.Int("degenerate", s.Degenerate),
		slog.Int("fragments", s.Fragments),
		slog.Int("discarded", s.Discarded),
		slog.Int("depth_rejected", s.DepthRejected),
		slog.Int("pixels", s.PixelsWritten),
	)
}

// Renderer draws a scene.View into a Frame. The depth buffer is owned by the
// renderer and resized to match the frame on every call. A Renderer is not
// safe for concurrent use; give each goroutine its own.
type Renderer struct {
	Shader Shader
	Mode   Mode

	// WireColor is the line colour in ModeWireframe.
	WireColor color.NRGBA

	// FrustumCull skips objects whose transformed mesh bounds lie outside
	// the view volume. Meshes must have up to date bounds.
	FrustumCull bool

	// DisableBackfaceCulling rasterizes clockwise triangles too.
	DisableBackfaceCulling bool

	depth depthBuffer
	stats Stats
}

// NewRenderer returns a filling renderer with backface culling on.
func NewRenderer(shader Shader) *Renderer {
	return &Renderer{
		Shader:    shader,
		WireColor: color.NRGBA{A: 0xFF},
	}
}

// Render clears fb to the view's background, resets the depth buffer and
// draws every object of view. On error the frame may be partly drawn.
func (r *Renderer) Render(view scene.View, fb *Frame) (Stats, error) {
	r.stats = Stats{}
	if fb == nil {
		return r.stats, ErrNilFrame
	}
	if r.Shader == nil {
		return r.stats, ErrNilShader
	}

	fb.Fill(fb.Format.PackColor(view.Background))
	r.depth.reset(fb.Width, fb.Height)

	camera, err := view.Camera()
	if err != nil {
		logger().Warn("frame abandoned", "eye", view.Eye, "target", view.Target, "err", err)
		return r.stats, fmt.Errorf("camera: %w", err)
	}
	u := Uniforms{
		View:       camera,
		Projection: view.Lens.Projection(),
		Viewport:   math3d.Viewport(fb.Width, fb.Height),
		Eye:        view.Eye,
		Light:      view.Light,
		Format:     fb.Format,
	}

	var frustum Frustum
	if r.FrustumCull {
		frustum = FrustumFromMatrix(u.Projection.Mul(u.View))
	}

	for i, obj := range view.Objects {
		if obj.Mesh == nil {
			continue
		}
		r.stats.Objects++
		if r.FrustumCull {
			lo, hi := obj.Mesh.Bounds()
			if !frustum.Intersects(AABB{Min: lo, Max: hi}.Transform(obj.Model)) {
				r.stats.CulledObjects++
				continue
			}
		}

		u.Normal, err = obj.Model.NormalMatrix()
		if err != nil {
			logger().Warn("frame abandoned", "object", i, "mesh", obj.Mesh.Name, "err", err)
			return r.stats, fmt.Errorf("object %d (%s): %w", i, obj.Mesh.Name, err)
		}
		u.Texture = obj.Mesh.Texture
		r.Shader.Bind(u)

		for _, face := range obj.Mesh.Faces {
			r.drawFace(fb, face, obj.Model)
		}
	}

	logger().Debug("frame rendered", "size", fmt.Sprintf("%dx%d", fb.Width, fb.Height), "stats", r.stats)
	return r.stats, nil
}

func (r *Renderer) drawFace(fb *Frame, face models.Face, model math3d.Mat4) {
	if !face.IsTriangle() {
		r.stats.NonTriangular++
		return
	}
	r.stats.Faces++
	var s [3]math3d.Vec4
	for k := range 3 {
		s[k] = r.Shader.Vertex(face.Vertices[k], model, k)
	}
	r.drawTriangle(fb, s)
}

// drawTriangle culls and rasterizes one triangle given its screen-space
// vertices, as returned by Shader.Vertex.
func (r *Renderer) drawTriangle(fb *Frame, s [3]math3d.Vec4) {
	if s[0].W <= 0 || s[1].W <= 0 || s[2].W <= 0 {
		r.stats.BehindEye++
		return
	}

	// Twice the signed screen area; positive for counter-clockwise winding
	// in a y-up frame.
	area := (s[2].X-s[1].X)*(s[0].Y-s[1].Y) - (s[2].Y-s[1].Y)*(s[0].X-s[1].X)
	switch {
	case area == 0:
		r.stats.Degenerate++
		return
	case area < 0 && !r.DisableBackfaceCulling:
		r.stats.Backfaces++
		return
	}

	if r.Mode == ModeWireframe {
		r.drawEdges(fb, s)
		return
	}
	r.rasterize(fb, s, area)
}

// edge is the function E(P) = cross(b-a, P-a) over one triangle edge,
// evaluated incrementally along a scanline.
type edge struct {
	ax, ay float64
	dx, dy float64
}

func newEdge(a, b math3d.Vec4) edge {
	return edge{ax: a.X, ay: a.Y, dx: b.X - a.X, dy: b.Y - a.Y}
}

func (e edge) at(x, y float64) float64 {
	return e.dx*(y-e.ay) - e.dy*(x-e.ax)
}

// stepX is the change in E for one pixel step along x.
func (e edge) stepX() float64 {
	return -e.dy
}

// rasterize fills the pixels whose integer coordinates fall inside the
// triangle. area is the signed value of the edge v0→v1 at v2; when it is
// negative every edge function is negated so the inside test stays "all
// non-negative".
func (r *Renderer) rasterize(fb *Frame, s [3]math3d.Vec4, area float64) {
	// Clamp while still in float64: far-off vertices would overflow int.
	loX := math.Max(0, math.Floor(min(s[0].X, s[1].X, s[2].X)))
	hiX := math.Min(float64(fb.Width-1), math.Ceil(max(s[0].X, s[1].X, s[2].X)))
	loY := math.Max(0, math.Floor(min(s[0].Y, s[1].Y, s[2].Y)))
	hiY := math.Min(float64(fb.Height-1), math.Ceil(max(s[0].Y, s[1].Y, s[2].Y)))
	if !(loX <= hiX && loY <= hiY) {
		return
	}
	minX, maxX := int(loX), int(hiX)
	minY, maxY := int(loY), int(hiY)

	// Each edge weights the vertex opposite it.
	e12, e20, e01 := newEdge(s[1], s[2]), newEdge(s[2], s[0]), newEdge(s[0], s[1])
	sign := 1.0
	if area < 0 {
		sign = -1
	}
	invArea := 1 / area
	invW0, invW1, invW2 := 1/s[0].W, 1/s[1].W, 1/s[2].W
	step0, step1, step2 := e12.stepX()*sign, e20.stepX()*sign, e01.stepX()*sign

	width := fb.Width
	depth := r.depth.z
	pixels := fb.Pixels

	for y := minY; y <= maxY; y++ {
		py := float64(y)
		px := float64(minX)
		w0 := e12.at(px, py) * sign
		w1 := e20.at(px, py) * sign
		w2 := e01.at(px, py) * sign
		row := y * width

		for x := minX; x <= maxX; x++ {
			if w0 >= 0 && w1 >= 0 && w2 >= 0 {
				b0 := w0 * sign * invArea
				b1 := w1 * sign * invArea
				b2 := w2 * sign * invArea
				wn := 1 / (b0*invW0 + b1*invW1 + b2*invW2)

				r.stats.Fragments++
				c, discard := r.Shader.Fragment(math3d.V4(b0, b1, b2, wn))
				switch idx := row + x; {
				case discard:
					r.stats.Discarded++
				case wn < depth[idx]:
					depth[idx] = wn
					pixels[idx] = c
					r.stats.PixelsWritten++
				default:
					r.stats.DepthRejected++
				}
			}
			w0 += step0
			w1 += step1
			w2 += step2
		}
	}
}
