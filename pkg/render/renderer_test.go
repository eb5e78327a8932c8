package render

import (
	"image/color"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taigrr/facet/pkg/math3d"
	"github.com/taigrr/facet/pkg/models"
	"github.com/taigrr/facet/pkg/scene"
)

// probeShader passes vertex positions through as screen coordinates and
// records what the fragment stage sees. The packed colour is the
// perspective-correct u coordinate scaled by 1e6, or a fixed value.
type probeShader struct {
	fixed uint32
	uv    [3]math3d.Vec2
	frags []math3d.Vec4
}

func (p *probeShader) Bind(Uniforms) {}

func (p *probeShader) Vertex(v models.Vertex, _ math3d.Mat4, slot int) math3d.Vec4 {
	p.uv[slot] = v.UV.Scale(1 / v.Position.W)
	return v.Position
}

func (p *probeShader) Fragment(bc math3d.Vec4) (uint32, bool) {
	p.frags = append(p.frags, bc)
	if p.fixed != 0 {
		return p.fixed, false
	}
	return uint32(math.Round(interp2(bc, p.uv).X * 1e6)), false
}

func screenVertex(x, y, w float64) models.Vertex {
	return models.Vertex{Position: math3d.V4(x, y, 0, w)}
}

// drawScreen rasterizes one screen-space triangle into a fresh depth buffer.
func drawScreen(r *Renderer, fb *Frame, vs ...models.Vertex) {
	r.depth.reset(fb.Width, fb.Height)
	r.drawFace(fb, models.Face{Vertices: vs}, math3d.Identity())
}

// insideTriangle evaluates the three edge functions of a counter-clockwise
// triangle directly at q.
func insideTriangle(p [3]math3d.Vec2, q math3d.Vec2) bool {
	return p[1].Sub(p[0]).Cross(q.Sub(p[0])) >= 0 &&
		p[2].Sub(p[1]).Cross(q.Sub(p[1])) >= 0 &&
		p[0].Sub(p[2]).Cross(q.Sub(p[2])) >= 0
}

// covered counts lattice points inside a counter-clockwise triangle.
func covered(fb *Frame, p [3]math3d.Vec2) int {
	n := 0
	for y := range fb.Height {
		for x := range fb.Width {
			if insideTriangle(p, math3d.V2(float64(x), float64(y))) {
				n++
			}
		}
	}
	return n
}

func TestRasterizeBarycentrics(t *testing.T) {
	fb := NewFrame(64, 64, ARGB8888)
	probe := &probeShader{fixed: 1}
	r := NewRenderer(probe)

	drawScreen(r, fb, screenVertex(3, 5, 1), screenVertex(50, 12, 1), screenVertex(20, 60, 1))

	want := covered(fb, [3]math3d.Vec2{math3d.V2(3, 5), math3d.V2(50, 12), math3d.V2(20, 60)})
	require.Equal(t, want, len(probe.frags))
	assert.Equal(t, want, r.stats.PixelsWritten, "each covered pixel is written once")
	for _, bc := range probe.frags {
		assert.InDelta(t, 1, bc.X+bc.Y+bc.Z, 1e-9)
		assert.GreaterOrEqual(t, bc.X, 0.0)
		assert.GreaterOrEqual(t, bc.Y, 0.0)
		assert.GreaterOrEqual(t, bc.Z, 0.0)
		assert.InDelta(t, 1, bc.W, 1e-9)
	}
}

func TestRasterizePerspectiveCorrect(t *testing.T) {
	fb := NewFrame(100, 100, ARGB8888)
	r := NewRenderer(&probeShader{})

	a := screenVertex(10, 10, 1)
	b := screenVertex(90, 10, 2)
	b.UV = math3d.V2(1, 1)
	c := screenVertex(10, 90, 1)
	drawScreen(r, fb, a, b, c)

	// Halfway along the bottom edge in screen space, u is 1/3 rather
	// than the affine 1/2.
	assert.InDelta(t, 333333, float64(fb.Pixel(50, 10)), 1)
	assert.Equal(t, uint32(0), fb.Pixel(10, 10), "u is zero at v0")
}

func TestRasterizeDegenerate(t *testing.T) {
	fb := NewFrame(32, 32, ARGB8888)
	probe := &probeShader{fixed: 1}
	r := NewRenderer(probe)

	drawScreen(r, fb, screenVertex(1, 1, 1), screenVertex(10, 10, 1), screenVertex(20, 20, 1))
	assert.Equal(t, 1, r.stats.Degenerate)
	assert.Empty(t, probe.frags)
}

func TestRasterizeBehindEye(t *testing.T) {
	fb := NewFrame(32, 32, ARGB8888)
	probe := &probeShader{fixed: 1}
	r := NewRenderer(probe)

	drawScreen(r, fb, screenVertex(1, 1, 1), screenVertex(20, 1, 0), screenVertex(1, 20, 1))
	assert.Equal(t, 1, r.stats.BehindEye)
	assert.Empty(t, probe.frags)
}

func TestBackfaceCulling(t *testing.T) {
	ccw := []models.Vertex{screenVertex(2, 2, 1), screenVertex(28, 4, 1), screenVertex(6, 26, 1)}
	cw := []models.Vertex{ccw[0], ccw[2], ccw[1]}

	fb := NewFrame(32, 32, ARGB8888)
	probe := &probeShader{fixed: 1}
	r := NewRenderer(probe)

	drawScreen(r, fb, cw...)
	assert.Equal(t, 1, r.stats.Backfaces)
	assert.Empty(t, probe.frags)

	drawScreen(r, fb, ccw...)
	front := len(probe.frags)
	require.Positive(t, front)

	probe.frags = nil
	r.DisableBackfaceCulling = true
	drawScreen(r, fb, cw...)
	assert.Equal(t, front, len(probe.frags), "clockwise triangle covers the same pixels")
	for _, bc := range probe.frags {
		assert.InDelta(t, 1, bc.X+bc.Y+bc.Z, 1e-9)
		assert.GreaterOrEqual(t, min(bc.X, bc.Y, bc.Z), 0.0)
	}
}

func TestDepthOrderIndependent(t *testing.T) {
	near := []models.Vertex{screenVertex(0, 0, 1), screenVertex(30, 0, 1), screenVertex(0, 30, 1)}
	far := []models.Vertex{screenVertex(5, 5, 2), screenVertex(40, 5, 2), screenVertex(5, 40, 2)}
	const nearColor, farColor = 0xFF0000FF, 0xFFFF0000

	draw := func(first, second []models.Vertex, c1, c2 uint32) *Frame {
		fb := NewFrame(48, 48, ARGB8888)
		probe := &probeShader{}
		r := NewRenderer(probe)
		r.depth.reset(fb.Width, fb.Height)
		probe.fixed = c1
		r.drawFace(fb, models.Face{Vertices: first}, math3d.Identity())
		probe.fixed = c2
		r.drawFace(fb, models.Face{Vertices: second}, math3d.Identity())
		return fb
	}

	a := draw(near, far, nearColor, farColor)
	b := draw(far, near, farColor, nearColor)
	assert.Equal(t, a.Pixels, b.Pixels)
	assert.Equal(t, uint32(nearColor), a.Pixel(10, 10))
	assert.Equal(t, uint32(farColor), a.Pixel(20, 20))
}

func TestSharedEdgeHasNoGaps(t *testing.T) {
	fb := NewFrame(16, 16, ARGB8888)
	probe := &probeShader{fixed: 0xFFFFFFFF}
	r := NewRenderer(probe)
	r.depth.reset(fb.Width, fb.Height)

	r.drawFace(fb, models.Face{Vertices: []models.Vertex{
		screenVertex(0, 0, 1), screenVertex(10, 0, 1), screenVertex(10, 10, 1),
	}}, math3d.Identity())
	r.drawFace(fb, models.Face{Vertices: []models.Vertex{
		screenVertex(0, 0, 1), screenVertex(10, 10, 1), screenVertex(0, 10, 1),
	}}, math3d.Identity())

	for y := 0; y <= 10; y++ {
		for x := 0; x <= 10; x++ {
			if fb.Pixel(x, y) != 0xFFFFFFFF {
				t.Fatalf("pixel (%d,%d) not covered", x, y)
			}
		}
	}
	assert.Equal(t, uint32(0), fb.Pixel(11, 5))
	assert.Equal(t, 11*11, r.stats.PixelsWritten)
}

func TestWireframeMode(t *testing.T) {
	fb := NewFrame(32, 32, ARGB8888)
	probe := &probeShader{fixed: 1}
	r := NewRenderer(probe)
	r.Mode = ModeWireframe
	r.WireColor = color.NRGBA{G: 0xFF, A: 0xFF}

	drawScreen(r, fb, screenVertex(2, 2, 1), screenVertex(28, 2, 1), screenVertex(2, 28, 1))
	green := ARGB8888.RGB(0, 255, 0)
	assert.Equal(t, green, fb.Pixel(2, 2))
	assert.Equal(t, green, fb.Pixel(15, 2))
	assert.Equal(t, green, fb.Pixel(2, 15))
	assert.Equal(t, uint32(0), fb.Pixel(8, 8), "interior is not filled")
	assert.Empty(t, probe.frags)
	assert.Equal(t, "wireframe", ModeWireframe.String())
}

func TestWireframeFarVertex(t *testing.T) {
	fb := NewFrame(64, 64, ARGB8888)
	r := NewRenderer(&probeShader{fixed: 1})
	r.Mode = ModeWireframe
	r.WireColor = color.NRGBA{G: 0xFF, A: 0xFF}

	start := time.Now()
	drawScreen(r, fb, screenVertex(2, 2, 1), screenVertex(3e9, 2, 1e-9), screenVertex(2, 28, 1))
	assert.Less(t, time.Since(start), time.Second)

	green := ARGB8888.RGB(0, 255, 0)
	for x := 2; x < 64; x++ {
		assert.Equal(t, green, fb.Pixel(x, 2), "bottom edge at x=%d", x)
	}
	for y := 2; y <= 28; y++ {
		assert.Equal(t, green, fb.Pixel(2, y), "left edge at y=%d", y)
	}
	assert.Equal(t, uint32(0), fb.Pixel(30, 10))
}

func TestRasterizeHugeCoordinate(t *testing.T) {
	fb := NewFrame(64, 64, ARGB8888)
	probe := &probeShader{fixed: 7}
	r := NewRenderer(probe)

	drawScreen(r, fb, screenVertex(2, 2, 1), screenVertex(1e300, 2, 1), screenVertex(2, 28, 1))
	assert.Positive(t, r.stats.Fragments)
	assert.Equal(t, uint32(7), fb.Pixel(10, 10))
	assert.Equal(t, uint32(7), fb.Pixel(63, 20))
	assert.Equal(t, uint32(0), fb.Pixel(1, 10))
	assert.Equal(t, uint32(0), fb.Pixel(10, 29))
}

// TestScreenTriangleCoverage checks every pixel of the bounding box of the
// 800×800 reference triangle against the three edge tests.
func TestScreenTriangleCoverage(t *testing.T) {
	fb := NewFrame(800, 800, ARGB8888)
	bg := ARGB8888.PackColor(scene.DefaultBackground)
	red := ARGB8888.RGB(255, 0, 0)
	fb.Fill(bg)
	r := NewRenderer(&probeShader{fixed: red})

	p := [3]math3d.Vec2{math3d.V2(400, 100), math3d.V2(700, 700), math3d.V2(100, 700)}
	drawScreen(r, fb,
		screenVertex(p[0].X, p[0].Y, 1), screenVertex(p[1].X, p[1].Y, 1), screenVertex(p[2].X, p[2].Y, 1))

	inside := 0
	for y := 100; y <= 700; y++ {
		for x := 100; x <= 700; x++ {
			want := bg
			if insideTriangle(p, math3d.V2(float64(x), float64(y))) {
				want = red
				inside++
			}
			if got := fb.Pixel(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %#x, want %#x", x, y, got, want)
			}
		}
	}
	assert.Equal(t, inside, r.stats.PixelsWritten)
	assert.Equal(t, bg, fb.Pixel(99, 700))
	assert.Equal(t, bg, fb.Pixel(400, 701))
}

func TestRenderTinyModelScale(t *testing.T) {
	mesh := models.NewMesh("tri")
	n := math3d.V3(0, 0, 1)
	mesh.AddFace(
		models.NewVertex(math3d.V3(-1e5, -1e5, 0), n, math3d.V2(0, 0)),
		models.NewVertex(math3d.V3(1e5, -1e5, 0), n, math3d.V2(1, 0)),
		models.NewVertex(math3d.V3(0, 1e5, 0), n, math3d.V2(0.5, 1)),
	)
	mesh.CalculateBounds()
	obj := scene.NewObject(mesh)
	obj.Model = math3d.ScaleUniform(1e-5)
	w := scene.NewWorld()
	w.AddObject(obj)

	fb := NewFrame(64, 64, ARGB8888)
	stats, err := NewRenderer(NewFlatShader(255, 0, 0)).Render(w.View(), fb)
	require.NoError(t, err)
	assert.Positive(t, stats.PixelsWritten)
	assert.Equal(t, ARGB8888.RGB(255, 0, 0), fb.Pixel(32, 32))
}

// triangleWorld holds one unit triangle in the z=0 plane, counter-clockwise
// seen from the default eye at (0,0,5).
func triangleWorld(normal math3d.Vec3) (*scene.World, *models.Mesh) {
	mesh := models.NewMesh("tri")
	mesh.AddFace(
		models.NewVertex(math3d.V3(-1, -1, 0), normal, math3d.V2(0, 0)),
		models.NewVertex(math3d.V3(1, -1, 0), normal, math3d.V2(1, 0)),
		models.NewVertex(math3d.V3(0, 1, 0), normal, math3d.V2(0.5, 1)),
	)
	mesh.CalculateBounds()
	w := scene.NewWorld()
	w.AddObject(scene.NewObject(mesh))
	return w, mesh
}

func TestRenderRedTriangle(t *testing.T) {
	w, _ := triangleWorld(math3d.V3(0, 0, 1))
	fb := NewFrame(800, 800, ARGB8888)
	r := NewRenderer(NewFlatShader(255, 0, 0))

	stats, err := r.Render(w.View(), fb)
	require.NoError(t, err)

	red := ARGB8888.RGB(255, 0, 0)
	bg := ARGB8888.PackColor(scene.DefaultBackground)
	assert.Equal(t, red, fb.Pixel(400, 400))
	assert.Equal(t, red, fb.Pixel(400, 300))
	assert.Equal(t, bg, fb.Pixel(0, 0))
	assert.Equal(t, bg, fb.Pixel(799, 799))
	assert.Equal(t, bg, fb.Pixel(260, 540), "outside the upper-left edge")

	assert.Equal(t, 1, stats.Objects)
	assert.Equal(t, 1, stats.Faces)
	assert.Equal(t, stats.Fragments, stats.PixelsWritten)
	assert.Greater(t, stats.PixelsWritten, 10000)
}

func TestRenderCountsSkippedFaces(t *testing.T) {
	w, mesh := triangleWorld(math3d.V3(0, 0, 1))
	n := math3d.V3(0, 0, 1)
	mesh.AddFace(
		models.NewVertex(math3d.V3(-1, -1, 0), n, math3d.Vec2{}),
		models.NewVertex(math3d.V3(1, -1, 0), n, math3d.Vec2{}),
		models.NewVertex(math3d.V3(1, 1, 0), n, math3d.Vec2{}),
		models.NewVertex(math3d.V3(-1, 1, 0), n, math3d.Vec2{}),
	)
	// Clockwise from the eye.
	mesh.AddFace(
		models.NewVertex(math3d.V3(-1, -1, 0), n, math3d.Vec2{}),
		models.NewVertex(math3d.V3(0, 1, 0), n, math3d.Vec2{}),
		models.NewVertex(math3d.V3(1, -1, 0), n, math3d.Vec2{}),
	)

	stats, err := NewRenderer(NewFlatShader(1, 2, 3)).Render(w.View(), NewFrame(64, 64, ARGB8888))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.NonTriangular)
	assert.Equal(t, 2, stats.Faces)
	assert.Equal(t, 1, stats.Backfaces)
}

func TestRenderShading(t *testing.T) {
	tests := []struct {
		name   string
		shader Shader
		normal math3d.Vec3
		light  math3d.Vec3
		lo, hi uint8
	}{
		{"gouraud lit", NewGouraudShader(), math3d.V3(0, 0, 1), math3d.V3(0, 0, 5), 240, 255},
		{"gouraud floor", NewGouraudShader(), math3d.V3(0, 0, -1), math3d.V3(0, 0, 5), 24, 26},
		{"phong lit", NewPhongShader(), math3d.V3(0, 0, 1), math3d.V3(0, 0, 5), 250, 255},
		{"phong ambient", NewPhongShader(), math3d.V3(0, 0, 1), math3d.V3(0, 0, -5), 24, 26},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := triangleWorld(tt.normal)
			w.SetLight(tt.light)
			fb := NewFrame(200, 200, ABGR8888)

			_, err := NewRenderer(tt.shader).Render(w.View(), fb)
			require.NoError(t, err)

			r, g, b, a := fb.Format.Unpack(fb.Pixel(100, 100))
			assert.Equal(t, uint8(255), a)
			assert.Equal(t, r, g)
			assert.Equal(t, g, b)
			assert.GreaterOrEqual(t, r, tt.lo)
			assert.LessOrEqual(t, r, tt.hi)
		})
	}
}

func TestRenderTextured(t *testing.T) {
	w, mesh := triangleWorld(math3d.V3(0, 0, 1))
	mesh.Texture = models.NewTexture(1, 1)
	mesh.Texture.SetTexel(0, 0, color.NRGBA{R: 255, A: 255})

	fb := NewFrame(100, 100, ARGB8888)
	_, err := NewRenderer(NewPhongShader()).Render(w.View(), fb)
	require.NoError(t, err)

	r, g, b, _ := fb.Format.Unpack(fb.Pixel(50, 50))
	assert.Greater(t, r, uint8(240))
	assert.Zero(t, g)
	assert.Zero(t, b)
}

func TestRenderFrustumCull(t *testing.T) {
	w, _ := triangleWorld(math3d.V3(0, 0, 1))
	off, _ := triangleWorld(math3d.V3(0, 0, 1))
	obj := off.Objects()[0]
	obj.Model = math3d.Translate(math3d.V3(100, 0, 0))
	w.AddObject(obj)

	r := NewRenderer(NewFlatShader(255, 255, 255))
	r.FrustumCull = true
	stats, err := r.Render(w.View(), NewFrame(64, 64, ARGB8888))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Objects)
	assert.Equal(t, 1, stats.CulledObjects)
	assert.Equal(t, 1, stats.Faces)
}

func TestRenderErrors(t *testing.T) {
	w, _ := triangleWorld(math3d.V3(0, 0, 1))
	fb := NewFrame(8, 8, ARGB8888)

	_, err := NewRenderer(NewFlatShader(0, 0, 0)).Render(w.View(), nil)
	assert.ErrorIs(t, err, ErrNilFrame)

	_, err = NewRenderer(nil).Render(w.View(), fb)
	assert.ErrorIs(t, err, ErrNilShader)

	bad := w.View()
	bad.Eye = bad.Target
	_, err = NewRenderer(NewFlatShader(0, 0, 0)).Render(bad, fb)
	assert.ErrorIs(t, err, math3d.ErrDegenerateBasis)

	w.Objects()[0].Model = math3d.ScaleUniform(0)
	_, err = NewRenderer(NewFlatShader(0, 0, 0)).Render(w.View(), fb)
	assert.ErrorIs(t, err, math3d.ErrSingularMatrix)
}

func TestRenderResizesDepth(t *testing.T) {
	w, _ := triangleWorld(math3d.V3(0, 0, 1))
	r := NewRenderer(NewFlatShader(9, 9, 9))
	fb := NewFrame(32, 32, ARGB8888)
	_, err := r.Render(w.View(), fb)
	require.NoError(t, err)

	fb.Resize(64, 48)
	stats, err := r.Render(w.View(), fb)
	require.NoError(t, err)
	assert.Len(t, r.depth.z, 64*48)
	assert.Positive(t, stats.PixelsWritten)
	assert.True(t, math.IsInf(r.depth.at(0, 0), 1), "background keeps cleared depth")
}

func BenchmarkRenderTriangle(b *testing.B) {
	w, _ := triangleWorld(math3d.V3(0, 0, 1))
	view := w.View()
	fb := NewFrame(320, 240, ARGB8888)
	r := NewRenderer(NewGouraudShader())
	for b.Loop() {
		_, _ = r.Render(view, fb)
	}
}

func BenchmarkRasterize(b *testing.B) {
	fb := NewFrame(256, 256, ARGB8888)
	r := NewRenderer(&probeShader{fixed: 1})
	face := models.Face{Vertices: []models.Vertex{
		screenVertex(0, 0, 1), screenVertex(255, 0, 1), screenVertex(0, 255, 1),
	}}
	for b.Loop() {
		r.depth.reset(fb.Width, fb.Height)
		r.stats = Stats{}
		r.Shader.(*probeShader).frags = r.Shader.(*probeShader).frags[:0]
		r.drawFace(fb, face, math3d.Identity())
	}
}
