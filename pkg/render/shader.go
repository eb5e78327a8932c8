package render

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/taigrr/facet/pkg/math3d"
	"github.com/taigrr/facet/pkg/models"
)

// ErrUnknownShader is returned by NewShader for unregistered names.
var ErrUnknownShader = errors.New("render: unknown shader")

// Uniforms are the per-object inputs shared by every vertex and fragment of
// one draw. The Renderer fills them before an object's faces are drawn.
type Uniforms struct {
	View       math3d.Mat4
	Projection math3d.Mat4
	Viewport   math3d.Mat4
	// Normal is the inverse-transpose of the object's model matrix.
	Normal math3d.Mat4

	Eye   math3d.Vec3
	Light math3d.Vec3

	// Texture is nil for untextured meshes; shaders then use white.
	Texture *models.Texture
	Format  PixelFormat
}

// Shader is the programmable part of the pipeline.
//
// Vertex is called for slots 0, 1 and 2 of a triangle before any Fragment
// call for it. It returns the screen position: x and y in pixels, z in
// [0,1] and w set to the undivided clip-space w. Varyings for the slot are
// kept by the shader, already divided by that w.
//
// Fragment receives (b0, b1, b2, wn) where wn = 1/(b0/w0 + b1/w1 + b2/w2),
// so a varying a is recovered as wn*(b0*a0 + b1*a1 + b2*a2). It returns a
// colour packed with Uniforms.Format, or discard=true to leave the pixel
// and its depth untouched.
type Shader interface {
	Bind(u Uniforms)
	Vertex(v models.Vertex, model math3d.Mat4, slot int) math3d.Vec4
	Fragment(bc math3d.Vec4) (color uint32, discard bool)
}

// shaders lists the named shading models in ShaderNames order.
var shaders = []struct {
	name string
	make func() Shader
}{
	{"gouraud", func() Shader { return NewGouraudShader() }},
	{"phong", func() Shader { return NewPhongShader() }},
	{"flat", func() Shader { return NewFlatShader(255, 255, 255) }},
}

// NewShader returns a shader by name: "gouraud", "phong" or "flat".
func NewShader(name string) (Shader, error) {
	name = strings.ToLower(name)
	for _, s := range shaders {
		if s.name == name {
			return s.make(), nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownShader)
}

// ShaderNames lists the names NewShader accepts.
func ShaderNames() []string {
	names := make([]string, len(shaders))
	for i, s := range shaders {
		names[i] = s.name
	}
	return names
}

// stage is the fixed-function part every shader shares: uniforms and the
// model-to-screen transform.
type stage struct {
	u        Uniforms
	viewProj math3d.Mat4
}

func (s *stage) bind(u Uniforms) {
	s.u = u
	s.viewProj = u.Projection.Mul(u.View)
}

// toScreen carries a world-space point to the screen. x and y are snapped
// down to whole pixels so adjacent triangles share exact edges.
func (s *stage) toScreen(world math3d.Vec4) math3d.Vec4 {
	clip := s.viewProj.MulVec4(world)
	screen := s.u.Viewport.MulVec4(clip.PerspectiveDivide())
	screen.X = math.Floor(screen.X)
	screen.Y = math.Floor(screen.Y)
	screen.W = clip.W
	return screen
}

// worldNormal transforms a model-space normal to world space.
func (s *stage) worldNormal(n math3d.Vec4) math3d.Vec3 {
	return s.u.Normal.MulDir(n.Vec3()).Normalize()
}

// sample returns the texture colour at uv, or white without a texture.
func (s *stage) sample(uv math3d.Vec2) (r, g, b float64) {
	if s.u.Texture == nil {
		return 255, 255, 255
	}
	tr, tg, tb := s.u.Texture.Sample(uv.X, uv.Y)
	return float64(tr), float64(tg), float64(tb)
}

// shade packs base*k as an opaque colour, clamping each channel.
func (s *stage) shade(r, g, b, k float64) uint32 {
	return s.u.Format.RGB(channel(r*k), channel(g*k), channel(b*k))
}

func channel(v float64) uint8 {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

// Perspective-correct reconstruction of a varying from its three
// w-divided vertex values.

func interp(bc math3d.Vec4, a [3]float64) float64 {
	return bc.W * (bc.X*a[0] + bc.Y*a[1] + bc.Z*a[2])
}

func interp2(bc math3d.Vec4, a [3]math3d.Vec2) math3d.Vec2 {
	return a[0].Scale(bc.X).Add(a[1].Scale(bc.Y)).Add(a[2].Scale(bc.Z)).Scale(bc.W)
}

func interp3(bc math3d.Vec4, a [3]math3d.Vec3) math3d.Vec3 {
	return a[0].Scale(bc.X).Add(a[1].Scale(bc.Y)).Add(a[2].Scale(bc.Z)).Scale(bc.W)
}
