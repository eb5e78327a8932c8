package render

import (
	"math"

	"github.com/taigrr/facet/pkg/math3d"
	"github.com/taigrr/facet/pkg/models"
)

// GouraudShader lights each vertex once and interpolates the intensity.
// Without a texture the output is grey.
type GouraudShader struct {
	stage
	// MinIntensity is the floor applied to the diffuse term.
	MinIntensity float64

	intensity [3]float64
	uv        [3]math3d.Vec2
}

// NewGouraudShader returns a Gouraud shader with a 0.1 intensity floor.
func NewGouraudShader() *GouraudShader {
	return &GouraudShader{MinIntensity: 0.1}
}

// Bind implements Shader.
func (s *GouraudShader) Bind(u Uniforms) { s.bind(u) }

// Vertex implements Shader.
func (s *GouraudShader) Vertex(v models.Vertex, model math3d.Mat4, slot int) math3d.Vec4 {
	world := model.MulVec4(v.Position)
	toLight := s.u.Light.Sub(world.Vec3()).Normalize()
	intensity := math.Max(s.worldNormal(v.Normal).Dot(toLight), s.MinIntensity)

	screen := s.toScreen(world)
	inv := 1 / screen.W
	s.intensity[slot] = intensity * inv
	s.uv[slot] = v.UV.Scale(inv)
	return screen
}

// Fragment implements Shader.
func (s *GouraudShader) Fragment(bc math3d.Vec4) (uint32, bool) {
	r, g, b := s.sample(interp2(bc, s.uv))
	return s.shade(r, g, b, interp(bc, s.intensity)), false
}

// PhongShader evaluates ambient, diffuse and specular reflection per pixel
// from the interpolated normal, world position and texture coordinate.
type PhongShader struct {
	stage
	Ambient   float64
	Diffuse   float64
	Specular  float64
	Shininess float64

	normal [3]math3d.Vec3
	world  [3]math3d.Vec3
	uv     [3]math3d.Vec2
}

// NewPhongShader returns a Phong shader with ka=0.1, kd=0.5, ks=0.4 and a
// specular exponent of 2.
func NewPhongShader() *PhongShader {
	return &PhongShader{Ambient: 0.1, Diffuse: 0.5, Specular: 0.4, Shininess: 2}
}

// Bind implements Shader.
func (s *PhongShader) Bind(u Uniforms) { s.bind(u) }

// Vertex implements Shader.
func (s *PhongShader) Vertex(v models.Vertex, model math3d.Mat4, slot int) math3d.Vec4 {
	world := model.MulVec4(v.Position)
	screen := s.toScreen(world)

	inv := 1 / screen.W
	s.normal[slot] = s.worldNormal(v.Normal).Scale(inv)
	s.world[slot] = world.Vec3().Scale(inv)
	s.uv[slot] = v.UV.Scale(inv)
	return screen
}

// Fragment implements Shader.
func (s *PhongShader) Fragment(bc math3d.Vec4) (uint32, bool) {
	n := interp3(bc, s.normal).Normalize()
	p := interp3(bc, s.world)
	toEye := s.u.Eye.Sub(p).Normalize()
	toLight := s.u.Light.Sub(p).Normalize()

	nl := n.Dot(toLight)
	reflected := n.Scale(2 * nl).Sub(toLight)
	diffuse := math.Max(nl, 0)
	specular := math.Pow(math.Max(toEye.Dot(reflected), 0), s.Shininess)
	k := s.Ambient + s.Diffuse*diffuse + s.Specular*specular

	r, g, b := s.sample(interp2(bc, s.uv))
	return s.shade(r, g, b, k), false
}

// FlatShader fills every fragment with one colour. Discard, when set, is
// consulted per fragment.
type FlatShader struct {
	stage
	R, G, B uint8
	Discard func(bc math3d.Vec4) bool

	packed uint32
}

// NewFlatShader returns a shader that paints r, g, b.
func NewFlatShader(r, g, b uint8) *FlatShader {
	return &FlatShader{R: r, G: g, B: b}
}

// Bind implements Shader.
func (s *FlatShader) Bind(u Uniforms) {
	s.bind(u)
	s.packed = u.Format.RGB(s.R, s.G, s.B)
}

// Vertex implements Shader.
func (s *FlatShader) Vertex(v models.Vertex, model math3d.Mat4, _ int) math3d.Vec4 {
	return s.toScreen(model.MulVec4(v.Position))
}

// Fragment implements Shader.
func (s *FlatShader) Fragment(bc math3d.Vec4) (uint32, bool) {
	if s.Discard != nil && s.Discard(bc) {
		return 0, true
	}
	return s.packed, false
}
