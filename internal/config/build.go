package config

import (
	"fmt"
	"math"

	"github.com/taigrr/facet/pkg/math3d"
	"github.com/taigrr/facet/pkg/models"
	"github.com/taigrr/facet/pkg/render"
	"github.com/taigrr/facet/pkg/scene"
)

func vec(a [3]float64) math3d.Vec3 {
	return math3d.V3(a[0], a[1], a[2])
}

// Model returns the object's model matrix: scale, then rotation, then
// translation.
func (o ObjectConfig) Model() math3d.Mat4 {
	s := o.Scale
	if s == 0 {
		s = 1
	}
	rad := math.Pi / 180
	rot := math3d.EulerXYZ(o.Rotate[0]*rad, o.Rotate[1]*rad, o.Rotate[2]*rad)
	return math3d.Translate(vec(o.Translate)).Mul(rot).Mul(math3d.ScaleUniform(s))
}

// Build loads every asset and assembles the world. Objects naming the same
// mesh and texture share one loaded mesh.
func (c Config) Build() (*scene.World, error) {
	bg, err := ParseColor(c.Background)
	if err != nil {
		return nil, err
	}

	w := scene.NewWorld()
	w.SetEye(vec(c.Camera.Eye))
	w.SetLookAt(vec(c.Camera.Target))
	w.SetUp(vec(c.Camera.Up))
	w.SetLight(vec(c.Light.Position))
	w.SetLens(c.SceneLens())
	w.SetBackground(bg)

	type key struct {
		mesh, texture string
		normalize     bool
	}
	loaded := make(map[key]*models.Mesh)
	for i, o := range c.Objects {
		k := key{c.Path(o.Mesh), c.Path(o.Texture), o.Normalize}
		mesh, ok := loaded[k]
		if !ok {
			mesh, err = loadObjectMesh(k.mesh, k.texture, k.normalize)
			if err != nil {
				return nil, fmt.Errorf("object %d: %w", i, err)
			}
			loaded[k] = mesh
		}
		obj := scene.NewObject(mesh)
		obj.Model = o.Model()
		w.AddObject(obj)
	}
	return w, nil
}

func loadObjectMesh(path, texture string, normalize bool) (*models.Mesh, error) {
	mesh, err := models.LoadMesh(path)
	if err != nil {
		return nil, err
	}
	if normalize {
		if err := mesh.Normalize(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	if texture != "" {
		tex, err := models.LoadTexture(texture)
		if err != nil {
			return nil, err
		}
		mesh.Texture = tex
	}
	return mesh, nil
}

// NewRenderer returns a renderer configured by c.
func (c Config) NewRenderer() (*render.Renderer, error) {
	shader, err := render.NewShader(c.Shader)
	if err != nil {
		return nil, err
	}
	r := render.NewRenderer(shader)
	r.DisableBackfaceCulling = !c.Cull.Backface
	r.FrustumCull = c.Cull.Frustum
	if c.Wireframe {
		r.Mode = render.ModeWireframe
	}
	return r, nil
}
