package main

import (
	"math/rand"
	"time"

	"github.com/taigrr/facet/internal/config"
	"github.com/taigrr/facet/pkg/math3d"
	"github.com/taigrr/facet/pkg/models"
	"github.com/taigrr/facet/pkg/render"
	"github.com/taigrr/facet/pkg/scene"
)

// viewer is the interactive state shared by the terminal and window front
// ends. Its methods are called from the render loop only.
type viewer struct {
	cfg      config.Config
	world    *scene.World
	renderer *render.Renderer
	orbit    *scene.Orbit
	fps      int

	textures   map[*models.Mesh]*models.Texture
	texturesOn bool
	headlight  bool
	shader     int
	bounds     bool
	hud        *HUD
	hudOn      bool

	// width and height are the frame size last passed to resize.
	width, height int
	// reloads delivers rebuilt scenes when -watch is on; nil otherwise.
	reloads <-chan loadedScene
}

func newViewer(cfg config.Config, world *scene.World, r *render.Renderer, fps int) *viewer {
	v := &viewer{
		renderer:   r,
		fps:        fps,
		texturesOn: true,
	}
	v.setScene(cfg, world)
	return v
}

// setScene points the viewer at a new scene and restarts the orbit from its
// camera. Render toggles carry over.
func (v *viewer) setScene(cfg config.Config, world *scene.World) {
	view := world.View()
	v.cfg = cfg
	v.world = world
	v.orbit = scene.NewOrbitFrom(view.Eye, view.Target, v.fps)
	v.hud = NewHUD(sceneName(cfg), triangleCount(view))
	v.textures = make(map[*models.Mesh]*models.Texture)
	for _, obj := range view.Objects {
		v.textures[obj.Mesh] = obj.Mesh.Texture
		if !v.texturesOn {
			obj.Mesh.Texture = nil
		}
	}
	for i, name := range render.ShaderNames() {
		if name == cfg.Shader {
			v.shader = i
		}
	}
	if v.width > 0 && v.height > 0 {
		v.resize(v.width, v.height)
	}
}

// reload swaps in a scene rebuilt from the edited file, including its
// shader, mode and culling settings.
func (v *viewer) reload(sc loadedScene) error {
	r, err := sc.cfg.NewRenderer()
	if err != nil {
		return err
	}
	v.renderer = r
	v.setScene(sc.cfg, sc.world)
	return nil
}

// pollReload applies a pending reload without blocking.
func (v *viewer) pollReload() {
	select {
	case sc, ok := <-v.reloads:
		if !ok {
			v.reloads = nil
			return
		}
		if err := v.reload(sc); err != nil {
			render.Logger().Warn("scene reload failed", "err", err)
		}
	default:
	}
}

func sceneName(cfg config.Config) string {
	if len(cfg.Objects) == 1 {
		return cfg.Objects[0].Mesh
	}
	return "scene"
}

func triangleCount(view scene.View) int {
	n := 0
	for _, obj := range view.Objects {
		n += obj.Mesh.TriangleCount()
	}
	return n
}

// resize fits the lens to a new frame shape so pixels stay square.
func (v *viewer) resize(width, height int) {
	v.width, v.height = width, height
	v.world.SetLens(v.cfg.SceneLens().FitAspect(width, height))
}

func (v *viewer) spin(yaw, pitch float64) {
	v.orbit.Impulse(yaw, pitch)
}

func (v *viewer) randomSpin() {
	v.orbit.Impulse((rand.Float64()-0.5)*0.3, (rand.Float64()-0.5)*0.15)
}

func (v *viewer) zoom(factor float64) {
	v.orbit.Zoom(factor)
}

func (v *viewer) reset() {
	v.orbit.Reset()
}

func (v *viewer) toggleTextures() {
	v.texturesOn = !v.texturesOn
	for mesh, tex := range v.textures {
		if v.texturesOn {
			mesh.Texture = tex
		} else {
			mesh.Texture = nil
		}
	}
}

func (v *viewer) toggleWireframe() {
	if v.renderer.Mode == render.ModeWireframe {
		v.renderer.Mode = render.ModeFill
	} else {
		v.renderer.Mode = render.ModeWireframe
	}
}

// cycleShader switches to the next shading model. On failure the current
// shader stays bound.
func (v *viewer) cycleShader() {
	names := render.ShaderNames()
	next := (v.shader + 1) % len(names)
	s, err := render.NewShader(names[next])
	if err != nil {
		render.Logger().Warn("shader switch failed", "shader", names[next], "err", err)
		return
	}
	v.shader = next
	v.renderer.Shader = s
}

func (v *viewer) toggleHeadlight() {
	v.headlight = !v.headlight
	if !v.headlight {
		l := v.cfg.Light.Position
		v.world.SetLight(math3d.V3(l[0], l[1], l[2]))
	}
}

func (v *viewer) shaderName() string {
	return render.ShaderNames()[v.shader]
}

// frame advances the orbit one tick and renders into fb.
func (v *viewer) frame(fb *render.Frame) error {
	v.orbit.Step()
	v.orbit.Apply(v.world)
	if v.headlight {
		v.world.SetLight(v.world.Eye())
	}

	view := v.world.View()
	stats, err := v.renderer.Render(view, fb)
	if err != nil {
		return err
	}
	if v.bounds {
		drawBounds(fb, view)
	}
	v.hud.Update(stats, time.Now())
	return nil
}

func drawBounds(fb *render.Frame, view scene.View) {
	camera, err := view.Camera()
	if err != nil {
		return
	}
	viewProj := view.Lens.Projection().Mul(camera)
	c := fb.Format.RGB(255, 200, 0)
	for _, obj := range view.Objects {
		lo, hi := obj.Mesh.Bounds()
		render.DrawBox(fb, render.AABB{Min: lo, Max: hi}, viewProj.Mul(obj.Model), c)
	}
}
