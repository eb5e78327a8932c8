// Package scene describes what gets rendered: objects placed in the world,
// the camera, the light and the lens. A World is mutated by the driver loop;
// View takes an immutable snapshot of it for one render call.
package scene

import (
	"image/color"
	"slices"
	"sync"

	"github.com/taigrr/facet/pkg/math3d"
	"github.com/taigrr/facet/pkg/models"
)

// DefaultBackground is light blue (0xADD8E6).
var DefaultBackground = color.NRGBA{R: 0xAD, G: 0xD8, B: 0xE6, A: 0xFF}

// Object places a shared mesh in the world.
type Object struct {
	Mesh  *models.Mesh
	Model math3d.Mat4
}

// NewObject places mesh at the origin with no rotation or scale.
func NewObject(mesh *models.Mesh) *Object {
	return &Object{Mesh: mesh, Model: math3d.Identity()}
}

// World holds the mutable scene state. It is safe for concurrent use; the
// objects it references are not copied until View is called.
type World struct {
	mu         sync.RWMutex
	eye        math3d.Vec3
	target     math3d.Vec3
	up         math3d.Vec3
	light      math3d.Vec3
	lens       Lens
	background color.NRGBA
	objects    []*Object
}

// NewWorld returns an empty world with the eye at (0,0,5) looking at the
// origin, the light at the eye and the default lens.
func NewWorld() *World {
	return &World{
		eye:        math3d.V3(0, 0, 5),
		up:         math3d.Up(),
		light:      math3d.V3(0, 0, 5),
		lens:       DefaultLens(),
		background: DefaultBackground,
	}
}

// SetEye moves the camera.
func (w *World) SetEye(eye math3d.Vec3) {
	w.mu.Lock()
	w.eye = eye
	w.mu.Unlock()
}

// Eye returns the camera position.
func (w *World) Eye() math3d.Vec3 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.eye
}

// SetLookAt sets the point the camera looks at.
func (w *World) SetLookAt(target math3d.Vec3) {
	w.mu.Lock()
	w.target = target
	w.mu.Unlock()
}

// SetUp sets the camera's approximate up direction.
func (w *World) SetUp(up math3d.Vec3) {
	w.mu.Lock()
	w.up = up
	w.mu.Unlock()
}

// SetLight moves the point light.
func (w *World) SetLight(light math3d.Vec3) {
	w.mu.Lock()
	w.light = light
	w.mu.Unlock()
}

// SetLens replaces the projection parameters.
func (w *World) SetLens(l Lens) {
	w.mu.Lock()
	w.lens = l
	w.mu.Unlock()
}

// Lens returns the projection parameters.
func (w *World) Lens() Lens {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lens
}

// SetBackground sets the clear colour.
func (w *World) SetBackground(c color.NRGBA) {
	w.mu.Lock()
	w.background = c
	w.mu.Unlock()
}

// AddObject appends obj; objects are drawn in insertion order.
func (w *World) AddObject(obj *Object) {
	w.mu.Lock()
	w.objects = append(w.objects, obj)
	w.mu.Unlock()
}

// RemoveObject removes obj and reports whether it was present.
func (w *World) RemoveObject(obj *Object) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := slices.Index(w.objects, obj)
	if i < 0 {
		return false
	}
	w.objects = slices.Delete(w.objects, i, i+1)
	return true
}

// Objects returns the registered objects.
func (w *World) Objects() []*Object {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.objects)
}

// View snapshots the world. Meshes are shared, everything else is copied.
func (w *World) View() View {
	w.mu.RLock()
	defer w.mu.RUnlock()
	v := View{
		Eye:        w.eye,
		Target:     w.target,
		Up:         w.up,
		Light:      w.light,
		Lens:       w.lens,
		Background: w.background,
		Objects:    make([]Object, len(w.objects)),
	}
	for i, o := range w.objects {
		v.Objects[i] = *o
	}
	return v
}

// View is the render context for one frame.
type View struct {
	Eye        math3d.Vec3
	Target     math3d.Vec3
	Up         math3d.Vec3
	Light      math3d.Vec3
	Lens       Lens
	Background color.NRGBA
	Objects    []Object
}

// Camera returns the world-to-camera matrix.
func (v View) Camera() (math3d.Mat4, error) {
	return math3d.LookAt(v.Eye, v.Target, v.Up)
}
