package scene

import (
	"math"
	"sync"

	"github.com/charmbracelet/harmonica"
	"github.com/taigrr/facet/pkg/math3d"
)

// maxPitch keeps the orbit off the poles, where the view direction would be
// parallel to the up vector.
const maxPitch = math.Pi/2 - 0.01

// axis is one orbit angle whose angular velocity decays to zero through a
// critically damped spring.
type axis struct {
	angle    float64
	velocity float64
	accel    float64
	spring   harmonica.Spring
}

func newAxis(fps int) axis {
	return axis{spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
}

func (a *axis) step() {
	a.angle += a.velocity
	a.velocity, a.accel = a.spring.Update(a.velocity, a.accel, 0)
}

// Orbit moves a camera on a sphere around a target. Impulses add angular
// velocity that eases back to rest, one step per frame. Orbit is safe for
// use from an input goroutine and a render goroutine at once.
type Orbit struct {
	mu     sync.Mutex
	fps    int
	target math3d.Vec3
	radius float64
	minR   float64
	maxR   float64
	yaw    axis
	pitch  axis
	yaw0   float64
	pitch0 float64
}

// NewOrbit creates an orbit at distance radius from target, stepped fps
// times per second.
func NewOrbit(target math3d.Vec3, radius float64, fps int) *Orbit {
	if fps <= 0 {
		fps = 60
	}
	return &Orbit{
		fps:    fps,
		target: target,
		radius: radius,
		minR:   radius / 4,
		maxR:   radius * 4,
		yaw:    newAxis(fps),
		pitch:  newAxis(fps),
	}
}

// NewOrbitFrom creates an orbit around target that starts at eye. Reset
// returns to this position.
func NewOrbitFrom(eye, target math3d.Vec3, fps int) *Orbit {
	d := eye.Sub(target)
	r := d.Len()
	if r < math3d.Epsilon {
		return NewOrbit(target, 1, fps)
	}
	o := NewOrbit(target, r, fps)
	o.yaw0 = math.Atan2(d.X, d.Z)
	o.pitch0 = math.Max(-maxPitch, math.Min(maxPitch, math.Asin(d.Y/r)))
	o.yaw.angle, o.pitch.angle = o.yaw0, o.pitch0
	return o
}

// Impulse adds angular velocity in radians per step.
func (o *Orbit) Impulse(yaw, pitch float64) {
	o.mu.Lock()
	o.yaw.velocity += yaw
	o.pitch.velocity += pitch
	o.mu.Unlock()
}

// Zoom scales the radius by factor, clamped to [radius/4, radius*4] of the
// initial distance.
func (o *Orbit) Zoom(factor float64) {
	o.mu.Lock()
	o.radius = min(max(o.radius*factor, o.minR), o.maxR)
	o.mu.Unlock()
}

// Reset stops all motion and returns to the starting angles. The zoom is
// kept.
func (o *Orbit) Reset() {
	o.mu.Lock()
	o.yaw = newAxis(o.fps)
	o.pitch = newAxis(o.fps)
	o.yaw.angle, o.pitch.angle = o.yaw0, o.pitch0
	o.mu.Unlock()
}

// Step advances the animation by one frame.
func (o *Orbit) Step() {
	o.mu.Lock()
	o.yaw.step()
	o.pitch.step()
	if o.pitch.angle > maxPitch || o.pitch.angle < -maxPitch {
		o.pitch.angle = math.Copysign(maxPitch, o.pitch.angle)
		o.pitch.velocity, o.pitch.accel = 0, 0
	}
	o.mu.Unlock()
}

// Moving reports whether any angular velocity remains.
func (o *Orbit) Moving() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return math.Abs(o.yaw.velocity) > 1e-6 || math.Abs(o.pitch.velocity) > 1e-6
}

// Eye returns the camera position. At zero yaw and pitch the eye sits on
// the +Z axis of the target.
func (o *Orbit) Eye() math3d.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	cp := math.Cos(o.pitch.angle)
	dir := math3d.V3(cp*math.Sin(o.yaw.angle), math.Sin(o.pitch.angle), cp*math.Cos(o.yaw.angle))
	return o.target.Add(dir.Scale(o.radius))
}

// Target returns the orbit center.
func (o *Orbit) Target() math3d.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.target
}

// Apply moves w's eye and look-at point to the orbit's current state.
func (o *Orbit) Apply(w *World) {
	w.SetEye(o.Eye())
	w.SetLookAt(o.Target())
}
