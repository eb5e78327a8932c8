package render

import (
	"github.com/taigrr/facet/pkg/math3d"
)

// Plane is the set of points p with Normal·p + D = 0. Points with a
// positive signed distance lie on the side the normal points to.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// normalized rescales the plane so Normal has unit length.
func (p Plane) normalized() Plane {
	l := p.Normal.Len()
	if l == 0 {
		return p
	}
	return Plane{Normal: p.Normal.Scale(1 / l), D: p.D / l}
}

// Distance returns the signed distance from the plane to q.
func (p Plane) Distance(q math3d.Vec3) float64 {
	return p.Normal.Dot(q) + p.D
}

// Frustum holds six inward-facing planes, ordered left, right, bottom, top,
// near, far.
type Frustum [6]Plane

// FrustumFromMatrix extracts the clip planes of a projection·view matrix
// whose NDC cube is [-1,1]³ (Gribb and Hartmann).
func FrustumFromMatrix(m math3d.Mat4) Frustum {
	row := func(i int) (math3d.Vec3, float64) {
		return math3d.V3(m[i], m[i+4], m[i+8]), m[i+12]
	}
	w, ww := row(3)
	var f Frustum
	for i := range 3 {
		r, rw := row(i)
		f[2*i] = Plane{Normal: w.Add(r), D: ww + rw}.normalized()
		f[2*i+1] = Plane{Normal: w.Sub(r), D: ww - rw}.normalized()
	}
	return f
}

// ContainsPoint reports whether q is inside every plane.
func (f Frustum) ContainsPoint(q math3d.Vec3) bool {
	for _, p := range f {
		if p.Distance(q) < 0 {
			return false
		}
	}
	return true
}

// Intersects reports whether any part of box may be inside the frustum. It
// is conservative: boxes near a frustum corner can pass without being
// visible.
func (f Frustum) Intersects(box AABB) bool {
	for _, p := range f {
		// The corner furthest along the plane normal.
		far := box.Min
		if p.Normal.X >= 0 {
			far.X = box.Max.X
		}
		if p.Normal.Y >= 0 {
			far.Y = box.Max.Y
		}
		if p.Normal.Z >= 0 {
			far.Z = box.Max.Z
		}
		if p.Distance(far) < 0 {
			return false
		}
	}
	return true
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max math3d.Vec3
}

// Corners returns the eight corners of the box.
func (b AABB) Corners() [8]math3d.Vec3 {
	var c [8]math3d.Vec3
	for i := range c {
		c[i] = b.Min
		if i&1 != 0 {
			c[i].X = b.Max.X
		}
		if i&2 != 0 {
			c[i].Y = b.Max.Y
		}
		if i&4 != 0 {
			c[i].Z = b.Max.Z
		}
	}
	return c
}

// Transform returns the box bounding all eight corners of b after m.
func (b AABB) Transform(m math3d.Mat4) AABB {
	corners := b.Corners()
	first := m.MulPoint(corners[0])
	out := AABB{Min: first, Max: first}
	for _, c := range corners[1:] {
		p := m.MulPoint(c)
		out.Min = out.Min.Min(p)
		out.Max = out.Max.Max(p)
	}
	return out
}
