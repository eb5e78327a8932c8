package render

import (
	"math"

	"github.com/taigrr/facet/pkg/math3d"
)

// guardBand is how far outside the frame a screen-space segment may reach
// before it is cut. Inside the band endpoints are drawn unchanged.
const guardBand = 1 << 30

// drawEdges outlines a triangle that survived culling.
func (r *Renderer) drawEdges(fb *Frame, s [3]math3d.Vec4) {
	c := fb.Format.PackColor(r.WireColor)
	for k := range 3 {
		a, b := s[k], s[(k+1)%3]
		drawSegment(fb, a.X, a.Y, b.X, b.Y, c)
	}
}

// drawSegment draws a screen-space segment with float endpoints. Segments
// reaching past the guard band are cut to it first so the integer
// endpoints handed to DrawLine cannot overflow.
func drawSegment(fb *Frame, x0, y0, x1, y1 float64, c uint32) {
	x0, y0, x1, y1, ok := clipSegment(x0, y0, x1, y1,
		-guardBand, -guardBand, float64(fb.Width)+guardBand, float64(fb.Height)+guardBand)
	if !ok {
		return
	}
	fb.DrawLine(int(math.Floor(x0)), int(math.Floor(y0)), int(math.Floor(x1)), int(math.Floor(y1)), c)
}

// clipSegment cuts a segment to the rectangle [xmin,xmax]×[ymin,ymax] with
// the Liang-Barsky parametric test. ok is false when nothing of the segment
// is inside or an endpoint is not finite. Endpoints already inside are
// returned exactly.
func clipSegment(x0, y0, x1, y1, xmin, ymin, xmax, ymax float64) (cx0, cy0, cx1, cy1 float64, ok bool) {
	for _, v := range [4]float64{x0, y0, x1, y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, 0, 0, false
		}
	}
	dx, dy := x1-x0, y1-y0
	t0, t1 := 0.0, 1.0
	for _, e := range [4][2]float64{
		{-dx, x0 - xmin},
		{dx, xmax - x0},
		{-dy, y0 - ymin},
		{dy, ymax - y0},
	} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = max(t0, t)
		} else {
			if t < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = min(t1, t)
		}
	}
	cx0, cy0, cx1, cy1 = x0, y0, x1, y1
	if t0 > 0 {
		cx0, cy0 = x0+t0*dx, y0+t0*dy
	}
	if t1 < 1 {
		cx1, cy1 = x0+t1*dx, y0+t1*dy
	}
	return cx0, cy0, cx1, cy1, true
}

// DrawBox outlines the twelve edges of box after transforming it by
// viewProj (projection·view·model). Edges with an endpoint behind the eye
// are skipped.
func DrawBox(fb *Frame, box AABB, viewProj math3d.Mat4, c uint32) {
	vp := math3d.Viewport(fb.Width, fb.Height)
	corners := box.Corners()
	var pts [8]math3d.Vec4
	var ok [8]bool
	for i, p := range corners {
		clip := viewProj.MulVec4(math3d.Point(p))
		if clip.W <= 0 {
			continue
		}
		pts[i] = vp.MulVec4(clip.PerspectiveDivide())
		ok[i] = true
	}
	// Corner i has bit 0 = x, bit 1 = y, bit 2 = z; an edge joins corners
	// differing in one bit.
	for i := range 8 {
		for bit := 1; bit < 8; bit <<= 1 {
			j := i | bit
			if j == i || !ok[i] || !ok[j] {
				continue
			}
			drawSegment(fb, pts[i].X, pts[i].Y, pts[j].X, pts[j].Y, c)
		}
	}
}
