package render

import "math"

// depthBuffer holds one reciprocal-depth value per pixel. It is sized once
// per frame size and cleared in place between frames.
type depthBuffer struct {
	width, height int
	z             []float64
}

// reset sizes the buffer for a width×height frame and sets every entry to
// +Inf.
func (d *depthBuffer) reset(width, height int) {
	n := width * height
	if cap(d.z) < n {
		d.z = make([]float64, n)
	}
	d.z = d.z[:n]
	d.width, d.height = width, height
	if n == 0 {
		return
	}
	d.z[0] = math.Inf(1)
	for i := 1; i < n; i *= 2 {
		copy(d.z[i:], d.z[:i])
	}
}

// at returns the stored depth, or +Inf outside the buffer.
func (d *depthBuffer) at(x, y int) float64 {
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return math.Inf(1)
	}
	return d.z[y*d.width+x]
}
