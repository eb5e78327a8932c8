// Package render implements the CPU rasterizer: the frame and depth buffers,
// the two-stage shader contract with its concrete shading models, and the
// Renderer that drives them over a scene.
package render

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"math/bits"
)

// ErrNilFrame is returned when Render is called without a target frame.
var ErrNilFrame = errors.New("render: nil frame")

// PixelFormat describes how 8-bit channels are packed into a 32-bit pixel.
// Each field is the bit offset of that channel.
type PixelFormat struct {
	RShift, GShift, BShift, AShift uint
}

var (
	// ARGB8888 packs as 0xAARRGGBB.
	ARGB8888 = PixelFormat{RShift: 16, GShift: 8, BShift: 0, AShift: 24}
	// ABGR8888 packs as 0xAABBGGRR, which is R,G,B,A byte order in a
	// little-endian buffer: the layout of image.RGBA and GPU textures.
	ABGR8888 = PixelFormat{RShift: 0, GShift: 8, BShift: 16, AShift: 24}
)

// Pack encodes a colour.
func (f PixelFormat) Pack(r, g, b, a uint8) uint32 {
	return uint32(r)<<f.RShift | uint32(g)<<f.GShift | uint32(b)<<f.BShift | uint32(a)<<f.AShift
}

// RGB encodes an opaque colour.
func (f PixelFormat) RGB(r, g, b uint8) uint32 {
	return f.Pack(r, g, b, 255)
}

// PackColor encodes any color.Color, un-premultiplying alpha.
func (f PixelFormat) PackColor(c color.Color) uint32 {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return f.Pack(n.R, n.G, n.B, n.A)
}

// Unpack decodes a pixel.
func (f PixelFormat) Unpack(p uint32) (r, g, b, a uint8) {
	return uint8(p >> f.RShift), uint8(p >> f.GShift), uint8(p >> f.BShift), uint8(p >> f.AShift)
}

// Frame is a row-major buffer of packed 32-bit pixels. Row 0 is the bottom
// of the picture, matching the viewport transform; ToImage and the display
// drivers flip it.
type Frame struct {
	Width  int
	Height int
	Pixels []uint32
	Format PixelFormat
}

// NewFrame allocates a frame of the given size.
func NewFrame(width, height int, format PixelFormat) *Frame {
	return &Frame{
		Width:  width,
		Height: height,
		Pixels: make([]uint32, width*height),
		Format: format,
	}
}

// Resize changes the frame dimensions, reallocating only when the pixel
// count grows. Contents are undefined afterwards.
func (f *Frame) Resize(width, height int) {
	n := width * height
	if cap(f.Pixels) < n {
		f.Pixels = make([]uint32, n)
	}
	f.Pixels = f.Pixels[:n]
	f.Width, f.Height = width, height
}

// SetPixel writes c at (x, y). Writes outside the frame are ignored.
func (f *Frame) SetPixel(x, y int, c uint32) {
	if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
		return
	}
	f.Pixels[y*f.Width+x] = c
}

// Pixel returns the packed colour at (x, y), or 0 outside the frame.
func (f *Frame) Pixel(x, y int) uint32 {
	if x < 0 || x >= f.Width || y < 0 || y >= f.Height {
		return 0
	}
	return f.Pixels[y*f.Width+x]
}

// Fill writes c to every pixel.
func (f *Frame) Fill(c uint32) {
	n := len(f.Pixels)
	if n == 0 {
		return
	}
	f.Pixels[0] = c
	for i := 1; i < n; i *= 2 {
		copy(f.Pixels[i:], f.Pixels[:i])
	}
}

// Bytes returns the pixels as little-endian bytes, Width*4 per row, in
// frame row order. dst is reused when large enough.
func (f *Frame) Bytes(dst []byte) []byte {
	n := len(f.Pixels) * 4
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i, p := range f.Pixels {
		binary.LittleEndian.PutUint32(dst[i*4:], p)
	}
	return dst
}

// ToImage converts the frame to an image with the usual top-down row order.
func (f *Frame) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := range f.Height {
		src := f.Pixels[y*f.Width : (y+1)*f.Width]
		row := img.Pix[(f.Height-1-y)*img.Stride:]
		for x, p := range src {
			r, g, b, a := f.Format.Unpack(p)
			o := x * 4
			row[o], row[o+1], row[o+2], row[o+3] = r, g, b, a
		}
	}
	return img
}

// DrawLine draws a one-pixel-wide line between two integer points with
// Bresenham's algorithm. Both endpoints are drawn. The walk starts at the
// first column (or row, for steep lines) inside the frame and stops at the
// last one, so the cost is bounded by the frame size however far off the
// endpoints are.
func (f *Frame) DrawLine(x0, y0, x1, y1 int, c uint32) {
	steep := abs(y1-y0) > abs(x1-x0)
	if steep {
		x0, y0 = y0, x0
		x1, y1 = y1, x1
	}
	if x0 > x1 {
		x0, x1 = x1, x0
		y0, y1 = y1, y0
	}
	major, minor := f.Width, f.Height
	if steep {
		major, minor = f.Height, f.Width
	}
	if x1 < 0 || x0 >= major {
		return
	}

	dx := x1 - x0
	dy := abs(y1 - y0)
	ystep := 1
	if y0 > y1 {
		ystep = -1
	}

	// p is the error term scaled by 2*dx; positive means the ideal line
	// has passed the midpoint to the next minor-axis pixel.
	x, y, p := x0, y0, 2*dy-dx
	if x0 < 0 {
		m, r := lineSkip(dx, dy, -x0)
		x = 0
		y = y0 + ystep*m
		p = r + 2*dy - 2*dx + 1
	}
	for end := min(x1, major-1); x <= end; x++ {
		if (ystep > 0 && y >= minor) || (ystep < 0 && y < 0) {
			return
		}
		if steep {
			f.SetPixel(y, x, c)
		} else {
			f.SetPixel(x, y, c)
		}
		if p > 0 {
			y += ystep
			p -= 2 * dx
		}
		p += 2 * dy
	}
}

// lineSkip returns how many minor-axis steps a Bresenham walk with the given
// deltas has taken after k major-axis steps, m = ⌊(2·dy·k + dx − 1) / 2·dx⌋,
// and the remainder r of that division. The error term at step k is
// r + 2·dy − 2·dx + 1. The product is formed in 128 bits.
func lineSkip(dx, dy, k int) (m, r int) {
	hi, lo := bits.Mul64(uint64(dy), uint64(k))
	hi = hi<<1 | lo>>63
	lo <<= 1
	var carry uint64
	lo, carry = bits.Add64(lo, uint64(dx-1), 0)
	hi += carry
	q, rem := bits.Div64(hi, lo, 2*uint64(dx))
	return int(q), int(rem)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
