package models

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"math"
	"os"

	_ "github.com/ftrvxmtrx/tga"  // Register TGA decoder
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/tiff" // Register TIFF decoder
)

// WrapMode determines how texture coordinates outside [0,1) are handled.
type WrapMode int

const (
	WrapRepeat WrapMode = iota // Tile the texture
	WrapClamp                  // Clamp to edge
)

// FilterMode determines how a texel is chosen for a coordinate.
type FilterMode int

const (
	FilterNearest  FilterMode = iota // floor(u*w), floor(v*h)
	FilterBilinear                   // Weighted average of the four nearest texels
)

// Texture is a decoded image stored bottom row first, so texture coordinate
// v=0 addresses the bottom of the picture. Data holds Channels bytes per
// texel in row-major order; 3 means RGB and 4 means RGBA.
type Texture struct {
	Width    int
	Height   int
	Channels int
	Data     []byte

	WrapU  WrapMode
	WrapV  WrapMode
	Filter FilterMode
}

// NewTexture allocates a black RGBA texture.
func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:    width,
		Height:   height,
		Channels: 4,
		Data:     make([]byte, width*height*4),
	}
}

// LoadTexture reads and decodes an image file. PNG, JPEG, BMP, TIFF and TGA
// are supported.
func LoadTexture(path string) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()

	tex, err := DecodeTexture(f)
	if err != nil {
		return nil, fmt.Errorf("texture %s: %w", path, err)
	}
	logger().Debug("texture loaded", "path", path, "width", tex.Width, "height", tex.Height)
	return tex, nil
}

// DecodeTexture decodes an image stream in any registered format.
func DecodeTexture(r io.Reader) (*Texture, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return TextureFromImage(img), nil
}

// TextureFromImage converts img to an RGBA texture, flipping it vertically
// so the first stored row is the bottom of the image.
func TextureFromImage(img image.Image) *Texture {
	b := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok || nrgba.Rect.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	}

	w, h := b.Dx(), b.Dy()
	tex := NewTexture(w, h)
	rowBytes := w * 4
	for y := range h {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+rowBytes]
		dst := tex.Data[(h-1-y)*rowBytes : (h-y)*rowBytes]
		copy(dst, src)
	}
	return tex
}

// NewCheckerTexture creates a procedural checkerboard with square cells of
// the given size.
func NewCheckerTexture(width, height, cell int, c1, c2 color.NRGBA) *Texture {
	if cell <= 0 {
		cell = 1
	}
	tex := NewTexture(width, height)
	for y := range height {
		for x := range width {
			c := c1
			if (x/cell+y/cell)%2 != 0 {
				c = c2
			}
			tex.SetTexel(x, y, c)
		}
	}
	return tex
}

// SetTexel writes the texel at column x, row y (row 0 is the bottom).
// Out-of-range writes are ignored.
func (t *Texture) SetTexel(x, y int, c color.NRGBA) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return
	}
	i := (y*t.Width + x) * t.Channels
	t.Data[i], t.Data[i+1], t.Data[i+2] = c.R, c.G, c.B
	if t.Channels == 4 {
		t.Data[i+3] = c.A
	}
}

// Texel returns the colour at column x, row y without wrapping. Alpha is 255
// for RGB textures.
func (t *Texture) Texel(x, y int) (r, g, b, a uint8) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return 0, 0, 0, 0
	}
	i := (y*t.Width + x) * t.Channels
	a = 255
	if t.Channels == 4 {
		a = t.Data[i+3]
	}
	return t.Data[i], t.Data[i+1], t.Data[i+2], a
}

// Sample returns the colour at texture coordinate (u, v). With nearest
// filtering the texel is (floor(u*w), floor(v*h)) after wrapping.
func (t *Texture) Sample(u, v float64) (r, g, b uint8) {
	if t == nil || t.Width == 0 || t.Height == 0 {
		return 255, 255, 255
	}
	if t.Filter == FilterBilinear {
		return t.sampleBilinear(u, v)
	}
	x := wrapTexel(int(math.Floor(u*float64(t.Width))), t.Width, t.WrapU)
	y := wrapTexel(int(math.Floor(v*float64(t.Height))), t.Height, t.WrapV)
	r, g, b, _ = t.Texel(x, y)
	return r, g, b
}

func (t *Texture) sampleBilinear(u, v float64) (r, g, b uint8) {
	fx := u*float64(t.Width) - 0.5
	fy := v*float64(t.Height) - 0.5
	x0, y0 := int(math.Floor(fx)), int(math.Floor(fy))
	tx, ty := fx-float64(x0), fy-float64(y0)

	xs := [2]int{wrapTexel(x0, t.Width, t.WrapU), wrapTexel(x0+1, t.Width, t.WrapU)}
	ys := [2]int{wrapTexel(y0, t.Height, t.WrapV), wrapTexel(y0+1, t.Height, t.WrapV)}
	wx := [2]float64{1 - tx, tx}
	wy := [2]float64{1 - ty, ty}

	var acc [3]float64
	for j := range 2 {
		for i := range 2 {
			cr, cg, cb, _ := t.Texel(xs[i], ys[j])
			w := wx[i] * wy[j]
			acc[0] += float64(cr) * w
			acc[1] += float64(cg) * w
			acc[2] += float64(cb) * w
		}
	}
	return uint8(acc[0] + 0.5), uint8(acc[1] + 0.5), uint8(acc[2] + 0.5)
}

// wrapTexel maps an integer texel coordinate into [0, size).
func wrapTexel(x, size int, mode WrapMode) int {
	if mode == WrapClamp {
		return min(max(x, 0), size-1)
	}
	x %= size
	if x < 0 {
		x += size
	}
	return x
}
