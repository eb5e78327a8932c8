package render

import (
	"image/color"
	"testing"
	"time"
)

func TestPixelFormats(t *testing.T) {
	tests := []struct {
		name   string
		format PixelFormat
		want   uint32
	}{
		{"argb", ARGB8888, 0xFF112233},
		{"abgr", ABGR8888, 0xFF332211},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.format.RGB(0x11, 0x22, 0x33); got != tt.want {
				t.Errorf("RGB = %#08x, want %#08x", got, tt.want)
			}
			r, g, b, a := tt.format.Unpack(tt.want)
			if r != 0x11 || g != 0x22 || b != 0x33 || a != 0xFF {
				t.Errorf("Unpack = %x %x %x %x", r, g, b, a)
			}
			if got := tt.format.PackColor(color.NRGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xFF}); got != tt.want {
				t.Errorf("PackColor = %#08x, want %#08x", got, tt.want)
			}
		})
	}
}

func TestFrameSetPixelBounds(t *testing.T) {
	f := NewFrame(4, 3, ARGB8888)
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 3}, {100, 100}} {
		f.SetPixel(p[0], p[1], 1)
	}
	for i, p := range f.Pixels {
		if p != 0 {
			t.Fatalf("pixel %d written by out-of-bounds SetPixel", i)
		}
	}
	f.SetPixel(3, 2, 7)
	if f.Pixels[2*4+3] != 7 || f.Pixel(3, 2) != 7 {
		t.Error("SetPixel did not write row-major")
	}
	if f.Pixel(-1, -1) != 0 {
		t.Error("Pixel outside the frame should be 0")
	}
}

func TestFrameFill(t *testing.T) {
	for _, n := range []int{0, 1, 3, 64, 100} {
		f := NewFrame(n, 1, ARGB8888)
		f.Fill(0xDEADBEEF)
		for i, p := range f.Pixels {
			if p != 0xDEADBEEF {
				t.Fatalf("width %d: pixel %d = %#x", n, i, p)
			}
		}
	}
}

func TestFrameResize(t *testing.T) {
	f := NewFrame(10, 10, ARGB8888)
	f.Resize(4, 5)
	if f.Width != 4 || f.Height != 5 || len(f.Pixels) != 20 {
		t.Fatalf("got %dx%d with %d pixels", f.Width, f.Height, len(f.Pixels))
	}
	f.Resize(20, 20)
	if len(f.Pixels) != 400 {
		t.Fatalf("len = %d after growing", len(f.Pixels))
	}
}

func TestFrameToImageFlips(t *testing.T) {
	f := NewFrame(2, 3, ABGR8888)
	f.SetPixel(0, 0, f.Format.RGB(255, 0, 0))
	f.SetPixel(1, 2, f.Format.RGB(0, 0, 255))

	img := f.ToImage()
	if got := img.NRGBAAt(0, 2); got != (color.NRGBA{R: 255, A: 255}) {
		t.Errorf("bottom-left = %v, want red", got)
	}
	if got := img.NRGBAAt(1, 0); got != (color.NRGBA{B: 255, A: 255}) {
		t.Errorf("top-right = %v, want blue", got)
	}
}

func TestFrameBytes(t *testing.T) {
	f := NewFrame(2, 1, ABGR8888)
	f.SetPixel(0, 0, f.Format.RGB(1, 2, 3))
	f.SetPixel(1, 0, f.Format.Pack(4, 5, 6, 7))
	got := f.Bytes(nil)
	want := []byte{1, 2, 3, 255, 4, 5, 6, 7}
	if string(got) != string(want) {
		t.Errorf("Bytes = %v, want %v", got, want)
	}
	if again := f.Bytes(got); &again[0] != &got[0] {
		t.Error("Bytes did not reuse dst")
	}
}

func TestDrawLine(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 int
	}{
		{"east", 10, 10, 18, 13},
		{"north-east steep", 10, 10, 13, 18},
		{"north steep", 10, 10, 7, 18},
		{"west", 10, 10, 2, 13},
		{"south-west", 10, 10, 2, 7},
		{"south steep", 10, 10, 7, 2},
		{"south-east steep", 10, 10, 13, 2},
		{"east down", 10, 10, 18, 7},
		{"horizontal", 0, 5, 19, 5},
		{"vertical", 5, 0, 5, 19},
		{"diagonal", 0, 0, 19, 19},
		{"point", 4, 4, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFrame(20, 20, ARGB8888)
			f.DrawLine(tt.x0, tt.y0, tt.x1, tt.y1, 1)

			if f.Pixel(tt.x0, tt.y0) != 1 || f.Pixel(tt.x1, tt.y1) != 1 {
				t.Error("endpoints not drawn")
			}
			n := 0
			for _, p := range f.Pixels {
				if p == 1 {
					n++
				}
			}
			want := max(abs(tt.x1-tt.x0), abs(tt.y1-tt.y0)) + 1
			if n != want {
				t.Errorf("drew %d pixels, want %d", n, want)
			}
		})
	}
}

func TestDrawLineClips(t *testing.T) {
	f := NewFrame(8, 8, ARGB8888)
	f.DrawLine(-10, 4, 20, 4, 1)
	for x := range 8 {
		if f.Pixel(x, 4) != 1 {
			t.Errorf("pixel (%d,4) not drawn", x)
		}
	}
}

// plainLine walks every step of the segment and clips pixel by pixel.
func plainLine(f *Frame, x0, y0, x1, y1 int, c uint32) {
	steep := abs(y1-y0) > abs(x1-x0)
	if steep {
		x0, y0 = y0, x0
		x1, y1 = y1, x1
	}
	if x0 > x1 {
		x0, x1 = x1, x0
		y0, y1 = y1, y0
	}
	dx, dy := x1-x0, abs(y1-y0)
	ystep := 1
	if y0 > y1 {
		ystep = -1
	}
	p, y := 2*dy-dx, y0
	for x := x0; x <= x1; x++ {
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

func TestDrawLineMatchesFullWalk(t *testing.T) {
	tests := []struct {
		name           string
		x0, y0, x1, y1 int
	}{
		{"enters left", -1500, -700, 40, 30},
		{"leaves right", 5, 3, 2100, 70},
		{"crosses", -900, 50, 1300, -20},
		{"steep from below", 10, -2500, 25, 30},
		{"steep through", 47, 3000, -12, -2000},
		{"shallow descending", -3000, 900, 3000, -800},
		{"misses", -400, 100, 400, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewFrame(48, 32, ARGB8888)
			want := NewFrame(48, 32, ARGB8888)
			got.DrawLine(tt.x0, tt.y0, tt.x1, tt.y1, 1)
			plainLine(want, tt.x0, tt.y0, tt.x1, tt.y1, 1)
			for i := range want.Pixels {
				if got.Pixels[i] != want.Pixels[i] {
					t.Fatalf("pixel (%d,%d) = %d, want %d", i%48, i/48, got.Pixels[i], want.Pixels[i])
				}
			}
		})
	}
}

func TestDrawLineFarEndpoints(t *testing.T) {
	start := time.Now()

	f := NewFrame(16, 16, ARGB8888)
	f.DrawLine(-1_000_000_000, 4, 1_000_000_000, 4, 1)
	f.DrawLine(0, 0, 1_000_000_000, 1_000_000_000, 2)
	f.DrawLine(9, 3_000_000_000, 9, -3_000_000_000, 3)

	if d := time.Since(start); d > time.Second {
		t.Errorf("far lines took %v", d)
	}
	for x := range 16 {
		if x != 4 && x != 9 && f.Pixel(x, 4) != 1 {
			t.Errorf("row pixel (%d,4) = %d", x, f.Pixel(x, 4))
		}
	}
	for i := range 16 {
		if i != 4 && i != 9 && f.Pixel(i, i) != 2 {
			t.Errorf("diagonal pixel (%d,%d) = %d", i, i, f.Pixel(i, i))
		}
		if f.Pixel(9, i) != 3 {
			t.Errorf("column pixel (9,%d) = %d", i, f.Pixel(9, i))
		}
	}
}

func TestCellSize(t *testing.T) {
	w, h := CellSize(80, 24)
	if w != 80 || h != 48 {
		t.Errorf("CellSize(80, 24) = %d, %d", w, h)
	}
	w, h = CellSize(0, 0)
	if w != 1 || h != 2 {
		t.Errorf("CellSize(0, 0) = %d, %d", w, h)
	}
}

func BenchmarkFrameFill(b *testing.B) {
	f := NewFrame(320, 240, ARGB8888)
	for b.Loop() {
		f.Fill(0xFF00FF00)
	}
}

func BenchmarkDrawLine(b *testing.B) {
	f := NewFrame(320, 240, ARGB8888)
	for b.Loop() {
		f.DrawLine(0, 0, 319, 239, 1)
	}
}
