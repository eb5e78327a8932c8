package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestSavePNG(t *testing.T) {
	f := NewFrame(6, 4, ABGR8888)
	f.Fill(f.Format.RGB(10, 20, 30))
	path := filepath.Join(t.TempDir(), "out.png")
	require.NoError(t, Save(path, f.ToImage()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 4), img.Bounds())
	r, g, b, _ := img.At(3, 2).RGBA()
	assert.Equal(t, []uint32{10, 20, 30}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestSaveWebP(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.WEBP")
	require.NoError(t, Save(path, solidImage(8, 8, color.NRGBA{R: 200, A: 255})))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Greater(t, len(data), 12)
	assert.Equal(t, "RIFF", string(data[:4]))
	assert.Equal(t, "WEBP", string(data[8:12]))
}

func TestSaveUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.gif")
	err := Save(path, solidImage(1, 1, color.NRGBA{}))
	assert.ErrorIs(t, err, ErrUnsupportedImageFormat)
	assert.NoFileExists(t, path)
}

func TestDownsample(t *testing.T) {
	c := color.NRGBA{R: 40, G: 80, B: 120, A: 255}
	img := solidImage(8, 6, c)

	small := Downsample(img, 2)
	assert.Equal(t, image.Rect(0, 0, 4, 3), small.Bounds())
	got := small.NRGBAAt(1, 1)
	assert.InDelta(t, 40, got.R, 1)
	assert.InDelta(t, 80, got.G, 1)
	assert.InDelta(t, 120, got.B, 1)

	assert.Same(t, img, Downsample(img, 1))
}
