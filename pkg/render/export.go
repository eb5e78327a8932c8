package render

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
)

// ErrUnsupportedImageFormat is returned by Save for unknown extensions.
var ErrUnsupportedImageFormat = errors.New("render: unsupported image format")

// EncodePNG writes img to w as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}

// EncodeWebP writes img to w as lossless WebP.
func EncodeWebP(w io.Writer, img image.Image) error {
	return nativewebp.Encode(w, img, nil)
}

// Save writes img to path, choosing PNG or WebP from the extension.
func Save(path string, img image.Image) (err error) {
	var enc func(io.Writer, image.Image) error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		enc = EncodePNG
	case ".webp":
		enc = EncodeWebP
	default:
		return fmt.Errorf("%q: %w", ext, ErrUnsupportedImageFormat)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := enc(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	logger().Debug("image saved", "path", path, "bounds", img.Bounds().String())
	return nil
}

// Downsample shrinks img by an integer factor with Catmull-Rom filtering,
// for rendering supersampled frames. A factor below 2 returns img as is.
func Downsample(img *image.NRGBA, factor int) *image.NRGBA {
	if factor < 2 {
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, max(b.Dx()/factor, 1), max(b.Dy()/factor, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
