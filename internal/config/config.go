// Package config reads facet scene files and merges them with command-line
// flags.
//
// A scene file is TOML:
//
//	shader = "phong"
//	background = "#add8e6"
//
//	[frame]
//	width = 800
//	height = 800
//	supersample = 2
//
//	[camera]
//	eye = [0, 0, 5]
//	target = [0, 0, 0]
//
//	[lens]
//	top = 1
//	right = 1
//	near = 1.8
//	far = 10
//
//	[[objects]]
//	mesh = "head.obj"
//	texture = "head_diffuse.tga"
//	rotate = [0, 30, 0]
//
// Relative asset paths are resolved against the scene file's directory.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/taigrr/facet/pkg/render"
	"github.com/taigrr/facet/pkg/scene"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid")

// Config is a complete render setup.
type Config struct {
	Shader     string         `toml:"shader"`
	Background string         `toml:"background"`
	Wireframe  bool           `toml:"wireframe"`
	Cull       CullConfig     `toml:"cull"`
	Frame      FrameConfig    `toml:"frame"`
	Camera     CameraConfig   `toml:"camera"`
	Lens       LensConfig     `toml:"lens"`
	Light      LightConfig    `toml:"light"`
	Objects    []ObjectConfig `toml:"objects"`

	// dir is the directory relative asset paths are resolved against.
	dir string
}

// FrameConfig sizes offscreen renders.
type FrameConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
	// Supersample renders at this multiple of the size and downsamples
	// when saving.
	Supersample int `toml:"supersample"`
}

// CullConfig toggles the optional culling stages.
type CullConfig struct {
	Backface bool `toml:"backface"`
	Frustum  bool `toml:"frustum"`
}

// CameraConfig places the eye.
type CameraConfig struct {
	Eye    [3]float64 `toml:"eye"`
	Target [3]float64 `toml:"target"`
	Up     [3]float64 `toml:"up"`
}

// LensConfig mirrors scene.Lens.
type LensConfig struct {
	Top   float64 `toml:"top"`
	Right float64 `toml:"right"`
	Near  float64 `toml:"near"`
	Far   float64 `toml:"far"`
}

// LightConfig places the point light.
type LightConfig struct {
	Position [3]float64 `toml:"position"`
}

// ObjectConfig is one mesh instance. Rotate is in degrees, applied X then Y
// then Z; a zero Scale means 1. Normalize fits the mesh into a 2-unit cube
// around the origin before the object transform.
type ObjectConfig struct {
	Mesh      string     `toml:"mesh"`
	Texture   string     `toml:"texture"`
	Translate [3]float64 `toml:"translate"`
	Rotate    [3]float64 `toml:"rotate"`
	Scale     float64    `toml:"scale"`
	Normalize bool       `toml:"normalize"`
}

// Default returns the built-in setup: one camera at (0,0,5), the light at
// the eye, the default lens and Gouraud shading on an 800×800 frame.
func Default() Config {
	lens := scene.DefaultLens()
	return Config{
		Shader:     "gouraud",
		Background: "#add8e6",
		Cull:       CullConfig{Backface: true},
		Frame:      FrameConfig{Width: 800, Height: 800, Supersample: 1},
		Camera:     CameraConfig{Eye: [3]float64{0, 0, 5}, Up: [3]float64{0, 1, 0}},
		Lens:       LensConfig{Top: lens.Top, Right: lens.Right, Near: lens.Near, Far: lens.Far},
		Light:      LightConfig{Position: [3]float64{0, 0, 5}},
	}
}

// Load reads a scene file on top of Default. Unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)
	return cfg, nil
}

// Parse decodes TOML data on top of Default.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			keys := make([]string, len(strict.Errors))
			for i, e := range strict.Errors {
				keys[i] = strings.Join(e.Key(), ".")
			}
			return Config{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
		return Config{}, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func (c Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}

// Flags holds command-line values that override the scene file. Zero
// values leave the file's setting alone.
type Flags struct {
	Models      []string
	Texture     string
	Shader      string
	Background  string
	Width       int
	Height      int
	Supersample int
	Wireframe   bool
	NoCull      bool
	FrustumCull bool
}

// Resolve applies flag overrides. Positional model paths replace the
// file's objects; a -texture flag applies to every object without one.
func (c *Config) Resolve(f Flags) {
	if f.Shader != "" {
		c.Shader = f.Shader
	}
	if f.Background != "" {
		c.Background = f.Background
	}
	if f.Width > 0 {
		c.Frame.Width = f.Width
	}
	if f.Height > 0 {
		c.Frame.Height = f.Height
	}
	if f.Supersample > 0 {
		c.Frame.Supersample = f.Supersample
	}
	if f.Wireframe {
		c.Wireframe = true
	}
	if f.NoCull {
		c.Cull.Backface = false
	}
	if f.FrustumCull {
		c.Cull.Frustum = true
	}
	if len(f.Models) > 0 {
		c.Objects = c.Objects[:0]
		for _, m := range f.Models {
			c.Objects = append(c.Objects, ObjectConfig{Mesh: m, Normalize: true})
		}
	}
	if f.Texture != "" {
		for i := range c.Objects {
			if c.Objects[i].Texture == "" {
				c.Objects[i].Texture = f.Texture
			}
		}
	}
	if c.Frame.Supersample <= 0 {
		c.Frame.Supersample = 1
	}
}

// Validate reports the first problem that would stop a render.
func (c Config) Validate() error {
	if !slices.Contains(render.ShaderNames(), strings.ToLower(c.Shader)) {
		return fmt.Errorf("%w: shader %q (want one of %s)", ErrInvalid, c.Shader, strings.Join(render.ShaderNames(), ", "))
	}
	if _, err := ParseColor(c.Background); err != nil {
		return fmt.Errorf("%w: background: %w", ErrInvalid, err)
	}
	if c.Frame.Width <= 0 || c.Frame.Height <= 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalid, c.Frame.Width, c.Frame.Height)
	}
	if c.Frame.Supersample < 1 || c.Frame.Supersample > 8 {
		return fmt.Errorf("%w: supersample %d outside 1..8", ErrInvalid, c.Frame.Supersample)
	}
	if err := c.SceneLens().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if len(c.Objects) == 0 {
		return fmt.Errorf("%w: no objects to render", ErrInvalid)
	}
	for i, o := range c.Objects {
		if o.Mesh == "" {
			return fmt.Errorf("%w: object %d has no mesh", ErrInvalid, i)
		}
		if o.Scale < 0 {
			return fmt.Errorf("%w: object %d scale %g", ErrInvalid, i, o.Scale)
		}
	}
	return nil
}

// SceneLens returns the configured lens.
func (c Config) SceneLens() scene.Lens {
	return scene.Lens{Top: c.Lens.Top, Right: c.Lens.Right, Near: c.Lens.Near, Far: c.Lens.Far}
}

// Path resolves an asset path against the scene file's directory.
func (c Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// ParseColor accepts "#rrggbb", "rrggbb" or "r,g,b" with decimal channels.
func ParseColor(s string) (color.NRGBA, error) {
	s = strings.TrimSpace(s)
	if parts := strings.Split(s, ","); len(parts) == 3 {
		var ch [3]uint8
		for i, p := range parts {
			v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
			if err != nil {
				return color.NRGBA{}, fmt.Errorf("colour %q: %w", s, err)
			}
			ch[i] = uint8(v)
		}
		return color.NRGBA{R: ch[0], G: ch[1], B: ch[2], A: 0xFF}, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("colour %q: want #rrggbb or r,g,b", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("colour %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xFF}, nil
}
