// facet - software 3D renderer
// Renders OBJ and glTF scenes on the CPU, to the terminal, a window or an
// image file.
//
// Terminal and window controls:
//
//	Mouse drag  - Orbit the camera
//	Scroll      - Zoom in/out
//	W/S         - Orbit up/down
//	A/D         - Orbit left/right
//	Space       - Random spin
//	R           - Reset the orbit
//	T           - Toggle textures
//	X           - Toggle wireframe
//	M           - Cycle shading model
//	L           - Toggle headlight (light follows the eye)
//	?           - Toggle HUD
//	Esc         - Quit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/taigrr/facet/internal/config"
	"github.com/taigrr/facet/pkg/models"
	"github.com/taigrr/facet/pkg/render"
)

var (
	configPath  = flag.String("config", "", "Scene file (TOML)")
	texturePath = flag.String("texture", "", "Texture image for models without one (PNG/JPG/TGA/BMP/TIFF)")
	shaderName  = flag.String("shader", "", "Shading model: "+strings.Join(render.ShaderNames(), ", "))
	bgColor     = flag.String("bg", "", "Background colour (#rrggbb or R,G,B)")
	frameSize   = flag.String("size", "", "Frame size for -snapshot and -window (WxH)")
	supersample = flag.Int("ssaa", 0, "Supersampling factor for -snapshot")
	wireframe   = flag.Bool("wireframe", false, "Draw triangle edges only")
	noCull      = flag.Bool("no-cull", false, "Draw clockwise (back-facing) triangles")
	frustumCull = flag.Bool("frustum-cull", false, "Skip objects outside the view volume")
	showBounds  = flag.Bool("bounds", false, "Outline object bounding boxes")
	snapshot    = flag.String("snapshot", "", "Render one frame to this .png or .webp file and exit")
	watch       = flag.Bool("watch", false, "Reload the -config scene file when it changes")
	useWindow   = flag.Bool("window", false, "Open a desktop window instead of drawing in the terminal")
	winScale    = flag.Int("scale", 1, "Window magnification")
	targetFPS   = flag.Int("fps", 60, "Target FPS")
	logLevel    = flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	logFile     = flag.String("log-file", "", "Write logs to this file (default stderr; discarded in terminal mode)")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "facet - software 3D renderer\n\n")
		fmt.Fprintf(os.Stderr, "Usage: facet [options] [model.obj|model.gltf|model.glb ...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Mouse drag  - Orbit the camera\n")
		fmt.Fprintf(os.Stderr, "  Scroll, +/- - Zoom in/out\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Orbit\n")
		fmt.Fprintf(os.Stderr, "  Space       - Random spin\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  T           - Toggle texture\n")
		fmt.Fprintf(os.Stderr, "  X           - Toggle wireframe\n")
		fmt.Fprintf(os.Stderr, "  M           - Cycle shading model\n")
		fmt.Fprintf(os.Stderr, "  L           - Toggle headlight\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD overlay\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	if flag.NArg() < 1 && *configPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger, closeLog, err := newLogger(*logLevel, *logFile, *snapshot == "" && !*useWindow)
	if err != nil {
		return err
	}
	defer closeLog()
	render.SetLogger(logger)
	models.SetLogger(logger)

	flags := config.Flags{
		Models:      flag.Args(),
		Texture:     *texturePath,
		Shader:      *shaderName,
		Background:  *bgColor,
		Supersample: *supersample,
		Wireframe:   *wireframe,
		NoCull:      *noCull,
		FrustumCull: *frustumCull,
	}
	if *frameSize != "" {
		if flags.Width, flags.Height, err = parseSize(*frameSize); err != nil {
			return err
		}
	}
	sc, err := loadScene(*configPath, flags)
	if err != nil {
		return err
	}
	cfg, world := sc.cfg, sc.world
	renderer, err := cfg.NewRenderer()
	if err != nil {
		return err
	}
	logger.Info("scene loaded", "objects", len(world.Objects()), "shader", cfg.Shader, "mode", renderer.Mode)

	if *snapshot != "" {
		return renderSnapshot(cfg, world, renderer, *snapshot)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	v := newViewer(cfg, world, renderer, *targetFPS)
	v.bounds = *showBounds
	if *watch && *configPath != "" {
		if v.reloads, err = watchScene(ctx, *configPath, flags, logger); err != nil {
			return err
		}
	}
	if *useWindow {
		return v.runWindow(ctx, *winScale)
	}
	return v.runTerminal(ctx)
}

// newLogger builds the process logger. In terminal mode stderr shares the
// screen with the renderer, so logs are dropped unless a file is given.
func newLogger(level, path string, terminal bool) (*slog.Logger, func(), error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}

	var w io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case path != "":
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { f.Close() }
	case terminal:
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), closeFn, nil
}

// parseSize parses "WxH".
func parseSize(s string) (width, height int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: want WxH", s)
	}
	width, err = strconv.Atoi(strings.TrimSpace(ws))
	if err == nil {
		height, err = strconv.Atoi(strings.TrimSpace(hs))
	}
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: %w", s, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, errors.New("size must be positive")
	}
	return width, height, nil
}
