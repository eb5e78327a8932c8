package main

import (
	"fmt"

	"github.com/taigrr/facet/internal/config"
	"github.com/taigrr/facet/pkg/render"
	"github.com/taigrr/facet/pkg/scene"
)

// renderSnapshot renders one frame at cfg.Frame size, supersampled when
// configured, and saves it to path.
func renderSnapshot(cfg config.Config, world *scene.World, r *render.Renderer, path string) error {
	ss := cfg.Frame.Supersample
	fb := render.NewFrame(cfg.Frame.Width*ss, cfg.Frame.Height*ss, render.ABGR8888)

	stats, err := r.Render(world.View(), fb)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if *showBounds {
		drawBounds(fb, world.View())
	}
	img := render.Downsample(fb.ToImage(), ss)
	if err := render.Save(path, img); err != nil {
		return err
	}
	render.Logger().Info("snapshot written", "path", path, "width", img.Bounds().Dx(), "height", img.Bounds().Dy(), "stats", stats)
	return nil
}
