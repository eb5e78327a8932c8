package main

import (
	"context"
	"fmt"

	"github.com/taigrr/facet/pkg/render"
	"github.com/taigrr/facet/pkg/render/window"
)

// runWindow shows the scene in a desktop window at the configured frame size.
func (v *viewer) runWindow(ctx context.Context, scale int) error {
	w, h := v.cfg.Frame.Width, v.cfg.Frame.Height
	v.resize(w, h)
	title := fmt.Sprintf("facet - %s", v.hud.filename)

	return window.Run(ctx, title, w, h, scale, v.fps, func(fb *render.Frame, in window.Input) error {
		v.pollReload()
		if in.Reset {
			v.reset()
		}
		if in.DragX != 0 || in.DragY != 0 {
			v.spin(float64(in.DragX)*dragSpin/float64(scale), float64(in.DragY)*dragSpin/float64(scale))
		}
		switch {
		case in.Wheel > 0:
			v.zoom(1 / zoomStep)
		case in.Wheel < 0:
			v.zoom(zoomStep)
		}
		return v.frame(fb)
	})
}
