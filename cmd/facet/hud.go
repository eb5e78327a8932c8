package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/taigrr/facet/pkg/render"
)

// HUD tracks the figures shown in the overlay.
type HUD struct {
	filename  string
	polyCount int
	fps       float64
	fpsFrames int
	fpsTime   time.Time
	stats     render.Stats
}

// NewHUD creates a new HUD
func NewHUD(filename string, polyCount int) *HUD {
	return &HUD{
		filename:  filepath.Base(filename),
		polyCount: polyCount,
		fpsTime:   time.Now(),
	}
}

// Update records the latest frame statistics and recomputes the frame rate
// once per second.
func (h *HUD) Update(stats render.Stats, now time.Time) {
	h.stats = stats
	h.fpsFrames++
	elapsed := now.Sub(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = now
	}
}

// Top is the first overlay row: frame rate, file and triangle count.
func (h *HUD) Top() string {
	return fmt.Sprintf(" %.0f FPS | %s | %d tris | %d drawn ", h.fps, h.filename, h.polyCount, h.stats.Faces-h.stats.Backfaces-h.stats.Degenerate-h.stats.BehindEye)
}

// Bottom is the last overlay row: toggles.
func (h *HUD) Bottom(v *viewer) string {
	check := func(b bool) string {
		if b {
			return "[x]"
		}
		return "[ ]"
	}
	return fmt.Sprintf(" %s Texture  %s Wireframe  %s Headlight  shader: %s ",
		check(v.texturesOn), check(v.renderer.Mode == render.ModeWireframe), check(v.headlight), v.shaderName())
}
