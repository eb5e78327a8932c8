// Package window shows rendered frames in a desktop window with ebiten.
package window

import (
	"context"
	"errors"
	"image"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/taigrr/facet/pkg/render"
)

// Input is the pointer and key state gathered for one tick.
type Input struct {
	// DragX and DragY are the cursor movement in window pixels while the
	// left button is held.
	DragX, DragY int
	// Wheel is the vertical scroll since the previous tick.
	Wheel float64
	// Reset is set on the tick R is pressed.
	Reset bool
}

// StepFunc draws the next frame. Returning an error closes the window and
// makes Run return it.
type StepFunc func(fb *render.Frame, in Input) error

// Run opens a window showing a width×height frame magnified by scale and
// calls step once per tick at tps ticks per second. It blocks until the
// window is closed, Escape is pressed, ctx is done or step fails.
func Run(ctx context.Context, title string, width, height, scale, tps int, step StepFunc) error {
	if width <= 0 || height <= 0 {
		return errors.New("window: empty frame")
	}
	scale = max(scale, 1)
	g := &game{
		ctx:   ctx,
		step:  step,
		frame: render.NewFrame(width, height, render.ABGR8888),
	}
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(width*scale, height*scale)
	if tps > 0 {
		ebiten.SetTPS(tps)
	}
	render.Logger().Debug("window opened", "title", title, "width", width, "height", height, "scale", scale)

	err := ebiten.RunGame(g)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

type game struct {
	ctx   context.Context
	step  StepFunc
	frame *render.Frame
	img   *ebiten.Image
	buf   []byte
	drag  dragTracker
}

func (g *game) Update() error {
	if g.ctx.Err() != nil || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	var in Input
	x, y := ebiten.CursorPosition()
	in.DragX, in.DragY = g.drag.update(ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft), image.Pt(x, y))
	_, in.Wheel = ebiten.Wheel()
	in.Reset = inpututil.IsKeyJustPressed(ebiten.KeyR)

	return g.step(g.frame, in)
}

func (g *game) Draw(screen *ebiten.Image) {
	// ABGR8888 in little-endian order is the RGBA byte layout WritePixels
	// expects.
	if g.img == nil {
		g.img = ebiten.NewImage(g.frame.Width, g.frame.Height)
	}
	g.buf = g.frame.Bytes(g.buf)
	g.img.WritePixels(g.buf)

	// Frame row 0 is the bottom; flip while drawing.
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(1, -1)
	op.GeoM.Translate(0, float64(g.frame.Height))
	screen.DrawImage(g.img, &op)
}

func (g *game) Layout(int, int) (int, int) {
	return g.frame.Width, g.frame.Height
}

// dragTracker turns absolute cursor positions into movement while a button
// is held.
type dragTracker struct {
	down bool
	last image.Point
}

func (d *dragTracker) update(pressed bool, at image.Point) (dx, dy int) {
	if pressed && d.down {
		dx, dy = at.X-d.last.X, at.Y-d.last.Y
	}
	d.down = pressed
	d.last = at
	return dx, dy
}
