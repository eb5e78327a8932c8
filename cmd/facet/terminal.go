package main

import (
	"context"
	"fmt"
	"image/color"
	"os"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/taigrr/facet/pkg/render"
)

const (
	keySpin   = 0.04
	dragSpin  = 0.01
	zoomStep  = 1.1
	hudFgGray = 0xE0
)

// runTerminal draws frames with half blocks until Esc, Ctrl+C or ctx ends.
func (v *viewer) runTerminal(ctx context.Context) error {
	term := uv.DefaultTerminal()

	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	// Any-event mouse tracking with SGR coordinates.
	fmt.Fprint(os.Stdout, "\x1b[?1003h")
	fmt.Fprint(os.Stdout, "\x1b[?1006h")

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}
	defer cleanup()

	fb := render.NewFrame(1, 1, render.ARGB8888)
	resize := func(cols, rows int) {
		w, h := render.CellSize(cols, rows)
		fb.Resize(w, h)
		v.resize(w, h)
	}
	resize(width, height)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The event goroutine never touches render state; it queues commands
	// that the loop below runs between frames.
	cmds := make(chan func(), 64)
	send := func(f func()) {
		select {
		case cmds <- f:
		default:
		}
	}
	go func() {
		var mouseDown bool
		var lastX, lastY int
		for ev := range term.Events() {
			switch ev := ev.(type) {
			case uv.WindowSizeEvent:
				w, h := ev.Width, ev.Height
				send(func() {
					width, height = w, h
					term.Erase()
					term.Resize(w, h)
					resize(w, h)
				})

			case uv.KeyPressEvent:
				switch {
				case ev.MatchString("escape"), ev.MatchString("ctrl+c"):
					cancel()
					return
				case ev.MatchString("w", "up"):
					send(func() { v.spin(0, keySpin) })
				case ev.MatchString("s", "down"):
					send(func() { v.spin(0, -keySpin) })
				case ev.MatchString("a", "left"):
					send(func() { v.spin(-keySpin, 0) })
				case ev.MatchString("d", "right"):
					send(func() { v.spin(keySpin, 0) })
				case ev.MatchString("space"):
					send(v.randomSpin)
				case ev.MatchString("r"):
					send(v.reset)
				case ev.MatchString("+", "="):
					send(func() { v.zoom(1 / zoomStep) })
				case ev.MatchString("-", "_"):
					send(func() { v.zoom(zoomStep) })
				case ev.MatchString("t"):
					send(v.toggleTextures)
				case ev.MatchString("x"):
					send(v.toggleWireframe)
				case ev.MatchString("m"):
					send(v.cycleShader)
				case ev.MatchString("l"):
					send(v.toggleHeadlight)
				case ev.MatchString("?"), ev.MatchString("shift+/"):
					send(func() { v.hudOn = !v.hudOn })
				}

			case uv.MouseClickEvent:
				mouseDown = true
				lastX, lastY = ev.X, ev.Y

			case uv.MouseReleaseEvent:
				mouseDown = false

			case uv.MouseMotionEvent:
				if mouseDown {
					dx, dy := ev.X-lastX, ev.Y-lastY
					lastX, lastY = ev.X, ev.Y
					send(func() { v.spin(float64(dx)*dragSpin, float64(dy)*dragSpin*2) })
				}

			case uv.MouseWheelEvent:
				switch ev.Button {
				case uv.MouseWheelUp:
					send(func() { v.zoom(1 / zoomStep) })
				case uv.MouseWheelDown:
					send(func() { v.zoom(zoomStep) })
				}
			}
		}
	}()

	ticker := time.NewTicker(time.Second / time.Duration(max(v.fps, 1)))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-cmds:
			f()
			continue
		case sc, ok := <-v.reloads:
			if !ok {
				v.reloads = nil
			} else if err := v.reload(sc); err != nil {
				return err
			}
			continue
		case <-ticker.C:
		}

		if err := v.frame(fb); err != nil {
			return err
		}
		area := uv.Rect(0, 0, width, height)
		fb.Draw(term, area)
		if v.hudOn {
			hudStyle := uv.Style{
				Fg: color.Gray{Y: hudFgGray},
				Bg: color.Black,
			}
			drawText(term, 0, 0, v.hud.Top(), hudStyle)
			drawText(term, 0, height-1, v.hud.Bottom(v), hudStyle)
		}
		if err := term.Display(); err != nil {
			return fmt.Errorf("display: %w", err)
		}
	}
}

// drawText writes s one cell per rune starting at (x, y).
func drawText(scr uv.Screen, x, y int, s string, style uv.Style) {
	for _, r := range s {
		scr.SetCell(x, y, &uv.Cell{Content: string(r), Width: 1, Style: style})
		x++
	}
}
