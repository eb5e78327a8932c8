package render

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
)

// CellSize returns the frame size that fills a cols×rows terminal area:
// one pixel per column and two per row.
func CellSize(cols, rows int) (width, height int) {
	return max(cols, 1), max(rows*2, 2)
}

// Draw blits the frame onto a terminal screen with upper half blocks, two
// pixels per cell. Frame row 0 is the bottom of the image, so the top
// terminal row shows the last two frame rows.
func (f *Frame) Draw(scr uv.Screen, area uv.Rectangle) {
	for row := area.Min.Y; row < area.Max.Y; row++ {
		top := f.Height - 1 - 2*(row-area.Min.Y)
		bot := top - 1
		if top < 0 {
			break
		}
		for col := area.Min.X; col < area.Max.X; col++ {
			x := col - area.Min.X
			if x >= f.Width {
				break
			}
			cell := &uv.Cell{
				Content: "▀",
				Width:   1,
				Style: uv.Style{
					Fg: f.cellColor(x, top),
					Bg: f.cellColor(x, bot),
				},
			}
			scr.SetCell(col, row, cell)
		}
	}
}

// cellColor returns nil outside the frame so the terminal default shows.
func (f *Frame) cellColor(x, y int) color.Color {
	if y < 0 {
		return nil
	}
	r, g, b, _ := f.Format.Unpack(f.Pixel(x, y))
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}
