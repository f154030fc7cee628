package main

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const upperHalf = "▀"

// canvas maps terminal cells to surface pixels. Every cell shows two
// vertically stacked square blocks of scale x scale pixels through the
// upper half block glyph: foreground is the top block, background the bottom.
type canvas struct {
	cols, rows int
	scale      int
	backdrop   color.NRGBA
}

// pixelSize is the surface size that fills the canvas.
func (cv canvas) pixelSize() (w, h int) {
	return cv.cols * cv.scale, cv.rows * 2 * cv.scale
}

// cellToPixel returns the surface pixel at the middle of cell (col, row).
func (cv canvas) cellToPixel(col, row int) (x, y int) {
	return col*cv.scale + cv.scale/2, row*2*cv.scale + cv.scale
}

// average composites the block at (x0, y0) over the backdrop.
func (cv canvas) average(img image.Image, x0, y0 int) color.NRGBA {
	var r, g, b, n uint32
	bounds := img.Bounds()
	for y := y0; y < y0+cv.scale; y++ {
		for x := x0; x < x0+cv.scale; x++ {
			if !(image.Point{X: x, Y: y}).In(bounds) {
				continue
			}
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			a := uint32(c.A)
			r += (uint32(c.R)*a + uint32(cv.backdrop.R)*(255-a)) / 255
			g += (uint32(c.G)*a + uint32(cv.backdrop.G)*(255-a)) / 255
			b += (uint32(c.B)*a + uint32(cv.backdrop.B)*(255-a)) / 255
			n++
		}
	}
	if n == 0 {
		return cv.backdrop
	}
	return color.NRGBA{R: uint8(r / n), G: uint8(g / n), B: uint8(b / n), A: 0xff}
}

func hex(c color.NRGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

// Render converts img into cv.rows lines of half block cells. Runs of cells
// with identical colors share one styled segment.
func (cv canvas) Render(img image.Image) string {
	lines := make([]string, cv.rows)
	for row := 0; row < cv.rows; row++ {
		var sb strings.Builder
		var runTop, runBottom color.NRGBA
		runLen := 0
		flush := func() {
			if runLen == 0 {
				return
			}
			style := lipgloss.NewStyle().Foreground(hex(runTop)).Background(hex(runBottom))
			sb.WriteString(style.Render(strings.Repeat(upperHalf, runLen)))
			runLen = 0
		}
		for col := 0; col < cv.cols; col++ {
			top := cv.average(img, col*cv.scale, row*2*cv.scale)
			bottom := cv.average(img, col*cv.scale, (row*2+1)*cv.scale)
			if runLen > 0 && (top != runTop || bottom != runBottom) {
				flush()
			}
			runTop, runBottom = top, bottom
			runLen++
		}
		flush()
		lines[row] = sb.String()
	}
	return strings.Join(lines, "\n")
}
