package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Zoom limits.
const (
	MinZoom = 0.1
	MaxZoom = 8.0
)

// Viewport maps world coordinates, with the origin at the container center,
// to screen pixels.
type Viewport struct {
	Width  int
	Height int
	Zoom   float64
	PanX   float64
	PanY   float64
}

// NewViewport returns an unpanned viewport at zoom 1.
func NewViewport(width, height int) Viewport {
	return Viewport{Width: width, Height: height, Zoom: 1}
}

func clampZoom(z float64) float64 {
	if math.IsNaN(z) || z <= 0 {
		return 1
	}
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

// ToScreen converts a world point to screen pixels.
func (v Viewport) ToScreen(x, y float64) (sx, sy float64) {
	z := clampZoom(v.Zoom)
	return float64(v.Width)/2 + v.PanX + x*z, float64(v.Height)/2 + v.PanY + y*z
}

// ToWorld converts screen pixels to a world point.
func (v Viewport) ToWorld(sx, sy float64) (x, y float64) {
	z := clampZoom(v.Zoom)
	return (sx - float64(v.Width)/2 - v.PanX) / z, (sy - float64(v.Height)/2 - v.PanY) / z
}

// WithZoom returns the viewport zoomed by factor about the screen center.
func (v Viewport) WithZoom(factor float64) Viewport {
	old := clampZoom(v.Zoom)
	next := clampZoom(old * factor)
	v.PanX *= next / old
	v.PanY *= next / old
	v.Zoom = next
	return v
}

// Fit returns a viewport that shows box with padding pixels on every side.
// margin is added around the box in world units, typically the node radius.
func (v Viewport) Fit(box r2.Box, padding, margin float64) Viewport {
	w := box.Max.X - box.Min.X + 2*margin
	h := box.Max.Y - box.Min.Y + 2*margin
	availW := float64(v.Width) - 2*padding
	availH := float64(v.Height) - 2*padding

	zoom := 1.0
	if w > 0 && h > 0 && availW > 0 && availH > 0 {
		zoom = math.Min(availW/w, availH/h)
	}
	v.Zoom = clampZoom(zoom)

	center := r2.Scale(0.5, r2.Add(box.Min, box.Max))
	v.PanX = -center.X * v.Zoom
	v.PanY = -center.Y * v.Zoom
	return v
}
