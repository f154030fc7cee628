package render

import (
	"image"
	"io"

	"git.sr.ht/~sbinet/gg"
)

// Surface is a raster drawing target with a viewport. All drawing happens in
// screen pixels; callers convert world positions through the viewport, which
// also carries the zoom used for billboarding.
type Surface struct {
	dc *gg.Context
	vp Viewport
}

// NewSurface creates a transparent surface with a zoom-1 viewport.
func NewSurface(width, height int) *Surface {
	return &Surface{
		dc: gg.NewContext(width, height),
		vp: NewViewport(width, height),
	}
}

// Context exposes the underlying gg context.
func (s *Surface) Context() *gg.Context { return s.dc }

// Viewport returns the current viewport.
func (s *Surface) Viewport() Viewport { return s.vp }

// SetViewport replaces the viewport. Width and height stay those of the raster.
func (s *Surface) SetViewport(vp Viewport) {
	vp.Width, vp.Height = s.dc.Width(), s.dc.Height()
	vp.Zoom = clampZoom(vp.Zoom)
	s.vp = vp
}

// Zoom is the uniform view scale at draw time.
func (s *Surface) Zoom() float64 { return clampZoom(s.vp.Zoom) }

// ToScreen converts a world point through the viewport.
func (s *Surface) ToScreen(x, y float64) (float64, float64) { return s.vp.ToScreen(x, y) }

// Width returns the raster width in pixels.
func (s *Surface) Width() int { return s.dc.Width() }

// Height returns the raster height in pixels.
func (s *Surface) Height() int { return s.dc.Height() }

// Resize replaces the raster, keeping zoom and pan.
func (s *Surface) Resize(width, height int) {
	s.dc = gg.NewContext(width, height)
	s.vp.Width, s.vp.Height = width, height
}

// Image returns the current raster.
func (s *Surface) Image() image.Image { return s.dc.Image() }

// SavePNG writes the raster to a PNG file.
func (s *Surface) SavePNG(path string) error { return s.dc.SavePNG(path) }

// EncodePNG writes the raster as PNG.
func (s *Surface) EncodePNG(w io.Writer) error { return s.dc.EncodePNG(w) }
