package render

import (
	"image/color"

	"github.com/dd0wney/orbitgraph/pkg/config"
	"github.com/dd0wney/orbitgraph/pkg/graph"
)

const linkWidth = 1.5

// LinkColorFunc picks the stroke color for a link.
type LinkColorFunc func(l graph.Link) color.Color

// DrawLinks strokes every link whose endpoints resolve through lookup.
// A nil dash pattern draws solid lines.
func DrawLinks(s *Surface, links []graph.Link, lookup func(id string) (*graph.Node, bool), dashes []float64, colorOf LinkColorFunc) {
	dc := s.Context()
	dc.Push()
	defer dc.Pop()

	dc.SetLineWidth(linkWidth)
	dc.SetDash(dashes...)
	for _, l := range links {
		a, ok := lookup(l.Source)
		if !ok {
			continue
		}
		b, ok := lookup(l.Target)
		if !ok {
			continue
		}
		x1, y1 := s.ToScreen(a.X, a.Y)
		x2, y2 := s.ToScreen(b.X, b.Y)
		dc.SetColor(colorOf(l))
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
	}
	dc.SetDash()
}

// DrawBackground paints the configured background. Image backgrounds are
// requested from images and drawn once loaded; until then, and for
// transparent backgrounds, the surface is cleared to transparent.
func DrawBackground(s *Surface, bg config.Background, images *ImageCache) {
	dc := s.Context()
	dc.SetColor(color.Transparent)
	dc.Clear()

	switch bg.Type {
	case config.BackgroundColor:
		c, err := ParseHexColor(bg.Value)
		if err != nil {
			return
		}
		dc.SetColor(c)
		dc.Clear()
	case config.BackgroundImage:
		if images == nil || images.Request(bg.Value) != Loaded {
			return
		}
		if img, ok := images.Scaled(bg.Value, s.Width(), s.Height()); ok {
			dc.DrawImage(img, 0, 0)
		}
	}
}
