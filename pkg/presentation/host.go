package presentation

import (
	"image/color"

	"github.com/dd0wney/orbitgraph/pkg/config"
	"github.com/dd0wney/orbitgraph/pkg/graph"
	"github.com/dd0wney/orbitgraph/pkg/layout"
	"github.com/dd0wney/orbitgraph/pkg/render"
)

// HostRenderer is everything a drawing host needs to render the current
// layout without knowing which engine produced it.
type HostRenderer struct {
	// DrawNode paints a node's disc, photo and label.
	DrawNode func(s *render.Surface, n *graph.Node)
	// DrawHitArea paints a node's pick disc in the given key color.
	DrawHitArea func(s *render.Surface, n *graph.Node, c color.Color)
	// Dashes is the link dash pattern; nil is solid.
	Dashes []float64
	// DrawLinks is false for LinkNone.
	DrawLinks  bool
	LinkColor  render.LinkColorFunc
	Background config.Background
	// Physics is set for Mesh only.
	Physics *layout.PhysicsContract
	// FitToContent refits the viewport to the node bounds. Mesh only.
	FitToContent func()
}

func linkColorFunc(cfg config.LayoutConfig) render.LinkColorFunc {
	c, err := render.ParseHexColor(cfg.LinkColor)
	if err != nil {
		c = color.NRGBA{R: 0xc8, G: 0xc6, B: 0xc4, A: 0xff}
	}
	return func(graph.Link) color.Color { return c }
}

// Host returns the renderer contract for the current configuration and
// layout mode.
func (p *Presenter) Host() HostRenderer {
	dashes, draw := p.cfg.DashPattern()
	h := HostRenderer{
		DrawNode:    p.renderer.DrawNode,
		DrawHitArea: p.renderer.DrawHitArea,
		Dashes:      dashes,
		DrawLinks:   draw,
		LinkColor:   p.linkColor,
		Background:  p.cfg.Background,
	}
	if p.cfg.LayoutMode == config.Mesh {
		phys := p.meshLayout.Physics
		h.Physics = &phys
		h.FitToContent = p.fit
	}
	return h
}
