package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/dd0wney/orbitgraph/pkg/config"
	"github.com/dd0wney/orbitgraph/pkg/graph"
	"github.com/dd0wney/orbitgraph/pkg/logging"
)

// Label layout constants, in screen pixels at zoom 1.
const (
	LabelWrapWidth   = 80.0
	LineHeightFactor = 1.2
	labelGap         = 4.0
	shadowRingStep   = 1.0
)

// ShadowStyle is a parsed shadow configuration.
type ShadowStyle struct {
	Enabled bool
	Color   color.NRGBA
	Blur    float64
	OffsetX float64
	OffsetY float64
}

// Style is the parsed, draw-ready form of a layout configuration.
type Style struct {
	CenterRadius    float64
	GroupRadius     float64
	FontSize        float64
	FontColor       color.NRGBA
	CenterColor     color.NRGBA
	GroupColor      color.NRGBA
	ShowCenterLabel bool
	FixedScreenSize bool
	Shadow          ShadowStyle
}

// StyleFromConfig parses the colors of cfg.
func StyleFromConfig(cfg config.LayoutConfig) (Style, error) {
	parse := func(field, v string) (color.NRGBA, error) {
		c, err := ParseHexColor(v)
		if err != nil {
			return c, fmt.Errorf("%s: %w", field, err)
		}
		return c, nil
	}

	st := Style{
		CenterRadius:    cfg.CenterNodeSize,
		GroupRadius:     cfg.GroupNodeSize,
		FontSize:        cfg.BaseFontSize,
		ShowCenterLabel: cfg.ShowCenterLabel,
		FixedScreenSize: cfg.FixedScreenSize,
	}
	var err error
	if st.FontColor, err = parse("fontColor", cfg.FontColor); err != nil {
		return st, err
	}
	if st.CenterColor, err = parse("centerColor", cfg.CenterColor); err != nil {
		return st, err
	}
	if st.GroupColor, err = parse("groupColor", cfg.GroupColor); err != nil {
		return st, err
	}
	if cfg.Shadow.Enabled {
		sc, err := parse("shadow.color", cfg.Shadow.Color)
		if err != nil {
			return st, err
		}
		st.Shadow = ShadowStyle{
			Enabled: true,
			Color:   sc,
			Blur:    cfg.Shadow.Blur,
			OffsetX: cfg.Shadow.OffsetX,
			OffsetY: cfg.Shadow.OffsetY,
		}
	}
	return st, nil
}

// NodeRenderer draws node discs, labels and hit areas. It holds no per-frame
// state; photos come from the shared image cache.
type NodeRenderer struct {
	style  Style
	fonts  *FontCache
	images *ImageCache
	logger logging.Logger
}

// NewNodeRenderer creates a renderer. images may be nil, in which case every
// disc uses its flat fill.
func NewNodeRenderer(style Style, fonts *FontCache, images *ImageCache, logger logging.Logger) *NodeRenderer {
	return &NodeRenderer{
		style:  style,
		fonts:  fonts,
		images: images,
		logger: logging.OrNop(logger).With(logging.Component("node_renderer")),
	}
}

// SetStyle replaces the style, e.g. after a configuration change.
func (r *NodeRenderer) SetStyle(st Style) { r.style = st }

// Style returns the current style.
func (r *NodeRenderer) Style() Style { return r.style }

// Radius is the disc radius of n in world units at the given zoom. With
// fixed screen size the radius shrinks as zoom grows so the apparent size
// is constant. Hit areas use the same value.
func (r *NodeRenderer) Radius(n *graph.Node, zoom float64) float64 {
	rad := r.style.GroupRadius
	if n.IsCenter {
		rad = r.style.CenterRadius
	}
	if r.style.FixedScreenSize {
		return rad / clampZoom(zoom)
	}
	return rad
}

// screenScale converts a zoom-1 pixel measure to screen pixels.
func (r *NodeRenderer) screenScale(zoom float64) float64 {
	if r.style.FixedScreenSize {
		return 1
	}
	return clampZoom(zoom)
}

// FontSize is the label font size in world units at the given zoom.
func (r *NodeRenderer) FontSize(zoom float64) float64 {
	if r.style.FixedScreenSize {
		return r.style.FontSize / clampZoom(zoom)
	}
	return r.style.FontSize
}

// DrawNode draws the disc and label of n.
func (r *NodeRenderer) DrawNode(s *Surface, n *graph.Node) {
	zoom := s.Zoom()
	sx, sy := s.ToScreen(n.X, n.Y)
	sr := r.Radius(n, zoom) * zoom

	r.drawFlat(s, n, sx, sy, sr)
	r.drawPhoto(s, n, sx, sy, sr)
	r.drawLabel(s, n, sx, sy, sr)
}

// drawFlat is the un-clipped pass: shadow then flat fill.
func (r *NodeRenderer) drawFlat(s *Surface, n *graph.Node, sx, sy, sr float64) {
	dc := s.Context()
	if sh := r.style.Shadow; sh.Enabled && sh.Color.A > 0 {
		scale := r.screenScale(s.Zoom())
		ox, oy := sx+sh.OffsetX*scale, sy+sh.OffsetY*scale
		blur := sh.Blur * scale
		rings := int(math.Ceil(blur / shadowRingStep))
		// stacked translucent rings fade from the disc edge outwards
		step := uint8(math.Max(1, float64(sh.Color.A)/float64(rings+1)))
		for i := rings; i >= 0; i-- {
			dc.SetColor(withAlpha(sh.Color, step))
			dc.DrawCircle(ox, oy, sr+float64(i)*shadowRingStep)
			dc.Fill()
		}
	}

	fill := r.style.GroupColor
	if n.IsCenter {
		fill = r.style.CenterColor
	}
	dc.SetColor(fill)
	dc.DrawCircle(sx, sy, sr)
	dc.Fill()
}

// drawPhoto clips to the disc and paints the loaded photo. It issues the
// load on first encounter and leaves the flat fill alone until then.
func (r *NodeRenderer) drawPhoto(s *Surface, n *graph.Node, sx, sy, sr float64) {
	if n.PhotoURL == "" || r.images == nil {
		return
	}
	if r.images.Request(n.PhotoURL) != Loaded {
		return
	}
	d := int(math.Ceil(2 * sr))
	img, ok := r.images.Scaled(n.PhotoURL, d, d)
	if !ok {
		return
	}

	dc := s.Context()
	defer func() {
		dc.ResetClip()
		if rec := recover(); rec != nil {
			r.logger.Debug("photo draw skipped", logging.NodeID(n.ID), logging.Any("panic", fmt.Sprint(rec)))
		}
	}()
	dc.DrawCircle(sx, sy, sr)
	dc.Clip()
	dc.DrawImageAnchored(img, int(math.Round(sx)), int(math.Round(sy)), 0.5, 0.5)
}

func (r *NodeRenderer) drawLabel(s *Surface, n *graph.Node, sx, sy, sr float64) {
	if n.IsCenter && !r.style.ShowCenterLabel {
		return
	}
	if r.fonts == nil {
		return
	}
	zoom := s.Zoom()
	size := r.FontSize(zoom) * zoom
	face, err := r.fonts.Face(n.IsCenter, size)
	if err != nil {
		r.logger.Warn("font face unavailable", logging.Error(err))
		return
	}

	dc := s.Context()
	dc.SetFontFace(face)
	dc.SetColor(r.style.FontColor)

	lines := []string{n.Label()}
	if !n.IsCenter {
		lines = dc.WordWrap(n.Label(), LabelWrapWidth*r.screenScale(zoom))
	}
	lineHeight := size * LineHeightFactor
	y := sy + sr + labelGap*r.screenScale(zoom)
	for i, line := range lines {
		dc.DrawStringAnchored(line, sx, y+float64(i)*lineHeight, 0.5, 1)
	}
}

// DrawHitArea paints an opaque disc of the drawn radius in c. Nothing else
// is drawn, so every visible disc pixel has a matching pick pixel.
func (r *NodeRenderer) DrawHitArea(s *Surface, n *graph.Node, c color.Color) {
	zoom := s.Zoom()
	sx, sy := s.ToScreen(n.X, n.Y)
	dc := s.Context()
	dc.SetColor(c)
	dc.DrawCircle(sx, sy, r.Radius(n, zoom)*zoom)
	dc.Fill()
}
