package render

import (
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/dd0wney/orbitgraph/pkg/graph"
)

// keyStride scatters sequential indices across the 24-bit key space. It is
// odd, so multiplication modulo 1<<24 is a bijection and only index 0 maps
// to the zero key.
const keyStride = 0x9e3779

// ColorTracker assigns every node id a unique opaque RGB key for the pick
// buffer. Indices start at 1 so the cleared buffer never matches a node.
type ColorTracker struct {
	mu    sync.Mutex
	next  uint32
	byID  map[string]color.NRGBA
	byKey map[color.NRGBA]string
}

// NewColorTracker returns an empty tracker.
func NewColorTracker() *ColorTracker {
	return &ColorTracker{
		next:  1,
		byID:  make(map[string]color.NRGBA),
		byKey: make(map[color.NRGBA]string),
	}
}

// Color returns the key for id, assigning one on first use.
func (t *ColorTracker) Color(id string) color.NRGBA {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.byID[id]; ok {
		return c
	}
	v := (t.next * keyStride) & 0xffffff
	t.next++
	c := color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
	t.byID[id] = c
	t.byKey[c] = id
	return c
}

// ID returns the node id owning key c.
func (t *ColorTracker) ID(c color.NRGBA) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id, ok := t.byKey[c]
	return id, ok
}

// Reset forgets every assignment.
func (t *ColorTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next = 1
	clear(t.byID)
	clear(t.byKey)
}

// edgeTolerance is how far outside a disc an antialiased edge pixel center
// may sit and still resolve to that disc.
const edgeTolerance = 1.0

type hitDisc struct {
	id     string
	x, y   float64
	radius float64
}

func (d hitDisc) contains(px, py, slack float64) bool {
	return math.Hypot(px-d.x, py-d.y) <= d.radius+slack
}

// PickBuffer is an off-screen surface holding one flat-colored hit-area disc
// per node. Lookup resolves a pixel back to a node id by exact key match.
// Where antialiased edges of overlapping discs blend two keys, the blend can
// equal a third node's key; such a match is accepted only if that node's disc
// covers the pixel, otherwise the topmost disc under the pixel wins.
type PickBuffer struct {
	surface *Surface
	tracker *ColorTracker
	discs   []hitDisc
}

// NewPickBuffer creates a pick buffer of the given size.
func NewPickBuffer(width, height int) *PickBuffer {
	return &PickBuffer{
		surface: NewSurface(width, height),
		tracker: NewColorTracker(),
	}
}

// Surface returns the off-screen target hit areas are drawn into.
func (p *PickBuffer) Surface() *Surface { return p.surface }

// Tracker returns the id to color mapping.
func (p *PickBuffer) Tracker() *ColorTracker { return p.tracker }

// Begin clears the buffer and adopts vp so hit areas line up with the
// visible frame.
func (p *PickBuffer) Begin(vp Viewport) {
	if p.surface.Width() != vp.Width || p.surface.Height() != vp.Height {
		p.surface.Resize(vp.Width, vp.Height)
	}
	p.surface.SetViewport(vp)
	dc := p.surface.Context()
	dc.SetColor(color.Transparent)
	dc.Clear()
	p.discs = p.discs[:0]
}

// Draw paints n's hit area with the renderer's sizing rules.
func (p *PickBuffer) Draw(r *NodeRenderer, n *graph.Node) {
	r.DrawHitArea(p.surface, n, p.tracker.Color(n.ID))
	zoom := p.surface.Zoom()
	sx, sy := p.surface.ToScreen(n.X, n.Y)
	p.discs = append(p.discs, hitDisc{id: n.ID, x: sx, y: sy, radius: r.Radius(n, zoom) * zoom})
}

// Lookup returns the id of the node under screen pixel (x, y).
func (p *PickBuffer) Lookup(x, y int) (string, bool) {
	img := p.surface.Image()
	if !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return "", false
	}
	c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	if c.A != 0xff {
		return "", false
	}
	px, py := float64(x)+0.5, float64(y)+0.5
	if id, ok := p.tracker.ID(c); ok && p.covers(id, px, py, edgeTolerance) {
		return id, true
	}
	for i := len(p.discs) - 1; i >= 0; i-- {
		if p.discs[i].contains(px, py, 0) {
			return p.discs[i].id, true
		}
	}
	return "", false
}

func (p *PickBuffer) covers(id string, px, py, slack float64) bool {
	for i := len(p.discs) - 1; i >= 0; i-- {
		if p.discs[i].id == id {
			return p.discs[i].contains(px, py, slack)
		}
	}
	return false
}
