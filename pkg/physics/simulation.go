// Package physics is a small force simulation with many-body charge, link
// springs and a centering pull, cooled by an alpha schedule. It is the host
// primitive behind the Mesh layout.
package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/dd0wney/orbitgraph/pkg/graph"
	"github.com/dd0wney/orbitgraph/pkg/layout"
	"github.com/dd0wney/orbitgraph/pkg/logging"
)

// Config holds the simulation parameters.
type Config struct {
	Charge         float64
	LinkDistance   float64
	LinkStrength   float64
	CenterStrength float64
	VelocityDecay  float64
	AlphaDecay     float64
	AlphaMin       float64
	DistanceMin    float64
}

// FromContract builds a config from the mesh physics contract plus the
// standard cooling schedule (about 300 ticks from alpha 1 to AlphaMin).
func FromContract(p layout.PhysicsContract) Config {
	const alphaMin = 0.001
	return Config{
		Charge:         p.Charge,
		LinkDistance:   p.LinkDistance,
		LinkStrength:   p.LinkStrength,
		CenterStrength: p.CenterStrength,
		VelocityDecay:  0.4,
		AlphaDecay:     1 - math.Pow(alphaMin, 1.0/300),
		AlphaMin:       alphaMin,
		DistanceMin:    1,
	}
}

type spring struct {
	source, target *graph.Node
	bias           float64
}

// Simulation moves nodes in place. It is driven one Tick per frame by the
// host loop and is not safe for concurrent use.
type Simulation struct {
	nodes   []*graph.Node
	springs []spring
	cfg     Config
	alpha   float64
	ticks   int
	logger  logging.Logger
}

// New creates a simulation over nodes and links. Links naming nodes outside
// the set are rejected. Nodes sitting at the origin without a pin are seeded
// on a phyllotaxis spiral so no two start coincident.
func New(nodes []*graph.Node, links []graph.Link, cfg Config, logger logging.Logger) (*Simulation, error) {
	byID := make(map[string]*graph.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	degree := make(map[string]int, len(nodes))
	for _, l := range links {
		degree[l.Source]++
		degree[l.Target]++
	}

	springs := make([]spring, 0, len(links))
	for _, l := range links {
		src, ok := byID[l.Source]
		if !ok {
			return nil, &graph.GraphError{Op: "simulate", NodeID: l.Source, Cause: graph.ErrUnknownNode}
		}
		tgt, ok := byID[l.Target]
		if !ok {
			return nil, &graph.GraphError{Op: "simulate", NodeID: l.Target, Cause: graph.ErrUnknownNode}
		}
		ds, dt := float64(degree[l.Source]), float64(degree[l.Target])
		springs = append(springs, spring{source: src, target: tgt, bias: ds / (ds + dt)})
	}

	for i, n := range nodes {
		if n.X == 0 && n.Y == 0 && !n.Pinned() {
			r := 10 * math.Sqrt(0.5+float64(i))
			a := layout.AngleFor(i)
			n.X, n.Y = r*math.Cos(a), r*math.Sin(a)
		}
	}

	return &Simulation{
		nodes:   nodes,
		springs: springs,
		cfg:     cfg,
		alpha:   1,
		logger:  logging.OrNop(logger).With(logging.Component("physics")),
	}, nil
}

func position(n *graph.Node) r2.Vec { return r2.Vec{X: n.X, Y: n.Y} }
func velocity(n *graph.Node) r2.Vec { return r2.Vec{X: n.VX, Y: n.VY} }

func addVelocity(n *graph.Node, dv r2.Vec) {
	n.VX += dv.X
	n.VY += dv.Y
}

// jiggle separates coincident points deterministically.
func jiggle(i int) float64 {
	return (float64(i%7) + 1) * 1e-6
}

// Tick advances the simulation one step. It returns false once alpha has
// cooled below AlphaMin; further ticks are no-ops until Reheat.
func (s *Simulation) Tick() bool {
	if s.Settled() {
		return false
	}
	s.alpha += (0 - s.alpha) * s.cfg.AlphaDecay
	s.applyLinks()
	s.applyCharge()
	s.applyCenter()
	s.integrate()
	s.ticks++

	if s.Settled() {
		s.logger.Debug("simulation settled", logging.Int("ticks", s.ticks), logging.Count(len(s.nodes)))
	}
	return true
}

func (s *Simulation) applyLinks() {
	for i, sp := range s.springs {
		d := r2.Sub(r2.Add(position(sp.target), velocity(sp.target)), r2.Add(position(sp.source), velocity(sp.source)))
		if d.X == 0 {
			d.X = jiggle(i)
		}
		if d.Y == 0 {
			d.Y = jiggle(i + 1)
		}
		l := r2.Norm(d)
		k := (l - s.cfg.LinkDistance) / l * s.alpha * s.cfg.LinkStrength
		d = r2.Scale(k, d)
		addVelocity(sp.target, r2.Scale(-sp.bias, d))
		addVelocity(sp.source, r2.Scale(1-sp.bias, d))
	}
}

func (s *Simulation) applyCharge() {
	minSq := s.cfg.DistanceMin * s.cfg.DistanceMin
	for i, n := range s.nodes {
		var dv r2.Vec
		p := position(n)
		for j, o := range s.nodes {
			if i == j {
				continue
			}
			d := r2.Sub(position(o), p)
			if d.X == 0 && d.Y == 0 {
				d.X, d.Y = jiggle(i), jiggle(j)
			}
			l := r2.Norm2(d)
			if l < minSq {
				l = math.Sqrt(minSq * l)
			}
			dv = r2.Add(dv, r2.Scale(s.cfg.Charge*s.alpha/l, d))
		}
		addVelocity(n, dv)
	}
}

func (s *Simulation) applyCenter() {
	k := s.cfg.CenterStrength * s.alpha
	for _, n := range s.nodes {
		addVelocity(n, r2.Scale(-k, position(n)))
	}
}

func (s *Simulation) integrate() {
	keep := 1 - s.cfg.VelocityDecay
	for _, n := range s.nodes {
		if n.FX != nil {
			n.X, n.VX = *n.FX, 0
		} else {
			n.VX *= keep
			n.X += n.VX
		}
		if n.FY != nil {
			n.Y, n.VY = *n.FY, 0
		} else {
			n.VY *= keep
			n.Y += n.VY
		}
	}
}

// Run ticks until settled or maxTicks, returning the ticks taken.
func (s *Simulation) Run(maxTicks int) int {
	n := 0
	for n < maxTicks && s.Tick() {
		n++
	}
	return n
}

// Settled reports whether alpha has cooled below AlphaMin.
func (s *Simulation) Settled() bool {
	return s.alpha < s.cfg.AlphaMin
}

// Alpha returns the current cooling parameter.
func (s *Simulation) Alpha() float64 { return s.alpha }

// Ticks returns the number of steps taken so far.
func (s *Simulation) Ticks() int { return s.ticks }

// Reheat restores alpha so the simulation runs again, e.g. after a drag.
func (s *Simulation) Reheat(alpha float64) {
	s.alpha = alpha
}

// Bounds returns the bounding box of node centers. ok is false when there
// are no nodes.
func (s *Simulation) Bounds() (box r2.Box, ok bool) {
	return NodeBounds(s.nodes)
}

// NodeBounds returns the bounding box of the given node centers.
func NodeBounds(nodes []*graph.Node) (box r2.Box, ok bool) {
	if len(nodes) == 0 {
		return r2.Box{}, false
	}
	box.Min = r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	box.Max = r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, n := range nodes {
		box.Min.X = math.Min(box.Min.X, n.X)
		box.Min.Y = math.Min(box.Min.Y, n.Y)
		box.Max.X = math.Max(box.Max.X, n.X)
		box.Max.Y = math.Max(box.Max.Y, n.Y)
	}
	return box, true
}
