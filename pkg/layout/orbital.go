package layout

import (
	"math"

	"github.com/dd0wney/orbitgraph/pkg/config"
	"github.com/dd0wney/orbitgraph/pkg/graph"
	"github.com/dd0wney/orbitgraph/pkg/logging"
)

// OrbitalEngine places group nodes on concentric ellipses around a pinned
// center and advances them each frame according to the animation mode.
// It is not safe for concurrent use; the frame loop owns it.
type OrbitalEngine struct {
	snapshot     *graph.Snapshot
	groups       []*graph.Node
	mode         config.AnimationMode
	multiplier   float64
	width        float64
	height       float64
	centerRadius float64
	groupRadius  float64
	bounds       RadiusBounds
	frame        uint64
	logger       logging.Logger
}

// NewOrbitalEngine lays out the snapshot for the given configuration.
func NewOrbitalEngine(s *graph.Snapshot, cfg config.LayoutConfig, logger logging.Logger) *OrbitalEngine {
	e := &OrbitalEngine{
		snapshot:     s,
		groups:       s.Groups(),
		mode:         cfg.AnimationMode,
		multiplier:   cfg.SpeedMultiplier(),
		width:        float64(cfg.Width),
		height:       float64(cfg.Height),
		centerRadius: cfg.CenterNodeSize,
		groupRadius:  cfg.GroupNodeSize,
		logger: logging.OrNop(logger).With(
			logging.Component("orbital"),
			logging.SnapshotID(s.Generation),
		),
	}
	e.layout()
	return e
}

// layout assigns angles that are not yet set, radii and speeds, then places
// every node for the current mode.
func (e *OrbitalEngine) layout() {
	e.snapshot.Center().Pin(0, 0)

	n := len(e.groups)
	for i, g := range e.groups {
		if !g.AngleSet {
			g.OrbitAngle = AngleFor(i)
			g.AngleSet = true
		}
		g.OrbitSpeed = OrbitSpeed(i, n)
	}
	e.assignRadii()
	e.applyMode()

	e.logger.Info("orbital layout",
		logging.Count(n),
		logging.Mode(string(e.mode)),
		logging.Float64("max_rx", e.bounds.MaxX),
		logging.Float64("max_ry", e.bounds.MaxY),
	)
}

func (e *OrbitalEngine) assignRadii() {
	e.bounds = ComputeBounds(e.width, e.height, e.centerRadius, e.groupRadius)
	n := len(e.groups)
	for i, g := range e.groups {
		g.RadiusX, g.RadiusY = e.bounds.Radii(i, n)
		sx, sy := e.bounds.StaticRadii(i, n)
		g.StaticX = math.Cos(g.OrbitAngle) * sx
		g.StaticY = math.Sin(g.OrbitAngle) * sy
		g.StaticSet = true
	}
}

// applyMode writes positions for the current mode without advancing time.
func (e *OrbitalEngine) applyMode() {
	for i, g := range e.groups {
		switch e.mode {
		case config.Static:
			g.Pin(g.StaticX, g.StaticY)
		case config.Alive:
			g.Unpin()
			dx, dy := Wobble(e.frame, e.multiplier, i)
			g.X, g.Y = g.StaticX+dx, g.StaticY+dy
		default:
			g.Unpin()
			g.X = math.Cos(g.OrbitAngle) * g.RadiusX
			g.Y = math.Sin(g.OrbitAngle) * g.RadiusY
		}
	}
}

// Tick advances one frame. A paused tick changes nothing; the caller still
// draws the current positions. Static mode has no per-frame work.
func (e *OrbitalEngine) Tick(paused bool) {
	if paused || e.mode == config.Static {
		return
	}
	e.frame++
	if e.mode == config.Orbit {
		for _, g := range e.groups {
			g.OrbitAngle += g.OrbitSpeed * e.multiplier
		}
	}
	e.applyMode()
}

// Resize recomputes radii for new container dimensions. Angles and the
// frame counter are preserved.
func (e *OrbitalEngine) Resize(width, height int) {
	e.width, e.height = float64(width), float64(height)
	e.assignRadii()
	e.applyMode()
	e.logger.Debug("orbital resize", logging.Int("width", width), logging.Int("height", height))
}

// SetMode switches the motion regime. Resting positions are recomputed from
// the current orbit angles, so a node stops where it was, and positions are
// rewritten immediately.
func (e *OrbitalEngine) SetMode(mode config.AnimationMode) {
	if mode == e.mode {
		return
	}
	e.mode = mode
	e.assignRadii()
	e.applyMode()
	e.logger.Info("animation mode changed", logging.Mode(string(mode)))
}

// SetSpeed updates the speed multiplier from a percentage in [-100, 100].
func (e *OrbitalEngine) SetSpeed(percent float64) {
	e.multiplier = 1 + percent/100
}

// Mode returns the current animation mode.
func (e *OrbitalEngine) Mode() config.AnimationMode { return e.mode }

// Frame returns the number of unpaused frames advanced so far.
func (e *OrbitalEngine) Frame() uint64 { return e.frame }

// Bounds returns the radius bounds for the current dimensions.
func (e *OrbitalEngine) Bounds() RadiusBounds { return e.bounds }

// Multiplier returns the current speed multiplier.
func (e *OrbitalEngine) Multiplier() float64 { return e.multiplier }
