// Package presentation composes the layout engines, the node renderer and
// the frame scheduler into one object a host drives: it picks the engine for
// the layout mode, runs update then draw then pick for every frame, and turns
// pointer probes into hover and click callbacks.
package presentation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/dd0wney/orbitgraph/pkg/config"
	"github.com/dd0wney/orbitgraph/pkg/graph"
	"github.com/dd0wney/orbitgraph/pkg/layout"
	"github.com/dd0wney/orbitgraph/pkg/logging"
	"github.com/dd0wney/orbitgraph/pkg/metrics"
	"github.com/dd0wney/orbitgraph/pkg/physics"
	"github.com/dd0wney/orbitgraph/pkg/render"
	"github.com/dd0wney/orbitgraph/pkg/scheduler"
)

// ErrNoSnapshot is returned when constructing or replacing with a nil snapshot.
var ErrNoSnapshot = errors.New("no snapshot")

// Options configures a Presenter. Every field is optional.
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Registry
	// Fonts is created on demand when nil.
	Fonts *render.FontCache
	// Images enables photo fills; nil draws flat discs only.
	Images *render.ImageCache
	// OnNodeHover receives the node under the pointer, or nil.
	OnNodeHover func(*graph.Node)
	// OnNodeClick is only called when NodeClickEnabled is set.
	OnNodeClick func(*graph.Node)
	// Clock drives the mesh fit delay. Defaults to time.Now.
	Clock func() time.Time
}

// Presenter owns one snapshot's layout and drawing state. It is driven from
// a single host loop and is not safe for concurrent use.
type Presenter struct {
	cfg      config.LayoutConfig
	snapshot *graph.Snapshot
	adapter  *graph.Adapter
	view     graph.View
	index    map[string]*graph.Node

	orbital    *layout.OrbitalEngine
	mesh       *layout.MeshEngine
	meshLayout layout.MeshLayout
	sim        *physics.Simulation
	meshBuilt  time.Time
	fitted     bool
	settled    bool

	renderer  *render.NodeRenderer
	images    *render.ImageCache
	linkColor render.LinkColorFunc
	surface   *render.Surface
	pick      *render.PickBuffer

	// mu guards the sched and snapshot pointers for Status readers on other
	// goroutines. The host loop is the only writer.
	mu      sync.RWMutex
	sched   *scheduler.Scheduler
	started bool
	hovered *graph.Node

	onHover func(*graph.Node)
	onClick func(*graph.Node)
	clock   func() time.Time
	logger  logging.Logger
	metrics *metrics.Registry
}

// New validates cfg and lays out s. The scheduler stays idle until Start.
func New(s *graph.Snapshot, cfg config.LayoutConfig, opts Options) (*Presenter, error) {
	if s == nil {
		return nil, ErrNoSnapshot
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	style, err := render.StyleFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	fonts := opts.Fonts
	if fonts == nil {
		if fonts, err = render.NewFontCache(); err != nil {
			return nil, err
		}
	}
	logger := logging.OrNop(opts.Logger)
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	w, h := max(cfg.Width, 1), max(cfg.Height, 1)
	p := &Presenter{
		cfg:       cfg,
		snapshot:  s,
		adapter:   graph.NewAdapter(logger),
		mesh:      layout.NewMeshEngine(logger),
		renderer:  render.NewNodeRenderer(style, fonts, opts.Images, logger),
		images:    opts.Images,
		linkColor: linkColorFunc(cfg),
		surface:   render.NewSurface(w, h),
		pick:      render.NewPickBuffer(w, h),
		onHover:   opts.OnNodeHover,
		onClick:   opts.OnNodeClick,
		clock:     clock,
		logger:    logger.With(logging.Component("presentation")),
		metrics:   opts.Metrics,
	}
	if err := p.relayout("initial"); err != nil {
		return nil, err
	}
	p.publishSnapshotSize()
	return p, nil
}

func (p *Presenter) publishSnapshotSize() {
	if p.metrics != nil {
		p.metrics.SetSnapshotSize(1, p.snapshot.Len()-1)
	}
}

// relayout rebuilds the engine for the current layout mode and replaces the
// scheduler. Frames requested before the call become stale.
func (p *Presenter) relayout(trigger string) error {
	if p.sched != nil {
		p.sched.Stop()
	}
	p.orbital, p.sim = nil, nil
	p.fitted, p.settled = false, false

	var step func()
	switch p.cfg.LayoutMode {
	case config.Mesh:
		p.view = p.adapter.Mesh(p.snapshot)
		p.meshLayout = p.mesh.Build(p.view)
		sim, err := physics.New(p.meshLayout.Nodes, p.meshLayout.Links, physics.FromContract(p.meshLayout.Physics), p.logger)
		if err != nil {
			return fmt.Errorf("building mesh simulation: %w", err)
		}
		p.sim = sim
		p.view = graph.View{Nodes: p.meshLayout.Nodes, Links: p.meshLayout.Links}
		p.meshBuilt = p.clock()
		step = p.stepMesh
	default:
		p.view = p.adapter.Solar(p.snapshot)
		p.orbital = layout.NewOrbitalEngine(p.snapshot, p.cfg, p.logger)
		vp := render.NewViewport(p.surface.Width(), p.surface.Height())
		vp.Zoom = p.surface.Zoom()
		p.surface.SetViewport(vp)
		step = p.stepOrbit
	}
	p.index = lo.KeyBy(p.view.Nodes, func(n *graph.Node) string { return n.ID })
	p.setScheduler(scheduler.New(step, scheduler.Options{Logger: p.logger, Metrics: p.metrics}))

	if p.metrics != nil {
		p.metrics.RecordRelayout(trigger)
	}
	p.logger.Info("relayout",
		logging.String("trigger", trigger),
		logging.Mode(string(p.cfg.LayoutMode)),
		logging.SnapshotID(p.snapshot.Generation),
		logging.Count(len(p.view.Nodes)),
	)
	return p.startIfWanted()
}

func (p *Presenter) setScheduler(s *scheduler.Scheduler) {
	p.mu.Lock()
	p.sched = s
	p.mu.Unlock()
}

// Status is a summary safe to read from any goroutine.
type Status struct {
	Generation string
	Groups     int
	Scheduler  scheduler.State
}

// Status returns the active snapshot and scheduler state.
func (p *Presenter) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Status{
		Generation: p.snapshot.Generation,
		Groups:     p.snapshot.Len() - 1,
		Scheduler:  p.sched.State(),
	}
}

func (p *Presenter) animated() bool {
	return p.cfg.LayoutMode == config.Mesh || p.cfg.AnimationMode != config.Static
}

func (p *Presenter) startIfWanted() error {
	if !p.started || !p.animated() {
		return nil
	}
	if err := p.sched.Start(); err != nil {
		return err
	}
	if p.hovered != nil {
		p.sched.Pause()
	}
	return nil
}

func (p *Presenter) stepOrbit() {
	p.orbital.Tick(false)
}

func (p *Presenter) stepMesh() {
	if p.sim.Tick() && p.sim.Settled() && !p.settled {
		p.settled = true
		if p.metrics != nil {
			p.metrics.RecordMeshSettle(p.clock().Sub(p.meshBuilt))
		}
	}
	if !p.fitted && p.clock().Sub(p.meshBuilt) >= p.meshLayout.Physics.FitDelay {
		p.fit()
	}
}

// fit zooms and pans so every mesh node is visible.
func (p *Presenter) fit() {
	box, ok := physics.NodeBounds(p.view.Nodes)
	if !ok {
		return
	}
	vp := p.surface.Viewport().Fit(box, p.meshLayout.Physics.FitPadding, p.cfg.GroupNodeSize)
	p.surface.SetViewport(vp)
	p.fitted = true
	p.logger.Debug("fit to content", logging.Float64("zoom", vp.Zoom))
}

// Start begins animation. Solar layouts in Static mode draw once and never
// start the scheduler; a later mode change starts it.
func (p *Presenter) Start() error {
	p.started = true
	return p.startIfWanted()
}

// RequestFrame returns the token for the next frame.
func (p *Presenter) RequestFrame() (scheduler.Frame, error) {
	return p.sched.Request()
}

// Frame runs the position update for token f, then draws the frame and the
// pick buffer. Stale tokens are rejected without touching any position.
func (p *Presenter) Frame(f scheduler.Frame) error {
	start := time.Now()
	res, err := p.sched.Run(f)
	if err != nil {
		return err
	}
	p.draw()
	if p.metrics != nil {
		p.metrics.RecordFrame(p.modeLabel(), !res.Updated, len(p.view.Nodes), time.Since(start))
	}
	return nil
}

// Redraw draws the current positions without advancing time.
func (p *Presenter) Redraw() {
	p.draw()
}

func (p *Presenter) modeLabel() string {
	if p.cfg.LayoutMode == config.Mesh {
		return string(config.Mesh)
	}
	return string(p.cfg.AnimationMode)
}

func (p *Presenter) lookup(id string) (*graph.Node, bool) {
	n, ok := p.index[id]
	return n, ok
}

func (p *Presenter) draw() {
	render.DrawBackground(p.surface, p.cfg.Background, p.images)
	if dashes, ok := p.cfg.DashPattern(); ok {
		render.DrawLinks(p.surface, p.view.Links, p.lookup, dashes, p.linkColor)
	}
	for _, n := range p.view.Nodes {
		p.renderer.DrawNode(p.surface, n)
	}

	p.pick.Begin(p.surface.Viewport())
	for _, n := range p.view.Nodes {
		p.pick.Draw(p.renderer, n)
	}
}

func (p *Presenter) hit(x, y int) *graph.Node {
	id, ok := p.pick.Lookup(x, y)
	var n *graph.Node
	if ok {
		n, ok = p.index[id]
	}
	if p.metrics != nil {
		p.metrics.RecordHitTest(ok)
	}
	return n
}

// PointerMove probes the pick buffer at screen pixel (x, y). Hover changes
// are reported through OnNodeHover; hovering a node pauses animation until
// the pointer leaves it.
func (p *Presenter) PointerMove(x, y int) *graph.Node {
	n := p.hit(x, y)
	p.setHovered(n)
	return n
}

// PointerLeave clears the hover state.
func (p *Presenter) PointerLeave() {
	p.setHovered(nil)
}

func (p *Presenter) setHovered(n *graph.Node) {
	if n == p.hovered {
		return
	}
	p.hovered = n
	if p.onHover != nil {
		p.onHover(n)
	}
	if n != nil {
		p.sched.Pause()
	} else {
		p.sched.Resume()
	}
}

// Click resolves screen pixel (x, y) and reports the node through
// OnNodeClick. It returns nil when nothing was delivered.
func (p *Presenter) Click(x, y int) *graph.Node {
	if !p.cfg.NodeClickEnabled {
		return nil
	}
	n := p.hit(x, y)
	if n == nil {
		return nil
	}
	p.logger.Debug("node clicked", logging.NodeID(n.ID))
	if p.onClick != nil {
		p.onClick(n)
	}
	return n
}

// Resize changes the container dimensions. Orbit radii are recomputed;
// angles, the frame counter and the scheduler are untouched.
func (p *Presenter) Resize(width, height int) {
	p.cfg.Width, p.cfg.Height = width, height
	p.surface.Resize(max(width, 1), max(height, 1))
	if p.orbital != nil {
		p.orbital.Resize(width, height)
	}
	if p.sim != nil && p.fitted {
		p.fit()
	}
	if p.metrics != nil {
		p.metrics.RecordRelayout("resize")
	}
}

// Zoom scales the view about the screen center.
func (p *Presenter) Zoom(factor float64) {
	p.surface.SetViewport(p.surface.Viewport().WithZoom(factor))
}

// ApplyConfig re-applies a configuration. Style changes take effect on the
// next draw; a layout mode or node size change rebuilds the layout.
func (p *Presenter) ApplyConfig(cfg config.LayoutConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	style, err := render.StyleFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}
	prev := p.cfg
	p.cfg = cfg
	p.renderer.SetStyle(style)
	p.linkColor = linkColorFunc(cfg)

	if cfg.Width != prev.Width || cfg.Height != prev.Height {
		p.Resize(cfg.Width, cfg.Height)
	}
	if cfg.LayoutMode != prev.LayoutMode {
		return p.relayout("layout_mode")
	}
	if p.orbital == nil {
		return nil
	}
	if cfg.GroupNodeSize != prev.GroupNodeSize || cfg.CenterNodeSize != prev.CenterNodeSize {
		return p.relayout("node_size")
	}
	p.orbital.SetSpeed(cfg.AnimationSpeed)
	if cfg.AnimationMode != prev.AnimationMode {
		return p.switchAnimation(cfg.AnimationMode)
	}
	return nil
}

// switchAnimation changes the orbital mode. Static stops the scheduler; a
// later animated mode gets a fresh one.
func (p *Presenter) switchAnimation(mode config.AnimationMode) error {
	p.orbital.SetMode(mode)
	if p.metrics != nil {
		p.metrics.RecordRelayout("animation_mode")
	}
	if mode == config.Static {
		p.sched.Stop()
		return nil
	}
	if p.sched.State() == scheduler.Stopped {
		p.setScheduler(scheduler.New(p.stepOrbit, scheduler.Options{Logger: p.logger, Metrics: p.metrics}))
	}
	return p.startIfWanted()
}

// ReplaceSnapshot swaps in next, carrying angles and positions of nodes
// present in both. Outstanding frame tokens become stale.
func (p *Presenter) ReplaceSnapshot(next *graph.Snapshot) error {
	if next == nil {
		return ErrNoSnapshot
	}
	carried := next.CarryLayoutState(p.snapshot)
	prev := p.snapshot.Generation
	p.mu.Lock()
	p.snapshot = next
	p.mu.Unlock()
	p.setHovered(nil)
	p.pick.Tracker().Reset()
	if err := p.relayout("snapshot"); err != nil {
		return err
	}
	p.publishSnapshotSize()
	p.logger.Info("snapshot replaced",
		logging.String("previous", prev),
		logging.SnapshotID(next.Generation),
		logging.Int("carried", carried),
	)
	return nil
}

// Close stops the scheduler. The image cache belongs to the caller.
func (p *Presenter) Close() {
	p.sched.Stop()
}

// Surface returns the visible drawing surface.
func (p *Presenter) Surface() *render.Surface { return p.surface }

// Snapshot returns the active snapshot.
func (p *Presenter) Snapshot() *graph.Snapshot { return p.snapshot }

// Nodes returns the drawn nodes for the current layout mode.
func (p *Presenter) Nodes() []*graph.Node { return p.view.Nodes }

// Links returns the drawn links for the current layout mode.
func (p *Presenter) Links() []graph.Link { return p.view.Links }

// Config returns the active configuration.
func (p *Presenter) Config() config.LayoutConfig { return p.cfg }

// Scheduler returns the active frame scheduler.
func (p *Presenter) Scheduler() *scheduler.Scheduler { return p.sched }

// Orbital returns the solar engine, or nil in Mesh mode.
func (p *Presenter) Orbital() *layout.OrbitalEngine { return p.orbital }

// Simulation returns the mesh simulation, or nil in Solar mode.
func (p *Presenter) Simulation() *physics.Simulation { return p.sim }

// Hovered returns the node under the pointer, or nil.
func (p *Presenter) Hovered() *graph.Node { return p.hovered }

// Animating reports whether the host should keep requesting frames.
func (p *Presenter) Animating() bool {
	s := p.sched.State()
	return s == scheduler.Running || s == scheduler.Paused
}

// Fitted reports whether the mesh view has been fitted to its content.
func (p *Presenter) Fitted() bool { return p.fitted }
