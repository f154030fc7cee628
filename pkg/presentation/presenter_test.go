package presentation

import (
	"fmt"
	"math"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/orbitgraph/pkg/config"
	"github.com/dd0wney/orbitgraph/pkg/graph"
	"github.com/dd0wney/orbitgraph/pkg/layout"
	"github.com/dd0wney/orbitgraph/pkg/metrics"
	"github.com/dd0wney/orbitgraph/pkg/scheduler"
)

func snapshotWith(t *testing.T, groups ...string) *graph.Snapshot {
	t.Helper()
	records := []graph.Record{{ID: "me", Name: "Me", IsCenter: true}}
	for _, id := range groups {
		records = append(records, graph.Record{ID: id, Name: "Group " + id})
	}
	s, err := graph.NewSnapshot(records)
	require.NoError(t, err)
	return s
}

func sixGroups(t *testing.T) *graph.Snapshot {
	return snapshotWith(t, "g1", "g2", "g3", "g4", "g5", "g6")
}

func newPresenter(t *testing.T, s *graph.Snapshot, cfg config.LayoutConfig, opts Options) *Presenter {
	t.Helper()
	p, err := New(s, cfg, opts)
	require.NoError(t, err)
	t.Cleanup(p.Close)
	return p
}

func runFrames(t *testing.T, p *Presenter, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		f, err := p.RequestFrame()
		require.NoError(t, err)
		require.NoError(t, p.Frame(f))
	}
}

func screenOf(p *Presenter, n *graph.Node) (int, int) {
	x, y := p.Surface().ToScreen(n.X, n.Y)
	return int(math.Round(x)), int(math.Round(y))
}

type metricWriter interface{ Write(*dto.Metric) error }

func TestSolarOrbitEndToEnd(t *testing.T) {
	cfg := config.Default()
	p := newPresenter(t, sixGroups(t), cfg, Options{})
	require.NoError(t, p.Start())
	runFrames(t, p, 100)

	center := p.Snapshot().Center()
	assert.Equal(t, 0.0, center.X)
	assert.Equal(t, 0.0, center.Y)

	groups := p.Snapshot().Groups()
	require.Len(t, groups, 6)
	for i := 0; i < len(groups); i++ {
		for j := i + 1; j < len(groups); j++ {
			d := math.Hypot(groups[i].X-groups[j].X, groups[i].Y-groups[j].Y)
			assert.GreaterOrEqual(t, d, 2*cfg.GroupNodeSize, "%s and %s overlap", groups[i].ID, groups[j].ID)
		}
		dc := math.Hypot(groups[i].X, groups[i].Y)
		assert.GreaterOrEqual(t, dc, cfg.CenterNodeSize+cfg.GroupNodeSize, "%s overlaps the center", groups[i].ID)
	}
	assert.Equal(t, uint64(100), p.Orbital().Frame())
	assert.Len(t, p.Links(), 6)
}

func TestHoverPausesAndResumes(t *testing.T) {
	var hovered []*graph.Node
	p := newPresenter(t, sixGroups(t), config.Default(), Options{
		OnNodeHover: func(n *graph.Node) { hovered = append(hovered, n) },
	})
	require.NoError(t, p.Start())
	runFrames(t, p, 3)

	g := p.Snapshot().Groups()[2]
	x, y := screenOf(p, g)
	got := p.PointerMove(x, y)
	require.NotNil(t, got)
	assert.Equal(t, g.ID, got.ID)
	assert.Equal(t, scheduler.Paused, p.Scheduler().State())

	frame, angle := p.Orbital().Frame(), g.OrbitAngle
	runFrames(t, p, 10)
	assert.Equal(t, frame, p.Orbital().Frame())
	assert.Equal(t, angle, g.OrbitAngle)

	// moving within the same disc does not re-fire
	p.PointerMove(x+1, y)
	require.Len(t, hovered, 1)

	p.PointerMove(1, 1)
	require.Len(t, hovered, 2)
	assert.Nil(t, hovered[1])
	assert.Equal(t, scheduler.Running, p.Scheduler().State())
	runFrames(t, p, 1)
	assert.Equal(t, frame+1, p.Orbital().Frame())
}

func TestPointerLeave(t *testing.T) {
	p := newPresenter(t, sixGroups(t), config.Default(), Options{})
	require.NoError(t, p.Start())
	p.Redraw()

	x, y := screenOf(p, p.Snapshot().Center())
	require.NotNil(t, p.PointerMove(x, y))
	assert.Same(t, p.Snapshot().Center(), p.Hovered())
	p.PointerLeave()
	assert.Nil(t, p.Hovered())
	assert.Equal(t, scheduler.Running, p.Scheduler().State())
}

func TestClickGatedByConfig(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
	}{
		{"enabled", true},
		{"disabled", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.NodeClickEnabled = tt.enabled
			var clicked *graph.Node
			p := newPresenter(t, sixGroups(t), cfg, Options{
				OnNodeClick: func(n *graph.Node) { clicked = n },
			})
			p.Redraw()

			g := p.Snapshot().Groups()[0]
			x, y := screenOf(p, g)
			got := p.Click(x, y)
			if tt.enabled {
				require.NotNil(t, got)
				assert.Equal(t, g.ID, got.ID)
				assert.Same(t, got, clicked)
			} else {
				assert.Nil(t, got)
				assert.Nil(t, clicked)
			}
			assert.Nil(t, p.Click(0, 0))
		})
	}
}

func TestStaticModeDoesNotAnimate(t *testing.T) {
	cfg := config.Default()
	cfg.AnimationMode = config.Static
	p := newPresenter(t, sixGroups(t), cfg, Options{})
	require.NoError(t, p.Start())

	assert.False(t, p.Animating())
	_, err := p.RequestFrame()
	assert.ErrorIs(t, err, scheduler.ErrNotStarted)
	for _, g := range p.Snapshot().Groups() {
		assert.True(t, g.Pinned())
	}

	cfg.AnimationMode = config.Orbit
	require.NoError(t, p.ApplyConfig(cfg))
	assert.True(t, p.Animating())
	runFrames(t, p, 2)

	f, err := p.RequestFrame()
	require.NoError(t, err)
	cfg.AnimationMode = config.Static
	require.NoError(t, p.ApplyConfig(cfg))
	assert.False(t, p.Animating())
	assert.ErrorIs(t, p.Frame(f), scheduler.ErrStaleFrame)

	cfg.AnimationMode = config.Alive
	require.NoError(t, p.ApplyConfig(cfg))
	assert.True(t, p.Animating())
	runFrames(t, p, 5)
	for i, g := range p.Snapshot().Groups() {
		assert.LessOrEqual(t, math.Abs(g.X-g.StaticX), layout.WobbleDistance+1e-9, "group %d", i)
		assert.LessOrEqual(t, math.Abs(g.Y-g.StaticY), layout.WobbleDistance+1e-9, "group %d", i)
	}
}

func TestReplaceSnapshotCarriesAnglesAndRejectsStaleFrames(t *testing.T) {
	p := newPresenter(t, snapshotWith(t, "a", "b", "c"), config.Default(), Options{})
	require.NoError(t, p.Start())
	runFrames(t, p, 10)

	oldB, ok := p.Snapshot().Lookup("b")
	require.True(t, ok)
	angle := oldB.OrbitAngle

	pending, err := p.RequestFrame()
	require.NoError(t, err)

	next := snapshotWith(t, "b", "c", "d")
	require.NoError(t, p.ReplaceSnapshot(next))
	assert.ErrorIs(t, p.Frame(pending), scheduler.ErrStaleFrame)

	newB, ok := next.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, angle, newB.OrbitAngle)
	d, ok := next.Lookup("d")
	require.True(t, ok)
	assert.True(t, d.AngleSet)
	assert.Equal(t, layout.AngleFor(2), d.OrbitAngle)

	assert.True(t, p.Animating())
	runFrames(t, p, 1)
	assert.ErrorIs(t, p.ReplaceSnapshot(nil), ErrNoSnapshot)
}

func TestResizeKeepsAngles(t *testing.T) {
	p := newPresenter(t, sixGroups(t), config.Default(), Options{})
	require.NoError(t, p.Start())
	runFrames(t, p, 5)

	g := p.Snapshot().Groups()[5]
	angle, rx := g.OrbitAngle, g.RadiusX
	p.Resize(400, 300)
	assert.Equal(t, angle, g.OrbitAngle)
	assert.Less(t, g.RadiusX, rx)
	assert.Equal(t, uint64(5), p.Orbital().Frame())
	assert.Equal(t, 400, p.Surface().Width())
	runFrames(t, p, 1)
}

func TestMeshMode(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }

	cfg := config.Default()
	cfg.LayoutMode = config.Mesh
	reg := metrics.NewRegistry()
	p := newPresenter(t, sixGroups(t), cfg, Options{Clock: clock, Metrics: reg})

	host := p.Host()
	require.NotNil(t, host.Physics)
	assert.Equal(t, layout.DefaultPhysics(), *host.Physics)
	require.NotNil(t, host.FitToContent)
	assert.Len(t, p.Nodes(), 6)
	assert.Len(t, p.Links(), 12)
	for _, n := range p.Nodes() {
		assert.False(t, n.IsCenter)
		assert.False(t, n.Pinned())
	}

	require.NoError(t, p.Start())
	for i := 0; i < 40; i++ {
		now = now.Add(10 * time.Millisecond)
		runFrames(t, p, 1)
	}
	assert.False(t, p.Fitted(), "fit waits for the delay")
	for i := 0; i < 400; i++ {
		now = now.Add(10 * time.Millisecond)
		runFrames(t, p, 1)
	}
	assert.True(t, p.Fitted())
	assert.True(t, p.Simulation().Settled())

	var m dto.Metric
	require.NoError(t, reg.MeshSettleSeconds.Write(&m))
	assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())

	host.FitToContent()
	p.Redraw()
	w, h := float64(p.Surface().Width()), float64(p.Surface().Height())
	for _, n := range p.Nodes() {
		x, y := p.Surface().ToScreen(n.X, n.Y)
		assert.True(t, x >= 0 && x <= w && y >= 0 && y <= h, "node %s off screen at (%.1f, %.1f)", n.ID, x, y)
	}

	x, y := screenOf(p, p.Nodes()[0])
	assert.NotNil(t, p.PointerMove(x, y))
}

func TestSwitchLayoutMode(t *testing.T) {
	cfg := config.Default()
	p := newPresenter(t, sixGroups(t), cfg, Options{})
	require.NoError(t, p.Start())
	runFrames(t, p, 3)
	assert.Nil(t, p.Host().Physics)

	pending, err := p.RequestFrame()
	require.NoError(t, err)
	cfg.LayoutMode = config.Mesh
	require.NoError(t, p.ApplyConfig(cfg))
	assert.ErrorIs(t, p.Frame(pending), scheduler.ErrStaleFrame)
	assert.Nil(t, p.Orbital())
	require.NotNil(t, p.Simulation())
	runFrames(t, p, 3)

	cfg.LayoutMode = config.Solar
	require.NoError(t, p.ApplyConfig(cfg))
	require.NotNil(t, p.Orbital())
	assert.Len(t, p.Nodes(), 7)
	runFrames(t, p, 1)
}

func TestHostRendererLinkStyles(t *testing.T) {
	tests := []struct {
		style  config.LinkStyle
		dashes []float64
		draw   bool
	}{
		{config.LinkSolid, nil, true},
		{config.LinkDashed, []float64{5, 5}, true},
		{config.LinkDotted, []float64{1, 3}, true},
		{config.LinkNone, nil, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			cfg := config.Default()
			cfg.LinkStyle = tt.style
			p := newPresenter(t, sixGroups(t), cfg, Options{})
			host := p.Host()
			assert.Equal(t, tt.dashes, host.Dashes)
			assert.Equal(t, tt.draw, host.DrawLinks)
			assert.Nil(t, host.Physics)
			assert.NotNil(t, host.DrawNode)
			assert.NotNil(t, host.DrawHitArea)
			assert.NotNil(t, host.LinkColor(graph.Link{}))
		})
	}
}

func TestFrameMetrics(t *testing.T) {
	reg := metrics.NewRegistry()
	p := newPresenter(t, sixGroups(t), config.Default(), Options{Metrics: reg})
	require.NoError(t, p.Start())
	runFrames(t, p, 4)

	x, y := screenOf(p, p.Snapshot().Groups()[0])
	p.PointerMove(x, y)
	runFrames(t, p, 2)

	value := func(c metricWriter) float64 {
		var m dto.Metric
		require.NoError(t, c.Write(&m))
		if m.Counter != nil {
			return m.GetCounter().GetValue()
		}
		return m.GetGauge().GetValue()
	}
	assert.Equal(t, 4.0, value(reg.FramesTotal.WithLabelValues("orbit", "false")))
	assert.Equal(t, 2.0, value(reg.FramesTotal.WithLabelValues("orbit", "true")))
	assert.Equal(t, 1.0, value(reg.HitTestsTotal.WithLabelValues("hit")))
	assert.Equal(t, 6.0, value(reg.SnapshotNodes.WithLabelValues("group")))
	assert.Equal(t, 1.0, value(reg.RelayoutsTotal.WithLabelValues("initial")))
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(nil, config.Default(), Options{})
	assert.ErrorIs(t, err, ErrNoSnapshot)

	cfg := config.Default()
	cfg.GroupNodeSize = 0
	_, err = New(sixGroups(t), cfg, Options{})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestManyGroupsStayOnCanvas(t *testing.T) {
	ids := make([]string, 40)
	for i := range ids {
		ids[i] = fmt.Sprintf("g%02d", i)
	}
	p := newPresenter(t, snapshotWith(t, ids...), config.Default(), Options{})
	require.NoError(t, p.Start())
	runFrames(t, p, 20)
	for _, n := range p.Nodes() {
		x, y := p.Surface().ToScreen(n.X, n.Y)
		assert.True(t, x >= 0 && x <= 800 && y >= 0 && y <= 600, "%s at (%.1f, %.1f)", n.ID, x, y)
	}
}

func TestStatus(t *testing.T) {
	s := sixGroups(t)
	p := newPresenter(t, s, config.Default(), Options{})
	st := p.Status()
	assert.Equal(t, s.Generation, st.Generation)
	assert.Equal(t, 6, st.Groups)
	assert.Equal(t, scheduler.Idle, st.Scheduler)

	require.NoError(t, p.Start())
	assert.Equal(t, scheduler.Running, p.Status().Scheduler)
}
