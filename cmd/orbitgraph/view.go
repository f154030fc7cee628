package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/urfave/cli/v2"

	"github.com/dd0wney/orbitgraph/pkg/config"
	"github.com/dd0wney/orbitgraph/pkg/graph"
	"github.com/dd0wney/orbitgraph/pkg/health"
	"github.com/dd0wney/orbitgraph/pkg/logging"
	"github.com/dd0wney/orbitgraph/pkg/metrics"
	"github.com/dd0wney/orbitgraph/pkg/parallel"
	"github.com/dd0wney/orbitgraph/pkg/presentation"
	"github.com/dd0wney/orbitgraph/pkg/render"
	"github.com/dd0wney/orbitgraph/pkg/scheduler"
)

const (
	frameInterval = time.Second / 30
	speedStep     = 10
	zoomStep      = 1.25
	// statusRows is the tooltip line plus the help line.
	statusRows = 2
)

var (
	tooltipStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#0078d4"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)
)

type keyMap struct {
	Orbit   key.Binding
	Static  key.Binding
	Alive   key.Binding
	Layout  key.Binding
	ZoomIn  key.Binding
	ZoomOut key.Binding
	Slower  key.Binding
	Faster  key.Binding
	Label   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Orbit: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "orbit"),
	),
	Static: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "static"),
	),
	Alive: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "alive"),
	),
	Layout: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "solar/mesh"),
	),
	ZoomIn: key.NewBinding(
		key.WithKeys("+", "="),
		key.WithHelp("+", "zoom in"),
	),
	ZoomOut: key.NewBinding(
		key.WithKeys("-"),
		key.WithHelp("-", "zoom out"),
	),
	Slower: key.NewBinding(
		key.WithKeys("left"),
		key.WithHelp("←", "slower"),
	),
	Faster: key.NewBinding(
		key.WithKeys("right"),
		key.WithHelp("→", "faster"),
	),
	Label: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "center label"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Orbit, k.Static, k.Alive, k.Layout, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Orbit, k.Static, k.Alive, k.Layout},
		{k.ZoomIn, k.ZoomOut, k.Slower, k.Faster},
		{k.Label, k.Help, k.Quit},
	}
}

type frameMsg struct {
	frame scheduler.Frame
}

func frameCmd(f scheduler.Frame) tea.Cmd {
	return tea.Tick(frameInterval, func(time.Time) tea.Msg {
		return frameMsg{frame: f}
	})
}

type model struct {
	p        *presentation.Presenter
	cfg      config.LayoutConfig
	canvas   canvas
	keys     keyMap
	help     help.Model
	selected *graph.Node
	message  string
	err      error
	logger   logging.Logger
}

func newModel(p *presentation.Presenter, scale int, logger logging.Logger) *model {
	return &model{
		p:      p,
		cfg:    p.Config(),
		canvas: canvas{scale: scale, backdrop: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}},
		keys:   keys,
		help:   help.New(),
		logger: logger,
	}
}

func (m *model) Init() tea.Cmd {
	return m.kick()
}

// kick starts a fresh frame loop. Requesting a token supersedes any tick
// already in flight, so at most one loop is ever live.
func (m *model) kick() tea.Cmd {
	if !m.p.Animating() {
		m.p.Redraw()
		return nil
	}
	f, err := m.p.RequestFrame()
	if err != nil {
		m.p.Redraw()
		return nil
	}
	return frameCmd(f)
}

func (m *model) apply(cfg config.LayoutConfig) tea.Cmd {
	if err := m.p.ApplyConfig(cfg); err != nil {
		m.logger.Warn("config rejected", logging.Error(err))
		m.err = err
		return nil
	}
	m.cfg = cfg
	m.err = nil
	return m.kick()
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		m.canvas.cols = msg.Width
		m.canvas.rows = max(msg.Height-statusRows, 1)
		w, h := m.canvas.pixelSize()
		m.cfg.Width, m.cfg.Height = w, h
		m.p.Resize(w, h)
		return m, m.kick()

	case frameMsg:
		if err := m.p.Frame(msg.frame); err != nil {
			if !errors.Is(err, scheduler.ErrStaleFrame) {
				m.err = err
			}
			return m, nil
		}
		f, err := m.p.RequestFrame()
		if err != nil {
			return m, nil
		}
		return m, frameCmd(f)

	case tea.MouseMsg:
		x, y := m.canvas.cellToPixel(msg.X, msg.Y)
		switch {
		case msg.Action == tea.MouseActionMotion:
			m.p.PointerMove(x, y)
		case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
			if n := m.p.Click(x, y); n != nil {
				m.selected = n
				m.message = "selected " + n.Label()
			}
		}
		return m, nil

	case tea.KeyMsg:
		cfg := m.cfg
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Orbit):
			cfg.AnimationMode = config.Orbit
		case key.Matches(msg, m.keys.Static):
			cfg.AnimationMode = config.Static
		case key.Matches(msg, m.keys.Alive):
			cfg.AnimationMode = config.Alive
		case key.Matches(msg, m.keys.Layout):
			if cfg.LayoutMode == config.Mesh {
				cfg.LayoutMode = config.Solar
			} else {
				cfg.LayoutMode = config.Mesh
			}
		case key.Matches(msg, m.keys.Slower):
			cfg.AnimationSpeed = max(cfg.AnimationSpeed-speedStep, -100)
		case key.Matches(msg, m.keys.Faster):
			cfg.AnimationSpeed = min(cfg.AnimationSpeed+speedStep, 100)
		case key.Matches(msg, m.keys.Label):
			cfg.ShowCenterLabel = !cfg.ShowCenterLabel
		case key.Matches(msg, m.keys.ZoomIn):
			m.p.Zoom(zoomStep)
			return m, m.kick()
		case key.Matches(msg, m.keys.ZoomOut):
			m.p.Zoom(1 / zoomStep)
			return m, m.kick()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		default:
			return m, nil
		}
		return m, m.apply(cfg)
	}
	return m, nil
}

func (m *model) status() string {
	if m.err != nil {
		return errorStyle.Render(m.err.Error())
	}
	if n := m.p.Hovered(); n != nil {
		tip := n.Label()
		if n.Description != "" {
			tip += " - " + n.Description
		}
		return tooltipStyle.Render(tip)
	}
	line := fmt.Sprintf("%s / %s  speed %+.0f%%", m.cfg.LayoutMode, m.cfg.AnimationMode, m.cfg.AnimationSpeed)
	if m.message != "" {
		line += "  " + m.message
	}
	return statusStyle.Render(line)
}

func (m *model) View() string {
	if m.canvas.cols == 0 {
		return "loading..."
	}
	return m.canvas.Render(m.p.Surface().Image()) + "\n" + m.status() + "\n" + m.help.View(m.keys)
}

func viewCommand() *cli.Command {
	return &cli.Command{
		Name:  "view",
		Usage: "explore the layout interactively in the terminal",
		Flags: flatten(inputFlags(), []cli.Flag{
			&cli.IntFlag{
				Name:  "scale",
				Usage: "surface pixels per half cell",
				Value: 8,
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "photo loading workers",
				Value: 4,
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "serve Prometheus metrics on `ADDR`",
				EnvVars: []string{"ORBITGRAPH_METRICS_ADDR"},
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "write logs to `FILE`; discarded when empty",
			},
		}),
		Action: runView,
	}
}

// viewerHealth exposes scheduler, photo and snapshot checks.
func viewerHealth(p *presentation.Presenter, images *render.ImageCache) *health.HealthChecker {
	hc := health.NewHealthChecker()
	hc.RegisterCheck("scheduler", health.SchedulerCheck(func() string {
		return p.Status().Scheduler.String()
	}))
	hc.RegisterCheck("images", health.ImageCheck(images.Counts))
	snapshot := health.SnapshotCheck(func() (string, int) {
		st := p.Status()
		return st.Generation, st.Groups
	})
	hc.RegisterCheck("snapshot", snapshot)
	hc.RegisterReadinessCheck("snapshot", snapshot)
	return hc
}

func runView(c *cli.Context) error {
	var logOut io.Writer = io.Discard
	if path := c.String("log-file"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := newLogger(c, logOut)

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	s, err := loadSnapshot(c)
	if err != nil {
		return err
	}

	reg := metrics.DefaultRegistry()
	pool, err := parallel.NewWorkerPool(c.Int("workers"), logger)
	if err != nil {
		return err
	}
	defer pool.Close()
	images := render.NewImageCache(pool, render.ImageCacheOptions{Metrics: reg, Logger: logger})
	defer images.Close()

	p, err := presentation.New(s, cfg, presentation.Options{
		Logger:  logger,
		Metrics: reg,
		Images:  images,
		OnNodeClick: func(n *graph.Node) {
			logger.Info("node selected", logging.NodeID(n.ID))
		},
	})
	if err != nil {
		return err
	}
	defer p.Close()

	if addr := c.String("metrics-addr"); addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg.Handler())
		hc := viewerHealth(p, images)
		mux.Handle("/healthz", hc.HTTPHandler())
		mux.Handle("/readyz", hc.ReadinessHandler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", logging.Error(err))
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	if err := p.Start(); err != nil {
		return err
	}

	prog := tea.NewProgram(newModel(p, max(c.Int("scale"), 1), logger), tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("running viewer: %w", err)
	}
	return nil
}
