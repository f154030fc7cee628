package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/orbitgraph/pkg/config"
	"github.com/dd0wney/orbitgraph/pkg/graph"
	"github.com/dd0wney/orbitgraph/pkg/logging"
	"github.com/dd0wney/orbitgraph/pkg/metrics"
	"github.com/dd0wney/orbitgraph/pkg/presentation"
	"github.com/dd0wney/orbitgraph/pkg/render"
)

// frameStep is the simulated time between headless frames.
const frameStep = time.Second / 60

// headless drives a presenter without a display, advancing a synthetic
// clock one frame step per frame.
type headless struct {
	p   *presentation.Presenter
	now time.Time
}

func newHeadless(s *graph.Snapshot, cfg config.LayoutConfig, images *render.ImageCache, reg *metrics.Registry, logger logging.Logger) (*headless, error) {
	h := &headless{now: time.Unix(0, 0)}
	p, err := presentation.New(s, cfg, presentation.Options{
		Logger:  logger,
		Metrics: reg,
		Images:  images,
		Clock:   func() time.Time { return h.now },
		OnNodeHover: func(n *graph.Node) {
			if n != nil {
				logger.Info("hover", logging.NodeID(n.ID))
			}
		},
	})
	if err != nil {
		return nil, err
	}
	h.p = p
	return h, p.Start()
}

// step runs one frame, or redraws when nothing animates.
func (h *headless) step() error {
	h.now = h.now.Add(frameStep)
	if !h.p.Animating() {
		h.p.Redraw()
		return nil
	}
	f, err := h.p.RequestFrame()
	if err != nil {
		return err
	}
	return h.p.Frame(f)
}

// preload loads every photo and the background image synchronously so the
// first written frame already shows them. Failures fall back to flat fills.
func preload(images *render.ImageCache, s *graph.Snapshot, cfg config.LayoutConfig, logger logging.Logger) {
	timer := logging.StartTimer(logger, "photo preload")
	loaded := 0
	for _, n := range s.Nodes() {
		if n.PhotoURL == "" {
			continue
		}
		if err := images.LoadSync(n.PhotoURL); err == nil {
			loaded++
		}
	}
	if cfg.Background.Type == config.BackgroundImage {
		_ = images.LoadSync(cfg.Background.Value)
	}
	timer.End()
	logger.Debug("photos preloaded", logging.Count(loaded))
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "render frames to PNG files",
		Flags: flatten(inputFlags(), []cli.Flag{
			&cli.IntFlag{
				Name:    "frames",
				Aliases: []string{"n"},
				Usage:   "number of frames to run",
				Value:   100,
			},
			&cli.IntFlag{
				Name:  "every",
				Usage: "write every `K`th frame; 0 writes only the last",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "output `DIR`",
				Value:   ".",
			},
			&cli.StringFlag{
				Name:  "hover",
				Usage: "probe the pointer at screen `X,Y` after the last frame",
			},
			&cli.StringFlag{
				Name:  "click",
				Usage: "click at screen `X,Y` after the last frame",
			},
		}),
		Action: runRender,
	}
}

func runRender(c *cli.Context) error {
	logger := newLogger(c, nil)
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	s, err := loadSnapshot(c)
	if err != nil {
		return err
	}
	out := c.String("out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", out, err)
	}

	reg := metrics.NewRegistry()
	images := render.NewImageCache(nil, render.ImageCacheOptions{Metrics: reg, Logger: logger})
	defer images.Close()
	preload(images, s, cfg, logger)

	h, err := newHeadless(s, cfg, images, reg, logger)
	if err != nil {
		return err
	}
	defer h.p.Close()

	frames, every := max(c.Int("frames"), 1), c.Int("every")
	written := 0
	for i := 1; i <= frames; i++ {
		if err := h.step(); err != nil {
			return err
		}
		if i == frames || (every > 0 && i%every == 0) {
			path := filepath.Join(out, fmt.Sprintf("frame-%04d.png", i))
			if err := h.p.Surface().SavePNG(path); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			written++
		}
	}

	if v := c.String("hover"); v != "" {
		x, y, err := parsePoint(v)
		if err != nil {
			return err
		}
		n := h.p.PointerMove(x, y)
		fmt.Fprintln(c.App.Writer, "hover:", describe(n))
	}
	if v := c.String("click"); v != "" {
		x, y, err := parsePoint(v)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, "click:", describe(h.p.Click(x, y)))
	}
	logger.Info("render complete", logging.Count(written), logging.Path(out))
	return nil
}

func describe(n *graph.Node) string {
	if n == nil {
		return "none"
	}
	if n.Description == "" {
		return fmt.Sprintf("%s (%s)", n.Label(), n.ID)
	}
	return fmt.Sprintf("%s (%s): %s", n.Label(), n.ID, n.Description)
}

type nodePosition struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name,omitempty"`
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Center bool    `yaml:"center,omitempty"`
	Pinned bool    `yaml:"pinned,omitempty"`
}

type linkPair struct {
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

type layoutDump struct {
	Generation string         `yaml:"generation"`
	Layout     string         `yaml:"layout"`
	Animation  string         `yaml:"animation"`
	Frames     int            `yaml:"frames"`
	Nodes      []nodePosition `yaml:"nodes"`
	Links      []linkPair     `yaml:"links"`
}

func dumpLayout(p *presentation.Presenter, frames int) layoutDump {
	cfg := p.Config()
	d := layoutDump{
		Generation: p.Snapshot().Generation,
		Layout:     string(cfg.LayoutMode),
		Animation:  string(cfg.AnimationMode),
		Frames:     frames,
	}
	for _, n := range p.Nodes() {
		d.Nodes = append(d.Nodes, nodePosition{
			ID:     n.ID,
			Name:   n.Name,
			X:      n.X,
			Y:      n.Y,
			Center: n.IsCenter,
			Pinned: n.Pinned(),
		})
	}
	for _, l := range p.Links() {
		d.Links = append(d.Links, linkPair{Source: l.Source, Target: l.Target})
	}
	return d
}

func layoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "layout",
		Usage: "print node positions as YAML after N frames",
		Flags: flatten(inputFlags(), []cli.Flag{
			&cli.IntFlag{
				Name:    "frames",
				Aliases: []string{"n"},
				Usage:   "number of frames to run",
				Value:   1,
			},
		}),
		Action: func(c *cli.Context) error {
			logger := newLogger(c, nil)
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			s, err := loadSnapshot(c)
			if err != nil {
				return err
			}
			h, err := newHeadless(s, cfg, nil, nil, logger)
			if err != nil {
				return err
			}
			defer h.p.Close()

			frames := max(c.Int("frames"), 0)
			for i := 0; i < frames; i++ {
				if err := h.step(); err != nil {
					return err
				}
			}

			enc := yaml.NewEncoder(c.App.Writer)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(dumpLayout(h.p, frames))
		},
	}
}
