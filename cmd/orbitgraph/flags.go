package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dd0wney/orbitgraph/pkg/config"
	"github.com/dd0wney/orbitgraph/pkg/graph"
	"github.com/dd0wney/orbitgraph/pkg/logging"
)

const (
	flagSnapshot    = "snapshot"
	flagConfig      = "config"
	flagMaxGroups   = "max-groups"
	flagFilter      = "filter"
	flagMode        = "mode"
	flagLayout      = "layout"
	flagSpeed       = "speed"
	flagWidth       = "width"
	flagHeight      = "height"
	flagLinkStyle   = "link-style"
	flagCenterLabel = "center-label"
	flagBackground  = "background"
	flagLogLevel    = "log-level"
)

func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     flagSnapshot,
			Aliases:  []string{"s"},
			Usage:    "directory export `FILE` (yaml or json)",
			EnvVars:  []string{"ORBITGRAPH_SNAPSHOT"},
			Required: true,
		},
		&cli.StringFlag{
			Name:    flagConfig,
			Aliases: []string{"c"},
			Usage:   "layout config `FILE` applied over the defaults",
			EnvVars: []string{"ORBITGRAPH_CONFIG"},
		},
		&cli.IntFlag{
			Name:  flagMaxGroups,
			Usage: "keep at most `N` groups, 0 for all",
		},
		&cli.StringFlag{
			Name:  flagFilter,
			Usage: "keep groups whose name contains `TEXT`",
		},
		&cli.StringFlag{
			Name:    flagMode,
			Aliases: []string{"m"},
			Usage:   "animation mode: orbit, static or alive",
		},
		&cli.StringFlag{
			Name:    flagLayout,
			Aliases: []string{"l"},
			Usage:   "layout mode: solar or mesh",
		},
		&cli.Float64Flag{
			Name:  flagSpeed,
			Usage: "animation speed percent in [-100, 100]",
		},
		&cli.IntFlag{Name: flagWidth, Usage: "container width in pixels"},
		&cli.IntFlag{Name: flagHeight, Usage: "container height in pixels"},
		&cli.StringFlag{
			Name:  flagLinkStyle,
			Usage: "link style: solid, dashed, dotted or none",
		},
		&cli.BoolFlag{
			Name:  flagCenterLabel,
			Usage: "draw the center node label",
		},
		&cli.StringFlag{
			Name:  flagBackground,
			Usage: "background: transparent, a #hex color or image:`REF`",
		},
		&cli.StringFlag{
			Name:    flagLogLevel,
			Usage:   "log level: debug, info, warn or error",
			EnvVars: []string{"ORBITGRAPH_LOG_LEVEL"},
			Value:   "info",
		},
	}
}

func flatten(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// loadConfig reads the optional config file and applies explicit flags.
func loadConfig(c *cli.Context) (config.LayoutConfig, error) {
	cfg := config.Default()
	if path := c.String(flagConfig); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if c.IsSet(flagMode) {
		cfg.AnimationMode = config.AnimationMode(c.String(flagMode))
	}
	if c.IsSet(flagLayout) {
		cfg.LayoutMode = config.LayoutMode(c.String(flagLayout))
	}
	if c.IsSet(flagSpeed) {
		cfg.AnimationSpeed = c.Float64(flagSpeed)
	}
	if c.IsSet(flagWidth) {
		cfg.Width = c.Int(flagWidth)
	}
	if c.IsSet(flagHeight) {
		cfg.Height = c.Int(flagHeight)
	}
	if c.IsSet(flagLinkStyle) {
		cfg.LinkStyle = config.LinkStyle(c.String(flagLinkStyle))
	}
	if c.IsSet(flagCenterLabel) {
		cfg.ShowCenterLabel = c.Bool(flagCenterLabel)
	}
	if c.IsSet(flagBackground) {
		cfg.Background = parseBackground(c.String(flagBackground))
	}
	return cfg, cfg.Validate()
}

func parseBackground(v string) config.Background {
	switch {
	case v == "" || v == string(config.BackgroundTransparent):
		return config.Background{Type: config.BackgroundTransparent}
	case strings.HasPrefix(v, "#"):
		return config.Background{Type: config.BackgroundColor, Value: v}
	default:
		return config.Background{Type: config.BackgroundImage, Value: strings.TrimPrefix(v, "image:")}
	}
}

func loadSnapshot(c *cli.Context) (*graph.Snapshot, error) {
	export, err := graph.LoadFile(c.String(flagSnapshot))
	if err != nil {
		return nil, err
	}
	return graph.BuildSnapshot(export, graph.Filter{
		MaxGroups:    c.Int(flagMaxGroups),
		NameContains: c.String(flagFilter),
	})
}

func newLogger(c *cli.Context, w io.Writer) logging.Logger {
	if w == nil {
		w = os.Stderr
	}
	return logging.NewJSONLogger(w, logging.ParseLevel(c.String(flagLogLevel)))
}

// parsePoint parses "x,y" screen coordinates.
func parsePoint(s string) (x, y int, err error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("point %q: want x,y", s)
	}
	if x, err = strconv.Atoi(strings.TrimSpace(xs)); err != nil {
		return 0, 0, fmt.Errorf("point %q: %w", s, err)
	}
	if y, err = strconv.Atoi(strings.TrimSpace(ys)); err != nil {
		return 0, 0, fmt.Errorf("point %q: %w", s, err)
	}
	return x, y, nil
}
