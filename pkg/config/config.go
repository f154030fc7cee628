// Package config holds the per-render layout configuration and its loading
// and validation rules.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/orbitgraph/pkg/validation"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid layout config")

// AnimationMode selects how Solar nodes move.
type AnimationMode string

const (
	Orbit  AnimationMode = "orbit"
	Static AnimationMode = "static"
	Alive  AnimationMode = "alive"
)

// LayoutMode selects the layout engine.
type LayoutMode string

const (
	Solar LayoutMode = "solar"
	Mesh  LayoutMode = "mesh"
)

// LinkStyle selects the link dash pattern.
type LinkStyle string

const (
	LinkSolid  LinkStyle = "solid"
	LinkDashed LinkStyle = "dashed"
	LinkDotted LinkStyle = "dotted"
	LinkNone   LinkStyle = "none"
)

// BackgroundType selects what is painted behind the graph.
type BackgroundType string

const (
	BackgroundTransparent BackgroundType = "transparent"
	BackgroundColor       BackgroundType = "color"
	BackgroundImage       BackgroundType = "image"
)

// Shadow configures the drop shadow under flat-filled discs.
type Shadow struct {
	Enabled bool    `yaml:"enabled"`
	Color   string  `yaml:"color" validate:"omitempty,hexcolor"`
	Blur    float64 `yaml:"blur" validate:"gte=0,lte=64"`
	OffsetX float64 `yaml:"offsetX"`
	OffsetY float64 `yaml:"offsetY"`
}

// Background configures the surface background. Value is a hex color for
// BackgroundColor and an image reference for BackgroundImage.
type Background struct {
	Type  BackgroundType `yaml:"type" validate:"oneof=transparent color image"`
	Value string         `yaml:"value"`
}

// LayoutConfig is the value object re-applied on every frame.
type LayoutConfig struct {
	AnimationMode   AnimationMode `yaml:"animationMode" validate:"oneof=orbit static alive"`
	AnimationSpeed  float64       `yaml:"animationSpeed" validate:"gte=-100,lte=100"`
	LayoutMode      LayoutMode    `yaml:"layoutMode" validate:"oneof=solar mesh"`
	GroupNodeSize   float64       `yaml:"groupNodeSize" validate:"gt=0"`
	CenterNodeSize  float64       `yaml:"centerNodeSize" validate:"gt=0"`
	BaseFontSize    float64       `yaml:"baseFontSize" validate:"gt=0"`
	FontColor       string        `yaml:"fontColor" validate:"hexcolor"`
	ShowCenterLabel bool          `yaml:"showCenterLabel"`
	LinkStyle       LinkStyle     `yaml:"linkStyle" validate:"oneof=solid dashed dotted none"`
	LinkColor       string        `yaml:"linkColor" validate:"hexcolor"`
	CenterColor     string        `yaml:"centerColor" validate:"hexcolor"`
	GroupColor      string        `yaml:"groupColor" validate:"hexcolor"`
	Shadow          Shadow        `yaml:"shadow"`
	Background      Background    `yaml:"background"`
	// NodeClickEnabled gates the click callback; hover is always reported.
	NodeClickEnabled bool `yaml:"nodeClickEnabled"`
	// FixedScreenSize keeps discs and labels the same apparent size under zoom.
	FixedScreenSize bool `yaml:"fixedScreenSize"`
	Width           int  `yaml:"width" validate:"gte=0"`
	Height          int  `yaml:"height" validate:"gte=0"`
}

// Default returns the product defaults.
func Default() LayoutConfig {
	return LayoutConfig{
		AnimationMode:   Orbit,
		AnimationSpeed:  0,
		LayoutMode:      Solar,
		GroupNodeSize:   40,
		CenterNodeSize:  60,
		BaseFontSize:    12,
		FontColor:       "#323130",
		ShowCenterLabel: false,
		LinkStyle:       LinkDashed,
		LinkColor:       "#c8c6c4",
		CenterColor:     "#0078d4",
		GroupColor:      "#8a8886",
		Shadow: Shadow{
			Enabled: true,
			Color:   "#00000040",
			Blur:    6,
			OffsetX: 0,
			OffsetY: 2,
		},
		Background:       Background{Type: BackgroundTransparent},
		NodeClickEnabled: true,
		FixedScreenSize:  true,
		Width:            800,
		Height:           600,
	}
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (LayoutConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SpeedMultiplier maps AnimationSpeed in [-100, 100] to a rate multiplier:
// -100 stops, 0 is normal, 100 doubles.
func (c LayoutConfig) SpeedMultiplier() float64 {
	return 1 + c.AnimationSpeed/100
}

// Validate checks struct tags first, then cross-field rules.
func (c LayoutConfig) Validate() error {
	if err := validation.Struct(&c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cv := validation.NewConfigValidator("LayoutConfig")
	cv.RangeFloat("AnimationSpeed", c.AnimationSpeed, -100, 100).
		When(c.Shadow.Enabled, func(v *validation.ConfigValidator) {
			v.HexColor("Shadow.Color", c.Shadow.Color)
		}).
		When(c.Background.Type == BackgroundColor, func(v *validation.ConfigValidator) {
			v.HexColor("Background.Value", c.Background.Value)
		}).
		When(c.Background.Type == BackgroundImage, func(v *validation.ConfigValidator) {
			v.Required("Background.Value", c.Background.Value)
		})

	if err := cv.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// DashPattern returns the dash lengths for the link style. A nil slice means
// a solid line; ok is false when links should not be drawn at all.
func (c LayoutConfig) DashPattern() (dashes []float64, ok bool) {
	switch c.LinkStyle {
	case LinkNone:
		return nil, false
	case LinkDashed:
		return []float64{5, 5}, true
	case LinkDotted:
		return []float64{1, 3}, true
	default:
		return nil, true
	}
}

// NodeRadius is the undecorated disc radius for a node role.
func (c LayoutConfig) NodeRadius(center bool) float64 {
	if center {
		return c.CenterNodeSize
	}
	return c.GroupNodeSize
}
