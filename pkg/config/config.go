// Package config loads editor settings from TOML.
//
// Every field has a working default, so an empty file (or no file at all)
// yields a usable configuration. Loaded values are validated against the
// invariants the editor relies on, zoom bounds in particular.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/flowcanvas/flowcanvas/pkg/geometry"
	"github.com/flowcanvas/flowcanvas/pkg/interaction"
	"github.com/flowcanvas/flowcanvas/pkg/layout"
)

// Config holds the editor's tunable settings.
type Config struct {
	Canvas CanvasConfig `toml:"canvas"`
	Node   NodeConfig   `toml:"node"`
	Zoom   ZoomConfig   `toml:"zoom"`
	Layout LayoutConfig `toml:"layout"`
}

// CanvasConfig sizes the drawing surface used for fit-to-view.
type CanvasConfig struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// NodeConfig sizes drawn nodes and their port stacks.
type NodeConfig struct {
	Width         float64 `toml:"width"`
	Height        float64 `toml:"height"`
	PortSpacing   float64 `toml:"port_spacing"`
	PortTopOffset float64 `toml:"port_top_offset"`
}

// ZoomConfig clamps the viewport zoom and sets the wheel step.
type ZoomConfig struct {
	Min  float64 `toml:"min"`
	Max  float64 `toml:"max"`
	Step float64 `toml:"step"`
}

// LayoutConfig shapes automatic layout runs.
type LayoutConfig struct {
	// Engine is "graphviz" or "layered".
	Engine    string  `toml:"engine"`
	Direction string  `toml:"direction"`
	GapX      float64 `toml:"gap_x"`
	GapY      float64 `toml:"gap_y"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	m := geometry.DefaultMetrics()
	z := interaction.DefaultZoom()
	l := layout.DefaultOptions()
	return Config{
		Canvas: CanvasConfig{Width: 1200, Height: 800},
		Node: NodeConfig{
			Width:         m.NodeWidth,
			Height:        m.NodeHeight,
			PortSpacing:   m.PortSpacing,
			PortTopOffset: m.PortTopOffset,
		},
		Zoom:   ZoomConfig{Min: z.Min, Max: z.Max, Step: z.Step},
		Layout: LayoutConfig{Engine: "graphviz", Direction: l.Direction, GapX: l.GapX, GapY: l.GapY},
	}
}

// Load reads TOML from path over the defaults. A missing file is not an
// error; it returns the defaults unchanged.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, err
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that would break the editor.
func (c Config) Validate() error {
	switch {
	case c.Canvas.Width <= 0 || c.Canvas.Height <= 0:
		return errors.New("config: canvas dimensions must be positive")
	case c.Node.Width <= 0 || c.Node.Height <= 0:
		return errors.New("config: node dimensions must be positive")
	case c.Node.PortSpacing <= 0:
		return errors.New("config: port spacing must be positive")
	case c.Zoom.Min <= 0:
		return errors.New("config: zoom min must be positive")
	case c.Zoom.Max < c.Zoom.Min:
		return errors.New("config: zoom max must be at least zoom min")
	case c.Zoom.Step <= 0:
		return errors.New("config: zoom step must be positive")
	case c.Layout.Engine != "graphviz" && c.Layout.Engine != "layered":
		return fmt.Errorf("config: unknown layout engine %q", c.Layout.Engine)
	case c.Layout.Direction != layout.DirectionLR && c.Layout.Direction != layout.DirectionTB:
		return fmt.Errorf("config: unknown layout direction %q", c.Layout.Direction)
	}
	return nil
}

// Metrics converts the node settings to drawing metrics.
func (c Config) Metrics() geometry.Metrics {
	return geometry.Metrics{
		NodeWidth:     c.Node.Width,
		NodeHeight:    c.Node.Height,
		PortSpacing:   c.Node.PortSpacing,
		PortTopOffset: c.Node.PortTopOffset,
	}
}

// ZoomLimits converts the zoom settings for the interaction controller.
func (c Config) ZoomLimits() interaction.Zoom {
	return interaction.Zoom{Min: c.Zoom.Min, Max: c.Zoom.Max, Step: c.Zoom.Step}
}

// LayoutEngine builds the configured layout engine.
func (c Config) LayoutEngine() layout.Engine {
	if c.Layout.Engine == "layered" {
		return layout.Layered{}
	}
	return layout.Graphviz{}
}

// LayoutOptions converts the layout settings to engine options.
func (c Config) LayoutOptions() layout.Options {
	o := layout.DefaultOptions()
	o.Direction = c.Layout.Direction
	o.NodeWidth = c.Node.Width
	o.NodeHeight = c.Node.Height
	o.GapX = c.Layout.GapX
	o.GapY = c.Layout.GapY
	return o
}
