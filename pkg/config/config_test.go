package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
[zoom]
min = 0.5
max = 4.0

[node]
width = 200.0

[layout]
engine = "layered"
direction = "TB"
`))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Zoom.Min != 0.5 || cfg.Zoom.Max != 4.0 {
		t.Fatalf("zoom = %+v", cfg.Zoom)
	}
	if cfg.Zoom.Step != Default().Zoom.Step {
		t.Fatal("unset zoom step lost its default")
	}
	if cfg.Node.Width != 200 || cfg.Node.Height != Default().Node.Height {
		t.Fatalf("node = %+v", cfg.Node)
	}
	if cfg.Layout.Engine != "layered" || cfg.Layout.Direction != "TB" {
		t.Fatalf("layout = %+v", cfg.Layout)
	}
}

func TestParseRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{"InvertedZoom", "[zoom]\nmin = 2.0\nmax = 1.0\n", "zoom max"},
		{"ZeroZoomMin", "[zoom]\nmin = 0.0\n", "zoom min"},
		{"NegativeNodeWidth", "[node]\nwidth = -1.0\n", "node dimensions"},
		{"UnknownEngine", `[layout]` + "\n" + `engine = "magic"` + "\n", "layout engine"},
		{"UnknownDirection", `[layout]` + "\n" + `direction = "RL"` + "\n", "layout direction"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.toml))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err = %v, want mention of %q", err, tc.want)
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestConversions(t *testing.T) {
	cfg := Default()
	m := cfg.Metrics()
	if m.NodeWidth != cfg.Node.Width || m.PortSpacing != cfg.Node.PortSpacing {
		t.Fatalf("metrics = %+v", m)
	}
	z := cfg.ZoomLimits()
	if z.Step != cfg.Zoom.Step {
		t.Fatalf("zoom limits = %+v", z)
	}
	if got := cfg.LayoutOptions(); got.Direction != cfg.Layout.Direction || got.NodeWidth != cfg.Node.Width {
		t.Fatalf("layout options = %+v", got)
	}
}
