package geometry

import (
	"math"
	"testing"

	"github.com/flowcanvas/flowcanvas/pkg/graph"
)

const eps = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < eps }

func TestScreenWorldInverse(t *testing.T) {
	tests := []struct {
		name string
		v    graph.Viewport
		p    Point
	}{
		{"Identity", graph.Viewport{Zoom: 1}, Point{100, 50}},
		{"Panned", graph.Viewport{X: -30, Y: 80, Zoom: 1}, Point{12, -7}},
		{"Zoomed", graph.Viewport{X: 10, Y: 20, Zoom: 2.5}, Point{333, 41}},
		{"ZoomedOut", graph.Viewport{X: -500, Y: 0, Zoom: 0.25}, Point{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ScreenToWorld(tt.v, tt.p)
			back := WorldToScreen(tt.v, w)
			if !approx(back.X, tt.p.X) || !approx(back.Y, tt.p.Y) {
				t.Errorf("round trip = %+v, want %+v", back, tt.p)
			}
		})
	}
}

func TestScreenToWorldFormula(t *testing.T) {
	v := graph.Viewport{X: 100, Y: 50, Zoom: 2}
	got := ScreenToWorld(v, Point{300, 250})
	if got != (Point{100, 100}) {
		t.Errorf("got %+v, want {100 100}", got)
	}
}

func TestPortAnchors(t *testing.T) {
	m := DefaultMetrics()
	n := &graph.Node{ID: "join", X: 200, Y: 100}
	in := []string{"left", "right"}
	out := []string{"output"}

	tests := []struct {
		name string
		got  Point
		want Point
	}{
		{
			name: "FirstInputOnLeftEdge",
			got:  m.InputAnchor(n, in, "left"),
			want: Point{200, 100 + m.PortTopOffset},
		},
		{
			name: "SecondInputStacked",
			got:  m.InputAnchor(n, in, "right"),
			want: Point{200, 100 + m.PortTopOffset + m.PortSpacing},
		},
		{
			name: "OutputOnRightEdge",
			got:  m.OutputAnchor(n, out, "output"),
			want: Point{200 + m.NodeWidth, 100 + m.PortTopOffset},
		},
		{
			name: "UnknownPortFallsBackToFirst",
			got:  m.InputAnchor(n, in, "bogus"),
			want: Point{200, 100 + m.PortTopOffset},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %+v, want %+v", tt.got, tt.want)
			}
		})
	}
}

func TestEdgeCurve(t *testing.T) {
	from := Point{0, 0}
	to := Point{100, 40}
	c := EdgeCurve(from, to)

	if c.C1 != (Point{50, 0}) {
		t.Errorf("C1 = %+v, want {50 0}", c.C1)
	}
	if c.C2 != (Point{50, 40}) {
		t.Errorf("C2 = %+v, want {50 40}", c.C2)
	}
	if c.At(0) != from || c.At(1) != to {
		t.Error("curve does not interpolate its endpoints")
	}

	// Right-to-left edges still bow outward horizontally.
	rev := EdgeCurve(Point{100, 0}, Point{0, 40})
	if rev.C1 != (Point{150, 0}) || rev.C2 != (Point{-50, 40}) {
		t.Errorf("reverse curve controls = %+v %+v", rev.C1, rev.C2)
	}
}

func TestLabelAnchor(t *testing.T) {
	got := LabelAnchor(Point{0, 0}, Point{100, 50})
	if got != (Point{50, 25}) {
		t.Errorf("got %+v, want {50 25}", got)
	}
}

func TestBoundsOf(t *testing.T) {
	m := DefaultMetrics()

	if _, ok := BoundsOf(nil, m); ok {
		t.Error("empty node list should report no bounds")
	}

	nodes := []*graph.Node{
		{ID: "a", X: 0, Y: 0},
		{ID: "b", X: 300, Y: 120},
	}
	b, ok := BoundsOf(nodes, m)
	if !ok {
		t.Fatal("expected bounds")
	}
	if b.X != 0 || b.Y != 0 {
		t.Errorf("origin = (%v, %v), want (0, 0)", b.X, b.Y)
	}
	if b.W != 300+m.NodeWidth || b.H != 120+m.NodeHeight {
		t.Errorf("size = (%v, %v)", b.W, b.H)
	}
}

func TestFitViewportCenters(t *testing.T) {
	bounds := Rect{X: 100, Y: 100, W: 200, H: 100}
	v := FitViewport(bounds, 800, 600, 2)

	// Width fit would be 4, height fit 6; maxZoom caps both.
	if v.Zoom != 2 {
		t.Fatalf("zoom = %v, want 2", v.Zoom)
	}
	center := WorldToScreen(v, Point{200, 150}) // bounds center
	if !approx(center.X, 400) || !approx(center.Y, 300) {
		t.Errorf("bounds center maps to %+v, want canvas center {400 300}", center)
	}
}

func TestFitViewportPicksSmallerRatio(t *testing.T) {
	bounds := Rect{W: 400, H: 100}
	v := FitViewport(bounds, 800, 100, 10)
	if v.Zoom != 1 { // height-fit 1 < width-fit 2
		t.Errorf("zoom = %v, want 1", v.Zoom)
	}
}

func TestZoomAtKeepsAnchorFixed(t *testing.T) {
	v := graph.Viewport{X: -20, Y: 35, Zoom: 1}
	anchor := Point{250, 140}
	world := ScreenToWorld(v, anchor)

	zoomed := ZoomAt(v, anchor, 1.2, 0.2, 4)
	after := WorldToScreen(zoomed, world)

	if !approx(after.X, anchor.X) || !approx(after.Y, anchor.Y) {
		t.Errorf("anchor moved: %+v -> %+v", anchor, after)
	}
	if !approx(zoomed.Zoom, 1.2) {
		t.Errorf("zoom = %v, want 1.2", zoomed.Zoom)
	}
}

func TestZoomAtClamps(t *testing.T) {
	v := graph.Viewport{Zoom: 3.9}
	if got := ZoomAt(v, Point{}, 1.5, 0.2, 4).Zoom; got != 4 {
		t.Errorf("zoom = %v, want clamped 4", got)
	}
	v.Zoom = 0.21
	if got := ZoomAt(v, Point{}, 0.5, 0.2, 4).Zoom; got != 0.2 {
		t.Errorf("zoom = %v, want clamped 0.2", got)
	}
}
