// Package geometry provides the pure coordinate math for the canvas:
// screen/world transforms, node and port anchor positions, edge curves, and
// viewport fitting. Nothing in this package mutates graph state; every
// function maps inputs to outputs so interaction and rendering can share one
// set of equations.
package geometry

import (
	"math"
	"slices"

	"github.com/flowcanvas/flowcanvas/pkg/graph"
)

// Point is a position in either screen or world coordinates; the function
// signatures say which.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Rect is an axis-aligned rectangle with a top-left origin.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether the point lies inside the rectangle (inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.W && p.Y >= r.Y && p.Y <= r.Y+r.H
}

// Center returns the rectangle's midpoint.
func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }

// =============================================================================
// Screen <-> World
// =============================================================================

// ScreenToWorld maps a screen position into world coordinates under the
// viewport: (p - offset) / zoom.
func ScreenToWorld(v graph.Viewport, p Point) Point {
	return Point{(p.X - v.X) / v.Zoom, (p.Y - v.Y) / v.Zoom}
}

// WorldToScreen is the inverse of ScreenToWorld: p*zoom + offset.
func WorldToScreen(v graph.Viewport, p Point) Point {
	return Point{p.X*v.Zoom + v.X, p.Y*v.Zoom + v.Y}
}

// =============================================================================
// Metrics - Node and Port Dimensions
// =============================================================================

// Metrics carries the node box dimensions and port stacking constants.
// Interaction, rendering, and fitting all receive the same Metrics value so
// hit-testing agrees with drawing.
type Metrics struct {
	NodeWidth     float64
	NodeHeight    float64
	PortSpacing   float64 // vertical distance between stacked ports
	PortTopOffset float64 // distance from node top to the first port
}

// DefaultMetrics returns the standard node box dimensions.
func DefaultMetrics() Metrics {
	return Metrics{
		NodeWidth:     160,
		NodeHeight:    56,
		PortSpacing:   18,
		PortTopOffset: 20,
	}
}

// NodeRect returns the node's bounding box in world coordinates.
func (m Metrics) NodeRect(n *graph.Node) Rect {
	return Rect{X: n.X, Y: n.Y, W: m.NodeWidth, H: m.NodeHeight}
}

// InputAnchor returns the world position of a named input port on the node's
// left edge. Ports stack vertically in declared order; an unknown or empty
// name anchors at the first declared port.
func (m Metrics) InputAnchor(n *graph.Node, ports []string, port string) Point {
	return Point{n.X, n.Y + m.portY(ports, port)}
}

// OutputAnchor returns the world position of a named output port on the
// node's right edge, with the same stacking rules as InputAnchor.
func (m Metrics) OutputAnchor(n *graph.Node, ports []string, port string) Point {
	return Point{n.X + m.NodeWidth, n.Y + m.portY(ports, port)}
}

func (m Metrics) portY(ports []string, port string) float64 {
	i := slices.Index(ports, port)
	if i < 0 {
		i = 0
	}
	return m.PortTopOffset + float64(i)*m.PortSpacing
}

// =============================================================================
// Edge Curves
// =============================================================================

// Curve is a cubic bezier from Start to End.
type Curve struct {
	Start, C1, C2, End Point
}

// EdgeCurve computes the cubic curve between two port anchors. Both control
// points extend horizontally by half the absolute horizontal distance between
// the anchors, which yields a smooth S-curve regardless of edge direction.
func EdgeCurve(from, to Point) Curve {
	dx := math.Abs(to.X-from.X) / 2
	return Curve{
		Start: from,
		C1:    Point{from.X + dx, from.Y},
		C2:    Point{to.X - dx, to.Y},
		End:   to,
	}
}

// At evaluates the curve at parameter t in [0, 1].
func (c Curve) At(t float64) Point {
	u := 1 - t
	b0 := u * u * u
	b1 := 3 * u * u * t
	b2 := 3 * u * t * t
	b3 := t * t * t
	return Point{
		X: b0*c.Start.X + b1*c.C1.X + b2*c.C2.X + b3*c.End.X,
		Y: b0*c.Start.Y + b1*c.C1.Y + b2*c.C2.Y + b3*c.End.Y,
	}
}

// LabelAnchor returns the midpoint between the two endpoints. This
// approximates the true curve midpoint closely enough for short labels drawn
// slightly above the path.
func LabelAnchor(from, to Point) Point {
	return Point{(from.X + to.X) / 2, (from.Y + to.Y) / 2}
}

// =============================================================================
// Viewport Fitting and Zoom
// =============================================================================

// BoundsOf returns the world bounding box over all node rectangles.
// ok is false when there are no nodes.
func BoundsOf(nodes []*graph.Node, m Metrics) (Rect, bool) {
	if len(nodes) == 0 {
		return Rect{}, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		r := m.NodeRect(n)
		minX = math.Min(minX, r.X)
		minY = math.Min(minY, r.Y)
		maxX = math.Max(maxX, r.X+r.W)
		maxY = math.Max(maxY, r.Y+r.H)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}, true
}

// FitViewport computes the viewport that centers the bounding box in a
// canvas of the given screen size. Zoom is the smaller of the width-fit and
// height-fit ratios, capped at maxZoom.
func FitViewport(bounds Rect, canvasW, canvasH, maxZoom float64) graph.Viewport {
	zoom := maxZoom
	if bounds.W > 0 {
		zoom = math.Min(zoom, canvasW/bounds.W)
	}
	if bounds.H > 0 {
		zoom = math.Min(zoom, canvasH/bounds.H)
	}
	return graph.Viewport{
		X:    (canvasW-bounds.W*zoom)/2 - bounds.X*zoom,
		Y:    (canvasH-bounds.H*zoom)/2 - bounds.Y*zoom,
		Zoom: zoom,
	}
}

// ZoomAt scales the zoom by factor, clamped to [min, max], keeping the world
// point under the screen anchor fixed: screen = world*zoom + offset holds
// before and after.
func ZoomAt(v graph.Viewport, anchor Point, factor, min, max float64) graph.Viewport {
	zoom := v.Zoom * factor
	if zoom < min {
		zoom = min
	}
	if zoom > max {
		zoom = max
	}
	world := ScreenToWorld(v, anchor)
	return graph.Viewport{
		X:    anchor.X - world.X*zoom,
		Y:    anchor.Y - world.Y*zoom,
		Zoom: zoom,
	}
}
