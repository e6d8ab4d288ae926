// Package layout computes node positions for a pipeline graph.
//
// Engines are pluggable: [Graphviz] shells out to the dot layout algorithm
// via go-graphviz, [Layered] is a dependency-free longest-path fallback.
// Both produce top-left world coordinates keyed by node ID; applying them to
// the store is the editor's job.
package layout

import (
	"context"

	"github.com/flowcanvas/flowcanvas/pkg/geometry"
	"github.com/flowcanvas/flowcanvas/pkg/graph"
)

// Direction of flow through the laid-out graph.
const (
	DirectionLR = "LR"
	DirectionTB = "TB"
)

// Options shapes a layout run.
type Options struct {
	// Direction is DirectionLR or DirectionTB. Empty means DirectionLR.
	Direction string
	// NodeWidth and NodeHeight are the drawn node dimensions in world units.
	NodeWidth  float64
	NodeHeight float64
	// GapX and GapY are the minimum spacing between ranks and siblings.
	GapX float64
	GapY float64
	// OriginX and OriginY anchor the top-left corner of the result.
	OriginX float64
	OriginY float64
}

// DefaultOptions returns layout options matching the editor's drawing
// metrics and default placement origin.
func DefaultOptions() Options {
	m := geometry.DefaultMetrics()
	return Options{
		Direction:  DirectionLR,
		NodeWidth:  m.NodeWidth,
		NodeHeight: m.NodeHeight,
		GapX:       60,
		GapY:       40,
		OriginX:    graph.PlacementOriginX,
		OriginY:    graph.PlacementOriginY,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Direction == "" {
		o.Direction = d.Direction
	}
	if o.NodeWidth <= 0 {
		o.NodeWidth = d.NodeWidth
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = d.NodeHeight
	}
	if o.GapX <= 0 {
		o.GapX = d.GapX
	}
	if o.GapY <= 0 {
		o.GapY = d.GapY
	}
	return o
}

// Engine computes positions for a set of nodes and the edges between them.
type Engine interface {
	Layout(ctx context.Context, nodes []*graph.Node, edges []graph.Edge, opts Options) (map[string]geometry.Point, error)
}

// normalize shifts positions so the top-left of the bounding box lands on
// the configured origin.
func normalize(pos map[string]geometry.Point, opts Options) map[string]geometry.Point {
	if len(pos) == 0 {
		return pos
	}
	first := true
	var minX, minY float64
	for _, p := range pos {
		if first || p.X < minX {
			minX = p.X
		}
		if first || p.Y < minY {
			minY = p.Y
		}
		first = false
	}
	for id, p := range pos {
		pos[id] = geometry.Point{X: p.X - minX + opts.OriginX, Y: p.Y - minY + opts.OriginY}
	}
	return pos
}
