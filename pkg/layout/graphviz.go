package layout

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/flowcanvas/flowcanvas/pkg/geometry"
	"github.com/flowcanvas/flowcanvas/pkg/graph"
)

// Graphviz lays out the graph with the dot rank algorithm. It emits DOT with
// fixed node dimensions, renders to xdot, and reads the computed pos
// attributes back out.
type Graphviz struct{}

// One world unit is one Graphviz point, so node dimensions pass through
// unscaled; DOT size attributes want inches.
const pointsPerInch = 72.0

func (Graphviz) Layout(ctx context.Context, nodes []*graph.Node, edges []graph.Edge, opts Options) (map[string]geometry.Point, error) {
	opts = opts.withDefaults()
	if len(nodes) == 0 {
		return map[string]geometry.Point{}, nil
	}

	dot := buildDOT(nodes, edges, opts)

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.XDOT, &buf); err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}

	pos, err := parsePositions(buf.Bytes(), opts)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if _, ok := pos[n.ID]; !ok {
			return nil, fmt.Errorf("layout: no position for node %q", n.ID)
		}
	}
	return normalize(pos, opts), nil
}

// buildDOT converts the graph to DOT with fixed-size box nodes. Dimensions
// are given in inches, as Graphviz expects.
func buildDOT(nodes []*graph.Node, edges []graph.Edge, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", opts.Direction)
	fmt.Fprintf(&buf, "  ranksep=%.3f;\n", opts.GapX/pointsPerInch)
	fmt.Fprintf(&buf, "  nodesep=%.3f;\n", opts.GapY/pointsPerInch)
	fmt.Fprintf(&buf, "  node [shape=box, fixedsize=true, width=%.3f, height=%.3f];\n",
		opts.NodeWidth/pointsPerInch, opts.NodeHeight/pointsPerInch)
	buf.WriteString("\n")

	for _, n := range nodes {
		fmt.Fprintf(&buf, "  %q;\n", n.ID)
	}
	buf.WriteString("\n")
	for _, e := range edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// nodeStmtRe matches a node statement in xdot output. Edge statements carry
// an arrow between two quoted IDs, so they never match.
var nodeStmtRe = regexp.MustCompile(`(?ms)^\s*"([^"]+)"\s+\[(.*?)\];`)

var posAttrRe = regexp.MustCompile(`pos="(-?[0-9.]+),(-?[0-9.]+)"`)

// parsePositions extracts pos attributes from xdot output. Graphviz reports
// node centers in points with the Y axis pointing up; the result is
// converted to top-left coordinates with Y pointing down.
func parsePositions(xdot []byte, opts Options) (map[string]geometry.Point, error) {
	pos := make(map[string]geometry.Point)
	maxY := 0.0
	for _, m := range nodeStmtRe.FindAllSubmatch(xdot, -1) {
		pm := posAttrRe.FindSubmatch(m[2])
		if pm == nil {
			continue
		}
		x, err := strconv.ParseFloat(string(pm[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("layout: bad pos for %q: %w", m[1], err)
		}
		y, err := strconv.ParseFloat(string(pm[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("layout: bad pos for %q: %w", m[1], err)
		}
		pos[string(m[1])] = geometry.Point{X: x, Y: y}
		if y > maxY {
			maxY = y
		}
	}
	for id, p := range pos {
		pos[id] = geometry.Point{
			X: p.X - opts.NodeWidth/2,
			Y: (maxY - p.Y) - opts.NodeHeight/2,
		}
	}
	return pos, nil
}
