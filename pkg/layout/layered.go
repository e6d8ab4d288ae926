package layout

import (
	"context"

	"github.com/flowcanvas/flowcanvas/pkg/geometry"
	"github.com/flowcanvas/flowcanvas/pkg/graph"
)

// Layered is a dependency-free layout engine. It assigns each node the
// longest-path rank from its sources and stacks rank members in input order.
// Edges whose endpoints are missing are ignored, and nodes on a cycle keep
// the deepest rank reached before the traversal cut off.
type Layered struct{}

func (Layered) Layout(_ context.Context, nodes []*graph.Node, edges []graph.Edge, opts Options) (map[string]geometry.Point, error) {
	opts = opts.withDefaults()
	pos := make(map[string]geometry.Point, len(nodes))
	if len(nodes) == 0 {
		return pos, nil
	}

	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}
	out := make(map[string][]string)
	indeg := make(map[string]int)
	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] {
			continue
		}
		out[e.Source] = append(out[e.Source], e.Target)
		indeg[e.Target]++
	}

	// Longest-path ranks via Kahn traversal, seeded in input order so ties
	// are deterministic.
	rank := make(map[string]int, len(nodes))
	var queue []string
	for _, n := range nodes {
		if indeg[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range out[id] {
			if r := rank[id] + 1; r > rank[next] {
				rank[next] = r
			}
			indeg[next]--
			if indeg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	// Stack each rank's members top to bottom, ranks left to right (or top
	// to bottom for DirectionTB).
	row := make(map[int]int)
	for _, n := range nodes {
		r := rank[n.ID]
		i := row[r]
		row[r]++
		major := float64(r) * (opts.NodeWidth + opts.GapX)
		minor := float64(i) * (opts.NodeHeight + opts.GapY)
		if opts.Direction == DirectionTB {
			major = float64(r) * (opts.NodeHeight + opts.GapY)
			minor = float64(i) * (opts.NodeWidth + opts.GapX)
			pos[n.ID] = geometry.Point{X: minor, Y: major}
			continue
		}
		pos[n.ID] = geometry.Point{X: major, Y: minor}
	}

	return normalize(pos, opts), nil
}
