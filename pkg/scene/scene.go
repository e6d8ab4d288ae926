// Package scene projects graph state into drawable primitives.
//
// The renderer is stateless: [Build] maps a store snapshot plus the host's
// node-type registry to a [Scene], and sinks (the TUI canvas, an SVG writer,
// a frontend payload) draw that. During a node drag, [PatchNode] rewrites
// only the dragged node's sprite and the sprites of its incident edges for
// low-latency feedback; the interaction layer guarantees one authoritative
// [Build] once the gesture ends.
package scene

import (
	"github.com/flowcanvas/flowcanvas/pkg/geometry"
	"github.com/flowcanvas/flowcanvas/pkg/graph"
)

// Minimap frame size in screen units.
const (
	MinimapWidth  = 200.0
	MinimapHeight = 140.0
)

// PortSprite is one drawable connection point.
type PortSprite struct {
	Name string
	Pos  geometry.Point // world coordinates
}

// NodeSprite is one drawable node box.
type NodeSprite struct {
	ID       string
	Frame    geometry.Rect // world coordinates
	Label    string
	Subtitle string
	Icon     string
	Color    string
	Selected bool
	In       []PortSprite
	Out      []PortSprite
}

// EdgeSprite is one drawable edge curve.
type EdgeSprite struct {
	ID       string
	Curve    geometry.Curve
	Label    string
	LabelPos geometry.Point
	Selected bool
}

// MiniNode is one node's footprint in the minimap.
type MiniNode struct {
	ID    string
	Frame geometry.Rect // minimap-local coordinates
}

// Minimap is the scaled bounding-box projection of all nodes.
type Minimap struct {
	Scale float64
	Nodes []MiniNode
}

// Scene is the complete drawable output of one full rebuild.
type Scene struct {
	Nodes   []NodeSprite
	Edges   []EdgeSprite
	Minimap Minimap

	nodeIndex map[string]int
	edgeIndex map[string]int
}

// NodeSprite returns the sprite for a node ID, or false if absent.
func (sc *Scene) NodeSprite(id string) (*NodeSprite, bool) {
	i, ok := sc.nodeIndex[id]
	if !ok {
		return nil, false
	}
	return &sc.Nodes[i], true
}

// EdgeSprite returns the sprite for an edge ID, or false if absent.
func (sc *Scene) EdgeSprite(id string) (*EdgeSprite, bool) {
	i, ok := sc.edgeIndex[id]
	if !ok {
		return nil, false
	}
	return &sc.Edges[i], true
}

// Build performs a full rebuild: every node's appearance and subtitle and
// every edge's curve and label anchor are recomputed from the store.
func Build(s *graph.Store, reg Registry, m geometry.Metrics) Scene {
	nodes := s.Nodes()
	sc := Scene{
		Nodes:     make([]NodeSprite, 0, len(nodes)),
		nodeIndex: make(map[string]int, len(nodes)),
		edgeIndex: make(map[string]int),
	}

	for _, n := range nodes {
		sc.nodeIndex[n.ID] = len(sc.Nodes)
		sc.Nodes = append(sc.Nodes, buildNodeSprite(n, s, reg, m))
	}
	for _, e := range s.Edges() {
		sc.edgeIndex[e.ID] = len(sc.Edges)
		sc.Edges = append(sc.Edges, buildEdgeSprite(e, s, reg, m))
	}
	sc.Minimap = buildMinimap(nodes, m)
	return sc
}

// PatchNode updates the scene in place for one moved node: its frame and
// port positions plus the curves of every incident edge. Appearance and
// subtitle are left untouched - position is the only thing a drag changes.
// No-op when the node is absent from store or scene.
func PatchNode(sc *Scene, s *graph.Store, reg Registry, m geometry.Metrics, id string) {
	n, ok := s.Node(id)
	if !ok {
		return
	}
	sprite, ok := sc.NodeSprite(id)
	if !ok {
		return
	}

	sprite.Frame = m.NodeRect(n)
	in, out := reg.PortsOf(n)
	sprite.In = portSprites(in, func(p string) geometry.Point { return m.InputAnchor(n, in, p) })
	sprite.Out = portSprites(out, func(p string) geometry.Point { return m.OutputAnchor(n, out, p) })

	for _, e := range s.EdgesOf(id) {
		if es, ok := sc.EdgeSprite(e.ID); ok {
			*es = buildEdgeSprite(e, s, reg, m)
		}
	}
}

func buildNodeSprite(n *graph.Node, s *graph.Store, reg Registry, m geometry.Metrics) NodeSprite {
	icon, color := reg.Appearance(n)
	in, out := reg.PortsOf(n)
	return NodeSprite{
		ID:       n.ID,
		Frame:    m.NodeRect(n),
		Label:    n.DisplayLabel(),
		Subtitle: Subtitle(n),
		Icon:     icon,
		Color:    color,
		Selected: s.NodeSelected(n.ID),
		In:       portSprites(in, func(p string) geometry.Point { return m.InputAnchor(n, in, p) }),
		Out:      portSprites(out, func(p string) geometry.Point { return m.OutputAnchor(n, out, p) }),
	}
}

func buildEdgeSprite(e graph.Edge, s *graph.Store, reg Registry, m geometry.Metrics) EdgeSprite {
	var from, to geometry.Point
	if src, ok := s.Node(e.Source); ok {
		_, out := reg.PortsOf(src)
		from = m.OutputAnchor(src, out, e.SourcePort)
	}
	if dst, ok := s.Node(e.Target); ok {
		in, _ := reg.PortsOf(dst)
		to = m.InputAnchor(dst, in, e.TargetPort)
	}
	return EdgeSprite{
		ID:       e.ID,
		Curve:    geometry.EdgeCurve(from, to),
		Label:    e.Label,
		LabelPos: geometry.LabelAnchor(from, to),
		Selected: s.EdgeSelected(e.ID),
	}
}

func portSprites(names []string, anchor func(string) geometry.Point) []PortSprite {
	out := make([]PortSprite, len(names))
	for i, name := range names {
		out[i] = PortSprite{Name: name, Pos: anchor(name)}
	}
	return out
}

func buildMinimap(nodes []*graph.Node, m geometry.Metrics) Minimap {
	bounds, ok := geometry.BoundsOf(nodes, m)
	if !ok {
		return Minimap{Scale: 1}
	}
	scale := 1.0
	if bounds.W > 0 && MinimapWidth/bounds.W < scale {
		scale = MinimapWidth / bounds.W
	}
	if bounds.H > 0 && MinimapHeight/bounds.H < scale {
		scale = MinimapHeight / bounds.H
	}

	mini := Minimap{Scale: scale, Nodes: make([]MiniNode, len(nodes))}
	for i, n := range nodes {
		r := m.NodeRect(n)
		mini.Nodes[i] = MiniNode{
			ID: n.ID,
			Frame: geometry.Rect{
				X: (r.X - bounds.X) * scale,
				Y: (r.Y - bounds.Y) * scale,
				W: r.W * scale,
				H: r.H * scale,
			},
		}
	}
	return mini
}
