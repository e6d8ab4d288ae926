// Package graph implements the authoritative in-memory pipeline graph for one
// editor instance: nodes, edges, viewport, and selection.
//
// The Store is the sole mutator of graph state. Interaction code and the host
// API both funnel through it, so every structural invariant is enforced in one
// place:
//
//   - edges reference existing nodes
//   - no self-loops
//   - no duplicate (source, sourcePort, target, targetPort) tuples
//   - the graph stays acyclic (AddEdge rejects cycle-closing edges)
//
// Operations referencing unknown IDs are defensive no-ops rather than errors,
// matching the editor's forgiving interaction model. Only edge creation can
// refuse to mutate, and it reports why via sentinel errors.
//
// Store is not safe for concurrent use without external synchronization; the
// editor serializes access through its event loop or transport layer.
package graph

import (
	"errors"
	"slices"

	"github.com/google/uuid"
)

var (
	// ErrUnknownSourceNode is returned by [Store.AddEdge] when the source
	// node does not exist in the store.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Store.AddEdge] when the target
	// node does not exist in the store.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrSelfLoop is returned by [Store.AddEdge] when source and target are
	// the same node.
	ErrSelfLoop = errors.New("edge endpoints must differ")

	// ErrDuplicateEdge is returned by [Store.AddEdge] when an edge with the
	// exact same (source, sourcePort, target, targetPort) tuple exists.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrEdgeVetoed is returned by [Store.AddEdge] when the host's edge-create
	// callback refused the connection.
	ErrEdgeVetoed = errors.New("edge vetoed by host")

	// ErrEdgeWouldCycle is returned by [Store.AddEdge] when the new edge would
	// close a directed cycle. Rejecting at creation time keeps the graph a DAG
	// so the transform adapter never silently drops steps.
	ErrEdgeWouldCycle = errors.New("edge would create a cycle")
)

// NodeSpec describes a node to create. A nil X or Y requests automatic
// placement to the right of the current rightmost node.
type NodeSpec struct {
	ID     string         `json:"id,omitempty"`
	Type   string         `json:"type"`
	Label  string         `json:"label,omitempty"`
	Config map[string]any `json:"config,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
	Ports  *Ports         `json:"ports,omitempty"`
	X      *float64       `json:"x,omitempty"`
	Y      *float64       `json:"y,omitempty"`
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithEdgeVeto installs a host callback consulted before every edge creation.
// Returning false rejects the edge with ErrEdgeVetoed.
func WithEdgeVeto(veto func(Edge) bool) Option {
	return func(s *Store) { s.vetoEdge = veto }
}

// PortResolver supplies the declared port lists for a node. Installing one
// lets AddEdge validate port names against the same lists hit-testing and
// rendering use (typically the node-type registry), instead of only the
// node-level override.
type PortResolver func(n *Node) (in, out []string)

// WithPortResolver installs a port resolver at construction time.
func WithPortResolver(f PortResolver) Option {
	return func(s *Store) { s.resolvePorts = f }
}

// SetPortResolver installs a port resolver on a live store, used by
// controllers that adopt an existing store together with a registry.
func (s *Store) SetPortResolver(f PortResolver) { s.resolvePorts = f }

// Store holds the graph for one editor instance. The zero value is not
// usable - use NewStore.
type Store struct {
	nodes    map[string]*Node
	order    []string // node insertion order, drives deterministic iteration
	edges    []Edge
	outgoing map[string][]string // nodeID -> successor IDs
	incoming map[string][]string // nodeID -> predecessor IDs

	viewport Viewport

	selectedNodes map[string]struct{}
	selectedEdges map[string]struct{}

	vetoEdge     func(Edge) bool
	resolvePorts PortResolver
}

// NewStore creates an empty store with the identity viewport.
func NewStore(opts ...Option) *Store {
	s := &Store{
		nodes:         make(map[string]*Node),
		outgoing:      make(map[string][]string),
		incoming:      make(map[string][]string),
		viewport:      DefaultViewport(),
		selectedNodes: make(map[string]struct{}),
		selectedEdges: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =============================================================================
// Nodes
// =============================================================================

// AddNode creates a node from the spec and returns it. It always succeeds:
// a missing (or colliding) ID is replaced with a generated one, and a missing
// position places the node one gap to the right of the rightmost node.
func (s *Store) AddNode(spec NodeSpec) Node {
	id := spec.ID
	if id == "" {
		id = uuid.NewString()
	}
	if _, exists := s.nodes[id]; exists {
		id = uuid.NewString()
	}

	n := Node{
		ID:     id,
		Type:   spec.Type,
		Label:  spec.Label,
		Config: copyMap(spec.Config),
		Meta:   copyMap(spec.Meta),
	}
	if spec.Ports != nil {
		p := Ports{In: slices.Clone(spec.Ports.In), Out: slices.Clone(spec.Ports.Out)}
		n.Ports = &p
	}

	x, y := s.defaultPlacement()
	if spec.X != nil {
		x = *spec.X
	}
	if spec.Y != nil {
		y = *spec.Y
	}
	n.X, n.Y = x, y

	s.nodes[id] = &n
	s.order = append(s.order, id)
	return n.Clone()
}

// defaultPlacement picks the position for a node added without coordinates:
// after the rightmost existing node, or the canvas origin when empty.
func (s *Store) defaultPlacement() (float64, float64) {
	if len(s.order) == 0 {
		return PlacementOriginX, PlacementOriginY
	}
	x, y := s.nodes[s.order[0]].X, s.nodes[s.order[0]].Y
	for _, id := range s.order[1:] {
		if n := s.nodes[id]; n.X > x {
			x, y = n.X, n.Y
		}
	}
	return x + PlacementGapX, y
}

// RemoveNode deletes the node and cascades: every edge touching it is removed
// and it is dropped from the selection. No-op if the ID is unknown.
func (s *Store) RemoveNode(id string) {
	if _, ok := s.nodes[id]; !ok {
		return
	}
	for _, e := range s.EdgesOf(id) {
		s.RemoveEdge(e.ID)
	}
	delete(s.nodes, id)
	delete(s.selectedNodes, id)
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return o == id })
}

// MoveNode sets the node's world position. No-op if the ID is unknown.
func (s *Store) MoveNode(id string, x, y float64) {
	if n, ok := s.nodes[id]; ok {
		n.X, n.Y = x, y
	}
}

// SetNode replaces an existing node wholesale, keeping its canvas position if
// the replacement carries none. No-op if the ID is unknown. Edges are not
// revalidated; port renames that orphan an edge's port name fall back at
// render time to the first declared port on that side.
func (s *Store) SetNode(n Node) {
	old, ok := s.nodes[n.ID]
	if !ok {
		return
	}
	replacement := n.Clone()
	if replacement.X == 0 && replacement.Y == 0 {
		replacement.X, replacement.Y = old.X, old.Y
	}
	*old = replacement
}

// Node returns the node with the given ID, or false if not found.
// The returned pointer refers to the live node; callers must not change its ID.
func (s *Store) Node(id string) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Nodes returns all nodes in insertion order.
// The returned slice contains pointers to the live nodes.
func (s *Store) Nodes() []*Node {
	out := make([]*Node, len(s.order))
	for i, id := range s.order {
		out[i] = s.nodes[id]
	}
	return out
}

// NodeCount returns the number of nodes in the store.
func (s *Store) NodeCount() int { return len(s.nodes) }

// =============================================================================
// Edges
// =============================================================================

// AddEdge connects source to target and returns the created edge.
// Empty port names default to the first declared port on the relevant side.
// Returns nil and a sentinel error when the edge violates a structural
// invariant or the host veto refuses it; the store is left unchanged.
func (s *Store) AddEdge(source, target, sourcePort, targetPort, label string) (*Edge, error) {
	src, ok := s.nodes[source]
	if !ok {
		return nil, ErrUnknownSourceNode
	}
	dst, ok := s.nodes[target]
	if !ok {
		return nil, ErrUnknownTargetNode
	}
	if source == target {
		return nil, ErrSelfLoop
	}

	srcOut := s.outPortsOf(src)
	dstIn := s.inPortsOf(dst)
	if sourcePort == "" || !slices.Contains(srcOut, sourcePort) {
		sourcePort = srcOut[0]
	}
	if targetPort == "" || !slices.Contains(dstIn, targetPort) {
		targetPort = dstIn[0]
	}

	e := Edge{
		ID:         uuid.NewString(),
		Source:     source,
		SourcePort: sourcePort,
		Target:     target,
		TargetPort: targetPort,
		Label:      label,
	}

	for _, existing := range s.edges {
		if existing.sameWiring(e) {
			return nil, ErrDuplicateEdge
		}
	}
	if s.reachable(target, source) {
		return nil, ErrEdgeWouldCycle
	}
	if s.vetoEdge != nil && !s.vetoEdge(e) {
		return nil, ErrEdgeVetoed
	}

	s.edges = append(s.edges, e)
	s.outgoing[source] = append(s.outgoing[source], target)
	s.incoming[target] = append(s.incoming[target], source)
	return &e, nil
}

// inPortsOf and outPortsOf prefer the installed resolver over the node's own
// declaration, so edge validation agrees with the canvas's port anchors.
func (s *Store) inPortsOf(n *Node) []string {
	if s.resolvePorts != nil {
		if in, _ := s.resolvePorts(n); len(in) > 0 {
			return in
		}
	}
	return n.InPorts()
}

func (s *Store) outPortsOf(n *Node) []string {
	if s.resolvePorts != nil {
		if _, out := s.resolvePorts(n); len(out) > 0 {
			return out
		}
	}
	return n.OutPorts()
}

// RemoveEdge deletes the edge and drops it from the selection.
// No-op if the ID is unknown.
func (s *Store) RemoveEdge(id string) {
	i := slices.IndexFunc(s.edges, func(e Edge) bool { return e.ID == id })
	if i < 0 {
		return
	}
	e := s.edges[i]
	s.edges = slices.Delete(s.edges, i, i+1)
	s.outgoing[e.Source] = deleteFirst(s.outgoing[e.Source], e.Target)
	s.incoming[e.Target] = deleteFirst(s.incoming[e.Target], e.Source)
	delete(s.selectedEdges, id)
}

// Edge returns the edge with the given ID, or false if not found.
func (s *Store) Edge(id string) (Edge, bool) {
	i := slices.IndexFunc(s.edges, func(e Edge) bool { return e.ID == id })
	if i < 0 {
		return Edge{}, false
	}
	return s.edges[i], true
}

// Edges returns a copy of all edges in insertion order.
func (s *Store) Edges() []Edge { return slices.Clone(s.edges) }

// EdgeCount returns the number of edges in the store.
func (s *Store) EdgeCount() int { return len(s.edges) }

// EdgesOf returns every edge with the node as either endpoint.
func (s *Store) EdgesOf(nodeID string) []Edge {
	var out []Edge
	for _, e := range s.edges {
		if e.Touches(nodeID) {
			out = append(out, e)
		}
	}
	return out
}

// Successors returns the IDs of nodes this node has edges to. The returned
// slice is a read-only view; one entry per edge, so parallel edges through
// different ports repeat their target.
func (s *Store) Successors(id string) []string { return s.outgoing[id] }

// Predecessors returns the IDs of nodes with edges to this node.
func (s *Store) Predecessors(id string) []string { return s.incoming[id] }

// reachable reports whether a directed path exists from one node to another.
func (s *Store) reachable(from, to string) bool {
	if from == to {
		return true
	}
	seen := map[string]bool{from: true}
	stack := []string{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range s.outgoing[cur] {
			if next == to {
				return true
			}
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// deleteFirst removes the first occurrence of v, preserving remaining
// duplicates from parallel edges.
func deleteFirst(list []string, v string) []string {
	if i := slices.Index(list, v); i >= 0 {
		return slices.Delete(list, i, i+1)
	}
	return list
}

// =============================================================================
// Viewport
// =============================================================================

// Viewport returns the current pan offset and zoom.
func (s *Store) Viewport() Viewport { return s.viewport }

// SetViewport replaces the pan offset and zoom.
func (s *Store) SetViewport(v Viewport) { s.viewport = v }

// =============================================================================
// Selection
// =============================================================================

// SelectNode updates the selection for a click on a node. A plain click
// replaces the whole selection with this node; an additive (modifier-held)
// click toggles the node's membership without clearing other selected nodes.
// Selected edges are always cleared: the two kinds never mix.
func (s *Store) SelectNode(id string, additive bool) {
	if _, ok := s.nodes[id]; !ok {
		return
	}
	clear(s.selectedEdges)
	if !additive {
		clear(s.selectedNodes)
		s.selectedNodes[id] = struct{}{}
		return
	}
	if _, on := s.selectedNodes[id]; on {
		delete(s.selectedNodes, id)
	} else {
		s.selectedNodes[id] = struct{}{}
	}
}

// SelectEdge updates the selection for a click on an edge, with the same
// plain/additive semantics as SelectNode.
func (s *Store) SelectEdge(id string, additive bool) {
	if _, ok := s.Edge(id); !ok {
		return
	}
	clear(s.selectedNodes)
	if !additive {
		clear(s.selectedEdges)
		s.selectedEdges[id] = struct{}{}
		return
	}
	if _, on := s.selectedEdges[id]; on {
		delete(s.selectedEdges, id)
	} else {
		s.selectedEdges[id] = struct{}{}
	}
}

// ClearSelection deselects everything.
func (s *Store) ClearSelection() {
	clear(s.selectedNodes)
	clear(s.selectedEdges)
}

// SelectedNodes returns the selected node IDs in insertion order.
func (s *Store) SelectedNodes() []string {
	var out []string
	for _, id := range s.order {
		if _, on := s.selectedNodes[id]; on {
			out = append(out, id)
		}
	}
	return out
}

// SelectedEdges returns the selected edge IDs in insertion order.
func (s *Store) SelectedEdges() []string {
	var out []string
	for _, e := range s.edges {
		if _, on := s.selectedEdges[e.ID]; on {
			out = append(out, e.ID)
		}
	}
	return out
}

// NodeSelected reports whether the node is currently selected.
func (s *Store) NodeSelected(id string) bool {
	_, on := s.selectedNodes[id]
	return on
}

// EdgeSelected reports whether the edge is currently selected.
func (s *Store) EdgeSelected(id string) bool {
	_, on := s.selectedEdges[id]
	return on
}

// =============================================================================
// Snapshot
// =============================================================================

// GetState exports a deep copy of nodes, edges, and viewport.
// Selection is transient interaction state and is not part of the snapshot.
func (s *Store) GetState() State {
	st := State{
		Nodes:    make([]Node, 0, len(s.order)),
		Edges:    slices.Clone(s.edges),
		Viewport: s.viewport,
	}
	for _, id := range s.order {
		st.Nodes = append(st.Nodes, s.nodes[id].Clone())
	}
	return st
}

// SetState replaces the full store content from a snapshot (full replace,
// not merge). Edges referencing missing nodes are dropped, the selection is
// cleared, and a zero zoom is normalized to 1.
func (s *Store) SetState(st State) {
	s.nodes = make(map[string]*Node, len(st.Nodes))
	s.order = s.order[:0]
	s.edges = nil
	s.outgoing = make(map[string][]string)
	s.incoming = make(map[string][]string)
	s.ClearSelection()

	for _, n := range st.Nodes {
		if _, dup := s.nodes[n.ID]; dup || n.ID == "" {
			continue
		}
		cp := n.Clone()
		s.nodes[n.ID] = &cp
		s.order = append(s.order, n.ID)
	}
	for _, e := range st.Edges {
		if _, ok := s.nodes[e.Source]; !ok {
			continue
		}
		if _, ok := s.nodes[e.Target]; !ok {
			continue
		}
		s.edges = append(s.edges, e)
		s.outgoing[e.Source] = append(s.outgoing[e.Source], e.Target)
		s.incoming[e.Target] = append(s.incoming[e.Target], e.Source)
	}

	s.viewport = st.Viewport
	if s.viewport.Zoom == 0 {
		s.viewport.Zoom = 1
	}
}

// Clear empties nodes, edges, and selection. The viewport is preserved.
func (s *Store) Clear() {
	s.nodes = make(map[string]*Node)
	s.order = nil
	s.edges = nil
	s.outgoing = make(map[string][]string)
	s.incoming = make(map[string][]string)
	s.ClearSelection()
}
