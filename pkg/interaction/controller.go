// Package interaction translates pointer events into graph mutations.
//
// The controller is a state machine with four states: Idle, DraggingNode,
// Panning, and DraggingEdge. Every transition starts from a pointer-down
// classified by hit-testing, in priority order: output port, node body, edge
// body, empty canvas. All mutation goes through the graph store; the
// controller never owns graph data, only gesture state.
//
// Redraws are two-phase. Structural changes set a coalescing render-pending
// flag - many mutations in one event-loop turn cost one full rebuild. Node
// drags bypass the flag and emit explicit per-node patch descriptions so the
// canvas can update the dragged sprite immediately; one authoritative full
// rebuild is always scheduled when the gesture ends, so drawn state can
// never drift from the store across gestures.
package interaction

import (
	"context"
	"math"

	"github.com/flowcanvas/flowcanvas/pkg/geometry"
	"github.com/flowcanvas/flowcanvas/pkg/graph"
	"github.com/flowcanvas/flowcanvas/pkg/observability"
	"github.com/flowcanvas/flowcanvas/pkg/scene"
)

// State is the controller's gesture state.
type State int

const (
	// StateIdle means no gesture is in progress.
	StateIdle State = iota
	// StateDraggingNode means a node follows the pointer.
	StateDraggingNode
	// StatePanning means the viewport offset follows the pointer.
	StatePanning
	// StateDraggingEdge means an edge preview runs from a fixed output port
	// to the pointer.
	StateDraggingEdge
)

func (s State) String() string {
	switch s {
	case StateDraggingNode:
		return "dragging-node"
	case StatePanning:
		return "panning"
	case StateDraggingEdge:
		return "dragging-edge"
	default:
		return "idle"
	}
}

// Hit-test tolerances in world units.
const (
	portHitRadius   = 10.0
	edgeHitDistance = 6.0
	edgeHitSamples  = 32
)

// Zoom bounds the wheel gesture. Step is the relative change per wheel event.
type Zoom struct {
	Min  float64
	Max  float64
	Step float64
}

// DefaultZoom returns the standard zoom clamp and wheel step.
func DefaultZoom() Zoom { return Zoom{Min: 0.25, Max: 2.5, Step: 0.1} }

// Modifiers carries the keyboard state of a pointer event. Additive is the
// shift/ctrl selection modifier.
type Modifiers struct {
	Additive bool
}

// Callbacks are the host's lifecycle hooks. Any field may be nil.
type Callbacks struct {
	// OnNodeClick fires when a node body is pressed.
	OnNodeClick func(graph.Node)
	// OnNodeDoubleClick fires on a double-click on a node body.
	OnNodeDoubleClick func(graph.Node)
	// OnNodeDelete may veto deletion of a node by returning false.
	OnNodeDelete func(graph.Node) bool
	// OnChange fires after a structural mutation settles: drag end, edge
	// created, selection deleted. Viewport-only changes never fire it.
	OnChange func(graph.State)
}

// Patch names one node whose sprite (and incident edge sprites) must be
// redrawn immediately, outside the coalesced rebuild.
type Patch struct {
	NodeID string
}

// Frame is the pending redraw work drained by the canvas each display tick.
type Frame struct {
	Full    bool
	Patches []Patch
}

// Controller drives one editor instance's store from pointer events.
// Not safe for concurrent use; callers serialize events through one loop.
type Controller struct {
	store   *graph.Store
	reg     scene.Registry
	metrics geometry.Metrics
	zoom    Zoom
	cb      Callbacks

	state State

	// DraggingNode
	dragID     string
	dragOffset geometry.Point // world-space pointer-to-origin offset

	// Panning
	panDelta geometry.Point // screen-space pointer-to-offset delta

	// DraggingEdge
	edgeSourceID   string
	edgeSourcePort string
	edgeAnchor     geometry.Point // world-space fixed end of the preview
	preview        *geometry.Curve

	renderPending bool
	patches       []Patch
}

// NewController wires a controller to its store, registry, and geometry.
// The registry becomes the store's port resolver, so edges created by
// gestures or API calls validate port names against the same declarations
// the canvas anchors them by.
func NewController(store *graph.Store, reg scene.Registry, m geometry.Metrics, zoom Zoom, cb Callbacks) *Controller {
	store.SetPortResolver(reg.PortsOf)
	return &Controller{store: store, reg: reg, metrics: m, zoom: zoom, cb: cb}
}

// State returns the current gesture state.
func (c *Controller) State() State { return c.state }

// Preview returns the live edge-wiring curve while DraggingEdge.
func (c *Controller) Preview() (geometry.Curve, bool) {
	if c.preview == nil {
		return geometry.Curve{}, false
	}
	return *c.preview, true
}

// NextFrame drains the pending redraw work: at most one full rebuild no
// matter how many mutations requested it, plus any drag patches in order.
// ok is false when there is nothing to redraw.
func (c *Controller) NextFrame() (Frame, bool) {
	if !c.renderPending && len(c.patches) == 0 {
		return Frame{}, false
	}
	f := Frame{Full: c.renderPending, Patches: c.patches}
	c.renderPending = false
	c.patches = nil
	return f, true
}

func (c *Controller) scheduleRebuild() { c.renderPending = true }

// Invalidate schedules a coalesced full rebuild for mutations made outside
// the pointer path, such as programmatic graph edits or automatic layout.
func (c *Controller) Invalidate() { c.renderPending = true }

// SetCallbacks replaces the host callbacks, used when an instance is
// reconfigured after creation.
func (c *Controller) SetCallbacks(cb Callbacks) { c.cb = cb }

func (c *Controller) notifyChange() {
	if c.cb.OnChange != nil {
		c.cb.OnChange(c.store.GetState())
	}
}

// =============================================================================
// Pointer Events
// =============================================================================

// PointerDown classifies the press and enters the matching gesture state.
// The position is in screen coordinates.
func (c *Controller) PointerDown(p geometry.Point, mod Modifiers) {
	world := geometry.ScreenToWorld(c.store.Viewport(), p)

	if id, port, anchor, ok := c.hitOutputPort(world); ok {
		c.state = StateDraggingEdge
		c.edgeSourceID, c.edgeSourcePort, c.edgeAnchor = id, port, anchor
		curve := geometry.EdgeCurve(anchor, world)
		c.preview = &curve
		return
	}

	if n, ok := c.hitNode(world); ok {
		c.store.SelectNode(n.ID, mod.Additive)
		if c.cb.OnNodeClick != nil {
			c.cb.OnNodeClick(n.Clone())
		}
		c.state = StateDraggingNode
		c.dragID = n.ID
		c.dragOffset = world.Sub(geometry.Point{X: n.X, Y: n.Y})
		c.scheduleRebuild()
		return
	}

	if id, ok := c.hitEdge(world); ok {
		c.store.SelectEdge(id, mod.Additive)
		c.scheduleRebuild()
		return
	}

	c.store.ClearSelection()
	v := c.store.Viewport()
	c.state = StatePanning
	c.panDelta = p.Sub(geometry.Point{X: v.X, Y: v.Y})
	c.scheduleRebuild()
}

// PointerMove advances the active gesture. Idle moves are ignored.
func (c *Controller) PointerMove(p geometry.Point) {
	switch c.state {
	case StateDraggingNode:
		world := geometry.ScreenToWorld(c.store.Viewport(), p)
		origin := world.Sub(c.dragOffset)
		c.store.MoveNode(c.dragID, origin.X, origin.Y)
		c.patches = append(c.patches, Patch{NodeID: c.dragID})

	case StatePanning:
		v := c.store.Viewport()
		v.X = p.X - c.panDelta.X
		v.Y = p.Y - c.panDelta.Y
		c.store.SetViewport(v)
		c.scheduleRebuild()

	case StateDraggingEdge:
		world := geometry.ScreenToWorld(c.store.Viewport(), p)
		curve := geometry.EdgeCurve(c.edgeAnchor, world)
		c.preview = &curve
	}
}

// PointerUp ends the active gesture.
func (c *Controller) PointerUp(p geometry.Point) {
	switch c.state {
	case StateDraggingNode:
		c.state = StateIdle
		c.dragID = ""
		c.scheduleRebuild()
		c.notifyChange()
		observability.Interaction().OnGesture(context.Background(), "drag_node")

	case StatePanning:
		c.state = StateIdle
		observability.Interaction().OnGesture(context.Background(), "pan")

	case StateDraggingEdge:
		world := geometry.ScreenToWorld(c.store.Viewport(), p)
		if id, port, ok := c.hitInputPort(world); ok {
			if _, err := c.store.AddEdge(c.edgeSourceID, id, c.edgeSourcePort, port, ""); err == nil {
				c.scheduleRebuild()
				c.notifyChange()
			}
		}
		c.preview = nil
		c.state = StateIdle
		observability.Interaction().OnGesture(context.Background(), "drag_edge")
	}
}

// DoubleClick invokes the host's node-activation callback when a node body
// is under the pointer.
func (c *Controller) DoubleClick(p geometry.Point) {
	world := geometry.ScreenToWorld(c.store.Viewport(), p)
	if n, ok := c.hitNode(world); ok && c.cb.OnNodeDoubleClick != nil {
		c.cb.OnNodeDoubleClick(n.Clone())
	}
}

// Wheel zooms by one step per event, anchored at the pointer so the world
// point under the cursor stays fixed. Positive delta zooms in.
func (c *Controller) Wheel(p geometry.Point, delta float64) {
	factor := 1 + c.zoom.Step
	if delta < 0 {
		factor = 1 / factor
	}
	c.store.SetViewport(geometry.ZoomAt(c.store.Viewport(), p, factor, c.zoom.Min, c.zoom.Max))
	c.scheduleRebuild()
	observability.Interaction().OnGesture(context.Background(), "zoom")
}

// DeleteSelected removes every selected node (unless the host vetoes it) and
// every selected edge, then clears the selection. Incident edges of deleted
// nodes cascade through the store. A change notification and full rebuild
// fire only when something was actually deleted.
func (c *Controller) DeleteSelected() {
	deleted := false

	for _, id := range c.store.SelectedNodes() {
		n, ok := c.store.Node(id)
		if !ok {
			continue
		}
		if c.cb.OnNodeDelete != nil && !c.cb.OnNodeDelete(n.Clone()) {
			continue
		}
		c.store.RemoveNode(id)
		deleted = true
	}
	for _, id := range c.store.SelectedEdges() {
		c.store.RemoveEdge(id)
		deleted = true
	}
	c.store.ClearSelection()

	if deleted {
		c.scheduleRebuild()
		c.notifyChange()
	}
}

// =============================================================================
// Hit Testing (world coordinates)
// =============================================================================

// hitNode returns the topmost node whose body contains the point. Nodes are
// drawn in insertion order, so later nodes sit on top.
func (c *Controller) hitNode(world geometry.Point) (*graph.Node, bool) {
	nodes := c.store.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		if c.metrics.NodeRect(nodes[i]).Contains(world) {
			return nodes[i], true
		}
	}
	return nil, false
}

// hitOutputPort returns the node, port name, and anchor of the closest
// output port within the hit radius.
func (c *Controller) hitOutputPort(world geometry.Point) (string, string, geometry.Point, bool) {
	nodes := c.store.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		_, out := c.reg.PortsOf(n)
		for _, port := range out {
			anchor := c.metrics.OutputAnchor(n, out, port)
			if dist(anchor, world) <= portHitRadius {
				return n.ID, port, anchor, true
			}
		}
	}
	return "", "", geometry.Point{}, false
}

// hitInputPort returns the node and port name of the closest input port
// within the hit radius.
func (c *Controller) hitInputPort(world geometry.Point) (string, string, bool) {
	nodes := c.store.Nodes()
	for i := len(nodes) - 1; i >= 0; i-- {
		n := nodes[i]
		in, _ := c.reg.PortsOf(n)
		for _, port := range in {
			if dist(c.metrics.InputAnchor(n, in, port), world) <= portHitRadius {
				return n.ID, port, true
			}
		}
	}
	return "", "", false
}

// hitEdge returns the first edge whose curve passes within the hit distance
// of the point, testing a fixed number of samples along each curve.
func (c *Controller) hitEdge(world geometry.Point) (string, bool) {
	for _, e := range c.store.Edges() {
		curve := c.edgeCurve(e)
		for i := 0; i <= edgeHitSamples; i++ {
			t := float64(i) / edgeHitSamples
			if dist(curve.At(t), world) <= edgeHitDistance {
				return e.ID, true
			}
		}
	}
	return "", false
}

func (c *Controller) edgeCurve(e graph.Edge) geometry.Curve {
	var from, to geometry.Point
	if src, ok := c.store.Node(e.Source); ok {
		_, out := c.reg.PortsOf(src)
		from = c.metrics.OutputAnchor(src, out, e.SourcePort)
	}
	if dst, ok := c.store.Node(e.Target); ok {
		in, _ := c.reg.PortsOf(dst)
		to = c.metrics.InputAnchor(dst, in, e.TargetPort)
	}
	return geometry.EdgeCurve(from, to)
}

func dist(a, b geometry.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
