package graph

import (
	"encoding/json"
	"fmt"
	"os"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Default port names used when a node declares no explicit ports.
const (
	DefaultInputPort  = "input"
	DefaultOutputPort = "output"
)

// Placement defaults for nodes added without an explicit position.
const (
	// PlacementGapX is the horizontal gap between an auto-placed node and the
	// rightmost existing node.
	PlacementGapX = 180.0

	// PlacementOriginX and PlacementOriginY position the first node added to
	// an empty canvas.
	PlacementOriginX = 80.0
	PlacementOriginY = 120.0
)

// =============================================================================
// Node
// =============================================================================

// Node is a single processing step on the canvas. Position is in world
// coordinates with a top-left origin.
type Node struct {
	ID     string         `json:"id" bson:"id"`
	Type   string         `json:"type" bson:"type"`
	Label  string         `json:"label,omitempty" bson:"label,omitempty"`
	Config map[string]any `json:"config,omitempty" bson:"config,omitempty"`
	X      float64        `json:"x" bson:"x"`
	Y      float64        `json:"y" bson:"y"`
	Ports  *Ports         `json:"ports,omitempty" bson:"ports,omitempty"`
	Meta   map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
}

// Ports overrides the node-type port declaration for a single node.
type Ports struct {
	In  []string `json:"in,omitempty" bson:"in,omitempty"`
	Out []string `json:"out,omitempty" bson:"out,omitempty"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// InPorts returns the node's declared input port names, falling back to the
// default single input port when no override is present.
func (n *Node) InPorts() []string {
	if n.Ports != nil && len(n.Ports.In) > 0 {
		return n.Ports.In
	}
	return []string{DefaultInputPort}
}

// OutPorts returns the node's declared output port names, falling back to the
// default single output port when no override is present.
func (n *Node) OutPorts() []string {
	if n.Ports != nil && len(n.Ports.Out) > 0 {
		return n.Ports.Out
	}
	return []string{DefaultOutputPort}
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() Node {
	out := *n
	out.Config = copyMap(n.Config)
	out.Meta = copyMap(n.Meta)
	if n.Ports != nil {
		p := Ports{In: append([]string(nil), n.Ports.In...), Out: append([]string(nil), n.Ports.Out...)}
		out.Ports = &p
	}
	return out
}

// =============================================================================
// Edge
// =============================================================================

// Edge is a directed connection between an output port on one node and an
// input port on another. Source and target must reference existing nodes and
// must differ (no self-loops).
type Edge struct {
	ID         string `json:"id" bson:"id"`
	Source     string `json:"source" bson:"source"`
	SourcePort string `json:"source_port" bson:"source_port"`
	Target     string `json:"target" bson:"target"`
	TargetPort string `json:"target_port" bson:"target_port"`
	Label      string `json:"label,omitempty" bson:"label,omitempty"`
}

// Touches reports whether the edge has the given node as either endpoint.
func (e *Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// sameWiring reports whether two edges connect the exact same port tuple.
func (e *Edge) sameWiring(o Edge) bool {
	return e.Source == o.Source && e.SourcePort == o.SourcePort &&
		e.Target == o.Target && e.TargetPort == o.TargetPort
}

// =============================================================================
// Viewport
// =============================================================================

// Viewport is the pan offset (screen units) and zoom factor mapping world
// coordinates onto the visible canvas.
type Viewport struct {
	X    float64 `json:"x" bson:"x"`
	Y    float64 `json:"y" bson:"y"`
	Zoom float64 `json:"zoom" bson:"zoom"`
}

// DefaultViewport is the identity viewport: no pan, unit zoom.
func DefaultViewport() Viewport { return Viewport{Zoom: 1} }

// =============================================================================
// State - Snapshot Serialization
// =============================================================================

// State is the canonical serialization format for one editor instance.
// GetState produces it as a deep copy; SetState replaces the full store
// content from it. Hosts own persistence of State blobs.
type State struct {
	Nodes    []Node   `json:"nodes" bson:"nodes"`
	Edges    []Edge   `json:"edges" bson:"edges"`
	Viewport Viewport `json:"viewport" bson:"viewport"`
}

// MarshalState serializes a State to pretty-printed JSON bytes.
func MarshalState(s State) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// UnmarshalState deserializes JSON bytes into a State.
// A zero zoom is normalized to 1 so imported states are always usable.
func UnmarshalState(data []byte) (State, error) {
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("unmarshal state: %w", err)
	}
	if s.Viewport.Zoom == 0 {
		s.Viewport.Zoom = 1
	}
	return s, nil
}

// WriteStateFile writes a State to a JSON file.
func WriteStateFile(s State, path string) error {
	data, err := MarshalState(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadStateFile reads a State from a JSON file.
func ReadStateFile(path string) (State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return State{}, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalState(data)
}

// copyMap creates a shallow copy of a metadata map to avoid shared mutation.
func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = v
	}
	return result
}
