package scene

import "github.com/flowcanvas/flowcanvas/pkg/graph"

// Defaults used when neither the registry nor node metadata supplies a value.
const (
	DefaultIcon  = "step"
	DefaultColor = "#64748b"
)

// Node metadata keys recognized as per-node appearance overrides.
const (
	metaIcon  = "icon"
	metaColor = "color"
)

// NodeType describes how one step type appears on the canvas and which ports
// it exposes. The host supplies a Registry of these per editor instance.
type NodeType struct {
	Icon  string   `json:"icon,omitempty"`
	Color string   `json:"color,omitempty"`
	In    []string `json:"in,omitempty"`
	Out   []string `json:"out,omitempty"`
}

// Registry maps node type names to their declarations.
type Registry map[string]NodeType

// PortsOf resolves the port lists for a node: the registry entry for its
// type wins, then the node's own override, then the default single
// input/output pair.
func (r Registry) PortsOf(n *graph.Node) (in, out []string) {
	if t, ok := r[n.Type]; ok {
		in, out = t.In, t.Out
	}
	if len(in) == 0 {
		in = n.InPorts()
	}
	if len(out) == 0 {
		out = n.OutPorts()
	}
	return in, out
}

// Appearance resolves a node's icon and color: registry entry for the type,
// then per-node metadata override, then the defaults.
func (r Registry) Appearance(n *graph.Node) (icon, color string) {
	if t, ok := r[n.Type]; ok {
		icon, color = t.Icon, t.Color
	}
	if icon == "" {
		if s, ok := n.Meta[metaIcon].(string); ok {
			icon = s
		}
	}
	if color == "" {
		if s, ok := n.Meta[metaColor].(string); ok {
			color = s
		}
	}
	if icon == "" {
		icon = DefaultIcon
	}
	if color == "" {
		color = DefaultColor
	}
	return icon, color
}
