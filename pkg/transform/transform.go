// Package transform converts between the editor's graph and the flat ordered
// transform list consumed by the execution engine.
//
// A pipeline is a list of transform steps applied left to right. On the
// canvas the same pipeline is a DAG: one source node feeding a chain of step
// nodes, with "join" steps pulling in a second source through a dedicated
// input port. [ToGraph] and [FromGraph] are pure inverses over acyclic
// pipelines; neither touches a live store - callers apply the produced state
// themselves.
package transform

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrIncompleteOrder is returned by [FromGraph] when Kahn's algorithm could
// not dequeue every node - the edge set contains a cycle, and emitting the
// partial list would silently lose the steps inside it.
var ErrIncompleteOrder = errors.New("topological order incomplete: graph contains a cycle")

// NodeTypeSource is the node type representing a pipeline input. Source
// nodes are emitted by [ToGraph] and excluded from [FromGraph] output: they
// are inputs, not steps.
const NodeTypeSource = "source"

// Transform kinds with dedicated graph or rendering behavior. Any other kind
// passes through as an opaque step.
const (
	KindFilter    = "filter"
	KindSort      = "sort"
	KindJoin      = "join"
	KindLimit     = "limit"
	KindAggregate = "aggregate"
	KindSelect    = "select"
)

// Join config keys. RightSourceKey names the secondary input feeding the
// join's right port.
const (
	RightSourceKey = "right_source"
	LeftKeyKey     = "left_key"
	RightKeyKey    = "right_key"
)

// Join input port names. The primary chain wires into the left port; the
// secondary source into the right.
const (
	JoinLeftPort  = "left"
	JoinRightPort = "right"
)

// Transform is one pipeline step in the execution engine's domain: a kind
// plus its type-specific fields. The wire format is flat JSON with the kind
// under "type":
//
//	{"type": "filter", "column": "age", "operator": "gt", "value": 30}
type Transform struct {
	Kind   string
	Config map[string]any
}

// MarshalJSON flattens the step into a single object with the kind as "type".
func (t Transform) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(t.Config)+1)
	for k, v := range t.Config {
		m[k] = v
	}
	m["type"] = t.Kind
	return json.Marshal(m)
}

// UnmarshalJSON splits the flat object back into kind and config.
func (t *Transform) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	kind, ok := m["type"].(string)
	if !ok || kind == "" {
		return fmt.Errorf("transform missing type: %s", data)
	}
	delete(m, "type")
	t.Kind = kind
	t.Config = m
	return nil
}

// RightSource returns the secondary source name of a join step, or empty for
// non-joins and joins without one.
func (t Transform) RightSource() string {
	if t.Kind != KindJoin {
		return ""
	}
	s, _ := t.Config[RightSourceKey].(string)
	return s
}

// MarshalList serializes transforms to pretty-printed JSON.
func MarshalList(ts []Transform) ([]byte, error) {
	return json.MarshalIndent(ts, "", "  ")
}

// UnmarshalList deserializes a JSON array of transforms.
func UnmarshalList(data []byte) ([]Transform, error) {
	var ts []Transform
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("unmarshal transforms: %w", err)
	}
	return ts, nil
}
