package transform

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/flowcanvas/flowcanvas/pkg/graph"
)

func TestToGraphFilterLimit(t *testing.T) {
	transforms := []Transform{
		{Kind: KindFilter, Config: map[string]any{"column": "age", "operator": "gt", "value": 30}},
		{Kind: KindLimit, Config: map[string]any{"n": 10}},
	}

	st := ToGraph("users", transforms)

	if len(st.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3 (source, filter, limit)", len(st.Nodes))
	}
	if len(st.Edges) != 2 {
		t.Fatalf("edges = %d, want 2", len(st.Edges))
	}
	if st.Nodes[0].ID != "users" || st.Nodes[0].Type != NodeTypeSource {
		t.Errorf("first node = %+v, want users source", st.Nodes[0])
	}
	if st.Edges[0].Source != "users" || st.Edges[0].Target != st.Nodes[1].ID {
		t.Errorf("edge 0 = %s→%s, want users→filter", st.Edges[0].Source, st.Edges[0].Target)
	}
	if st.Edges[1].Source != st.Nodes[1].ID || st.Edges[1].Target != st.Nodes[2].ID {
		t.Errorf("edge 1 = %s→%s, want filter→limit", st.Edges[1].Source, st.Edges[1].Target)
	}

	// Chain runs left to right.
	if !(st.Nodes[0].X < st.Nodes[1].X && st.Nodes[1].X < st.Nodes[2].X) {
		t.Error("chain nodes are not ordered left to right")
	}
}

func TestRoundTripLinear(t *testing.T) {
	tests := []struct {
		name       string
		transforms []Transform
	}{
		{"Empty", nil},
		{
			name: "SingleFilter",
			transforms: []Transform{
				{Kind: KindFilter, Config: map[string]any{"column": "age", "operator": "gt", "value": 30}},
			},
		},
		{
			name: "FilterSortLimit",
			transforms: []Transform{
				{Kind: KindFilter, Config: map[string]any{"column": "status", "operator": "eq", "value": "open"}},
				{Kind: KindSort, Config: map[string]any{"columns": []any{"created_at"}, "descending": true}},
				{Kind: KindLimit, Config: map[string]any{"n": 100}},
			},
		},
		{
			name: "UnknownKindPassesThrough",
			transforms: []Transform{
				{Kind: "custom_udf", Config: map[string]any{"code": "x + 1"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := ToGraph("events", tt.transforms)
			got, err := FromState(st)
			if err != nil {
				t.Fatalf("FromState: %v", err)
			}
			if len(got) != len(tt.transforms) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.transforms))
			}
			for i := range got {
				if got[i].Kind != tt.transforms[i].Kind {
					t.Errorf("[%d] kind = %q, want %q", i, got[i].Kind, tt.transforms[i].Kind)
				}
				if !reflect.DeepEqual(got[i].Config, tt.transforms[i].Config) {
					t.Errorf("[%d] config = %#v, want %#v", i, got[i].Config, tt.transforms[i].Config)
				}
			}
		})
	}
}

func TestJoinRoundTrip(t *testing.T) {
	transforms := []Transform{
		{Kind: KindFilter, Config: map[string]any{"column": "age", "operator": "gt", "value": 30}},
		{Kind: KindJoin, Config: map[string]any{
			RightSourceKey: "orders",
			LeftKeyKey:     "user_id",
			RightKeyKey:    "id",
			"how":          "inner",
		}},
	}

	st := ToGraph("users", transforms)

	// 2 sources + filter + join.
	if len(st.Nodes) != 4 {
		t.Fatalf("nodes = %d, want 4", len(st.Nodes))
	}
	sources := 0
	var join graph.Node
	for _, n := range st.Nodes {
		switch n.Type {
		case NodeTypeSource:
			sources++
		case KindJoin:
			join = n
		}
	}
	if sources != 2 {
		t.Errorf("source nodes = %d, want 2", sources)
	}
	if join.Ports == nil || len(join.Ports.In) != 2 {
		t.Fatal("join node should declare two input ports")
	}

	// Secondary source wires into the right port, the chain into the left.
	var rightEdge, leftEdge bool
	for _, e := range st.Edges {
		if e.Target == join.ID && e.TargetPort == JoinRightPort {
			rightEdge = true
		}
		if e.Target == join.ID && e.TargetPort == JoinLeftPort {
			leftEdge = true
		}
	}
	if !rightEdge || !leftEdge {
		t.Error("join inputs not wired to left and right ports")
	}

	got, err := FromState(st)
	if err != nil {
		t.Fatalf("FromState: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[1].RightSource() != "orders" {
		t.Errorf("right source = %q, want orders", got[1].RightSource())
	}
	if !reflect.DeepEqual(got[1].Config, transforms[1].Config) {
		t.Errorf("join config = %#v, want %#v", got[1].Config, transforms[1].Config)
	}
}

func TestFromGraphCycle(t *testing.T) {
	// A 3-cycle can only enter through SetState-style wholesale import; the
	// store's AddEdge refuses to create one. The adapter must refuse to emit
	// a partial list instead of silently dropping all three steps.
	nodes := []graph.Node{
		{ID: "a", Type: KindFilter},
		{ID: "b", Type: KindSort},
		{ID: "c", Type: KindLimit},
	}
	edges := []graph.Edge{
		{ID: "e1", Source: "a", Target: "b"},
		{ID: "e2", Source: "b", Target: "c"},
		{ID: "e3", Source: "c", Target: "a"},
	}

	_, err := FromGraph(nodes, edges)
	if !errors.Is(err, ErrIncompleteOrder) {
		t.Fatalf("err = %v, want ErrIncompleteOrder", err)
	}
}

func TestFromGraphFIFOTieBreak(t *testing.T) {
	// Two disconnected chains: ties resolve by node slice order.
	nodes := []graph.Node{
		{ID: "x1", Type: "alpha"},
		{ID: "y1", Type: "beta"},
		{ID: "x2", Type: "gamma"},
	}
	edges := []graph.Edge{{ID: "e1", Source: "x1", Target: "x2"}}

	got, err := FromGraph(nodes, edges)
	if err != nil {
		t.Fatalf("FromGraph: %v", err)
	}
	kinds := []string{got[0].Kind, got[1].Kind, got[2].Kind}
	want := []string{"alpha", "beta", "gamma"}
	if !reflect.DeepEqual(kinds, want) {
		t.Errorf("order = %v, want %v", kinds, want)
	}
}

func TestFromGraphIgnoresDanglingEdges(t *testing.T) {
	nodes := []graph.Node{{ID: "a", Type: KindFilter}}
	edges := []graph.Edge{{ID: "e1", Source: "ghost", Target: "a"}}

	got, err := FromGraph(nodes, edges)
	if err != nil {
		t.Fatalf("FromGraph: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestTransformJSON(t *testing.T) {
	in := `[{"type":"filter","column":"age","operator":"gt","value":30},{"type":"limit","n":10}]`

	ts, err := UnmarshalList([]byte(in))
	if err != nil {
		t.Fatalf("UnmarshalList: %v", err)
	}
	if ts[0].Kind != KindFilter || ts[0].Config["column"] != "age" {
		t.Errorf("first = %+v", ts[0])
	}
	if _, hasType := ts[0].Config["type"]; hasType {
		t.Error("kind leaked into config")
	}

	data, err := MarshalList(ts)
	if err != nil {
		t.Fatalf("MarshalList: %v", err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("re-unmarshal: %v", err)
	}
	if raw[0]["type"] != "filter" || raw[1]["type"] != "limit" {
		t.Errorf("flattened types = %v, %v", raw[0]["type"], raw[1]["type"])
	}
}

func TestUnmarshalMissingType(t *testing.T) {
	if _, err := UnmarshalList([]byte(`[{"column":"age"}]`)); err == nil {
		t.Error("expected error for transform without type")
	}
}
