package graph

import (
	"encoding/json"
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestAddNode(t *testing.T) {
	tests := []struct {
		name  string
		build func(s *Store) Node
		check func(t *testing.T, s *Store, n Node)
	}{
		{
			name: "GeneratesID",
			build: func(s *Store) Node {
				return s.AddNode(NodeSpec{Type: "filter"})
			},
			check: func(t *testing.T, s *Store, n Node) {
				if n.ID == "" {
					t.Error("expected generated ID")
				}
				if _, ok := s.Node(n.ID); !ok {
					t.Error("node not stored under its ID")
				}
			},
		},
		{
			name: "KeepsSuppliedIDAndConfig",
			build: func(s *Store) Node {
				return s.AddNode(NodeSpec{
					ID:     "filter-1",
					Type:   "filter",
					Config: map[string]any{"column": "age", "operator": "gt", "value": 30},
				})
			},
			check: func(t *testing.T, s *Store, n Node) {
				if n.ID != "filter-1" {
					t.Errorf("id = %q, want filter-1", n.ID)
				}
				got, _ := s.Node("filter-1")
				if got.Config["column"] != "age" {
					t.Errorf("config column = %v, want age", got.Config["column"])
				}
			},
		},
		{
			name: "RegeneratesCollidingID",
			build: func(s *Store) Node {
				s.AddNode(NodeSpec{ID: "dup"})
				return s.AddNode(NodeSpec{ID: "dup"})
			},
			check: func(t *testing.T, s *Store, n Node) {
				if n.ID == "dup" {
					t.Error("colliding ID was not regenerated")
				}
				if s.NodeCount() != 2 {
					t.Errorf("nodes = %d, want 2", s.NodeCount())
				}
			},
		},
		{
			name: "DefaultPlacementAfterRightmost",
			build: func(s *Store) Node {
				s.AddNode(NodeSpec{ID: "a", X: f64(100), Y: f64(40)})
				s.AddNode(NodeSpec{ID: "b", X: f64(400), Y: f64(90)})
				return s.AddNode(NodeSpec{ID: "c"})
			},
			check: func(t *testing.T, s *Store, n Node) {
				if n.X != 400+PlacementGapX {
					t.Errorf("x = %v, want %v", n.X, 400+PlacementGapX)
				}
				if n.Y != 90 {
					t.Errorf("y = %v, want 90 (rightmost node's y)", n.Y)
				}
			},
		},
		{
			name: "FirstNodeAtOrigin",
			build: func(s *Store) Node {
				return s.AddNode(NodeSpec{ID: "a"})
			},
			check: func(t *testing.T, s *Store, n Node) {
				if n.X != PlacementOriginX || n.Y != PlacementOriginY {
					t.Errorf("position = (%v, %v), want origin", n.X, n.Y)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			n := tt.build(s)
			tt.check(t, s, n)
		})
	}
}

func TestRemoveNodeCascades(t *testing.T) {
	s := NewStore()
	s.AddNode(NodeSpec{ID: "a"})
	s.AddNode(NodeSpec{ID: "b"})
	s.AddNode(NodeSpec{ID: "c"})
	if _, err := s.AddEdge("a", "b", "output", "input", ""); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if _, err := s.AddEdge("b", "c", "output", "input", ""); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	s.SelectNode("b", false)

	s.RemoveNode("b")

	if _, ok := s.Node("b"); ok {
		t.Error("node b still present")
	}
	if s.EdgeCount() != 0 {
		t.Errorf("edges = %d, want 0 (both touched b)", s.EdgeCount())
	}
	if len(s.SelectedNodes()) != 0 {
		t.Error("selection still references removed node")
	}
	if s.NodeCount() != 2 {
		t.Errorf("nodes = %d, want 2", s.NodeCount())
	}
}

func TestRemoveNodeKeepsUnrelatedEdges(t *testing.T) {
	s := NewStore()
	for _, id := range []string{"a", "b", "c", "d"} {
		s.AddNode(NodeSpec{ID: id})
	}
	s.AddEdge("a", "b", "", "", "")
	s.AddEdge("c", "d", "", "", "")

	s.RemoveNode("a")

	if s.EdgeCount() != 1 {
		t.Fatalf("edges = %d, want 1", s.EdgeCount())
	}
	if e := s.Edges()[0]; e.Source != "c" || e.Target != "d" {
		t.Errorf("surviving edge = %s→%s, want c→d", e.Source, e.Target)
	}
}

func TestAddEdgeRejections(t *testing.T) {
	tests := []struct {
		name    string
		build   func(s *Store)
		source  string
		target  string
		wantErr error
	}{
		{
			name:    "SelfLoop",
			build:   func(s *Store) { s.AddNode(NodeSpec{ID: "a"}) },
			source:  "a",
			target:  "a",
			wantErr: ErrSelfLoop,
		},
		{
			name: "Duplicate",
			build: func(s *Store) {
				s.AddNode(NodeSpec{ID: "a"})
				s.AddNode(NodeSpec{ID: "b"})
				s.AddEdge("a", "b", "output", "input", "")
			},
			source:  "a",
			target:  "b",
			wantErr: ErrDuplicateEdge,
		},
		{
			name:    "UnknownSource",
			build:   func(s *Store) { s.AddNode(NodeSpec{ID: "b"}) },
			source:  "ghost",
			target:  "b",
			wantErr: ErrUnknownSourceNode,
		},
		{
			name:    "UnknownTarget",
			build:   func(s *Store) { s.AddNode(NodeSpec{ID: "a"}) },
			source:  "a",
			target:  "ghost",
			wantErr: ErrUnknownTargetNode,
		},
		{
			name: "Cycle",
			build: func(s *Store) {
				s.AddNode(NodeSpec{ID: "a"})
				s.AddNode(NodeSpec{ID: "b"})
				s.AddNode(NodeSpec{ID: "c"})
				s.AddEdge("a", "b", "", "", "")
				s.AddEdge("b", "c", "", "", "")
			},
			source:  "c",
			target:  "a",
			wantErr: ErrEdgeWouldCycle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			tt.build(s)
			before := s.EdgeCount()

			e, err := s.AddEdge(tt.source, tt.target, "output", "input", "")
			if e != nil {
				t.Error("expected nil edge")
			}
			if err != tt.wantErr {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if s.EdgeCount() != before {
				t.Errorf("edge count changed: %d -> %d", before, s.EdgeCount())
			}
		})
	}
}

func TestAddEdgeVeto(t *testing.T) {
	s := NewStore(WithEdgeVeto(func(e Edge) bool { return e.Target != "forbidden" }))
	s.AddNode(NodeSpec{ID: "a"})
	s.AddNode(NodeSpec{ID: "forbidden"})
	s.AddNode(NodeSpec{ID: "ok"})

	if _, err := s.AddEdge("a", "forbidden", "", "", ""); err != ErrEdgeVetoed {
		t.Errorf("err = %v, want ErrEdgeVetoed", err)
	}
	if _, err := s.AddEdge("a", "ok", "", "", ""); err != nil {
		t.Errorf("unexpected err: %v", err)
	}
	if s.EdgeCount() != 1 {
		t.Errorf("edges = %d, want 1", s.EdgeCount())
	}
}

func TestAddEdgePortFallback(t *testing.T) {
	s := NewStore()
	s.AddNode(NodeSpec{ID: "join", Ports: &Ports{In: []string{"left", "right"}, Out: []string{"output"}}})
	s.AddNode(NodeSpec{ID: "src"})

	e, err := s.AddEdge("src", "join", "", "bogus", "")
	if err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if e.SourcePort != "output" {
		t.Errorf("source port = %q, want output", e.SourcePort)
	}
	if e.TargetPort != "left" {
		t.Errorf("target port = %q, want left (first declared)", e.TargetPort)
	}
}

func TestAddEdgeUsesPortResolver(t *testing.T) {
	// Ports declared in an external registry, not on the nodes.
	s := NewStore(WithPortResolver(func(n *Node) (in, out []string) {
		if n.Type == "join" {
			return []string{"left", "right"}, []string{"output"}
		}
		return nil, []string{"output"}
	}))
	s.AddNode(NodeSpec{ID: "src", Type: "source"})
	s.AddNode(NodeSpec{ID: "join", Type: "join"})

	// A resolver-declared name survives even though the node itself
	// declares nothing.
	e, err := s.AddEdge("src", "join", "output", "right", "")
	if err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if e.TargetPort != "right" {
		t.Errorf("target port = %q, want right", e.TargetPort)
	}

	// Unknown names still fall back to the first declared port.
	s.AddNode(NodeSpec{ID: "src2", Type: "source"})
	e, err = s.AddEdge("src2", "join", "", "bogus", "")
	if err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if e.TargetPort != "left" {
		t.Errorf("target port = %q, want left (first declared)", e.TargetPort)
	}
}

func TestSelectionRules(t *testing.T) {
	s := NewStore()
	s.AddNode(NodeSpec{ID: "a"})
	s.AddNode(NodeSpec{ID: "b"})
	e, _ := s.AddEdge("a", "b", "", "", "")

	s.SelectNode("a", false)
	s.SelectNode("b", true) // additive accumulates within a kind
	if got := s.SelectedNodes(); len(got) != 2 {
		t.Fatalf("selected nodes = %v, want [a b]", got)
	}

	s.SelectNode("a", true) // additive toggle removes
	if got := s.SelectedNodes(); len(got) != 1 || got[0] != "b" {
		t.Fatalf("selected nodes = %v, want [b]", got)
	}

	s.SelectEdge(e.ID, true) // kinds are mutually exclusive
	if len(s.SelectedNodes()) != 0 {
		t.Error("node selection survived edge selection")
	}
	if !s.EdgeSelected(e.ID) {
		t.Error("edge not selected")
	}

	s.SelectNode("a", false) // plain click replaces everything
	if len(s.SelectedEdges()) != 0 || len(s.SelectedNodes()) != 1 {
		t.Error("plain click did not replace selection")
	}
}

func TestStateRoundTrip(t *testing.T) {
	s := NewStore()
	s.AddNode(NodeSpec{ID: "src", Type: "source", X: f64(10), Y: f64(20)})
	s.AddNode(NodeSpec{
		ID:     "flt",
		Type:   "filter",
		Config: map[string]any{"column": "age"},
		Ports:  &Ports{In: []string{"input"}, Out: []string{"output"}},
	})
	s.AddEdge("src", "flt", "output", "input", "rows")
	s.SetViewport(Viewport{X: -40, Y: 12, Zoom: 1.5})

	st := s.GetState()

	// Deep copy: mutating the snapshot must not touch the store.
	st.Nodes[1].Config["column"] = "name"
	if n, _ := s.Node("flt"); n.Config["column"] != "age" {
		t.Error("GetState returned a shallow copy")
	}

	restored := NewStore()
	restored.SetState(s.GetState())

	if restored.NodeCount() != 2 || restored.EdgeCount() != 1 {
		t.Fatalf("restore = %d nodes / %d edges, want 2/1", restored.NodeCount(), restored.EdgeCount())
	}
	if restored.Viewport() != (Viewport{X: -40, Y: 12, Zoom: 1.5}) {
		t.Errorf("viewport = %+v", restored.Viewport())
	}

	a, _ := json.Marshal(s.GetState())
	b, _ := json.Marshal(restored.GetState())
	if string(a) != string(b) {
		t.Error("state round-trip is not identical")
	}
}

func TestSetStateDropsOrphanEdges(t *testing.T) {
	s := NewStore()
	s.SetState(State{
		Nodes: []Node{{ID: "a"}},
		Edges: []Edge{{ID: "e1", Source: "a", Target: "missing"}},
	})
	if s.EdgeCount() != 0 {
		t.Errorf("edges = %d, want 0", s.EdgeCount())
	}
	if s.Viewport().Zoom != 1 {
		t.Errorf("zoom = %v, want normalized 1", s.Viewport().Zoom)
	}
}

func TestClear(t *testing.T) {
	s := NewStore()
	s.AddNode(NodeSpec{ID: "a"})
	s.AddNode(NodeSpec{ID: "b"})
	s.AddEdge("a", "b", "", "", "")
	s.SelectNode("a", false)
	s.SetViewport(Viewport{X: 5, Y: 5, Zoom: 2})

	s.Clear()

	if s.NodeCount() != 0 || s.EdgeCount() != 0 {
		t.Error("clear left nodes or edges behind")
	}
	if len(s.SelectedNodes()) != 0 {
		t.Error("clear left selection behind")
	}
	if s.Viewport().Zoom != 2 {
		t.Error("clear should preserve the viewport")
	}
}

func TestRemoveEdgeUnknownIsNoop(t *testing.T) {
	s := NewStore()
	s.AddNode(NodeSpec{ID: "a"})
	s.RemoveEdge("ghost")
	s.RemoveNode("ghost")
	if s.NodeCount() != 1 {
		t.Errorf("nodes = %d, want 1", s.NodeCount())
	}
}
