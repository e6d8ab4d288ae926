package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flowcanvas/flowcanvas/pkg/graph"
)

func sampleState() graph.State {
	return graph.State{
		Nodes: []graph.Node{
			{ID: "a", Type: "source", Label: "orders", X: 80, Y: 120},
			{ID: "b", Type: "filter", Label: "filter", X: 260, Y: 120},
		},
		Edges:    []graph.Edge{{ID: "e1", Source: "a", SourcePort: "output", Target: "b", TargetPort: "input"}},
		Viewport: graph.DefaultViewport(),
	}
}

// storeUnderTest lets the same contract run against every local backend.
func storeUnderTest(t *testing.T, name string) Store {
	t.Helper()
	switch name {
	case "memory":
		return NewMemoryStore()
	case "file":
		s, err := NewFileStore(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		return s
	default:
		t.Fatalf("unknown backend %q", name)
		return nil
	}
}

func TestStoreContract(t *testing.T) {
	for _, backend := range []string{"memory", "file"} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			s := storeUnderTest(t, backend)

			if _, err := s.Get(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Get(ghost) = %v, want ErrNotFound", err)
			}
			if err := s.Delete(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Delete(ghost) = %v, want ErrNotFound", err)
			}

			snap := New("daily report", sampleState())
			if err := s.Put(ctx, snap); err != nil {
				t.Fatal(err)
			}

			got, err := s.Get(ctx, snap.ID)
			if err != nil {
				t.Fatal(err)
			}
			if got.Name != "daily report" || len(got.State.Nodes) != 2 || len(got.State.Edges) != 1 {
				t.Fatalf("got = %+v", got)
			}

			// Put is an upsert.
			snap.Name = "renamed"
			snap.Touch()
			if err := s.Put(ctx, snap); err != nil {
				t.Fatal(err)
			}
			got, err = s.Get(ctx, snap.ID)
			if err != nil {
				t.Fatal(err)
			}
			if got.Name != "renamed" {
				t.Fatalf("name = %q after upsert", got.Name)
			}

			if err := s.Delete(ctx, snap.ID); err != nil {
				t.Fatal(err)
			}
			if _, err := s.Get(ctx, snap.ID); !errors.Is(err, ErrNotFound) {
				t.Fatal("snapshot survived delete")
			}
		})
	}
}

func TestListOrdersByRecency(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	older := New("older", sampleState())
	older.UpdatedAt = time.Now().UTC().Add(-time.Hour)
	newer := New("newer", sampleState())

	if err := s.Put(ctx, older); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, newer); err != nil {
		t.Fatal(err)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "newer" || list[1].Name != "older" {
		t.Fatalf("list = %+v", list)
	}
}

func TestNewGeneratesDistinctIDs(t *testing.T) {
	a := New("a", graph.State{})
	b := New("b", graph.State{})
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids %q and %q", a.ID, b.ID)
	}
	if a.CreatedAt.IsZero() || !a.CreatedAt.Equal(a.UpdatedAt) {
		t.Fatalf("timestamps = %v / %v", a.CreatedAt, a.UpdatedAt)
	}
}
