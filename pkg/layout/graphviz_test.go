package layout

import (
	"strings"
	"testing"

	"github.com/flowcanvas/flowcanvas/pkg/graph"
)

func TestBuildDOT(t *testing.T) {
	opts := Options{Direction: DirectionLR, NodeWidth: 144, NodeHeight: 72, GapX: 72, GapY: 36}
	dot := buildDOT(nodesOf("a", "b"), []graph.Edge{edge("a", "b")}, opts)

	for _, want := range []string{
		"digraph G {",
		"rankdir=LR;",
		"ranksep=1.000;",
		"nodesep=0.500;",
		`width=2.000, height=1.000`,
		`"a";`,
		`"a" -> "b";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestParsePositions(t *testing.T) {
	// Trimmed xdot output: node attributes span lines, edges carry their
	// own pos attributes that must not be picked up.
	xdot := `digraph G {
	graph [bb="0,0,283,36"];
	node [fixedsize=true, height=0.5, width=1];
	"a"	[_draw_="c 7 -#000000",
		pos="36,18",
		width=1];
	"b"	[pos="211,18",
		height=0.5];
	"a" -> "b"	[pos="e,174.66,18 72.37,18"];
}
`
	opts := Options{NodeWidth: 72, NodeHeight: 36}
	pos, err := parsePositions([]byte(xdot), opts)
	if err != nil {
		t.Fatal(err)
	}
	if len(pos) != 2 {
		t.Fatalf("parsed %d positions, want 2", len(pos))
	}

	// Centers (36,18) and (211,18) on the same row become top-left corners
	// with Y flipped to point down.
	if pos["a"].X != 0 || pos["a"].Y != -18 {
		t.Errorf(`pos["a"] = %+v, want (0, -18)`, pos["a"])
	}
	if pos["b"].X != 175 || pos["b"].Y != -18 {
		t.Errorf(`pos["b"] = %+v, want (175, -18)`, pos["b"])
	}
}
