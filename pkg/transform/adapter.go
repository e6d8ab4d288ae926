package transform

import (
	"fmt"

	"github.com/flowcanvas/flowcanvas/pkg/graph"
)

// Horizontal and vertical spacing for the generated chain layout.
const (
	chainGapX = graph.PlacementGapX
	chainGapY = 140.0
)

// ToGraph builds the graph for a transform list: one source node named after
// the primary source, then one node per transform in list order, wired as a
// left-to-right chain through each step's primary input port. Join steps
// additionally spawn a source node for their secondary input, wired into the
// join's right port.
//
// Node IDs are deterministic ("step-1", "step-2", ...) so the result is
// stable for a given input. The emitted state carries the default viewport.
func ToGraph(source string, transforms []Transform) graph.State {
	st := graph.State{Viewport: graph.DefaultViewport()}

	srcID := source
	if srcID == "" {
		srcID = NodeTypeSource
	}
	st.Nodes = append(st.Nodes, graph.Node{
		ID:    srcID,
		Type:  NodeTypeSource,
		Label: srcID,
		X:     graph.PlacementOriginX,
		Y:     graph.PlacementOriginY,
	})

	prev := srcID
	edgeSeq := 0
	for i, t := range transforms {
		id := fmt.Sprintf("step-%d", i+1)
		n := graph.Node{
			ID:     id,
			Type:   t.Kind,
			Label:  t.Kind,
			Config: copyConfig(t.Config),
			X:      graph.PlacementOriginX + float64(i+1)*chainGapX,
			Y:      graph.PlacementOriginY,
		}

		targetPort := graph.DefaultInputPort
		if t.Kind == KindJoin {
			n.Ports = &graph.Ports{
				In:  []string{JoinLeftPort, JoinRightPort},
				Out: []string{graph.DefaultOutputPort},
			}
			targetPort = JoinLeftPort
		}
		st.Nodes = append(st.Nodes, n)

		edgeSeq++
		st.Edges = append(st.Edges, graph.Edge{
			ID:         fmt.Sprintf("edge-%d", edgeSeq),
			Source:     prev,
			SourcePort: graph.DefaultOutputPort,
			Target:     id,
			TargetPort: targetPort,
		})

		if right := t.RightSource(); right != "" {
			rightID := fmt.Sprintf("%s-src-%d", right, i+1)
			st.Nodes = append(st.Nodes, graph.Node{
				ID:    rightID,
				Type:  NodeTypeSource,
				Label: right,
				X:     n.X - chainGapX,
				Y:     graph.PlacementOriginY + chainGapY,
			})
			edgeSeq++
			st.Edges = append(st.Edges, graph.Edge{
				ID:         fmt.Sprintf("edge-%d", edgeSeq),
				Source:     rightID,
				SourcePort: graph.DefaultOutputPort,
				Target:     id,
				TargetPort: JoinRightPort,
			})
		}

		prev = id
	}

	return st
}

// FromGraph flattens the graph into an ordered transform list using Kahn's
// algorithm: seed the ready queue with every node of in-degree zero, then
// repeatedly dequeue, emit, and release successors. Ties break strictly FIFO
// by position in the node slice, so the output is deterministic for a given
// node order. Source nodes are visited but contribute no entry.
//
// Returns ErrIncompleteOrder when fewer nodes were dequeued than exist -
// the edge set contains a cycle and the flat list would be missing steps.
func FromGraph(nodes []graph.Node, edges []graph.Edge) ([]Transform, error) {
	inDegree := make(map[string]int, len(nodes))
	successors := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		inDegree[n.ID] = 0
	}
	for _, e := range edges {
		if _, ok := inDegree[e.Source]; !ok {
			continue
		}
		if _, ok := inDegree[e.Target]; !ok {
			continue
		}
		successors[e.Source] = append(successors[e.Source], e.Target)
		inDegree[e.Target]++
	}

	byID := make(map[string]graph.Node, len(nodes))
	var queue []string
	for _, n := range nodes {
		byID[n.ID] = n
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	out := make([]Transform, 0, len(nodes))
	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++

		if n := byID[id]; n.Type != NodeTypeSource {
			out = append(out, Transform{Kind: n.Type, Config: copyConfig(n.Config)})
		}
		for _, next := range successors[id] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited < len(nodes) {
		return nil, fmt.Errorf("%w: visited %d of %d nodes", ErrIncompleteOrder, visited, len(nodes))
	}
	return out, nil
}

// FromState is a convenience wrapper over FromGraph for full snapshots.
func FromState(st graph.State) ([]Transform, error) {
	return FromGraph(st.Nodes, st.Edges)
}

func copyConfig(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
