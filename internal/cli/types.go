package cli

import (
	"github.com/flowcanvas/flowcanvas/pkg/scene"
	"github.com/flowcanvas/flowcanvas/pkg/transform"
)

// defaultNodeTypes is the node-type registry used by the CLI: one source
// type plus the built-in transform kinds.
func defaultNodeTypes() scene.Registry {
	step := func(icon, color string) scene.NodeType {
		return scene.NodeType{Icon: icon, Color: color, In: []string{"input"}, Out: []string{"output"}}
	}
	return scene.Registry{
		transform.NodeTypeSource: {Icon: "database", Color: "#3b82f6", Out: []string{"output"}},
		transform.KindFilter:     step("funnel", "#10b981"),
		transform.KindSort:       step("arrows", "#8b5cf6"),
		transform.KindLimit:      step("scissors", "#f59e0b"),
		transform.KindAggregate:  step("sigma", "#ef4444"),
		transform.KindSelect:     step("columns", "#06b6d4"),
		transform.KindJoin: {
			Icon:  "merge",
			Color: "#ec4899",
			In:    []string{transform.JoinLeftPort, transform.JoinRightPort},
			Out:   []string{"output"},
		},
	}
}

// nodeTypeCycle is the order the edit view steps through when inserting
// nodes.
var nodeTypeCycle = []string{
	transform.NodeTypeSource,
	transform.KindFilter,
	transform.KindSort,
	transform.KindJoin,
	transform.KindLimit,
	transform.KindAggregate,
	transform.KindSelect,
}
