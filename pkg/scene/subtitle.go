package scene

import (
	"fmt"
	"strings"

	"github.com/flowcanvas/flowcanvas/pkg/graph"
	"github.com/flowcanvas/flowcanvas/pkg/transform"
)

// Subtitle derives a one-line summary of a node's configuration for display
// under its label. Each known step kind has its own shape; unknown kinds and
// sources yield an empty subtitle. This is presentation only - nothing here
// validates the config.
func Subtitle(n *graph.Node) string {
	switch n.Type {
	case transform.KindFilter:
		return joinNonEmpty(" ",
			str(n.Config["column"]),
			str(n.Config["operator"]),
			str(n.Config["value"]))
	case transform.KindSort:
		return strList(n.Config["columns"])
	case transform.KindJoin:
		right, _ := n.Config[transform.RightSourceKey].(string)
		lk, _ := n.Config[transform.LeftKeyKey].(string)
		rk, _ := n.Config[transform.RightKeyKey].(string)
		if lk != "" && rk != "" {
			return joinNonEmpty(" ", right, "on", lk+" = "+rk)
		}
		return right
	case transform.KindLimit:
		if v, ok := n.Config["n"]; ok {
			return fmt.Sprintf("%v rows", v)
		}
		return ""
	case transform.KindAggregate:
		fn, _ := n.Config["func"].(string)
		col, _ := n.Config["column"].(string)
		if fn != "" && col != "" {
			return fn + "(" + col + ")"
		}
		return joinNonEmpty("", fn, col)
	case transform.KindSelect:
		return strList(n.Config["columns"])
	default:
		return ""
	}
}

func str(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// strList renders a config value that may be a []any or []string of column
// names as a comma-separated list.
func strList(v any) string {
	switch list := v.(type) {
	case []string:
		return strings.Join(list, ", ")
	case []any:
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, str(item))
		}
		return strings.Join(parts, ", ")
	default:
		return str(v)
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
