package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flowcanvas/flowcanvas/pkg/graph"
	"github.com/flowcanvas/flowcanvas/pkg/transform"
)

func newConvertCmd() *cobra.Command {
	var (
		output string
		source string
	)

	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert between canvas state and transform chains",
		Long: `Convert reads a canvas state file and writes the equivalent ordered
transform chain, or reads a transform chain and writes a canvas state.

The direction is inferred from the input: a JSON object with a "nodes" key
is canvas state, a JSON array is a transform chain. Converting a chain to a
state needs --source for the source node label.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			var out []byte
			if looksLikeChain(data) {
				ts, err := transform.UnmarshalList(data)
				if err != nil {
					return fmt.Errorf("parse transforms: %w", err)
				}
				st := transform.ToGraph(source, ts)
				out, err = graph.MarshalState(st)
				if err != nil {
					return err
				}
				logger.Info("converted chain to canvas state", "steps", len(ts), "nodes", len(st.Nodes))
			} else {
				st, err := graph.UnmarshalState(data)
				if err != nil {
					return fmt.Errorf("parse state: %w", err)
				}
				ts, err := transform.FromState(st)
				if err != nil {
					return fmt.Errorf("order graph: %w", err)
				}
				out, err = transform.MarshalList(ts)
				if err != nil {
					return err
				}
				logger.Info("converted canvas state to chain", "nodes", len(st.Nodes), "steps", len(ts))
			}

			if output == "" || output == "-" {
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			return os.WriteFile(output, out, 0644)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&source, "source", "source", "source node label when converting a chain")
	return cmd
}

// looksLikeChain reports whether data starts a JSON array.
func looksLikeChain(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}
