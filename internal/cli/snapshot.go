package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowcanvas/flowcanvas/pkg/graph"
	"github.com/flowcanvas/flowcanvas/pkg/snapshot"
)

func newSnapshotCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage saved pipeline snapshots",
		Long: `Snapshot saves, lists, restores, and deletes named pipeline states in
the local snapshot directory (~/.config/flowcanvas/snapshots by default).`,
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "snapshot directory")

	store := func() (*snapshot.FileStore, error) {
		return snapshot.NewFileStore(dir)
	}

	save := &cobra.Command{
		Use:   "save <state-file> <name>",
		Short: "Save a canvas state file as a named snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store()
			if err != nil {
				return err
			}
			st, err := graph.ReadStateFile(args[0])
			if err != nil {
				return err
			}
			snap := snapshot.New(args[1], st)
			if err := s.Put(cmd.Context(), snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", StyleSuccess.Render("saved"), snap.Name, snap.ID)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store()
			if err != nil {
				return err
			}
			snaps, err := s.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), StyleDim.Render("no snapshots"))
				return nil
			}
			for _, snap := range snaps {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-24s %s  %d nodes\n",
					snap.ID, snap.Name, snap.UpdatedAt.Format("2006-01-02 15:04"), len(snap.State.Nodes))
			}
			return nil
		},
	}

	restore := &cobra.Command{
		Use:   "restore <id> <state-file>",
		Short: "Write a snapshot back out as a canvas state file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store()
			if err != nil {
				return err
			}
			snap, err := s.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return graph.WriteStateFile(snap.State, args[1])
		},
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := store()
			if err != nil {
				return err
			}
			return s.Delete(cmd.Context(), args[0])
		},
	}

	cmd.AddCommand(save, list, restore, remove)
	return cmd
}
