package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newThreadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threads",
		Short: "List stored conversation threads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			threads, err := a.Threads(cmd.Context())
			if err != nil {
				return err
			}
			if len(threads) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored threads.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "THREAD\tSTATUS\tNODE\tUPDATED")
			for _, t := range threads {
				status := "done"
				if t.Suspended {
					status = "waiting"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, status, t.Node, t.Updated.Local().Format(time.DateTime))
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rm <thread-id>...",
		Short: "Remove one or more threads",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			for _, id := range args {
				if err := a.DeleteThread(cmd.Context(), id); err != nil {
					return fmt.Errorf("remove %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed thread %s\n", id)
			}
			return nil
		},
	})
	return cmd
}
