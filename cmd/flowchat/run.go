package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowchat/internal/workflows/catalog"
)

func newListCmd(cat *catalog.Catalog) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range cat.List() {
				model := ""
				if e.NeedsLLM {
					model = "(model)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Description, model)
			}
			return w.Flush()
		},
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <workflow>",
		Short: "Run a workflow, or continue a paused thread with --thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflow(cmd, args[0])
		},
	}
	cmd.Flags().String("thread", "", "thread ID to continue")
	return cmd
}

func newShortcutCmd(e catalog.Entry) *cobra.Command {
	cmd := &cobra.Command{
		Use:   e.Name,
		Short: e.Description,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWorkflow(cmd, e.Name)
		},
	}
	cmd.Flags().String("thread", "", "thread ID to continue")
	return cmd
}

func runWorkflow(cmd *cobra.Command, workflow string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	thread, _ := cmd.Flags().GetString("thread")
	_, err = a.Run(cmd.Context(), workflow, thread)
	return err
}
