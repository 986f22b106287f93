package main

import (
	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowchat/internal/app"
	"github.com/randalmurphal/flowchat/internal/workflows/catalog"
	"github.com/randalmurphal/flowchat/pkg/flowgraph/config"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "flowchat",
		Short: "Interactive conversation workflows that pause for your input",
		Long: `flowchat runs small conversational workflows. Each one pauses whenever it
needs an answer from you; conversations are checkpointed so a paused thread
can be picked up again with --thread.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "path to a YAML or JSON config file")

	cat := catalog.Default()
	root.AddCommand(newListCmd(cat), newRunCmd(), newThreadsCmd(), newVersionCmd())
	for _, e := range cat.List() {
		root.AddCommand(newShortcutCmd(e))
	}
	return root
}

// openApp loads settings and builds the app on the command's streams.
func openApp(cmd *cobra.Command) (*app.App, error) {
	path, _ := cmd.Flags().GetString("config")
	s, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return app.New(cmd.Context(), s, app.WithStdio(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()))
}
