package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configFile string
	dbPath     string
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "lector",
		Short:         "Reading assistant: annotated articles, contextual lookups and mindmaps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./config.yaml or $HOME/.config/lector/config.yaml)")
	root.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite database (overrides database.path)")

	root.AddCommand(newServeCommand())
	root.AddCommand(newAnnotateCommand())
	root.AddCommand(newMindmapCommand())
	return root
}

func main() {
	// Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
