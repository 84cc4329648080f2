// Package main is workflowcore's entry point: a thin cobra CLI wiring
// config, store, notify bus, metrics, the agent runtime, and the
// Workflow Executor behind "serve" and "migrate" subcommands.
// Grounded on the teacher's cmd/nexus/main.go buildRootCmd() split
// (root command construction separated from main() for testability)
// and its slog.NewJSONHandler default-logger setup.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"

	configPath string
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd assembles the command tree, kept separate from main so
// tests can exercise it without touching os.Exit.
func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "workflowd",
		Short:        "workflowcore - agentic workflow execution core",
		Version:      fmt.Sprintf("%s (commit %s)", version, commit),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", os.Getenv("WORKFLOWCORE_CONFIG"), "path to config.yaml")
	root.AddCommand(buildServeCmd(), buildMigrateCmd())
	return root
}
