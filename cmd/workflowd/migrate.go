package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flowcore/workflowcore/internal/config"
)

// buildMigrateCmd wraps store.Migrate behind a single subcommand,
// grounded on the teacher's cmd/migrate.go migrate-subcommand tree
// (trimmed to one operation: workflowcore's sqlite schema has no
// down/force/goto use case yet, only the clean-break forward path
// store.Migrate already implements).
func buildMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending sqlite schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := runMigrate(cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %s\n", cfg.Store.Path)
			return nil
		},
	}
}
