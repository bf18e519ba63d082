package admin

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/veccache/internal/config"
)

// SchemaCmd returns the schema command
func SchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Apply database migrations",
		Long:  "Apply pending schema migrations to the configured Postgres database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if !cfg.HasDatabase() {
				return fmt.Errorf("DATABASE_URL is not configured")
			}
			return runMigrations(cfg.DatabaseURL)
		},
	}
}
