package cli

import (
	"github.com/spf13/cobra"

	"github.com/kata/useradmin/internal/infrastructure/db/postgres"
	"github.com/kata/useradmin/pkg/logger"
)

// MigrateCmd applies the embedded PostgreSQL migrations and exits.
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the admin panel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := setup("migrate")
			log := logger.Get()

			if err := postgres.ApplyMigrations(cmd.Context(), cfg.Postgres.URL); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}
