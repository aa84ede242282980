// Package cli wires configuration, logging and infrastructure into the
// useradmin commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/kata/useradmin/internal/pkg/config"
	"github.com/kata/useradmin/pkg/logger"
)

// RootCmd returns the useradmin command tree.
func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "useradmin",
		Short:         "User administration web apps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		AdminCmd(),
		DirectoryCmd(),
		MigrateCmd(),
	)

	return root
}

// setup loads configuration and initialises the logger for app.
func setup(app string) *config.Config {
	cfg := config.Load()
	logger.Init(logger.Options{
		App:    app,
		Level:  cfg.LogLevel,
		Pretty: cfg.IsDevelopment(),
	})
	return cfg
}
