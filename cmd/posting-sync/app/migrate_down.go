package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/stacklok/posting-sync/database"
)

func newMigrateDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Revert database migrations",
		Long: `Revert database migrations. Without --num-steps every migration is reverted
and all posting, notification and lock data is lost.`,
		Example: `  # Revert the last migration
  posting-sync migrate down --config config.yaml --num-steps 1 --yes

  # Revert everything
  posting-sync migrate down --config config.yaml --yes`,
		RunE: runMigrateDown,
	}
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	cfg, connString, err := migrationTarget(cmd)
	if err != nil {
		return err
	}

	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}

	prompt := fmt.Sprintf("About to revert %d migration(s) on %s:%d/%s.",
		numSteps, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	if numSteps == 0 {
		slog.Warn("Migrating down all steps, this will remove the whole schema")
		prompt = fmt.Sprintf("About to revert ALL migrations on %s:%d/%s.",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)
	}

	ok, err := confirm(cmd, prompt)
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("Migration cancelled by user")
		return nil
	}

	if err := database.MigrateDown(connString, numSteps); err != nil {
		return fmt.Errorf("failed to revert migrations: %w", err)
	}

	logVersion(connString)
	return nil
}
