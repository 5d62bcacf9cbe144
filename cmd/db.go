package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/recap-cli/config"
	"github.com/otherjamesbrown/recap-cli/pkg/db"
)

// Database command flags
var dbMigrationsDir string

// NewDbCommand creates the root db command with all subcommands.
func NewDbCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands for recap.

Migration files are SQL files in the migrations directory, named with numeric
prefixes (e.g., 001_meetings.sql, 002_sync_runs.sql). Migrations are applied
in alphabetical order and tracked in the schema_migrations table.

Examples:
  # Show migration status
  recap db status

  # Apply all pending migrations
  recap db migrate`,
		Aliases: []string{"database"},
	}

	cmd.PersistentFlags().StringVarP(&dbMigrationsDir, "migrations", "m", config.DefaultMigrationsDir, "Path to migrations directory")

	cmd.AddCommand(newDbMigrateCommand())
	cmd.AddCommand(newDbStatusCommand())

	return cmd
}

func newDbMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDbMigrate(cmd.Context())
		},
	}
}

func newDbStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDbStatus(cmd.Context())
		},
	}
}

func runDbMigrate(ctx context.Context) error {
	cfg, err := config.LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := connectToDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(pool)

	result, err := db.RunMigrations(ctx, pool, dbMigrationsDir)
	if err != nil {
		return err
	}

	for _, v := range result.Applied {
		fmt.Printf("applied  %s\n", v)
	}
	if len(result.Applied) == 0 {
		fmt.Println("No pending migrations.")
	}

	return nil
}

func runDbStatus(ctx context.Context) error {
	cfg, err := config.LoadConfig("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := connectToDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close(pool)

	entries, err := db.MigrationStatus(ctx, pool, dbMigrationsDir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		status := "pending"
		if e.AppliedAt != nil {
			status = "applied " + e.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("%-8s %-40s %s\n", e.Version, e.Name, status)
	}

	return nil
}
