package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/arcwise/internal/common"
	"github.com/Veraticus/arcwise/internal/config"
	"github.com/Veraticus/arcwise/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the run journal schema to the latest version.

Commands that write to the journal migrate it on startup; this command is
useful to prepare a database ahead of time or to check its version.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")

	db := config.LoadDatabase(viper.GetViper())
	if db.Disabled {
		return common.NewUserError("the run journal is disabled", common.ErrMissingConfig)
	}

	slog.Info("Starting database migration",
		"database", db.Path,
		"status_only", status)

	store, err := storage.NewSQLiteStorage(db.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()

	if status {
		current, err := store.SchemaVersion(ctx)
		if err != nil {
			return err
		}
		slog.Info("📊 Database Migration Status",
			"path", db.Path,
			"current_version", current,
			"latest_version", storage.ExpectedSchemaVersion,
			"up_to_date", current == storage.ExpectedSchemaVersion)
		return nil
	}

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("✅ Database migrations completed successfully!", "version", storage.ExpectedSchemaVersion)

	return nil
}
