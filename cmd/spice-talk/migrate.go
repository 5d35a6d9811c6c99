package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Veraticus/the-spice-must-talk/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the ledger schema to the latest version.

A backup of the current database is written to the backups directory next
to it before any migration runs.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")
	cmd.Flags().Bool("no-backup", false, "Skip the backup taken before migrating")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")
	noBackup, _ := cmd.Flags().GetBool("no-backup")

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	dbPath := settings.Ledger.Path

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if status {
		slog.Info("📊 Database Migration Status",
			"database", dbPath,
			"current_version", current,
			"latest_version", storage.ExpectedSchemaVersion)
		return nil
	}

	if current >= storage.ExpectedSchemaVersion {
		slog.Info("✅ Database is already up to date", "version", current)
		return nil
	}

	if !noBackup && current > 0 {
		path, err := store.Backup(ctx, fmt.Sprintf("pre-migrate-v%d", current))
		switch {
		case errors.Is(err, storage.ErrBackupExists):
			slog.Warn("Backup for this schema version already exists", "error", err)
		case err != nil:
			return fmt.Errorf("backup failed, not migrating: %w", err)
		default:
			slog.Info("Backup written", "path", path)
		}
	}

	slog.Info("🗄️  Running database migrations...", "database", dbPath, "from_version", current)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("✅ Database migrations completed successfully!", "version", storage.ExpectedSchemaVersion)
	return nil
}
