package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the schema version Migrate brings the journal to.
const ExpectedSchemaVersion = 2

// migration is one schema step. Its statements run in a single transaction
// together with the user_version bump.
type migration struct {
	description string
	statements  []string
	version     int
}

var migrations = []migration{
	{
		version:     1,
		description: "Initial run journal",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS runs (
				id TEXT PRIMARY KEY,
				input TEXT NOT NULL,
				status TEXT NOT NULL,
				stage TEXT NOT NULL,
				outcome TEXT,
				result TEXT,
				handoffs TEXT NOT NULL DEFAULT '{}',
				error TEXT,
				created_at DATETIME NOT NULL
			)`,
			`CREATE INDEX idx_runs_created_at ON runs(created_at)`,
		},
	},
	{
		version:     2,
		description: "Track hand-off count and index status",
		statements: []string{
			`ALTER TABLE runs ADD COLUMN handoff_count INTEGER NOT NULL DEFAULT 0`,
			`CREATE INDEX idx_runs_status ON runs(status)`,
			`CREATE INDEX idx_runs_stage ON runs(stage)`,
		},
	},
}

func (m migration) apply(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", m.version, err)
		}
	}

	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}
	return nil
}

// SchemaVersion returns the database's current schema version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if err := m.apply(ctx, s.db); err != nil {
			return err
		}
		slog.Info("Applied migration",
			"version", m.version,
			"description", m.description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
