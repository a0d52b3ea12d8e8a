package credentials

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

const currentSchemaVersion = 1

// migrations maps schema versions to the DDL that produces them.
func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE IF NOT EXISTS credential_records (
				workflow_id   TEXT PRIMARY KEY,
				storage_state JSONB NOT NULL,
				created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`,
	}
}

// migrationManager applies schema migrations for the PostgreSQL store.
type migrationManager struct {
	db     *sql.DB
	logger *slog.Logger
}

func newMigrationManager(logger *slog.Logger, db *sql.DB) *migrationManager {
	return &migrationManager{db: db, logger: logger}
}

// runMigrations handles schema creation and updates.
func (m *migrationManager) runMigrations(ctx context.Context) error {
	err := m.createMigrationsTable(ctx)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	currentVersion, err := m.currentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	if currentVersion >= currentSchemaVersion {
		return nil
	}

	m.logger.InfoContext(ctx, "Applying credential store migrations",
		"from", currentVersion,
		"to", currentSchemaVersion,
	)

	all := migrations()
	for version := currentVersion + 1; version <= currentSchemaVersion; version++ {
		ddl, ok := all[version]
		if !ok {
			return fmt.Errorf("missing migration for schema version %d", version)
		}

		if _, err := m.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}

		_, err = m.db.ExecContext(ctx,
			"INSERT INTO credential_schema_migrations (version) VALUES ($1)", version)
		if err != nil {
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}
	}

	return nil
}

func (m *migrationManager) createMigrationsTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS credential_schema_migrations (
			version    INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)

	return err
}

func (m *migrationManager) currentVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64

	row := m.db.QueryRowContext(ctx,
		"SELECT MAX(version) FROM credential_schema_migrations")
	if err := row.Scan(&version); err != nil {
		return 0, err
	}

	if !version.Valid {
		return 0, nil
	}

	return int(version.Int64), nil
}
