package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	// Registers the postgres driver.
	_ "github.com/lib/pq"

	"github.com/pilotwire/pilotwire/pkg/models"
)

// PostgresStore persists credential records in PostgreSQL, one row per
// workflow with the blob stored as JSONB.
type PostgresStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresStore connects, pings, and runs migrations.
func NewPostgresStore(ctx context.Context, logger *slog.Logger, databaseURL string) (*PostgresStore, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{
		db:     database,
		logger: logger.With("module", "credentials_postgres"),
	}

	err = newMigrationManager(store.logger, database).runMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Get returns the stored blob for a workflow, or ErrNotFound.
func (s *PostgresStore) Get(ctx context.Context, workflowID string) (*models.StorageState, error) {
	query := `SELECT storage_state FROM credential_records WHERE workflow_id = $1`

	var raw []byte

	err := s.db.QueryRowContext(ctx, query, workflowID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("Get", workflowID, ErrNotFound)
		}

		return nil, NewStoreError("Get", workflowID, err)
	}

	var state models.StorageState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, NewStoreError("Get", workflowID, err)
	}

	return &state, nil
}

// Save validates and upserts the blob.
func (s *PostgresStore) Save(ctx context.Context, workflowID string, state *models.StorageState) error {
	if err := ValidateStorageState(state); err != nil {
		return NewStoreError("Save", workflowID, err)
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return NewStoreError("Save", workflowID, err)
	}

	query := `
		INSERT INTO credential_records (workflow_id, storage_state, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (workflow_id) DO UPDATE SET
			storage_state = EXCLUDED.storage_state,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.db.ExecContext(ctx, query, workflowID, raw, time.Now().UTC())
	if err != nil {
		return NewStoreError("Save", workflowID, err)
	}

	return nil
}

// Remove deletes the record for a workflow, or returns ErrNotFound.
func (s *PostgresStore) Remove(ctx context.Context, workflowID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM credential_records WHERE workflow_id = $1`, workflowID)
	if err != nil {
		return NewStoreError("Remove", workflowID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return NewStoreError("Remove", workflowID, err)
	}

	if affected == 0 {
		return NewStoreError("Remove", workflowID, ErrNotFound)
	}

	return nil
}

// Has reports whether a record exists for the workflow.
func (s *PostgresStore) Has(ctx context.Context, workflowID string) (bool, error) {
	var exists bool

	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM credential_records WHERE workflow_id = $1)`,
		workflowID).Scan(&exists)
	if err != nil {
		return false, NewStoreError("Has", workflowID, err)
	}

	return exists, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close(_ context.Context) error {
	if s.db != nil {
		err := s.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
