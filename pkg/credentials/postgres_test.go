package credentials_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/pilotwire/pilotwire/pkg/credentials"
	"github.com/pilotwire/pilotwire/pkg/models"
)

var postgresContainer *postgres.PostgresContainer

func dropTables(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"credential_records", "credential_schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupPostgresStore(t *testing.T) (*credentials.PostgresStore, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("pilotwire_test"),
			postgres.WithUsername("pilotwire"),
			postgres.WithPassword("pilotwire"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropTables(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := credentials.NewPostgresStore(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropTables(ctx, t, databaseURL)

		err := store.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return store, ctx, databaseURL
}

func TestNewPostgresStore_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupPostgresStore(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	var exists bool

	err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = 'credential_records')`).Scan(&exists)
	require.NoError(t, err)
	assert.True(t, exists, "credential_records table should exist")

	var version int

	err = db.QueryRowContext(ctx,
		"SELECT version FROM credential_schema_migrations WHERE version = 1").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
}

func TestPostgresStore_SaveAndGet(t *testing.T) {
	store, ctx, _ := setupPostgresStore(t)

	blob := &models.StorageState{
		Cookies: []models.Cookie{
			{Name: "sid", Value: "abc", Domain: "example.com", Path: "/"},
		},
	}

	require.NoError(t, store.Save(ctx, "wf-1", blob))

	got, err := store.Get(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, got.Cookies, 1)
	assert.Equal(t, "abc", got.Cookies[0].Value)
}

func TestPostgresStore_GetMissingReturnsNotFound(t *testing.T) {
	store, ctx, _ := setupPostgresStore(t)

	_, err := store.Get(ctx, "absent")
	require.Error(t, err)
	assert.True(t, credentials.IsNotFound(err))
}

func TestPostgresStore_SaveUpserts(t *testing.T) {
	store, ctx, _ := setupPostgresStore(t)

	blob := &models.StorageState{
		Cookies: []models.Cookie{{Name: "sid", Value: "first", Domain: "example.com"}},
	}
	require.NoError(t, store.Save(ctx, "wf-1", blob))

	blob.Cookies[0].Value = "second"
	require.NoError(t, store.Save(ctx, "wf-1", blob))

	got, err := store.Get(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Cookies[0].Value)
}

func TestPostgresStore_SaveRejectsInvalidBlob(t *testing.T) {
	store, ctx, _ := setupPostgresStore(t)

	err := store.Save(ctx, "wf-1", &models.StorageState{
		Cookies: []models.Cookie{{Value: "orphan"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, credentials.ErrInvalidStorageState)
}

func TestPostgresStore_RemoveAndHas(t *testing.T) {
	store, ctx, _ := setupPostgresStore(t)

	blob := &models.StorageState{
		Cookies: []models.Cookie{{Name: "sid", Domain: "example.com"}},
	}
	require.NoError(t, store.Save(ctx, "wf-1", blob))

	ok, err := store.Has(ctx, "wf-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Remove(ctx, "wf-1"))

	ok, err = store.Has(ctx, "wf-1")
	require.NoError(t, err)
	assert.False(t, ok)

	err = store.Remove(ctx, "wf-1")
	require.Error(t, err)
	assert.True(t, credentials.IsNotFound(err))
}
