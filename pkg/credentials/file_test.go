package credentials

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilotwire/pilotwire/pkg/models"
)

func testBlob() *models.StorageState {
	return &models.StorageState{
		Cookies: []models.Cookie{
			{Name: "sid", Value: "abc", Domain: "example.com", Path: "/"},
		},
		Origins: []models.OriginState{
			{
				Origin: "https://example.com",
				LocalStorage: []models.LocalStorageItem{
					{Name: "token", Value: "xyz"},
				},
			},
		},
	}
}

func TestFileStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())

	require.NoError(t, store.Save(ctx, "wf-1", testBlob()))

	got, err := store.Get(ctx, "wf-1")
	require.NoError(t, err)
	require.Len(t, got.Cookies, 1)
	assert.Equal(t, "sid", got.Cookies[0].Name)
	require.Len(t, got.Origins, 1)
	assert.Equal(t, "https://example.com", got.Origins[0].Origin)
}

func TestFileStore_GetMissingReturnsNotFound(t *testing.T) {
	store := NewFileStore(t.TempDir())

	_, err := store.Get(context.Background(), "absent")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestFileStore_SaveReplacesExisting(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())

	require.NoError(t, store.Save(ctx, "wf-1", testBlob()))

	updated := testBlob()
	updated.Cookies[0].Value = "rotated"
	require.NoError(t, store.Save(ctx, "wf-1", updated))

	got, err := store.Get(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "rotated", got.Cookies[0].Value)
}

func TestFileStore_SaveRejectsInvalidBlob(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())

	err := store.Save(ctx, "wf-1", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStorageState)

	// Cookies must carry a name and domain.
	bad := &models.StorageState{Cookies: []models.Cookie{{Value: "orphan"}}}
	err = store.Save(ctx, "wf-1", bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStorageState)

	ok, err := store.Has(ctx, "wf-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStore_RemoveAndHas(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())

	require.NoError(t, store.Save(ctx, "wf-1", testBlob()))

	ok, err := store.Has(ctx, "wf-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.Remove(ctx, "wf-1"))

	ok, err = store.Has(ctx, "wf-1")
	require.NoError(t, err)
	assert.False(t, ok)

	err = store.Remove(ctx, "wf-1")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())

	for _, id := range []string{"", "../escape", "a/b"} {
		_, err := store.Get(ctx, id)
		assert.Error(t, err, "id %q must be rejected", id)

		err = store.Save(ctx, id, testBlob())
		assert.Error(t, err, "id %q must be rejected", id)
	}
}

func TestFileStore_FilePermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}

	ctx := context.Background()
	root := t.TempDir()
	store := NewFileStore(root)

	require.NoError(t, store.Save(ctx, "wf-1", testBlob()))

	info, err := os.Stat(filepath.Join(root, "credentials", "wf-1.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_AcceptsFileURL(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewFileStore("file://" + root)

	require.NoError(t, store.Save(ctx, "wf-1", testBlob()))

	_, err := os.Stat(filepath.Join(root, "credentials", "wf-1.json"))
	require.NoError(t, err)
}
