package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pilotwire/pilotwire/pkg/models"
)

// FileStore keeps one JSON file per workflow under <root>/credentials.
// Suitable for local development and single-operator setups.
type FileStore struct {
	root string
}

// NewFileStore creates a file-backed store rooted at the given directory.
// Accepts both a plain path and a file:// URL.
func NewFileStore(root string) *FileStore {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &FileStore{root: cleanRoot}
}

func (s *FileStore) path(workflowID string) (string, error) {
	if workflowID == "" || workflowID != filepath.Base(workflowID) {
		return "", fmt.Errorf("invalid workflow id: %q", workflowID)
	}

	return filepath.Join(s.root, "credentials", workflowID+".json"), nil
}

// Get returns the stored blob for a workflow, or ErrNotFound.
func (s *FileStore) Get(_ context.Context, workflowID string) (*models.StorageState, error) {
	path, err := s.path(workflowID)
	if err != nil {
		return nil, NewStoreError("Get", workflowID, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, NewStoreError("Get", workflowID, ErrNotFound)
		}

		return nil, NewStoreError("Get", workflowID, err)
	}

	var state models.StorageState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, NewStoreError("Get", workflowID, err)
	}

	return &state, nil
}

// Save validates and writes the blob, replacing any existing record. Files
// are written 0600: the blob holds live authentication material.
func (s *FileStore) Save(_ context.Context, workflowID string, state *models.StorageState) error {
	path, err := s.path(workflowID)
	if err != nil {
		return NewStoreError("Save", workflowID, err)
	}

	if err := ValidateStorageState(state); err != nil {
		return NewStoreError("Save", workflowID, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return NewStoreError("Save", workflowID, err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return NewStoreError("Save", workflowID, err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return NewStoreError("Save", workflowID, err)
	}

	return nil
}

// Remove deletes the record for a workflow, or returns ErrNotFound.
func (s *FileStore) Remove(_ context.Context, workflowID string) error {
	path, err := s.path(workflowID)
	if err != nil {
		return NewStoreError("Remove", workflowID, err)
	}

	err = os.Remove(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewStoreError("Remove", workflowID, ErrNotFound)
		}

		return NewStoreError("Remove", workflowID, err)
	}

	return nil
}

// Has reports whether a record exists for the workflow.
func (s *FileStore) Has(_ context.Context, workflowID string) (bool, error) {
	path, err := s.path(workflowID)
	if err != nil {
		return false, NewStoreError("Has", workflowID, err)
	}

	_, err = os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}

		return false, NewStoreError("Has", workflowID, err)
	}

	return true, nil
}

// Close is a no-op for file-backed storage.
func (s *FileStore) Close(_ context.Context) error {
	return nil
}
