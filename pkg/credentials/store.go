// Package credentials stores per-workflow storage-state blobs (cookies plus
// per-origin local storage) used to pre-authenticate browser-automation runs.
// Records are keyed by workflow id with plain key-value semantics; there is a
// single writer, so no store has to arbitrate concurrent updates.
package credentials

import (
	"context"

	"github.com/pilotwire/pilotwire/pkg/models"
)

// Store is the credential collaborator consulted before a run starts and
// updated when the engine pushes a refreshed blob mid-run. Absence of a
// record is a valid, common state — every workflow's first run has none.
type Store interface {
	// Get returns the stored blob for a workflow, or ErrNotFound.
	Get(ctx context.Context, workflowID string) (*models.StorageState, error)

	// Save validates and persists a blob, replacing any existing record.
	Save(ctx context.Context, workflowID string, state *models.StorageState) error

	// Remove deletes the record for a workflow, or returns ErrNotFound.
	Remove(ctx context.Context, workflowID string) error

	// Has reports whether a record exists for the workflow.
	Has(ctx context.Context, workflowID string) (bool, error)

	Close(ctx context.Context) error
}
