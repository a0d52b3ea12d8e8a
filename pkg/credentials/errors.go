package credentials

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates no credential record exists for the given workflow.
var ErrNotFound = errors.New("credential record not found")

// ErrInvalidStorageState indicates a blob failed schema validation.
var ErrInvalidStorageState = errors.New("invalid storage state")

// StoreError wraps store failures with operation context.
type StoreError struct {
	Op         string // Operation being performed (e.g., "Get", "Save", "Remove")
	WorkflowID string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a store error with context.
func NewStoreError(op, workflowID string, err error) *StoreError {
	return &StoreError{
		Op:         op,
		WorkflowID: workflowID,
		Err:        err,
	}
}

// IsNotFound checks if an error indicates a missing credential record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
