// Package web exposes the live monitoring panel's HTTP surface: session
// snapshots to render and the command endpoints the panel's controls call.
package web

import "github.com/pilotwire/pilotwire/pkg/models"

// StartExecutionRequest is the body for starting a run.
type StartExecutionRequest struct {
	WorkflowID string               `json:"workflow_id" validate:"required"`
	Mode       models.ExecutionMode `json:"mode"        validate:"omitempty,oneof=headless headful"`
}

// StartExecutionResponse acknowledges an accepted run.
type StartExecutionResponse struct {
	ExecutionID string `json:"execution_id"`
}

// RespondInputRequest is the body for answering an interactive prompt.
type RespondInputRequest struct {
	NodeID string `json:"node_id" validate:"required"`
	Action string `json:"action"  validate:"required"`
}

// ConfirmLoginRequest is the body for the manual-login-assist confirmation.
type ConfirmLoginRequest struct {
	ExecutionID string `json:"execution_id" validate:"required"`
}
