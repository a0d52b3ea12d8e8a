package web

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/pilotwire/pilotwire/pkg/models"
)

// SessionService is the controller surface the handlers drive. The handlers
// never touch session state directly; they read snapshots and issue commands.
type SessionService interface {
	Start(ctx context.Context, workflowID string, mode models.ExecutionMode) (string, error)
	Stop(ctx context.Context) error
	RespondToInput(nodeID, action string) error
	ConfirmLogin(executionID string) error
	Reset()
	Snapshot() models.Session
	Running() bool
}

type Handlers struct {
	service   SessionService
	validator *validator.Validate
}

func NewHandlers(service SessionService, validate *validator.Validate) *Handlers {
	return &Handlers{
		service:   service,
		validator: validate,
	}
}

// GetSession returns the current session snapshot.
func (h *Handlers) GetSession(c fiber.Ctx) error {
	return c.JSON(h.service.Snapshot())
}

// GetNodeRecords returns the completed-node records of the current session.
func (h *Handlers) GetNodeRecords(c fiber.Ctx) error {
	snapshot := h.service.Snapshot()

	return c.JSON(fiber.Map{
		"execution_id": snapshot.ExecutionID,
		"node_records": snapshot.NodeRecords,
	})
}

// StartExecution starts a run of the requested workflow.
func (h *Handlers) StartExecution(c fiber.Ctx) error {
	var req StartExecutionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	if h.service.Running() {
		return conflict(c, "an execution is already running")
	}

	executionID, err := h.service.Start(c.Context(), req.WorkflowID, req.Mode)
	if err != nil {
		return badGateway(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(StartExecutionResponse{
		ExecutionID: executionID,
	})
}

// StopExecution asks the engine to cancel the current run. The session stays
// running until the engine confirms.
func (h *Handlers) StopExecution(c fiber.Ctx) error {
	err := h.service.Stop(c.Context())
	if err != nil {
		return badGateway(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

// RespondInput answers the outstanding interactive prompt.
func (h *Handlers) RespondInput(c fiber.Ctx) error {
	var req RespondInputRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	err := h.service.RespondToInput(req.NodeID, req.Action)
	if err != nil {
		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

// ConfirmLogin completes the manual-login-assist flow.
func (h *Handlers) ConfirmLogin(c fiber.Ctx) error {
	var req ConfirmLoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	err := h.service.ConfirmLogin(req.ExecutionID)
	if err != nil {
		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

// ResetSession forces the session back to idle.
func (h *Handlers) ResetSession(c fiber.Ctx) error {
	h.service.Reset()

	return c.SendStatus(fiber.StatusNoContent)
}
