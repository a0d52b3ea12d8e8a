package protocol

import (
	"github.com/pilotwire/pilotwire/pkg/models"
)

// CommandType is the `type` discriminator carried by every outbound message.
type CommandType string

const (
	CommandStartExecution    CommandType = "start_execution"
	CommandStopExecution     CommandType = "stop_execution"
	CommandUserInputResponse CommandType = "user_input_response"
	CommandLoginConfirmed    CommandType = "login_confirmed"
)

// Command is an outbound protocol message. Delivery is best-effort,
// at-most-once: commands sent while the channel is down are dropped.
type Command interface {
	GetType() CommandType
}

// StartExecution starts the run the engine accepted out-of-band. The injected
// storage state is nil on a first run, which is a normal state.
type StartExecution struct {
	WorkflowID           string               `json:"workflow_id"`
	Mode                 models.ExecutionMode `json:"mode"`
	InjectedStorageState *models.StorageState `json:"injected_storage_state"`
}

func (c StartExecution) GetType() CommandType {
	return CommandStartExecution
}

// StopExecution asks the engine to cancel the run. The session stays running
// locally until the engine confirms with a terminal event.
type StopExecution struct{}

func (c StopExecution) GetType() CommandType {
	return CommandStopExecution
}

// UserInputResponse answers an outstanding interactive prompt.
type UserInputResponse struct {
	NodeID string `json:"node_id"`
	Action string `json:"action"`
}

func (c UserInputResponse) GetType() CommandType {
	return CommandUserInputResponse
}

// LoginConfirmed tells the engine the operator finished a manual login.
type LoginConfirmed struct {
	ExecutionID string `json:"execution_id"`
}

func (c LoginConfirmed) GetType() CommandType {
	return CommandLoginConfirmed
}
