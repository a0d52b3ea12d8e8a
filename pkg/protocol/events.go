// Package protocol defines the wire messages exchanged with the execution
// engine over the session channel, and the codec that translates between raw
// payloads and typed values. Inbound messages are events, outbound messages
// are commands; the protocol is asymmetric and neither side echoes the other.
package protocol

import (
	"time"

	"github.com/pilotwire/pilotwire/pkg/models"
)

// EventType is the `type` discriminator carried by every inbound message.
type EventType string

const (
	EventExecutionStarted   EventType = "execution_started"
	EventNodeStart          EventType = "node_start"
	EventNodeComplete       EventType = "node_complete"
	EventScreenshot         EventType = "screenshot"
	EventUserInputRequired  EventType = "user_input_required"
	EventLog                EventType = "log"
	EventExecutionComplete  EventType = "execution_complete"
	EventError              EventType = "error"
	EventRequireManualLogin EventType = "require_manual_login"
	EventStorageStateUpdate EventType = "storage_state_update"
)

// Event is a decoded inbound protocol message.
type Event interface {
	GetType() EventType
}

// ExecutionStarted announces that the engine has begun the run. The session
// is reset to a running, empty shape when this arrives.
type ExecutionStarted struct {
	ExecutionID string `json:"execution_id"`
	WorkflowID  string `json:"workflow_id,omitempty"`
}

func (e ExecutionStarted) GetType() EventType {
	return EventExecutionStarted
}

// NodeStart announces that a node has begun executing.
type NodeStart struct {
	NodeID    string `json:"node_id"`
	NodeType  string `json:"node_type,omitempty"`
	NodeLabel string `json:"node_label,omitempty"`
}

func (e NodeStart) GetType() EventType {
	return EventNodeStart
}

// NodeComplete announces that a node has finished, successfully or not. The
// engine may attach an immutable record summarizing the execution.
type NodeComplete struct {
	NodeID  string             `json:"node_id"`
	Success bool               `json:"success"`
	Error   string             `json:"error,omitempty"`
	Record  *models.NodeRecord `json:"record,omitempty"`
}

func (e NodeComplete) GetType() EventType {
	return EventNodeComplete
}

// Screenshot carries the most recent page capture as an opaque encoded
// payload. Each one replaces the previous; the stream is best-effort
// telemetry, not a durable ledger.
type Screenshot struct {
	Data   string `json:"data"`
	NodeID string `json:"node_id,omitempty"`
}

func (e Screenshot) GetType() EventType {
	return EventScreenshot
}

// UserInputRequired asks the operator to answer an interactive prompt before
// the run can continue.
type UserInputRequired struct {
	NodeID         string `json:"node_id"`
	Prompt         string `json:"prompt"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

func (e UserInputRequired) GetType() EventType {
	return EventUserInputRequired
}

// Log appends one entry to the session log stream.
type Log struct {
	Timestamp time.Time       `json:"timestamp"`
	Level     models.LogLevel `json:"level"`
	Message   string          `json:"message"`
}

func (e Log) GetType() EventType {
	return EventLog
}

// ExecutionComplete is the terminal event for a run that the engine finished
// on its own terms, whatever the outcome status says.
type ExecutionComplete struct {
	Status string `json:"status,omitempty"`
}

func (e ExecutionComplete) GetType() EventType {
	return EventExecutionComplete
}

// ErrorEvent reports an engine-side failure. It is surfaced as an error log
// entry and ends the run.
type ErrorEvent struct {
	Message string `json:"message"`
	NodeID  string `json:"node_id,omitempty"`
}

func (e ErrorEvent) GetType() EventType {
	return EventError
}

// RequireManualLogin asks the operator to log in by hand in the engine's
// browser window. It is handled as a variant of the interactive prompt flow.
type RequireManualLogin struct {
	NodeID   string `json:"node_id"`
	Prompt   string `json:"prompt,omitempty"`
	LoginURL string `json:"login_url,omitempty"`
}

func (e RequireManualLogin) GetType() EventType {
	return EventRequireManualLogin
}

// StorageStateUpdate carries a refreshed credential blob captured by the
// engine mid-run. It is persisted through the credential store and never
// held in session state.
type StorageStateUpdate struct {
	WorkflowID   string              `json:"workflow_id"`
	StorageState models.StorageState `json:"storage_state"`
}

func (e StorageStateUpdate) GetType() EventType {
	return EventStorageStateUpdate
}
