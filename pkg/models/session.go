// Package models defines the core data types for execution session monitoring.
package models

import (
	"time"
)

// NodeStatus defines the possible states of a node during an execution.
type NodeStatus string

const (
	NodeStatusIdle      NodeStatus = "idle"
	NodeStatusRunning   NodeStatus = "running"
	NodeStatusCompleted NodeStatus = "completed"
	NodeStatusFailed    NodeStatus = "failed"
)

// IsTerminal reports whether the status is a final state. Terminal statuses
// are sticky: once a node is completed or failed it never regresses.
func (s NodeStatus) IsTerminal() bool {
	return s == NodeStatusCompleted || s == NodeStatusFailed
}

// LogLevel classifies a session log entry.
type LogLevel string

const (
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// LogEntry is a single line in the session's append-only log stream.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
}

// PendingInputKind distinguishes the regular interactive prompt from the
// manual-login-assist variant.
type PendingInputKind string

const (
	PendingInputPrompt      PendingInputKind = "prompt"
	PendingInputManualLogin PendingInputKind = "manual_login"
)

// PendingInput is an outstanding interactive request from the engine.
// A session holds at most one at a time.
type PendingInput struct {
	NodeID         string           `json:"node_id"`
	Prompt         string           `json:"prompt"`
	TimeoutSeconds int              `json:"timeout_seconds,omitempty"`
	Kind           PendingInputKind `json:"kind"`
}

// NodeRecord is an immutable summary of one completed node execution,
// retained for the monitoring view.
type NodeRecord struct {
	NodeID     string         `json:"node_id"`
	Type       string         `json:"type"`
	Label      string         `json:"label"`
	Status     NodeStatus     `json:"status"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	DurationMs int64          `json:"duration_ms"`
	Result     map[string]any `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	Logs       []LogEntry     `json:"logs,omitempty"`
	Screenshot string         `json:"screenshot,omitempty"`
}

// Session is the client-side record of one execution attempt's observable
// state. It is mutated exclusively through protocol events and the two
// locally triggered resets (start, explicit reset).
type Session struct {
	ExecutionID   string                `json:"execution_id,omitempty"`
	WorkflowID    string                `json:"workflow_id,omitempty"`
	Running       bool                  `json:"running"`
	CurrentNodeID string                `json:"current_node_id,omitempty"`
	NodeStatuses  map[string]NodeStatus `json:"node_statuses"`
	Logs          []LogEntry            `json:"logs"`
	Screenshot    string                `json:"screenshot,omitempty"`
	PendingInput  *PendingInput         `json:"pending_input,omitempty"`
	NodeRecords   []NodeRecord          `json:"node_records"`
}

// Clone returns a deep copy of the session. Published snapshots are clones so
// that readers can never observe (or cause) a mutation of the live record.
func (s Session) Clone() Session {
	out := s

	if s.NodeStatuses != nil {
		out.NodeStatuses = make(map[string]NodeStatus, len(s.NodeStatuses))
		for id, status := range s.NodeStatuses {
			out.NodeStatuses[id] = status
		}
	}

	if s.Logs != nil {
		out.Logs = make([]LogEntry, len(s.Logs))
		copy(out.Logs, s.Logs)
	}

	if s.NodeRecords != nil {
		out.NodeRecords = make([]NodeRecord, len(s.NodeRecords))
		copy(out.NodeRecords, s.NodeRecords)
	}

	if s.PendingInput != nil {
		pending := *s.PendingInput
		out.PendingInput = &pending
	}

	return out
}
