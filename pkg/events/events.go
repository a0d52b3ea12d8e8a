// Package events defines the notifications the session controller publishes
// after each state transition. The presentation layer subscribes to these
// instead of sharing the mutable session record.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/pilotwire/pilotwire/pkg/models"
)

type EventType string

// Topic carries all session lifecycle notifications.
const Topic = "pilotwire.sessions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// SessionUpdatedEvent is published after every applied transition; the
	// payload is a full snapshot, so subscribers never need to replay.
	SessionUpdatedEvent EventType = "session.updated"

	// SessionFinishedEvent is published when the engine confirms completion.
	SessionFinishedEvent EventType = "session.finished"

	// SessionFailedEvent is published when the engine reports a failure.
	SessionFailedEvent EventType = "session.failed"
)

type BaseEvent struct {
	ID          string         `json:"id"`
	Type        EventType      `json:"type"`
	Timestamp   time.Time      `json:"timestamp"`
	WorkflowID  string         `json:"workflow_id"`
	ExecutionID string         `json:"execution_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// SessionUpdated carries an immutable snapshot of the session after a
// transition.
type SessionUpdated struct {
	BaseEvent

	Session models.Session `json:"session"`
}

func (e SessionUpdated) GetType() EventType {
	return SessionUpdatedEvent
}

// SessionFinished marks the end of a run the engine completed.
type SessionFinished struct {
	BaseEvent

	Status        string `json:"status,omitempty"`
	NodesExecuted int    `json:"nodes_executed"`
}

func (e SessionFinished) GetType() EventType {
	return SessionFinishedEvent
}

// SessionFailed marks the end of a run the engine aborted with an error.
type SessionFailed struct {
	BaseEvent

	Error string `json:"error"`
}

func (e SessionFailed) GetType() EventType {
	return SessionFailedEvent
}

func NewBaseEvent(eventType EventType, workflowID, executionID string) BaseEvent {
	return BaseEvent{
		ID:          uuid.New().String(),
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		WorkflowID:  workflowID,
		ExecutionID: executionID,
		Metadata:    make(map[string]any),
	}
}
