// Package session holds the execution session record and its transition
// rules. Transitions are pure data manipulation: no network, no timers. The
// controller owns the record and is the only writer; everyone else reads
// published clones.
package session

import (
	"time"

	"github.com/pilotwire/pilotwire/pkg/models"
	"github.com/pilotwire/pilotwire/pkg/protocol"
)

// Initial returns a session in the idle, empty shape.
func Initial() models.Session {
	return models.Session{
		NodeStatuses: make(map[string]models.NodeStatus),
		Logs:         make([]models.LogEntry, 0),
		NodeRecords:  make([]models.NodeRecord, 0),
	}
}

// Apply maps one inbound event to the next session state. The input session
// is never mutated; the result is an independent copy. Event kinds the
// session does not track (storage state updates, anything future) leave the
// state unchanged — the caller decides whether that deserves a log line.
func Apply(current models.Session, event protocol.Event) models.Session {
	next := current.Clone()

	switch ev := event.(type) {
	case *protocol.ExecutionStarted:
		next = Initial()
		next.WorkflowID = current.WorkflowID
		next.Running = true
		next.ExecutionID = ev.ExecutionID

		if ev.WorkflowID != "" {
			next.WorkflowID = ev.WorkflowID
		}

	case *protocol.NodeStart:
		if !next.NodeStatuses[ev.NodeID].IsTerminal() {
			next.NodeStatuses[ev.NodeID] = models.NodeStatusRunning
		}

		next.CurrentNodeID = ev.NodeID

	case *protocol.NodeComplete:
		// A completion for a node that never reported node_start is accepted
		// as-is; the missing running entry is not fabricated retroactively.
		if !next.NodeStatuses[ev.NodeID].IsTerminal() {
			if ev.Success {
				next.NodeStatuses[ev.NodeID] = models.NodeStatusCompleted
			} else {
				next.NodeStatuses[ev.NodeID] = models.NodeStatusFailed
			}
		}

		if ev.Record != nil {
			next.NodeRecords = append(next.NodeRecords, *ev.Record)
		}

	case *protocol.Screenshot:
		next.Screenshot = ev.Data

	case *protocol.UserInputRequired:
		next.PendingInput = &models.PendingInput{
			NodeID:         ev.NodeID,
			Prompt:         ev.Prompt,
			TimeoutSeconds: ev.TimeoutSeconds,
			Kind:           models.PendingInputPrompt,
		}

	case *protocol.RequireManualLogin:
		next.PendingInput = &models.PendingInput{
			NodeID: ev.NodeID,
			Prompt: ev.Prompt,
			Kind:   models.PendingInputManualLogin,
		}

	case *protocol.Log:
		entry := models.LogEntry{
			Timestamp: ev.Timestamp,
			Level:     ev.Level,
			Message:   ev.Message,
		}
		if entry.Timestamp.IsZero() {
			entry.Timestamp = time.Now().UTC()
		}

		if entry.Level == "" {
			entry.Level = models.LogLevelInfo
		}

		next.Logs = append(next.Logs, entry)

	case *protocol.ExecutionComplete:
		next.Running = false
		next.CurrentNodeID = ""
		next.PendingInput = nil

	case *protocol.ErrorEvent:
		next.Logs = append(next.Logs, models.LogEntry{
			Timestamp: time.Now().UTC(),
			Level:     models.LogLevelError,
			Message:   ev.Message,
		})
		next.Running = false
		next.PendingInput = nil
	}

	return next
}
