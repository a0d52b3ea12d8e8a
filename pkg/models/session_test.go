package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeStatus_IsTerminal(t *testing.T) {
	assert.False(t, NodeStatusIdle.IsTerminal())
	assert.False(t, NodeStatusRunning.IsTerminal())
	assert.True(t, NodeStatusCompleted.IsTerminal())
	assert.True(t, NodeStatusFailed.IsTerminal())

	// The zero value (an untracked node) is not terminal.
	assert.False(t, NodeStatus("").IsTerminal())
}

func TestSession_CloneIsIndependent(t *testing.T) {
	original := Session{
		ExecutionID:   "exec-1",
		WorkflowID:    "wf-1",
		Running:       true,
		CurrentNodeID: "n1",
		NodeStatuses:  map[string]NodeStatus{"n1": NodeStatusRunning},
		Logs: []LogEntry{
			{Timestamp: time.Now().UTC(), Level: LogLevelInfo, Message: "started"},
		},
		PendingInput: &PendingInput{NodeID: "n1", Prompt: "?", Kind: PendingInputPrompt},
		NodeRecords:  []NodeRecord{{NodeID: "n0", Status: NodeStatusCompleted}},
	}

	clone := original.Clone()
	require.Equal(t, original, clone)

	clone.NodeStatuses["n1"] = NodeStatusFailed
	clone.NodeStatuses["n2"] = NodeStatusRunning
	clone.Logs[0].Message = "mutated"
	clone.PendingInput.Prompt = "mutated"
	clone.NodeRecords[0].NodeID = "mutated"

	assert.Equal(t, NodeStatusRunning, original.NodeStatuses["n1"])
	assert.NotContains(t, original.NodeStatuses, "n2")
	assert.Equal(t, "started", original.Logs[0].Message)
	assert.Equal(t, "?", original.PendingInput.Prompt)
	assert.Equal(t, "n0", original.NodeRecords[0].NodeID)
}

func TestSession_CloneOfZeroValue(t *testing.T) {
	var empty Session

	clone := empty.Clone()

	assert.Nil(t, clone.NodeStatuses)
	assert.Nil(t, clone.Logs)
	assert.Nil(t, clone.PendingInput)
}

func TestStorageState_IsEmpty(t *testing.T) {
	assert.True(t, StorageState{}.IsEmpty())
	assert.False(t, StorageState{Cookies: []Cookie{{Name: "sid"}}}.IsEmpty())
	assert.False(t, StorageState{Origins: []OriginState{{Origin: "https://example.com"}}}.IsEmpty())
}

func TestValidExecutionMode(t *testing.T) {
	assert.True(t, ValidExecutionMode(ExecutionModeHeadless))
	assert.True(t, ValidExecutionMode(ExecutionModeHeadful))
	assert.False(t, ValidExecutionMode(ExecutionMode("invisible")))
	assert.False(t, ValidExecutionMode(ExecutionMode("")))
}
