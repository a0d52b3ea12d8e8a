package models

// ExecutionMode selects how the engine drives the browser for a run.
type ExecutionMode string

const (
	// ExecutionModeHeadless runs the browser without a visible window.
	ExecutionModeHeadless ExecutionMode = "headless"
	// ExecutionModeHeadful runs with a visible window, used for runs that may
	// need manual login assistance.
	ExecutionModeHeadful ExecutionMode = "headful"
)

// ValidExecutionMode reports whether mode is one of the supported modes.
func ValidExecutionMode(mode ExecutionMode) bool {
	return mode == ExecutionModeHeadless || mode == ExecutionModeHeadful
}
