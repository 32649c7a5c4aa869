package model

// RunStatus is the lifecycle state of a crawl run.
//
// Transitions: idle -> running -> paused | completed | error.
// A paused run is not resumed; starting again begins a fresh run.
type RunStatus string

const (
	// RunStatusIdle means no run has been started.
	RunStatusIdle RunStatus = "idle"

	// RunStatusRunning means the step loop is active.
	RunStatusRunning RunStatus = "running"

	// RunStatusPaused means the run was stopped on request.
	RunStatusPaused RunStatus = "paused"

	// RunStatusCompleted means the queue drained or the page limit was reached.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusError means the run was rejected before it started.
	RunStatusError RunStatus = "error"
)

// IsTerminal reports whether no further steps will run in this status.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusPaused || s == RunStatusCompleted || s == RunStatusError
}
