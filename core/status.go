package core

// Status describes the lifecycle state of a workflow instance.
type Status int

const (
	// StatusCreated is the state between registry creation and the first
	// processed event.
	StatusCreated Status = iota
	// StatusRunning means the event queue is non-empty or a step is in flight.
	StatusRunning
	// StatusCompleted means the designated success terminal was reached.
	StatusCompleted
	// StatusFailed means an unrecoverable step error terminated the instance.
	StatusFailed
	// StatusStopped means a terminal edge fired: an expected, policy-driven
	// stop (e.g. validation rejected), distinct from Failed.
	StatusStopped
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusCreated:
		return "created"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusStopped:
		return "stopped_at_terminal_edge"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is a terminal lifecycle state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusStopped
}
