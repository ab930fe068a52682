package models

import "time"

// ExecutionStatus represents the run state of one contact's pass through a workflow.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusWaiting   ExecutionStatus = "waiting"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// LogEntry is one appended step outcome in an execution's audit log.
type LogEntry struct {
	ActionID   string     `json:"action_id,omitempty"`
	ActionType ActionType `json:"action_type,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
	Level      string     `json:"level"` // info, warn, error
	Summary    string     `json:"summary"`
	Error      string     `json:"error,omitempty"`
}

// Execution tracks one enrollment of one contact in one workflow. The runtime
// is its exclusive writer while non-terminal; Version backs the per-execution
// compare-and-swap serialization.
type Execution struct {
	ID           string          `json:"id"`
	WorkflowID   string          `json:"workflow_id"`
	ContactID    string          `json:"contact_id"`
	Status       ExecutionStatus `json:"status"`
	CurrentStep  int             `json:"current_step"` // sort order of the action about to run or awaited
	TriggerEvent string          `json:"trigger_event"`
	Log          []LogEntry      `json:"log"`
	Version      int64           `json:"version"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
}

// AppendLog adds a step outcome to the execution's log.
func (e *Execution) AppendLog(entry LogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	e.Log = append(e.Log, entry)
}

// PendingWake is a durable timer record resuming a waiting execution. The
// record, not any in-memory timer, is the source of truth across restarts.
type PendingWake struct {
	ExecutionID string    `json:"execution_id"`
	WakeAt      time.Time `json:"wake_at"`
}
