package history

import "time"

// RunState mirrors the lifecycle of an organize run.
type RunState string

const (
	RunRunning   RunState = "running"
	RunCompleted RunState = "completed"
	RunCancelled RunState = "cancelled"
	RunFailed    RunState = "failed"
)

// TransferStatus records whether a single file made it to the destination.
type TransferStatus string

const (
	TransferSucceeded TransferStatus = "succeeded"
	TransferFailed    TransferStatus = "failed"
)

// Run is one organize invocation.
type Run struct {
	ID          string
	Source      string
	Destination string
	State       RunState
	StartedAt   time.Time
	FinishedAt  time.Time
	Scanned     int
	Succeeded   int
	Failed      int
	Error       string
}

// Duration returns the wall time of a finished run, or zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Transfer is one file processed by a run.
type Transfer struct {
	ID         int64
	RunID      string
	Source     string
	Target     string
	Kind       string
	Category   string
	Method     string
	Token      string
	Size       int64
	Status     TransferStatus
	Error      string
	RecordedAt time.Time
}
