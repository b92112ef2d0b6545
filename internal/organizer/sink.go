package organizer

import (
	"time"

	"fileorg/internal/signature"
)

// Progress is a snapshot sent to the Sink at the configured cadence.
type Progress struct {
	State       State
	Scanned     int
	Processed   int
	Succeeded   int
	Failed      int
	CurrentFile string
	Category    signature.Category
}

// Severity classifies a log Entry for presentation.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Entry is a human-facing log line for the front-end.
type Entry struct {
	Time     time.Time
	Severity Severity
	Message  string
	Path     string
}

// Sink receives progress and log entries. Calls are serialized by the run,
// so implementations need no locking of their own.
type Sink interface {
	Progress(Progress)
	Log(Entry)
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Progress(Progress) {}
func (NopSink) Log(Entry)         {}
