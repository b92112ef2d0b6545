package organizer

import (
	"sync/atomic"
	"time"

	"fileorg/internal/config"
	"fileorg/internal/signature"
)

// MaxWorkers caps Job.Workers.
const MaxWorkers = 64

// Canceller is the run's cancellation flag. It is safe to call from a signal
// handler goroutine while the run polls it between files.
type Canceller struct {
	flag atomic.Bool
}

// Cancel requests that the run stop before its next file.
func (c *Canceller) Cancel() {
	if c != nil {
		c.flag.Store(true)
	}
}

// Cancelled reports whether Cancel was called.
func (c *Canceller) Cancelled() bool {
	return c != nil && c.flag.Load()
}

// Job describes one organize run.
type Job struct {
	SourceRoot      string
	DestRoot        string
	ByCategory      bool
	EnrichFilenames bool
	Move            bool
	ProgressEvery   int
	Workers         int
	Cancel          *Canceller
}

// JobFromConfig seeds a job with the organize defaults from cfg.
func JobFromConfig(cfg *config.Config, source, dest string) Job {
	job := Job{SourceRoot: source, DestRoot: dest, Cancel: &Canceller{}}
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	job.ByCategory = cfg.Organize.ByCategory
	job.EnrichFilenames = cfg.Organize.EnrichFilenames
	job.Move = cfg.Organize.Move
	job.ProgressEvery = cfg.Organize.ProgressEvery
	job.Workers = cfg.Organize.Workers
	return job
}

// State is the run lifecycle position.
type State string

const (
	StateIdle       State = "idle"
	StateScanning   State = "scanning"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateCancelled  State = "cancelled"
	StateFailed     State = "failed"
)

// Stats are the run counters. PerCategory counts organized files only.
type Stats struct {
	Scanned     int
	Succeeded   int
	Failed      int
	PerCategory map[signature.Category]int
	// Folders is the number of distinct source directories holding files.
	Folders int
}

// Processed returns how many scanned files have been handled.
func (s Stats) Processed() int {
	return s.Succeeded + s.Failed
}

func (s Stats) clone() Stats {
	out := s
	out.PerCategory = make(map[signature.Category]int, len(s.PerCategory))
	for k, v := range s.PerCategory {
		out.PerCategory[k] = v
	}
	return out
}

// Failure records one file that could not be organized.
type Failure struct {
	Path    string
	Message string
}

// Result is returned by Run once the run reaches a terminal state.
type Result struct {
	RunID    string
	State    State
	Stats    Stats
	Err      error
	Started  time.Time
	Finished time.Time
	Failures []Failure
}

// Duration returns the wall time of the run.
func (r Result) Duration() time.Duration {
	if r.Finished.Before(r.Started) {
		return 0
	}
	return r.Finished.Sub(r.Started)
}
