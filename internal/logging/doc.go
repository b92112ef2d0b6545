// Package logging assembles structured slog loggers and formatting helpers used
// across fileorg.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so organizer code can tag log
// lines with run IDs, stages, and the file being processed. The package also
// provides a no-op logger for tests and library callers that pass nil.
package logging
