// Package organizer walks a source tree and files every regular file into a
// destination root, one category folder per signature.Category unless the
// job asks for a flat layout.
//
// A run moves through scanning and processing and ends completed, cancelled,
// or failed. Only precondition failures (unreadable source, unwritable or
// locked destination) fail a run. Per-file problems are logged, counted, and
// kept in Result.Failures while the run continues. Progress and log entries
// flow through the Sink passed to Run.
package organizer
