// Package services defines shared utilities consumed by the organizer stages
// (classify, extract, resolve, transfer) and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and the file being
//     processed so log lines can be correlated across a run.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent run outcomes (per-file failure vs run-fatal).
//
// Use these helpers when adding new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
