// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// fileorg uses it as the fallback prober for video and audio containers the
// native header parsers in package probe do not understand (Matroska, WebM,
// ASF, FLV, Ogg, ADTS). A missing binary is reported as ErrNotInstalled so
// callers can treat it as a soft failure.
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods on Result expose the first video stream's dimensions and
// frame rate plus the container duration and bitrate.
package ffprobe
