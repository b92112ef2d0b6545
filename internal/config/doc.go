// Package config loads, normalizes, and validates fileorg configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FILEORG_FFPROBE. The Config type centralizes the organize defaults the CLI
// applies when flags are not given, plus the state directory that holds the
// log file, the run history database, and destination locks.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
