// Package logging provides the leveled logging helpers used throughout the
// media library service and its CLI.
//
// Levels, from most to least verbose:
//   - DEBUG: per-file and per-frame tracing (ffmpeg arguments, cache hits)
//   - INFO: run and pipeline lifecycle messages
//   - WARN: recoverable problems (probe fallbacks, persistence failures)
//   - ERROR: a file or request could not be handled
//   - FATAL: start-up failures that terminate the process
//
// The level is read once from DEBUG or LOG_LEVEL and can be overridden with
// SetLevel (the CLI does this for its --verbose flag).
package logging
