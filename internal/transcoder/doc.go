// Package transcoder runs the external ffmpeg and ffprobe binaries for
// compression runs.
//
// It provides:
//   - Prober: reads a video's height so encoder settings can follow resolution
//   - Executor: runs exactly one ffmpeg encode into a temp file, reporting
//     Success, Failure or Cancelled
//
// ffmpeg's diagnostic output is captured for logging only; it is never
// parsed for progress. Both binaries must be installed and either on PATH or
// configured explicitly.
package transcoder
