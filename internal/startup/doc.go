// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig]:
//
//   - LIBRARY_DIR: Default library root, used until one is saved (default: /library)
//   - DATA_DIR: Settings database, history ledger and thumbnail cache (default: /data)
//   - SCRATCH_DIR: Temporary encoder output (default: $DATA_DIR/scratch)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - FFMPEG_PATH / FFPROBE_PATH: Encoder and prober binaries (default: ffmpeg, ffprobe)
//   - THUMBNAIL_TIMEOUT: Per-capture timeout as Go duration (default: 30s)
//   - WATCH_ENABLED: Watch the library for changes (default: true)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: Log image and preview requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// Data, thumbnail and scratch directories are created if missing and must be
// writable. The library directory is only checked, since a saved library
// root may replace it.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
