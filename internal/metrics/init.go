package metrics

import "runtime"

// Volumes are the directory labels used by retry and disk metrics.
var Volumes = []string{"library", "cache", "scratch", "data", "unknown"}

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics(version, commit string) {
	AppInfo.WithLabelValues(version, commit, runtime.Version()).Set(1)

	// --- Compression ---
	for _, outcome := range []string{"completed", "cancelled"} {
		CompressionRunsTotal.WithLabelValues(outcome)
	}
	for _, result := range []string{"processed", "failed", "skipped"} {
		CompressionFilesTotal.WithLabelValues(result)
	}
	for _, codec := range []string{"av1", "hevc", "h264", "cpu"} {
		for _, outcome := range []string{"success", "failure", "cancelled"} {
			TranscodeDuration.WithLabelValues(codec, outcome)
		}
	}

	// --- Thumbnails ---
	for _, status := range []string{"success", "error", "timeout", "skipped"} {
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	// --- Library ---
	for _, op := range []string{"categories", "list_media", "rename", "delete"} {
		LibraryOperationsTotal.WithLabelValues(op, "success")
		LibraryOperationsTotal.WithLabelValues(op, "error")
		LibraryOperationDuration.WithLabelValues(op)
	}
	for _, t := range []string{"video", "image"} {
		LibraryMediaTotal.WithLabelValues(t)
	}
	for _, op := range []string{"create", "remove", "rename", "write"} {
		WatcherEventsTotal.WithLabelValues(op)
	}

	// --- Database ---
	for _, op := range []string{"initialize_schema", "get_setting", "set_setting", "delete_setting", "record_run", "recent_runs"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	// --- Filesystem retry (per retry-operation × volume) ---
	for _, op := range []string{"move", "remove"} {
		for _, vol := range Volumes {
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
			FilesystemLockedErrors.WithLabelValues(op, vol)
		}
	}

	// --- Events ---
	for _, t := range []string{"compress.progress", "compress.done", "thumbnail.ready", "library.changed"} {
		EventsBroadcastTotal.WithLabelValues(t)
	}
}
