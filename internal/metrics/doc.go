// Package metrics provides Prometheus instrumentation for the media library
// service.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "media_library_". They are exposed on the separate metrics
// listener (see METRICS_PORT) by promhttp.
//
// # Metric Categories
//
//   - HTTP: request counts, durations and in-flight requests, recorded by the
//     metrics middleware
//   - Database: settings store query counts and durations
//   - Compression: runs by outcome, files by result, per-file encode
//     durations and an active-run gauge
//   - Thumbnails: captures by status, capture durations, queue depth and
//     cache size
//   - Library: operation counts and durations, listing sizes, watcher events
//   - Filesystem: locked-resource retry attempts, outcomes and durations per
//     volume, recorded through the filesystem.Observer implementation
//   - Events: websocket subscribers and broadcast/drop counts
//   - Disk: free and used space per volume, refreshed by the Collector
//
// # Usage
//
// Metrics are package-level variables and can be used directly:
//
//	metrics.CompressionFilesTotal.WithLabelValues("processed").Inc()
//
// Call InitializeMetrics once at startup so that every labelled series is
// exported from the first scrape.
package metrics
