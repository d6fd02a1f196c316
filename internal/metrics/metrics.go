package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Compression metrics
var (
	CompressionRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_compression_runs_total",
			Help: "Total number of compression runs by outcome",
		},
		[]string{"outcome"},
	)

	CompressionRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_library_compression_run_duration_seconds",
			Help:    "Compression run duration in seconds",
			Buckets: []float64{1, 10, 60, 300, 900, 1800, 3600, 7200, 14400, 28800},
		},
	)

	CompressionActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_compression_active",
			Help: "Whether a compression run is in progress (1) or not (0)",
		},
	)

	CompressionFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_compression_files_total",
			Help: "Total number of candidate files by result",
		},
		[]string{"result"},
	)

	TranscodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_transcode_duration_seconds",
			Help:    "Per-file encode duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 2400},
		},
		[]string{"codec", "outcome"},
	)
)

// Thumbnail metrics
var (
	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_thumbnail_generations_total",
			Help: "Total number of thumbnail captures by status",
		},
		[]string{"status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_library_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail capture duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	ThumbnailQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_thumbnail_queue_depth",
			Help: "Number of videos waiting for a thumbnail",
		},
	)

	ThumbnailCacheCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_thumbnail_cache_count",
			Help: "Number of cached thumbnails",
		},
	)

	ThumbnailCacheSizeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_thumbnail_cache_size_bytes",
			Help: "Total size of the thumbnail cache in bytes",
		},
	)

	ThumbnailCacheClearsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_thumbnail_cache_clears_total",
			Help: "Total number of thumbnail cache clears",
		},
	)
)

// Library metrics
var (
	LibraryOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_library_operations_total",
			Help: "Total number of library operations",
		},
		[]string{"operation", "status"},
	)

	LibraryOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_library_operation_duration_seconds",
			Help:    "Library operation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"operation"},
	)

	LibraryItemsListed = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_library_library_items_listed",
			Help:    "Number of items returned by a category listing",
			Buckets: []float64{0, 10, 50, 100, 250, 500, 1000, 5000},
		},
	)

	LibraryMediaTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_library_media_files_total",
			Help: "Number of media files in the library by type",
		},
		[]string{"type"},
	)

	LibraryCategoriesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_categories_total",
			Help: "Number of categories in the library",
		},
	)

	HistoryEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_history_entries",
			Help: "Number of files recorded as already compressed",
		},
	)

	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_watcher_events_total",
			Help: "Total number of file system events seen by the library watcher",
		},
		[]string{"op"},
	)

	WatcherErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_watcher_errors_total",
			Help: "Total number of library watcher errors",
		},
	)

	WatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_watched_directories",
			Help: "Number of directories watched for changes",
		},
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_filesystem_retry_attempts_total",
			Help: "Total number of retries after a locked-resource error",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_filesystem_retry_success_total",
			Help: "Total number of operations that succeeded after at least one retry",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_filesystem_retry_failures_total",
			Help: "Total number of operations that exhausted their retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_library_filesystem_retry_duration_seconds",
			Help:    "Total time spent in a retried operation",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"operation", "volume"},
	)

	FilesystemLockedErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_filesystem_locked_errors_total",
			Help: "Total number of busy or permission-denied errors seen",
		},
		[]string{"operation", "volume"},
	)
)

// Event stream metrics
var (
	EventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_event_subscribers",
			Help: "Number of connected event stream clients",
		},
	)

	EventsBroadcastTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_library_events_broadcast_total",
			Help: "Total number of events broadcast by type",
		},
		[]string{"type"},
	)

	EventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_events_dropped_total",
			Help: "Total number of events dropped for slow clients",
		},
	)
)

// Disk metrics
var (
	DiskFreeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_library_disk_free_bytes",
			Help: "Free space on the volume holding each directory",
		},
		[]string{"volume"},
	)

	DiskUsedPercent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_library_disk_used_percent",
			Help: "Used space percentage on the volume holding each directory",
		},
		[]string{"volume"},
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_library_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_memory_usage_ratio",
			Help: "Heap allocation as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_library_memory_paused",
			Help: "Whether thumbnail capture is paused on memory pressure (1 = paused)",
		},
	)

	MemoryPausesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_library_memory_pauses_total",
			Help: "Number of times thumbnail capture was paused on memory pressure",
		},
	)
)
