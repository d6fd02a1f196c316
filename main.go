package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-library/internal/compress"
	"media-library/internal/database"
	"media-library/internal/events"
	"media-library/internal/filesystem"
	"media-library/internal/handlers"
	"media-library/internal/history"
	"media-library/internal/library"
	"media-library/internal/logging"
	"media-library/internal/memory"
	"media-library/internal/metrics"
	"media-library/internal/middleware"
	"media-library/internal/startup"
	"media-library/internal/thumbnail"
	"media-library/internal/transcoder"
	"media-library/internal/watcher"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	startTime := time.Now()

	// Must run before significant allocations
	memResult := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics(startup.Version, startup.Commit)
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(config.Volumes()))
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Library, history and thumbnail cache
	libraryRoot := db.LibraryPath(ctx, config.LibraryDir)
	ledger := history.Open(config.HistoryPath)
	ledger.Load()

	cache, err := thumbnail.NewCache(config.ThumbnailDir)
	if err != nil {
		startup.LogFatal("Failed to initialize thumbnail cache: %v", err)
	}
	lib := library.New(libraryRoot, library.Options{Thumbnails: cache, History: ledger})
	startup.LogLibraryInit(libraryRoot, libraryRoot != config.LibraryDir, ledger.Len())

	hub := events.NewHub()

	orch := compress.New(compress.Config{
		Library:    lib,
		Ledger:     ledger,
		Prober:     transcoder.NewProber(config.FFprobePath),
		Encoder:    transcoder.NewExecutor(config.FFmpegPath),
		ScratchDir: config.ScratchDir,
	})

	// The handlers and the pipeline reference each other through the
	// capture callback, so the callback is bound after both exist.
	var h *handlers.Handlers
	pipeline := thumbnail.New(thumbnail.NewFFmpegFrameSource(config.FFmpegPath), cache,
		func(item thumbnail.Item, cacheName string) {
			h.ThumbnailCaptured(item, cacheName)
		})
	pipeline.SetCaptureTimeout(config.ThumbnailTimeout)

	memMonitor := memory.NewMonitor(memory.DefaultConfig())
	if memResult.Configured {
		memMonitor.Start()
	}
	pipeline.SetGate(memMonitor)

	hcfg := handlers.Config{
		Library:    lib,
		Compressor: orch,
		Thumbnails: pipeline,
		Ledger:     ledger,
		Store:      db,
		Events:     hub,
	}

	var libWatcher *watcher.Watcher
	if config.WatchEnabled {
		libWatcher = watcher.New(func(changes []watcher.Change) {
			h.LibraryChanged(changes)
		}, watcher.DefaultDebounce)
		hcfg.Watcher = libWatcher
	}

	h = handlers.New(ctx, hcfg)

	if libWatcher != nil {
		if err := libWatcher.Start(libraryRoot); err != nil {
			logging.Warn("Library watcher not started: %v", err)
		}
	}
	go pipeline.Run(ctx)

	// Setup router
	router := mux.NewRouter()
	h.RegisterRoutes(router)
	router.Handle("/api/events", hub).Methods("GET")
	router.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Logger(loggingConfig)(router)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	var collector *metrics.Collector
	if config.MetricsEnabled {
		collector = metrics.NewCollector(h, config.Volumes(), time.Minute)
		collector.Start()

		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		startup.LogShutdownInitiated(sig.String())
	case err := <-serverErr:
		startup.LogFatal("Server error: %v", err)
	}

	shutdown(shutdownDeps{
		server:    srv,
		metrics:   metricsSrv,
		collector: collector,
		orch:      orch,
		watcher:   libWatcher,
		monitor:   memMonitor,
		hub:       hub,
		cancel:    cancel,
	})
}

type shutdownDeps struct {
	server    *http.Server
	metrics   *http.Server
	collector *metrics.Collector
	orch      *compress.Orchestrator
	watcher   *watcher.Watcher
	monitor   *memory.Monitor
	hub       *events.Hub
	cancel    context.CancelFunc
}

func shutdown(d shutdownDeps) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if d.orch.Active() {
		startup.LogShutdownStep("Cancelling compression run")
		d.orch.Cancel()
		for d.orch.Active() && ctx.Err() == nil {
			time.Sleep(100 * time.Millisecond)
		}
		startup.LogShutdownStepComplete("Compression run stopped")
	}

	if d.watcher != nil {
		startup.LogShutdownStep("Stopping library watcher")
		d.watcher.Stop()
		startup.LogShutdownStepComplete("Library watcher stopped")
	}

	startup.LogShutdownStep("Stopping thumbnail pipeline")
	d.cancel()
	d.monitor.Stop()
	startup.LogShutdownStepComplete("Thumbnail pipeline stopped")

	startup.LogShutdownStep("Closing event stream")
	d.hub.Close()
	startup.LogShutdownStepComplete("Event stream closed")

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := d.server.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if d.metrics != nil {
		d.collector.Stop()
		if err := d.metrics.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		}
	}

	startup.LogShutdownComplete()
}
