package startup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/v4/disk"

	"media-library/internal/logging"
	"media-library/internal/transcoder"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	LibraryDir       string
	DataDir          string
	ScratchDir       string
	Port             string
	MetricsPort      string
	MetricsEnabled   bool
	WatchEnabled     bool
	LogStaticFiles   bool
	LogHealthChecks  bool
	FFmpegPath       string
	FFprobePath      string
	ThumbnailTimeout time.Duration

	// Derived paths
	DatabasePath string
	HistoryPath  string
	ThumbnailDir string

	// FFmpegAvailable reports whether the encoder answered at start-up.
	// Runs still start without it; every file then fails.
	FFmpegAvailable bool
}

// Volumes maps metric volume labels to the configured directories.
func (c *Config) Volumes() map[string]string {
	return map[string]string{
		"library": c.LibraryDir,
		"cache":   c.ThumbnailDir,
		"scratch": c.ScratchDir,
		"data":    c.DataDir,
	}
}

// diskUsage is swapped in tests.
var diskUsage = disk.Usage

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config, err := readEnv()
	if err != nil {
		return nil, err
	}

	logging.Info("  LIBRARY_DIR:         %s", config.LibraryDir)
	logging.Info("  DATA_DIR:            %s", config.DataDir)
	logging.Info("  SCRATCH_DIR:         %s", config.ScratchDir)
	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  FFMPEG_PATH:         %s", config.FFmpegPath)
	logging.Info("  FFPROBE_PATH:        %s", config.FFprobePath)
	logging.Info("  THUMBNAIL_TIMEOUT:   %s", config.ThumbnailTimeout)
	logging.Info("  WATCH_ENABLED:       %v", config.WatchEnabled)
	logging.Info("  LOG_STATIC_FILES:    %v", config.LogStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if err := prepareDirectories(config); err != nil {
		return nil, err
	}
	logDiskSpace(config)

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("ENCODER CHECK")
	logging.Info("------------------------------------------------------------")
	config.FFmpegAvailable = checkTool(config.FFmpegPath)
	checkTool(config.FFprobePath)

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Compression:    %s", enabledString(config.FFmpegAvailable))
	logging.Info("    Library watch:  %s", enabledString(config.WatchEnabled))
	logging.Info("    Metrics:        %s", enabledString(config.MetricsEnabled))

	return config, nil
}

// LoadQuietConfig reads the same environment as LoadConfig without the
// start-up report. The data and scratch directories are created; the
// library directory is left to the caller.
func LoadQuietConfig() (*Config, error) {
	config, err := readEnv()
	if err != nil {
		return nil, err
	}
	for _, dir := range []string{config.DataDir, config.ScratchDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return config, nil
}

// readEnv builds a Config from the environment with absolute paths.
func readEnv() (*Config, error) {
	config := &Config{
		LibraryDir:       getEnv("LIBRARY_DIR", "/library"),
		DataDir:          getEnv("DATA_DIR", "/data"),
		ScratchDir:       getEnv("SCRATCH_DIR", ""),
		Port:             getEnv("PORT", "8080"),
		MetricsPort:      getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:   getEnvBool("METRICS_ENABLED", true),
		WatchEnabled:     getEnvBool("WATCH_ENABLED", true),
		LogStaticFiles:   getEnvBool("LOG_STATIC_FILES", false),
		LogHealthChecks:  getEnvBool("LOG_HEALTH_CHECKS", true),
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		FFprobePath:      getEnv("FFPROBE_PATH", "ffprobe"),
		ThumbnailTimeout: getEnvDuration("THUMBNAIL_TIMEOUT", 30*time.Second),
	}

	var err error
	if config.LibraryDir, err = filepath.Abs(config.LibraryDir); err != nil {
		return nil, fmt.Errorf("failed to resolve library directory path: %w", err)
	}
	if config.DataDir, err = filepath.Abs(config.DataDir); err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if config.ScratchDir == "" {
		config.ScratchDir = filepath.Join(config.DataDir, "scratch")
	}
	if config.ScratchDir, err = filepath.Abs(config.ScratchDir); err != nil {
		return nil, fmt.Errorf("failed to resolve scratch directory path: %w", err)
	}

	config.DatabasePath = filepath.Join(config.DataDir, "settings.db")
	config.HistoryPath = filepath.Join(config.DataDir, "history.json")
	config.ThumbnailDir = filepath.Join(config.DataDir, "thumbnails")
	return config, nil
}

// prepareDirectories creates the data, thumbnail and scratch directories
// and checks they are writable. The library directory is only checked.
func prepareDirectories(config *Config) error {
	if err := ensureDirectory(config.LibraryDir, "library"); err != nil {
		logging.Warn("  Library directory issue: %v", err)
	}

	for _, dir := range []struct {
		path, name string
	}{
		{config.DataDir, "data"},
		{config.ThumbnailDir, "thumbnail"},
		{config.ScratchDir, "scratch"},
	} {
		if err := ensureDirectory(dir.path, dir.name); err != nil {
			return fmt.Errorf("%s directory error: %w", dir.name, err)
		}
		if err := testWriteAccess(dir.path); err != nil {
			return fmt.Errorf("%s directory is not writable: %w", dir.name, err)
		}
		logging.Info("  [OK] %s directory is writable: %s", dir.name, dir.path)
	}
	return nil
}

func logDiskSpace(config *Config) {
	logging.Info("")
	logging.Info("  Disk space:")
	for _, dir := range []struct {
		path, name string
	}{
		{config.LibraryDir, "library"},
		{config.DataDir, "data"},
		{config.ScratchDir, "scratch"},
	} {
		usage, err := diskUsage(dir.path)
		if err != nil {
			logging.Warn("    %-8s unavailable: %v", dir.name, err)
			continue
		}
		logging.Info("    %-8s %s free of %s (%.1f%% used)",
			dir.name, formatBytes(usage.Free), formatBytes(usage.Total), usage.UsedPercent)
	}
}

func checkTool(binary string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	path, version, err := transcoder.CheckFFmpeg(ctx, binary)
	if err != nil {
		logging.Warn("  %s check failed: %v", binary, err)
		return false
	}
	logging.Info("  [OK] %s available at %s", binary, path)
	logging.Debug("  %s", version)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogLibraryInit logs the library root in use and where it came from
func LogLibraryInit(root string, fromSettings bool, historyEntries int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("LIBRARY")
	logging.Info("------------------------------------------------------------")
	if fromSettings {
		logging.Info("  Root:            %s (saved setting)", root)
	} else {
		logging.Info("  Root:            %s (LIBRARY_DIR)", root)
	}
	logging.Info("  History entries: %d", historyEntries)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Subrouters and the static file server carry no methods
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		groups := groupRoutes(routes)
		keys := make([]string, 0, len(groups))
		for k := range groups {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, group := range keys {
			if group == "" {
				logging.Debug("  [root]")
			} else {
				logging.Debug("  [%s]", group)
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

func groupRoutes(routes []RouteInfo) map[string][]RouteInfo {
	groups := make(map[string][]RouteInfo)
	for _, route := range routes {
		prefix := getRouteGroup(route.Path)
		groups[prefix] = append(groups[prefix], route)
	}
	return groups
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")
	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	logging.Info("    Events:        ws://0.0.0.0:%s/api/events", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    __  ___         ___         __    _ __
   /  |/  /__  ____/ (_)___ _  / /   (_) /_  _________ ________  __
  / /|_/ / _ \/ __  / / __ '/ / /   / / __ \/ ___/ __ '/ ___/ / / /
 / /  / /  __/ /_/ / / /_/ / / /___/ / /_/ / /  / /_/ / /  / /_/ /
/_/  /_/\___/\__,_/_/\__,_/ /_____/_/_.___/_/   \__,_/_/   \__, /
                                                          /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		if name == "library" {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

// formatBytes formats bytes into a human-readable string
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatUint(b, 10) + " B"
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid %s %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
