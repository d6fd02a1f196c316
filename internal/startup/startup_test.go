package startup

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/v4/disk"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" || info.GoVersion == "" || info.OS == "" || info.Arch == "" {
		t.Errorf("incomplete build info: %+v", info)
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("MEDIALIB_TEST_SET", "custom")
	t.Setenv("MEDIALIB_TEST_EMPTY", "")

	if got := getEnv("MEDIALIB_TEST_SET", "default"); got != "custom" {
		t.Errorf("getEnv(set) = %q", got)
	}
	if got := getEnv("MEDIALIB_TEST_EMPTY", "default"); got != "default" {
		t.Errorf("getEnv(empty) = %q", got)
	}
	if got := getEnv("MEDIALIB_TEST_UNSET", "default"); got != "default" {
		t.Errorf("getEnv(unset) = %q", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{"unset uses default", "", true, true},
		{"true", "true", false, true},
		{"one", "1", false, true},
		{"false", "false", true, false},
		{"invalid uses default", "maybe", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MEDIALIB_TEST_BOOL", tt.value)
			if got := getEnvBool("MEDIALIB_TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 30 * time.Second},
		{"5s", 5 * time.Second},
		{"2m", 2 * time.Minute},
		{"soon", 30 * time.Second},
		{"-1s", 30 * time.Second},
	}
	for _, tt := range tests {
		t.Setenv("MEDIALIB_TEST_DURATION", tt.value)
		if got := getEnvDuration("MEDIALIB_TEST_DURATION", 30*time.Second); got != tt.want {
			t.Errorf("getEnvDuration(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestReadEnv(t *testing.T) {
	data := t.TempDir()
	t.Setenv("LIBRARY_DIR", "/srv/library")
	t.Setenv("DATA_DIR", data)
	t.Setenv("SCRATCH_DIR", "")
	t.Setenv("WATCH_ENABLED", "false")
	t.Setenv("THUMBNAIL_TIMEOUT", "10s")

	config, err := readEnv()
	if err != nil {
		t.Fatalf("readEnv: %v", err)
	}
	if config.LibraryDir != filepath.Clean("/srv/library") {
		t.Errorf("LibraryDir = %q", config.LibraryDir)
	}
	if config.ScratchDir != filepath.Join(data, "scratch") {
		t.Errorf("ScratchDir = %q", config.ScratchDir)
	}
	if config.DatabasePath != filepath.Join(data, "settings.db") ||
		config.HistoryPath != filepath.Join(data, "history.json") ||
		config.ThumbnailDir != filepath.Join(data, "thumbnails") {
		t.Errorf("derived paths = %q %q %q", config.DatabasePath, config.HistoryPath, config.ThumbnailDir)
	}
	if config.WatchEnabled || config.ThumbnailTimeout != 10*time.Second || !config.MetricsEnabled {
		t.Errorf("flags = %+v", config)
	}
	if config.FFmpegPath != "ffmpeg" || config.FFprobePath != "ffprobe" {
		t.Errorf("tool paths = %q %q", config.FFmpegPath, config.FFprobePath)
	}

	volumes := config.Volumes()
	if volumes["scratch"] != config.ScratchDir || volumes["library"] != config.LibraryDir {
		t.Errorf("volumes = %v", volumes)
	}
}

func TestPrepareDirectories(t *testing.T) {
	base := t.TempDir()
	library := filepath.Join(base, "library")
	if err := os.Mkdir(library, 0o755); err != nil {
		t.Fatal(err)
	}
	config := &Config{
		LibraryDir:   library,
		DataDir:      filepath.Join(base, "data"),
		ThumbnailDir: filepath.Join(base, "data", "thumbnails"),
		ScratchDir:   filepath.Join(base, "scratch"),
	}

	if err := prepareDirectories(config); err != nil {
		t.Fatalf("prepareDirectories: %v", err)
	}
	for _, dir := range []string{config.DataDir, config.ThumbnailDir, config.ScratchDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
		if _, err := os.Stat(filepath.Join(dir, ".write-test")); !os.IsNotExist(err) {
			t.Errorf("write test file left in %s", dir)
		}
	}
}

func TestPrepareDirectoriesDataIsFile(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "data")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	config := &Config{
		LibraryDir:   filepath.Join(base, "missing-library"),
		DataDir:      file,
		ThumbnailDir: filepath.Join(file, "thumbnails"),
		ScratchDir:   filepath.Join(base, "scratch"),
	}
	if err := prepareDirectories(config); err == nil {
		t.Error("expected error when data dir is a file")
	}
	if _, err := os.Stat(config.LibraryDir); !os.IsNotExist(err) {
		t.Error("library directory must not be created")
	}
}

func TestLogDiskSpaceUsesUsage(t *testing.T) {
	var seen []string
	orig := diskUsage
	diskUsage = func(path string) (*disk.UsageStat, error) {
		seen = append(seen, path)
		if path == "/broken" {
			return nil, errors.New("no such volume")
		}
		return &disk.UsageStat{Path: path, Total: 100 << 30, Free: 40 << 30, UsedPercent: 60}, nil
	}
	t.Cleanup(func() { diskUsage = orig })

	logDiskSpace(&Config{LibraryDir: "/broken", DataDir: "/data", ScratchDir: "/scratch"})
	if len(seen) != 3 {
		t.Errorf("usage queried for %v", seen)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 30, "5.0 GiB"},
		{3 << 40, "3.0 TiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetRoutesAndGroups(t *testing.T) {
	r := mux.NewRouter()
	noop := func(_ http.ResponseWriter, _ *http.Request) {}
	r.HandleFunc("/healthz", noop).Methods("GET")
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/categories", noop).Methods("GET")
	api.HandleFunc("/compress", noop).Methods("GET", "POST")

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes: %v", err)
	}

	groups := groupRoutes(routes)
	if len(groups["api/compress"]) != 2 {
		t.Errorf("api/compress routes = %v", groups["api/compress"])
	}
	if len(groups["healthz"]) != 1 || len(groups["api/categories"]) != 1 {
		t.Errorf("groups = %v", groups)
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"/", ""},
		{"/healthz", "healthz"},
		{"/api", "api"},
		{"/api/categories/{category}", "api/categories"},
		{"/api/compress/runs", "api/compress"},
	}
	for _, tt := range tests {
		if got := getRouteGroup(tt.path); got != tt.want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestLoadQuietConfigCreatesDirectories(t *testing.T) {
	data := filepath.Join(t.TempDir(), "data")
	t.Setenv("LIBRARY_DIR", filepath.Join(t.TempDir(), "missing"))
	t.Setenv("DATA_DIR", data)
	t.Setenv("SCRATCH_DIR", "")

	config, err := LoadQuietConfig()
	if err != nil {
		t.Fatalf("LoadQuietConfig: %v", err)
	}
	for _, dir := range []string{config.DataDir, config.ScratchDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
	if _, err := os.Stat(config.LibraryDir); !os.IsNotExist(err) {
		t.Errorf("library directory should not be created: %v", err)
	}
}
