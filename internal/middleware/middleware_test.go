package middleware

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"media-library/internal/metrics"
)

func TestResponseWriterWriteHeader(t *testing.T) {
	w := httptest.NewRecorder()
	rw := newResponseWriter(w)

	if rw.statusCode != http.StatusOK || rw.wroteHeader {
		t.Fatalf("initial state = %d %v", rw.statusCode, rw.wroteHeader)
	}

	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)

	if rw.statusCode != http.StatusNotFound {
		t.Errorf("status = %d, want first WriteHeader to win", rw.statusCode)
	}
	if w.Code != http.StatusNotFound {
		t.Errorf("underlying status = %d", w.Code)
	}
}

func TestResponseWriterWrite(t *testing.T) {
	rw := newResponseWriter(httptest.NewRecorder())

	n, err := rw.Write([]byte("test data"))
	if err != nil || n != 9 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if rw.bytesWritten != 9 || !rw.wroteHeader {
		t.Errorf("bytesWritten = %d, wroteHeader = %v", rw.bytesWritten, rw.wroteHeader)
	}
}

type hijackRecorder struct {
	*httptest.ResponseRecorder
	hijacked bool
}

func (h *hijackRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h.hijacked = true
	server, client := net.Pipe()
	_ = client.Close()
	return server, bufio.NewReadWriter(bufio.NewReader(server), bufio.NewWriter(server)), nil
}

func TestResponseWriterHijack(t *testing.T) {
	rec := &hijackRecorder{ResponseRecorder: httptest.NewRecorder()}
	rw := newResponseWriter(rec)

	conn, _, err := rw.Hijack()
	if err != nil {
		t.Fatalf("Hijack: %v", err)
	}
	_ = conn.Close()
	if !rec.hijacked || !rw.hijacked || rw.statusCode != http.StatusSwitchingProtocols {
		t.Errorf("hijack state = %v %v %d", rec.hijacked, rw.hijacked, rw.statusCode)
	}

	plain := newResponseWriter(httptest.NewRecorder())
	if _, _, err := plain.Hijack(); err == nil {
		t.Error("expected error from non-hijackable writer")
	}
}

func TestShouldSkip(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		config LoggingConfig
		want   bool
	}{
		{"regular request", "/api/categories", DefaultLoggingConfig(), false},
		{"thumbnail as static file", "/api/thumbnails/a.mp4.jpg", DefaultLoggingConfig(), true},
		{"uppercase extension", "/api/media/Travel/IMG.JPG", DefaultLoggingConfig(), true},
		{"static files logged when enabled", "/styles.css", LoggingConfig{LogStaticFiles: true, SkipExtensions: []string{".css"}}, false},
		{"health checks logged", "/healthz", LoggingConfig{LogHealthChecks: true}, false},
		{"health checks skipped", "/livez", LoggingConfig{LogHealthChecks: false}, true},
		{"explicit skip path", "/api/events", LoggingConfig{SkipPaths: []string{"/api/events"}, LogHealthChecks: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldSkip(tt.path, tt.config); got != tt.want {
				t.Errorf("shouldSkip(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"line\nbreak", "line break"},
		{"cr\rlf", "cr lf"},
		{"nul\x00byte", "nulbyte"},
		{"\x1b[31mred", "[31mred"},
		{"tab\tkept", "tab\tkept"},
	}
	for _, tt := range tests {
		if got := sanitizeLogField(tt.in); got != tt.want {
			t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatW3C(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/compress/runs?limit=5", http.NoBody)
	req.RemoteAddr = "10.0.0.7:5123"
	req.Header.Set("User-Agent", "curl/8.0 (x)")
	rw := newResponseWriter(httptest.NewRecorder())
	rw.WriteHeader(http.StatusAccepted)
	_, _ = rw.Write([]byte("12345"))

	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	got := formatW3C(now, req, rw, 42*time.Millisecond)
	want := `2026-03-04 05:06:07 10.0.0.7 GET /api/compress/runs limit=5 202 5 42 "curl/8.0 (x)" -`
	if got != want {
		t.Errorf("formatW3C =\n%s\nwant\n%s", got, want)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "1.1.1.1, 2.2.2.2"}, "9.9.9.9:1", "1.1.1.1"},
		{"real ip", map[string]string{"X-Real-IP": "3.3.3.3"}, "9.9.9.9:1", "3.3.3.3"},
		{"remote addr", nil, "9.9.9.9:1", "9.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoggerPassesThrough(t *testing.T) {
	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("ok"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/categories", http.NoBody))
	if w.Code != http.StatusTeapot || w.Body.String() != "ok" {
		t.Errorf("response = %d %q", w.Code, w.Body.String())
	}
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Metrics(DefaultMetricsConfig()))
	r.HandleFunc("/api/categories/{category}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods("GET")

	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/api/categories/{category}", "404")
	before := testutil.ToFloat64(counter)

	for _, cat := range []string{"Travel", "Anime"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/categories/"+cat, http.NoBody))
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("route counter delta = %v, want 2", got)
	}
}

func TestMetricsSkipPaths(t *testing.T) {
	called := false
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/healthz", "200")
	before := testutil.ToFloat64(counter)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))

	if !called {
		t.Error("handler not called")
	}
	if testutil.ToFloat64(counter) != before {
		t.Error("skipped path was recorded")
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"/", "/"},
		{"/api/categories", "/api/categories"},
		{"/api/categories/Travel", "/api/categories/Travel"},
		{"/api/categories/Travel/files/a.mp4", "/api/categories/Travel/{path}"},
		{"/api/media/Travel/a.mp4", "/api/media/Travel/{path}"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.path); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
	if strings.Contains(normalizePath("/a/b/c/d/e/f"), "e") {
		t.Error("deep segments leaked into label")
	}
}
