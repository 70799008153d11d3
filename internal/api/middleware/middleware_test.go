package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/candidates", "/candidates"},
		{"/candidates/42", "/candidates/{id}"},
		{"/candidates/42/resume", "/candidates/{id}/resume"},
		{"/candidates/stats", "/candidates/stats"},
		{"/candidates/4a2", "/candidates/4a2"},
		{"/health/live", "/health/live"},
		{"/", "/"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q): ожидалось %q, получено %q", tt.in, tt.want, got)
		}
	}
}

func TestMetricsMiddleware_PassesStatus(t *testing.T) {
	h := MetricsMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/candidates/1", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("статус: ожидалось 418, получено %d", rec.Code)
	}
}

// logRecords возвращает JSON-записи, записанные логгером.
func logRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			t.Fatalf("ошибка разбора лога %q: %v", line, err)
		}
		out = append(out, rec)
	}
	return out
}

func TestRequestLogger_Levels(t *testing.T) {
	tests := []struct {
		path   string
		status int
		level  string
	}{
		{"/candidates", http.StatusOK, "INFO"},
		{"/candidates/9", http.StatusNotFound, "WARN"},
		{"/candidates", http.StatusInternalServerError, "ERROR"},
		{"/health/live", http.StatusOK, "DEBUG"},
		{"/health/ready", http.StatusServiceUnavailable, "ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

		h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tt.status)
			_, _ = w.Write([]byte("body"))
		}))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

		records := logRecords(t, &buf)
		if len(records) != 1 {
			t.Fatalf("%s: ожидалась 1 запись лога, получено %d", tt.path, len(records))
		}
		rec := records[0]
		if rec["level"] != tt.level {
			t.Errorf("%s %d: уровень %v, ожидалось %s", tt.path, tt.status, rec["level"], tt.level)
		}
		if rec["status"] != float64(tt.status) || rec["bytes"] != float64(4) {
			t.Errorf("%s: некорректные атрибуты %v", tt.path, rec)
		}
		if rec["component"] != "http" {
			t.Errorf("component: получено %v", rec["component"])
		}
	}
}

func TestRequestLogger_RouteAndRequestBytes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	r.Post("/candidates/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "/candidates/7", strings.NewReader("resume-body"))
	r.ServeHTTP(httptest.NewRecorder(), req)

	records := logRecords(t, &buf)
	if len(records) != 1 {
		t.Fatalf("ожидалась 1 запись лога, получено %d", len(records))
	}
	rec := records[0]
	if rec["route"] != "/candidates/{id}" {
		t.Errorf("route: ожидалось /candidates/{id}, получено %v", rec["route"])
	}
	if rec["path"] != "/candidates/7" {
		t.Errorf("path: получено %v", rec["path"])
	}
	if rec["request_bytes"] != float64(len("resume-body")) {
		t.Errorf("request_bytes: получено %v", rec["request_bytes"])
	}
	if rec["status"] != float64(http.StatusCreated) {
		t.Errorf("status: ожидалось 201, получено %v", rec["status"])
	}
}

func TestRequestLogger_DefaultStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := RequestLogger(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/candidates", nil))

	records := logRecords(t, &buf)
	if len(records) != 1 {
		t.Fatalf("ожидалась 1 запись лога, получено %d", len(records))
	}
	if records[0]["status"] != float64(http.StatusOK) {
		t.Errorf("ожидался статус 200 без явного WriteHeader, получено %v", records[0]["status"])
	}
	if _, ok := records[0]["request_bytes"]; ok {
		t.Error("request_bytes не должен писаться для запроса без тела")
	}
}
