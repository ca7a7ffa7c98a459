package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func decodeLogEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v\nraw: %s", err, buf.String())
	}
	return entry
}

// TestLoggingMiddleware_LogsRequestFields はリクエストログに必要なフィールドが含まれることを検証する。
func TestLoggingMiddleware_LogsRequestFields(t *testing.T) {
	var buf bytes.Buffer
	handler := NewLoggingMiddleware(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/list/employees", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	entry := decodeLogEntry(t, &buf)
	if entry["msg"] != "http_request" {
		t.Errorf("msg = %q, want %q", entry["msg"], "http_request")
	}
	if entry["method"] != "GET" {
		t.Errorf("method = %q, want %q", entry["method"], "GET")
	}
	if entry["path"] != "/list/employees" {
		t.Errorf("path = %q, want %q", entry["path"], "/list/employees")
	}
	if status, ok := entry["status"].(float64); !ok || status != 200 {
		t.Errorf("status = %v, want 200", entry["status"])
	}
	if d, ok := entry["duration_ms"].(float64); !ok || d < 0 {
		t.Errorf("duration_ms = %v, want >= 0", entry["duration_ms"])
	}
	if _, ok := entry["uid"]; ok {
		t.Errorf("uid should be omitted outside a routed request, got %v", entry["uid"])
	}
}

// TestLoggingMiddleware_IncludesRouteUID はchiのルートに{uid}がある場合にログへ含まれることを検証する。
func TestLoggingMiddleware_IncludesRouteUID(t *testing.T) {
	var buf bytes.Buffer

	r := chi.NewRouter()
	r.Use(NewLoggingMiddleware(newTestLogger(&buf)))
	r.Post("/add/{uid}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	req := httptest.NewRequest(http.MethodPost, "/add/card-42", nil)
	w := httptest.NewRecorder()

	r.ServeHTTP(w, req)

	entry := decodeLogEntry(t, &buf)
	if entry["uid"] != "card-42" {
		t.Errorf("uid = %q, want %q", entry["uid"], "card-42")
	}
	if status := int(entry["status"].(float64)); status != http.StatusAccepted {
		t.Errorf("status = %d, want %d", status, http.StatusAccepted)
	}
}

// TestLoggingMiddleware_LevelByStatus はステータスコードに応じてログレベルが変わることを検証する。
func TestLoggingMiddleware_LevelByStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantLevel  string
	}{
		{"200 OK", http.StatusOK, "INFO"},
		{"303 See Other", http.StatusSeeOther, "INFO"},
		{"404 Not Found", http.StatusNotFound, "WARN"},
		{"429 Too Many Requests", http.StatusTooManyRequests, "WARN"},
		{"500 Internal Server Error", http.StatusInternalServerError, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := NewLoggingMiddleware(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

			entry := decodeLogEntry(t, &buf)
			if status := int(entry["status"].(float64)); status != tt.statusCode {
				t.Errorf("status = %d, want %d", status, tt.statusCode)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level = %q, want %q", entry["level"], tt.wantLevel)
			}
		})
	}
}

// TestLoggingMiddleware_BodyWriteCapture はWriteHeaderなしの書き込みで200が記録されることを検証する。
func TestLoggingMiddleware_BodyWriteCapture(t *testing.T) {
	var buf bytes.Buffer
	handler := NewLoggingMiddleware(newTestLogger(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("hello"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	entry := decodeLogEntry(t, &buf)
	if status := int(entry["status"].(float64)); status != 200 {
		t.Errorf("status = %d, want 200", status)
	}
}

type statusMetrics struct {
	statuses []int
}

func (m *statusMetrics) RecordToggle(string)               {}
func (m *statusMetrics) RecordToggleLatency(time.Duration) {}
func (m *statusMetrics) RecordAuthRequest()                {}
func (m *statusMetrics) RecordAuthPoll(string)             {}
func (m *statusMetrics) RecordAuthExpired(int64)           {}
func (m *statusMetrics) RecordHTTPStatus(code int)         { m.statuses = append(m.statuses, code) }

// TestMetricsMiddleware_RecordsStatus はレスポンスステータスがメトリクスに記録されることを検証する。
func TestMetricsMiddleware_RecordsStatus(t *testing.T) {
	mc := &statusMetrics{}

	r := chi.NewRouter()
	r.Use(NewMetricsMiddleware(mc))
	r.Use(NewLoggingMiddleware(newTestLogger(&bytes.Buffer{})))
	r.Get("/info/{uid}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/info/card-1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if len(mc.statuses) != 2 {
		t.Fatalf("recorded %d statuses, want 2", len(mc.statuses))
	}
	if mc.statuses[0] != http.StatusNotFound || mc.statuses[1] != http.StatusOK {
		t.Errorf("statuses = %v, want [404 200]", mc.statuses)
	}
}
