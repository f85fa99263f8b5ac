package middleware_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jaekwang-park/todo-store/internal/middleware"
)

func newTestLogger() (zerolog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return zerolog.New(&buf), &buf
}

func decodeLogLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	line := strings.TrimSpace(buf.String())
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", line, err)
	}
	return entry
}

func TestLogging_LogsRequestInfo(t *testing.T) {
	logger, buf := newTestLogger()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	h := middleware.Logging(logger)(inner)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	entry := decodeLogLine(t, buf)
	if entry["method"] != "GET" || entry["path"] != "/health" || entry["status"] != float64(200) {
		t.Errorf("unexpected log entry: %v", entry)
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("expected duration_ms field")
	}
}

func TestLogging_DefaultStatusWhenNoExplicitWriteHeader(t *testing.T) {
	logger, buf := newTestLogger()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Write body without calling WriteHeader; Go implicitly sends 200
		_, _ = w.Write([]byte("ok"))
	})

	h := middleware.Logging(logger)(inner)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/implicit", nil))

	if entry := decodeLogLine(t, buf); entry["status"] != float64(200) {
		t.Errorf("expected status 200 in log, got %v", entry["status"])
	}
}

func TestLogging_NonOKStatus(t *testing.T) {
	logger, buf := newTestLogger()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	h := middleware.Logging(logger)(inner)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	if entry := decodeLogLine(t, buf); entry["status"] != float64(404) {
		t.Errorf("expected status 404 in log, got %v", entry["status"])
	}
}

func TestLogging_UsesRequestLogger(t *testing.T) {
	base, baseBuf := newTestLogger()
	reqLogger, reqBuf := newTestLogger()
	reqLogger = reqLogger.With().Str("request_id", "abc").Logger()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req = req.WithContext(reqLogger.WithContext(req.Context()))
	middleware.Logging(base)(inner).ServeHTTP(httptest.NewRecorder(), req)

	if baseBuf.Len() != 0 {
		t.Errorf("expected fallback logger unused, got %s", baseBuf.String())
	}
	if entry := decodeLogLine(t, reqBuf); entry["request_id"] != "abc" {
		t.Errorf("expected request_id in log, got %v", entry)
	}
}
