package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mukisa/dukabook/internal/logger"
)

func TestRequestIDTagsRequestLogs(t *testing.T) {
	var buf strings.Builder
	log := logger.NewWithWriter(&buf)

	handler := RequestID(log)(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxLog := logger.FromContext(r.Context())
		ctxLog.Info().Msg("handled")
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/extract", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "req-123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "req-123")
	}

	out := buf.String()
	if !strings.Contains(out, "req-123") {
		t.Errorf("request logs missing the request id: %s", out)
	}
	if !strings.Contains(out, "handled") || !strings.Contains(out, "HTTP request") {
		t.Errorf("expected handler and request log lines, got: %s", out)
	}
}

func TestRequestIDGeneratedWhenMissing(t *testing.T) {
	var buf strings.Builder
	handler := RequestID(logger.NewWithWriter(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated X-Request-ID header")
	}
}
