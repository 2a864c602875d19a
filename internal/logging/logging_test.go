package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// captureLogOutput captures log output for testing by temporarily
// redirecting the logger to write to a buffer
func captureLogOutput(f func()) string {
	var buf bytes.Buffer

	oldLogger := defaultLogger
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	defaultLogger = slog.New(handler)

	f()

	defaultLogger = oldLogger
	return buf.String()
}

func TestLogLevels(t *testing.T) {
	out := captureLogOutput(func() {
		Debug("debug message", "k", "v")
		Info("info message")
		Warn("warn message")
		Error("error message")
	})

	for _, want := range []string{"debug message", "info message", "warn message", "error message"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-123")
	if got := GetRequestID(ctx); got != "req-123" {
		t.Errorf("GetRequestID = %q, want req-123", got)
	}

	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("GetRequestID on empty context = %q, want empty", got)
	}
}

func TestLoggerFromContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-456")
	out := captureLogOutput(func() {
		InfoContext(ctx, "with request id")
	})
	if !strings.Contains(out, "req-456") {
		t.Errorf("output missing request id: %s", out)
	}
}

func TestHTTPRequest(t *testing.T) {
	out := captureLogOutput(func() {
		HTTPRequest("POST", "/api/v1/upload", "127.0.0.1:1234", 200, 5*time.Millisecond)
	})
	for _, want := range []string{"http_request", "POST", "/api/v1/upload", "200"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestIngestEvent(t *testing.T) {
	out := captureLogOutput(func() {
		IngestEvent(context.Background(), "validate", "json", "filename", "selection.json")
	})
	for _, want := range []string{"ingest_event", "validate", "selection.json"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestSecurityEvent(t *testing.T) {
	out := captureLogOutput(func() {
		SecurityEvent("doctype_rejected", "sanitizer", "filename", "evil.svg")
	})
	for _, want := range []string{"security_event", "doctype_rejected", "sanitizer"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var gotID string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = GetRequestID(r.Context())
	}))

	t.Run("generates id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		if gotID == "" {
			t.Error("middleware should generate a request id")
		}
		if rec.Header().Get("X-Request-ID") != gotID {
			t.Error("response header should carry the request id")
		}
	})

	t.Run("honors upstream id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Request-ID", "upstream-1")
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if gotID != "upstream-1" {
			t.Errorf("request id = %q, want upstream-1", gotID)
		}
	})
}

func TestLoggingMiddleware(t *testing.T) {
	out := captureLogOutput(func() {
		handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusCreated)
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/v1/upload", nil))
	})
	for _, want := range []string{"http_request", "201"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}
