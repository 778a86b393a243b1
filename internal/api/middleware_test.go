package api

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestRequestLogger(t *testing.T) {
	var logBuf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logBuf, nil))

	h := middleware.RequestID(RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("ok"))
	})))

	req := httptest.NewRequest(http.MethodGet, "/brew", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := logBuf.String()
	if !strings.Contains(out, "request_id=") {
		t.Errorf("expected request_id in log line, got %q", out)
	}
	if !strings.Contains(out, "status=418") {
		t.Errorf("expected handler status in log line, got %q", out)
	}
	if !strings.Contains(out, "bytes=2") {
		t.Errorf("expected response size in log line, got %q", out)
	}
	if !strings.Contains(out, "path=/brew") {
		t.Errorf("expected path in log line, got %q", out)
	}
}

func TestRequestLogger_DefaultStatus(t *testing.T) {
	var logBuf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logBuf, nil))

	// A handler that never calls WriteHeader implicitly responds 200.
	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(logBuf.String(), "status=200") {
		t.Errorf("expected implicit 200 logged, got %q", logBuf.String())
	}
}
