package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

type captureHandler struct {
	records []slog.Record
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.records = append(h.records, r)
	return nil
}
func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(string) slog.Handler      { return h }

func TestRequestLoggerLevelsByStatus(t *testing.T) {
	capture := &captureHandler{}
	r := chi.NewRouter()
	r.Use(RequestLogger(slog.New(capture)))
	r.Get("/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		switch chi.URLParam(r, "id") {
		case "1":
			w.WriteHeader(http.StatusOK)
		case "2":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})

	for _, path := range []string{"/products/1", "/products/2", "/products/3"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "198.51.100.10:3456"
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if len(capture.records) != 3 {
		t.Fatalf("expected 3 log records, got %d", len(capture.records))
	}
	wantLevels := []slog.Level{slog.LevelInfo, slog.LevelWarn, slog.LevelError}
	for i, want := range wantLevels {
		if capture.records[i].Level != want {
			t.Fatalf("record %d: expected level %v, got %v", i, want, capture.records[i].Level)
		}
	}

	attrs := recordAttrs(capture.records[0])
	if attrs["route"] != "/products/{id}" || attrs["status"] != "200" || attrs["client_ip"] != "198.51.100.10" {
		t.Fatalf("unexpected attrs %+v", attrs)
	}
}

func TestRequestLoggerStatusFallbackTo200(t *testing.T) {
	capture := &captureHandler{}
	h := RequestLogger(slog.New(capture))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/none", nil))

	if len(capture.records) != 1 {
		t.Fatalf("expected one log record, got %d", len(capture.records))
	}
	if attrs := recordAttrs(capture.records[0]); attrs["status"] != "200" {
		t.Fatalf("expected fallback status 200, got %q", attrs["status"])
	}
}

func recordAttrs(rec slog.Record) map[string]string {
	out := map[string]string{}
	rec.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.String()
		return true
	})
	return out
}
