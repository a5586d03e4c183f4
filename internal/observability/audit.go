package observability

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// Audit emits a structured audit record for a state-changing product request.
// Trace correlation is added by the logger's trace context handler.
func Audit(r *http.Request, event string, attrs ...any) {
	base := []any{
		"audit", true,
		"event", event,
		"method", r.Method,
		"path", r.URL.Path,
		"request_id", middleware.GetReqID(r.Context()),
		"remote_addr", r.RemoteAddr,
	}
	slog.InfoContext(r.Context(), "audit", append(base, attrs...)...)
}
