package health

import (
	"net/http"

	"github.com/sandeepkv93/products-api/internal/http/response"
)

func LiveHandler(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler answers 200 when every check passes and 503 otherwise.
func ReadyHandler(runner *ProbeRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ready, results := runner.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	}
}
