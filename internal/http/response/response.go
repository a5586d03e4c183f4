package response

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error ErrorBody  `json:"error"`
	Meta  *ErrorMeta `json:"meta,omitempty"`
}

type ErrorMeta struct {
	RequestID string `json:"request_id"`
}

// JSON writes v as the response body. Resource payloads are written bare,
// without an envelope.
func JSON(w http.ResponseWriter, _ *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	env := ErrorEnvelope{Error: ErrorBody{Code: code, Message: message, Details: details}}
	if r != nil {
		if id := middleware.GetReqID(r.Context()); id != "" {
			env.Meta = &ErrorMeta{RequestID: id}
		}
	}
	JSON(w, r, status, env)
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
