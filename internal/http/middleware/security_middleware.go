package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sandeepkv93/products-api/internal/observability"
)

// DefaultMaxBodyBytes caps product request bodies at 1 MiB.
const DefaultMaxBodyBytes int64 = 1 << 20

func RequestID(next http.Handler) http.Handler { return chimiddleware.RequestID(next) }

func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		if r.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// BodyLimit wraps the request body in http.MaxBytesReader. Handlers see the
// overflow as a decode error and answer 400.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = &limitedBody{
					ReadCloser: http.MaxBytesReader(w, r.Body, maxBytes),
					ctx:        r.Context(),
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

type limitedBody struct {
	io.ReadCloser
	ctx      context.Context
	reported bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err == nil || errors.Is(err, io.EOF) || b.reported {
		return n, err
	}
	b.reported = true
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		observability.RecordMiddlewareValidationEvent(b.ctx, "body_limit", "rejected_too_large")
	} else {
		observability.RecordMiddlewareValidationEvent(b.ctx, "body_limit", "read_error")
	}
	return n, err
}
