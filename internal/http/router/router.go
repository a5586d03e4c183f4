package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/products-api/internal/health"
	"github.com/sandeepkv93/products-api/internal/http/handler"
	"github.com/sandeepkv93/products-api/internal/http/middleware"
	"github.com/sandeepkv93/products-api/internal/http/response"
)

// RateLimiterFunc is the middleware applied in front of the /products routes.
type RateLimiterFunc func(http.Handler) http.Handler

type Dependencies struct {
	ProductHandler  *handler.ProductHandler
	Logger          *slog.Logger
	APIRateLimitRPM int
	// RateLimiter overrides the default in-process limiter when set.
	RateLimiter    RateLimiterFunc
	MaxBodyBytes   int64
	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(dep.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.BodyLimit(dep.MaxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", nil)
	})

	r.Get("/health/live", health.LiveHandler)
	r.Get("/health/ready", health.ReadyHandler(dep.Readiness))

	limiter := dep.RateLimiter
	if limiter == nil && dep.APIRateLimitRPM > 0 {
		limiter = middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute).Middleware()
	}

	r.Route("/products", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter)
		}
		r.Get("/", dep.ProductHandler.List)
		r.Post("/", dep.ProductHandler.Create)
		r.Get("/{id}", dep.ProductHandler.GetByID)
		r.Put("/{id}", dep.ProductHandler.Replace)
		r.Delete("/{id}", dep.ProductHandler.Delete)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}
