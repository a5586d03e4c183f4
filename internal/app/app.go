package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sandeepkv93/products-api/internal/config"
	"github.com/sandeepkv93/products-api/internal/database"
	"github.com/sandeepkv93/products-api/internal/health"
	"github.com/sandeepkv93/products-api/internal/observability"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Server        *http.Server
	Observability *observability.Runtime
	DB            *gorm.DB
	Redis         redis.UniversalClient
	Readiness     *health.ProbeRunner
}

func New(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	readiness *health.ProbeRunner,
) *App {
	return &App{
		Config:        cfg,
		Logger:        logger,
		Server:        server,
		Observability: runtime,
		DB:            db,
		Redis:         redisClient,
		Readiness:     readiness,
	}
}

// Run serves HTTP until ctx is cancelled or the listener fails, then shuts
// everything down within the configured budgets.
func (a *App) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		a.Logger.Info("server starting", "addr", a.Server.Addr, "env", a.Config.Env, "db_driver", a.Config.DatabaseDriver)
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	case err := <-serveErr:
		runErr = err
		a.Logger.Error("http server failed", "error", err)
	}
	return errors.Join(runErr, a.Shutdown(context.Background()))
}

// Shutdown drains HTTP first, then flushes telemetry, then closes Redis and
// the database. Each stage is bounded by its own timeout inside the total.
func (a *App) Shutdown(parent context.Context) error {
	totalCtx, cancel := context.WithTimeout(parent, a.Config.ShutdownTimeout)
	defer cancel()

	var errs []error
	if a.Server != nil {
		errs = append(errs, a.stage(totalCtx, "http", a.Config.ShutdownHTTPDrainTimeout, a.Server.Shutdown))
	}
	if a.Observability != nil {
		errs = append(errs, a.stage(totalCtx, "observability", a.Config.ShutdownObservabilityTimeout, a.Observability.Shutdown))
	}
	if a.Redis != nil {
		errs = append(errs, a.stage(totalCtx, "redis", 0, func(context.Context) error { return a.Redis.Close() }))
	}
	if a.DB != nil {
		errs = append(errs, a.stage(totalCtx, "database", 0, func(context.Context) error { return database.Close(a.DB) }))
	}
	return errors.Join(errs...)
}

func (a *App) stage(parent context.Context, name string, timeout time.Duration, fn func(context.Context) error) error {
	ctx := parent
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, timeout)
		defer cancel()
	}
	if err := fn(ctx); err != nil {
		a.Logger.Error("shutdown stage failed", "stage", name, "error", err)
		return fmt.Errorf("shutdown %s: %w", name, err)
	}
	return nil
}
