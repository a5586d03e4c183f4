package di

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sandeepkv93/products-api/internal/config"
	"github.com/sandeepkv93/products-api/internal/domain"
	"github.com/sandeepkv93/products-api/internal/observability"
)

func newDIUnitTestConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Env:                   "test",
		HTTPPort:              "8080",
		DatabaseDriver:        config.DriverSQLite,
		DatabaseURL:           filepath.Join(t.TempDir(), "di.db"),
		DatabaseLogLevel:      "silent",
		APIRateLimitPerMin:    2,
		RateLimitRedisPrefix:  "rl",
		ReadinessProbeTimeout: time.Second,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProvideHTTPServer(t *testing.T) {
	cfg := &config.Config{HTTPPort: "9999"}
	srv := provideHTTPServer(cfg, nil)
	if srv.Addr != ":9999" {
		t.Fatalf("unexpected addr: %s", srv.Addr)
	}
	if srv.ReadTimeout.Seconds() != 10 {
		t.Fatalf("unexpected read timeout: %v", srv.ReadTimeout)
	}
}

func TestProvideRouterDependencies(t *testing.T) {
	cfg := &config.Config{APIRateLimitPerMin: 100, HTTPMaxBodyBytes: 2048, OTELTracingEnabled: true}
	dep := provideRouterDependencies(nil, nil, nil, nil, cfg)
	if dep.APIRateLimitRPM != 100 || dep.MaxBodyBytes != 2048 {
		t.Fatalf("unexpected dependencies: %+v", dep)
	}
	if !dep.EnableOTelHTTP {
		t.Fatal("expected otel http enabled")
	}
}

func TestProvideRuntimeDBMigratesAndSeeds(t *testing.T) {
	cfg := newDIUnitTestConfig(t)
	cfg.SeedSampleProducts = true

	db, err := provideRuntimeDB(cfg, discardLogger())
	if err != nil {
		t.Fatalf("provide runtime db: %v", err)
	}
	t.Cleanup(func() { closeDB(t, db) })

	var count int64
	if err := db.Model(&domain.Product{}).Count(&count).Error; err != nil {
		t.Fatalf("count products: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 seeded products, got %d", count)
	}
}

func TestProvideRuntimeDBSkipsSeedWhenDisabled(t *testing.T) {
	cfg := newDIUnitTestConfig(t)

	db, err := provideRuntimeDB(cfg, discardLogger())
	if err != nil {
		t.Fatalf("provide runtime db: %v", err)
	}
	t.Cleanup(func() { closeDB(t, db) })

	var count int64
	if err := db.Model(&domain.Product{}).Count(&count).Error; err != nil {
		t.Fatalf("count products: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty table, got %d", count)
	}
}

func TestProvideRedisClientDisabled(t *testing.T) {
	if c := provideRedisClient(&config.Config{}, discardLogger()); c != nil {
		t.Fatal("expected nil redis client when redis rate limiting is disabled")
	}
}

func TestProvideRedisClientEnabled(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{RateLimitRedisEnabled: true, RedisAddr: mr.Addr(), RedisDB: 0}
	client := provideRedisClient(cfg, discardLogger())
	if client == nil {
		t.Fatal("expected redis client")
	}
	t.Cleanup(func() { _ = client.Close() })
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestProvideRateLimiterLocal(t *testing.T) {
	cfg := newDIUnitTestConfig(t)
	mw := provideRateLimiter(cfg, nil)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence: %v", codes)
	}
}

func TestProvideRateLimiterRedisUsesPrefixedKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := newDIUnitTestConfig(t)
	cfg.RateLimitRedisEnabled = true
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := provideRateLimiter(cfg, client)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	keys := mr.Keys()
	if len(keys) != 1 || len(keys[0]) < len("rl:api") || keys[0][:len("rl:api")] != "rl:api" {
		t.Fatalf("expected a single rl:api key, got %v", keys)
	}
}

func TestProvideRateLimiterRedisFailOpen(t *testing.T) {
	cfg := newDIUnitTestConfig(t)
	cfg.RateLimitRedisEnabled = true
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	t.Cleanup(func() { _ = client.Close() })

	h := provideRateLimiter(cfg, client)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected fail-open response when redis unavailable, got %d", rr.Code)
	}
}

func TestProvideReadinessProbeRunnerSkipsDisabledRedis(t *testing.T) {
	cfg := newDIUnitTestConfig(t)
	db, err := provideRuntimeDB(cfg, discardLogger())
	if err != nil {
		t.Fatalf("provide runtime db: %v", err)
	}
	t.Cleanup(func() { closeDB(t, db) })

	runner := provideReadinessProbeRunner(cfg, db, nil)
	ready, results := runner.Ready(context.Background())
	if !ready {
		t.Fatalf("expected ready, got %+v", results)
	}
	if len(results) != 1 || results[0].Name != "db" {
		t.Fatalf("expected only the db check, got %+v", results)
	}
}

func TestProvideApp(t *testing.T) {
	cfg := &config.Config{HTTPPort: "8080"}
	logger := slog.Default()
	srv := &http.Server{Addr: ":8080", ReadHeaderTimeout: time.Second}
	runtime := &observability.Runtime{}

	app := provideApp(cfg, logger, srv, runtime, nil, nil, nil)
	if app == nil {
		t.Fatal("expected app")
	}
	if app.Config != cfg || app.Logger != logger || app.Server != srv || app.Observability != runtime {
		t.Fatal("app dependencies not wired as expected")
	}
}

func closeDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	_ = sqlDB.Close()
}
