package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sandeepkv93/products-api/internal/config"
	"github.com/sandeepkv93/products-api/internal/database"
)

func staticCheck(name string, err error) Checker {
	return CheckFunc{CheckName: name, Fn: func(context.Context) error { return err }}
}

func TestProbeRunnerReadyAndUnready(t *testing.T) {
	ready, results := NewProbeRunner(200*time.Millisecond, 0,
		staticCheck("db", nil),
		staticCheck("redis", nil),
	).Ready(context.Background())
	if !ready || len(results) != 2 {
		t.Fatalf("expected ready with 2 results, got ready=%v results=%+v", ready, results)
	}

	ready, results = NewProbeRunner(200*time.Millisecond, 0,
		staticCheck("db", nil),
		staticCheck("redis", errors.New("down")),
	).Ready(context.Background())
	if ready {
		t.Fatal("expected unready")
	}
	if results[1].Name != "redis" || results[1].Error != "down" {
		t.Fatalf("expected results in checker order, got %+v", results)
	}
}

func TestProbeRunnerSkipsNilCheckers(t *testing.T) {
	ready, results := NewProbeRunner(time.Second, 0, NewRedisChecker(nil), NewDBChecker(nil)).Ready(context.Background())
	if !ready || len(results) != 0 {
		t.Fatalf("expected trivially ready runner, got ready=%v results=%+v", ready, results)
	}
}

func TestProbeRunnerStartupGrace(t *testing.T) {
	runner := NewProbeRunner(time.Second, 2*time.Second, staticCheck("db", nil))
	ready, results := runner.Ready(context.Background())
	if ready || results[0].Name != "startup_grace" {
		t.Fatalf("expected grace period unready, got ready=%v results=%+v", ready, results)
	}

	runner.now = func() time.Time { return runner.startedAt.Add(3 * time.Second) }
	if ready, _ := runner.Ready(context.Background()); !ready {
		t.Fatal("expected ready after grace period")
	}
}

func TestProbeRunnerAppliesTimeout(t *testing.T) {
	slow := CheckFunc{CheckName: "slow", Fn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	ready, results := NewProbeRunner(20*time.Millisecond, 0, slow).Ready(context.Background())
	if ready || results[0].Error == "" {
		t.Fatalf("expected timeout failure, got %+v", results)
	}
}

func TestDependencyCheckers(t *testing.T) {
	db, err := database.Open(&config.Config{
		DatabaseDriver:   config.DriverSQLite,
		DatabaseURL:      filepath.Join(t.TempDir(), "health.db"),
		DatabaseLogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	dbCheck := NewDBChecker(db)
	if err := dbCheck.Check(context.Background()); err == nil {
		t.Fatal("expected db check to fail before migration")
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := dbCheck.Check(context.Background()); err != nil {
		t.Fatalf("expected db check to pass, got %v", err)
	}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	redisCheck := NewRedisChecker(client)
	if err := redisCheck.Check(context.Background()); err != nil {
		t.Fatalf("expected redis check to pass, got %v", err)
	}
	mr.Close()
	if err := redisCheck.Check(context.Background()); err == nil {
		t.Fatal("expected redis check to fail after shutdown")
	}
}

func TestReadyHandlerStatusCodes(t *testing.T) {
	rr := httptest.NewRecorder()
	ReadyHandler(NewProbeRunner(time.Second, 0, staticCheck("db", nil)))(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	ReadyHandler(NewProbeRunner(time.Second, 0, staticCheck("db", errors.New("down"))))(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	var env map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errObj, _ := env["error"].(map[string]any); errObj["code"] != "DEPENDENCY_UNREADY" {
		t.Fatalf("unexpected body %v", env)
	}

	rr = httptest.NewRecorder()
	LiveHandler(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected live 200, got %d", rr.Code)
	}
}
