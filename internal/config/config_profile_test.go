package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfigForTest() *Config {
	return &Config{
		Env:                          "development",
		HTTPPort:                     "8080",
		DatabaseDriver:               DriverPostgres,
		DatabaseURL:                  "postgres://x",
		DatabaseLogLevel:             "warn",
		APIRateLimitPerMin:           120,
		ReadinessProbeTimeout:        time.Second,
		ShutdownTimeout:              20 * time.Second,
		ShutdownHTTPDrainTimeout:     10 * time.Second,
		ShutdownObservabilityTimeout: 8 * time.Second,
		OTELExporterOTLPEndpoint:     "localhost:4317",
		OTELTraceSamplingRatio:       1.0,
		OTELMetricsExportInterval:    10 * time.Second,
		OTELLogLevel:                 "info",
	}
}

func TestValidateDevelopmentProfile(t *testing.T) {
	if err := validConfigForTest().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejectsSQLiteOutsideLocalEnv(t *testing.T) {
	cfg := validConfigForTest()
	cfg.Env = "production"
	cfg.DatabaseDriver = DriverSQLite
	cfg.DatabaseURL = "file::memory:"

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "DATABASE_DRIVER=sqlite") {
		t.Fatalf("expected sqlite profile error, got %v", err)
	}

	cfg.Env = "test"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected sqlite to be allowed in test env, got %v", err)
	}
}

func TestValidateJoinsAllViolations(t *testing.T) {
	cfg := validConfigForTest()
	cfg.DatabaseDriver = "mysql"
	cfg.DatabaseURL = ""
	cfg.APIRateLimitPerMin = 0
	cfg.OTELLogLevel = "trace"
	cfg.HTTPMaxBodyBytes = -1

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"DATABASE_DRIVER", "DATABASE_URL", "API_RATE_LIMIT_PER_MIN", "OTEL_LOG_LEVEL", "HTTP_MAX_BODY_BYTES"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}

func TestValidateRedisRequiresAddr(t *testing.T) {
	cfg := validConfigForTest()
	cfg.RateLimitRedisEnabled = true
	cfg.RedisAddr = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected redis addr error")
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATABASE_DRIVER", "SQLite")
	t.Setenv("DATABASE_URL", "file::memory:")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DatabaseDriver != DriverSQLite || cfg.HTTPPort != "9090" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Fatalf("unexpected shutdown timeout: %v", cfg.ShutdownTimeout)
	}
	if !cfg.SeedSampleProducts {
		t.Fatal("expected sample seeding to default on in test env")
	}
	if cfg.HTTPMaxBodyBytes != 1<<20 {
		t.Fatalf("expected 1 MiB default body limit, got %d", cfg.HTTPMaxBodyBytes)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("READINESS_PROBE_TIMEOUT", "soon")
	if _, err := Load(); err == nil || !strings.Contains(err.Error(), "READINESS_PROBE_TIMEOUT") {
		t.Fatalf("expected duration parse error, got %v", err)
	}
}

func TestLoadEnvFileKeepsExistingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "PRODUCTS_TEST_FROM_FILE=file\nPRODUCTS_TEST_PRESET=file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("PRODUCTS_TEST_PRESET", "env")
	t.Cleanup(func() { _ = os.Unsetenv("PRODUCTS_TEST_FROM_FILE") })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("load env file: %v", err)
	}
	if got := os.Getenv("PRODUCTS_TEST_FROM_FILE"); got != "file" {
		t.Fatalf("expected value from file, got %q", got)
	}
	if got := os.Getenv("PRODUCTS_TEST_PRESET"); got != "env" {
		t.Fatalf("expected existing env to win, got %q", got)
	}
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing file to be ignored, got %v", err)
	}
}
