package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sandeepkv93/products-api/internal/config"
	"github.com/sandeepkv93/products-api/internal/database"
	"github.com/sandeepkv93/products-api/internal/health"
	"github.com/sandeepkv93/products-api/internal/http/handler"
	"github.com/sandeepkv93/products-api/internal/repository"
	"github.com/sandeepkv93/products-api/internal/service"
)

func newRouterForTest(t *testing.T, rpm int) http.Handler {
	t.Helper()
	db, err := database.Open(&config.Config{
		Env:              "test",
		DatabaseDriver:   config.DriverSQLite,
		DatabaseURL:      filepath.Join(t.TempDir(), "router.db"),
		DatabaseLogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc := service.NewProductService(repository.NewProductRepository(db))
	return NewRouter(Dependencies{
		ProductHandler:  handler.NewProductHandler(svc, nil),
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		APIRateLimitRPM: rpm,
		Readiness:       health.NewProbeRunner(time.Second, 0, health.NewDBChecker(db)),
	})
}

func send(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeObject(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

func TestProductLifecycleEndToEnd(t *testing.T) {
	h := newRouterForTest(t, 1000)

	rr := send(t, h, http.MethodPost, "/products", `{"ProductCode":1,"Name":"Lavender Heart","Price":19.99}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	created := decodeObject(t, rr)
	id, ok := created["Id"].(float64)
	if !ok || id <= 0 {
		t.Fatalf("expected generated Id, got %v", created["Id"])
	}
	location := rr.Header().Get("Location")
	if location != "/products/"+formatID(id) {
		t.Fatalf("unexpected Location %q", location)
	}

	rr = send(t, h, http.MethodGet, location, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", rr.Code)
	}
	if got := decodeObject(t, rr); !sameProduct(got, created) {
		t.Fatalf("expected %v, got %v", created, got)
	}

	rr = send(t, h, http.MethodPut, location, `{"Id":`+formatID(id)+`,"ProductCode":1,"Name":"Lavender Heart","Price":24.99}`)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("replace: expected 204, got %d body=%s", rr.Code, rr.Body.String())
	}

	rr = send(t, h, http.MethodGet, location, "")
	latest := decodeObject(t, rr)
	if latest["Price"] != 24.99 {
		t.Fatalf("expected updated price 24.99, got %v", latest["Price"])
	}

	rr = send(t, h, http.MethodDelete, location, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rr.Code)
	}
	if got := decodeObject(t, rr); !sameProduct(got, latest) {
		t.Fatalf("expected last version %v, got %v", latest, got)
	}

	if rr = send(t, h, http.MethodGet, location, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestProductRoutesErrorMapping(t *testing.T) {
	h := newRouterForTest(t, 1000)

	if rr := send(t, h, http.MethodGet, "/products", ""); rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %d %q", rr.Code, rr.Body.String())
	}
	if rr := send(t, h, http.MethodPost, "/products", `{"ProductCode":5,"Name":"A"}`); rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if rr := send(t, h, http.MethodPost, "/products", `{"ProductCode":5,"Name":"B"}`); rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected duplicate product code to surface as 500, got %d", rr.Code)
	}
	if rr := send(t, h, http.MethodPut, "/products/1", `{"Id":2,"ProductCode":5,"Name":"A"}`); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected id mismatch 400, got %d", rr.Code)
	}
	if rr := send(t, h, http.MethodPut, "/products/99", `{"Id":99,"ProductCode":9,"Name":"A"}`); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing product, got %d", rr.Code)
	}
	if rr := send(t, h, http.MethodDelete, "/products/99", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for delete of missing product, got %d", rr.Code)
	}
	if rr := send(t, h, http.MethodPatch, "/products/1", `{}`); rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestHealthAndMiddlewareWiring(t *testing.T) {
	h := newRouterForTest(t, 1)

	rr := send(t, h, http.MethodGet, "/health/live", "")
	if rr.Code != http.StatusOK || rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("unexpected live response %d headers=%v", rr.Code, rr.Header())
	}
	if rr := send(t, h, http.MethodGet, "/health/ready", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d body=%s", rr.Code, rr.Body.String())
	}

	if rr := send(t, h, http.MethodGet, "/products", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected first product request allowed, got %d", rr.Code)
	}
	rr = send(t, h, http.MethodGet, "/products", "")
	if rr.Code != http.StatusTooManyRequests || rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected 429 with Retry-After, got %d", rr.Code)
	}
	if rr := send(t, h, http.MethodGet, "/health/live", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected health probes to bypass rate limit, got %d", rr.Code)
	}
}

func formatID(id float64) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func sameProduct(a, b map[string]any) bool {
	for _, k := range []string{"Id", "ProductCode", "Name", "Price"} {
		if a[k] != b[k] {
			return false
		}
	}
	return true
}
