package repository

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"github.com/sandeepkv93/products-api/internal/config"
	"github.com/sandeepkv93/products-api/internal/database"
)

func newRepositoryDBForTest(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&config.Config{
		Env:              "test",
		DatabaseDriver:   config.DriverSQLite,
		DatabaseURL:      filepath.Join(t.TempDir(), "repository.db"),
		DatabaseLogLevel: "silent",
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
