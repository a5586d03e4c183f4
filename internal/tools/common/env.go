package common

import (
	"gorm.io/gorm"

	"github.com/sandeepkv93/products-api/internal/config"
	"github.com/sandeepkv93/products-api/internal/database"
)

// LoadConfig reads envFile (if present) and then the process environment.
func LoadConfig(envFile string) (*config.Config, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	return config.Load()
}

// OpenDB loads configuration and opens the configured database. Callers own
// closing it via database.Close.
func OpenDB(envFile string) (*config.Config, *gorm.DB, error) {
	cfg, err := LoadConfig(envFile)
	if err != nil {
		return nil, nil, err
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
