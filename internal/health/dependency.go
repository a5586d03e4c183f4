package health

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sandeepkv93/products-api/internal/domain"
)

// NewDBChecker pings the connection pool and verifies the products table is
// present.
func NewDBChecker(db *gorm.DB) Checker {
	if db == nil {
		return nil
	}
	return CheckFunc{CheckName: "db", Fn: func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return err
		}
		if !db.WithContext(ctx).Migrator().HasTable(&domain.Product{}) {
			return errors.New("products table missing")
		}
		return nil
	}}
}

func NewRedisChecker(client redis.UniversalClient) Checker {
	if client == nil {
		return nil
	}
	return CheckFunc{CheckName: "redis", Fn: func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}}
}
