package database

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/sandeepkv93/products-api/internal/domain"
	"github.com/sandeepkv93/products-api/internal/observability"
)

// Migrate creates or widens the products table from the domain model.
func Migrate(db *gorm.DB) error {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(context.Background(), "migrate", time.Since(start))
	}()

	if err := db.AutoMigrate(&domain.Product{}); err != nil {
		observability.RecordDatabaseStartupEvent(context.Background(), "migrate", "error")
		return err
	}
	observability.RecordDatabaseStartupEvent(context.Background(), "migrate", "success")
	return nil
}

// PlanMigration lists the schema changes Migrate would make, without applying
// them.
func PlanMigration(db *gorm.DB) ([]string, error) {
	m := db.Migrator()
	model := &domain.Product{}
	if !m.HasTable(model) {
		return []string{"create table products"}, nil
	}

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, err
	}
	var steps []string
	for _, f := range stmt.Schema.Fields {
		if f.DBName == "" {
			continue
		}
		if !m.HasColumn(model, f.DBName) {
			steps = append(steps, "add column products."+f.DBName)
		}
	}
	if !m.HasIndex(model, "idx_products_product_code") {
		steps = append(steps, "create unique index idx_products_product_code")
	}
	return steps, nil
}
