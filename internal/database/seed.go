package database

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sandeepkv93/products-api/internal/domain"
	"github.com/sandeepkv93/products-api/internal/observability"
)

var sampleProducts = []domain.Product{
	{ProductCode: 1, Name: "Lavender Heart", Price: decimal.RequireFromString("19.99")},
	{ProductCode: 2, Name: "Personalised Cufflinks", Price: decimal.RequireFromString("45.00")},
	{ProductCode: 3, Name: "Kids T-shirt", Price: decimal.RequireFromString("19.95")},
}

type SeedReport struct {
	CreatedProducts int  `json:"created_products"`
	Noop            bool `json:"noop"`
}

// SampleProducts returns a copy of the sample catalog used by SeedSync.
func SampleProducts() []domain.Product {
	out := make([]domain.Product, len(sampleProducts))
	copy(out, sampleProducts)
	return out
}

// SeedSync inserts the sample catalog keyed on ProductCode. Existing codes are
// left untouched, so repeated runs are no-ops.
func SeedSync(db *gorm.DB) (*SeedReport, error) {
	start := time.Now()
	defer func() {
		observability.RecordDatabaseStartupDuration(context.Background(), "seed", time.Since(start))
	}()

	report := &SeedReport{}
	err := db.Transaction(func(tx *gorm.DB) error {
		for _, p := range SampleProducts() {
			res := tx.Where("product_code = ?", p.ProductCode).FirstOrCreate(&p)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				report.CreatedProducts++
			}
		}
		return nil
	})
	if err != nil {
		observability.RecordDatabaseStartupEvent(context.Background(), "seed", "error")
		return nil, err
	}

	report.Noop = report.CreatedProducts == 0
	observability.RecordDatabaseStartupEvent(context.Background(), "seed", "success")
	return report, nil
}

type SeedPlanItem struct {
	Product domain.Product
	Exists  bool
}

// PlanSeed reports, without writing, which sample products SeedSync would
// insert.
func PlanSeed(ctx context.Context, db *gorm.DB) ([]SeedPlanItem, error) {
	samples := SampleProducts()
	plan := make([]SeedPlanItem, 0, len(samples))
	for _, p := range samples {
		var n int64
		if err := db.WithContext(ctx).Model(&domain.Product{}).Where("product_code = ?", p.ProductCode).Count(&n).Error; err != nil {
			return nil, err
		}
		plan = append(plan, SeedPlanItem{Product: p, Exists: n > 0})
	}
	return plan, nil
}
