package domain

import "github.com/shopspring/decimal"

func init() {
	// Price is exchanged as a JSON number, e.g. 19.99 rather than "19.99".
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a catalog record. ID is assigned by the store; ProductCode is the
// business key and is unique independently of ID.
type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"Id"`
	ProductCode int             `gorm:"not null;uniqueIndex:idx_products_product_code" json:"ProductCode"`
	Name        string          `gorm:"size:200;not null" json:"Name"`
	Price       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"Price"`
}

func (Product) TableName() string {
	return "products"
}
