package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// maxPriceIntegerDigits mirrors the DECIMAL(12,2) column: values reaching
// 10^10 no longer fit in ten integer digits.
var maxPriceIntegerDigits = decimal.New(1, 10)

// Product represents one stocked item in the inventory.
//
// Timestamps are stamped explicitly by the service layer, so GORM's
// automatic time tracking is disabled on both columns.
type Product struct {
	ID            string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Name          string          `json:"name" gorm:"type:varchar(255);not null" validate:"required,max=255"`
	SKU           string          `json:"sku" gorm:"type:varchar(100);uniqueIndex;not null" validate:"required,max=100"`
	Category      string          `json:"category" gorm:"type:varchar(100);not null" validate:"required,max=100"`
	Quantity      int             `json:"quantity" gorm:"not null" validate:"gte=0"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Supplier      string          `json:"supplier" gorm:"type:varchar(255);not null" validate:"required,max=255"`
	Barcode       *string         `json:"barcode,omitempty" gorm:"type:varchar(100);uniqueIndex" validate:"omitempty,max=100"`
	MinStockLevel int             `json:"min_stock_level" gorm:"not null" validate:"gte=0"`
	CreatedAt     time.Time       `json:"created_at" gorm:"autoCreateTime:false"`
	UpdatedAt     time.Time       `json:"updated_at" gorm:"autoUpdateTime:false"`
}

// IsLowStock reports whether the quantity has fallen to or below the
// configured minimum stock level.
func (p *Product) IsLowStock() bool {
	return p.Quantity <= p.MinStockLevel
}

// IsOutOfStock reports whether the product is completely depleted.
func (p *Product) IsOutOfStock() bool {
	return p.Quantity == 0
}

// TotalValue returns price × quantity with exact decimal arithmetic.
func (p *Product) TotalValue() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// HasBarcode reports whether a barcode is present. An absent or empty
// barcode never participates in uniqueness checks.
func (p *Product) HasBarcode() bool {
	return p.Barcode != nil && *p.Barcode != ""
}

// ValidatePrice enforces the price constraints that struct tags cannot
// express for a decimal value: strictly positive, at most 10 integer
// digits and at most 2 fractional digits.
func ValidatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return fmt.Errorf("price must be greater than 0")
	}
	if !price.Equal(price.Truncate(2)) {
		return fmt.Errorf("price must have at most 2 decimal places")
	}
	if price.GreaterThanOrEqual(maxPriceIntegerDigits) {
		return fmt.Errorf("price must have at most 10 integer digits")
	}
	return nil
}

// InventoryStats is an aggregate snapshot of the whole inventory. It is
// always recomputed from current state, never cached.
type InventoryStats struct {
	TotalProducts      int             `json:"total_products"`
	LowStockProducts   int             `json:"low_stock_products"`
	OutOfStockProducts int             `json:"out_of_stock_products"`
	TotalValue         decimal.Decimal `json:"total_value"`
	TotalQuantity      int             `json:"total_quantity"`
}

// CategorySummary is a per-category rollup of the product table.
type CategorySummary struct {
	Category      string `json:"category"`
	ProductCount  int    `json:"product_count"`
	TotalQuantity int    `json:"total_quantity"`
}

// SupplierSummary is a per-supplier rollup of the product table.
type SupplierSummary struct {
	Supplier     string `json:"supplier"`
	ProductCount int    `json:"product_count"`
}
