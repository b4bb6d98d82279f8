package repositories

import (
	"errors"

	"github.com/shopspring/decimal"

	"gudang/internal/models"
)

// Sentinel errors surfaced by repository implementations. Callers match
// them with errors.Is; implementations may wrap them with extra context.
var (
	// ErrProductNotFound is returned when the referenced id, sku or
	// barcode matches no row.
	ErrProductNotFound = errors.New("product not found")

	// ErrDuplicateKey is returned when the storage engine rejects a write
	// on a unique constraint (sku or barcode). The service layer
	// re-attributes it to the offending field.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStorageUnavailable is returned when the backing store is
	// unreachable or rejected the operation for a non-constraint reason.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// ProductRepository defines typed access to the product table.
type ProductRepository interface {
	GetAll() ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	GetBySKU(sku string) (*models.Product, error)
	GetByBarcode(barcode string) (*models.Product, error)
	GetByCategory(category string) ([]models.Product, error)
	GetBySupplier(supplier string) ([]models.Product, error)
	GetLowStock() ([]models.Product, error)
	GetOutOfStock() ([]models.Product, error)
	Search(term string) ([]models.Product, error)
	GetByPriceRange(min, max decimal.Decimal) ([]models.Product, error)
	TotalInventoryValue() (decimal.Decimal, error)
	CategorySummary() ([]models.CategorySummary, error)
	SupplierSummary() ([]models.SupplierSummary, error)
	ExistsSKUExcluding(sku, id string) (bool, error)
	ExistsBarcodeExcluding(barcode, id string) (bool, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
