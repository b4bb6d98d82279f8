package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"gudang/internal/models"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
// It expects the *gorm.DB to be opened with TranslateError enabled so
// unique-constraint rejections arrive as gorm.ErrDuplicatedKey.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// storageErr tags a driver failure so callers can match it with
// errors.Is(err, ErrStorageUnavailable).
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, op, err)
}

// GetAll retrieves all products in insertion order.
func (r *GORMProductRepository) GetAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Order("created_at").Find(&products).Error; err != nil {
		return nil, storageErr("get all products", err)
	}
	return products, nil
}

// GetByID retrieves a single product by its ID.
func (r *GORMProductRepository) GetByID(id string) (*models.Product, error) {
	return r.getOne("id", id)
}

// GetBySKU retrieves a single product by exact, case-sensitive SKU.
func (r *GORMProductRepository) GetBySKU(sku string) (*models.Product, error) {
	return r.getOne("sku", sku)
}

// GetByBarcode retrieves a single product by exact, case-sensitive barcode.
func (r *GORMProductRepository) GetByBarcode(barcode string) (*models.Product, error) {
	return r.getOne("barcode", barcode)
}

func (r *GORMProductRepository) getOne(column, value string) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, column+" = ?", value).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s %s", ErrProductNotFound, column, value)
		}
		return nil, storageErr("get product by "+column, err)
	}
	return &product, nil
}

// GetByCategory retrieves all products in a category (exact match).
func (r *GORMProductRepository) GetByCategory(category string) ([]models.Product, error) {
	return r.list("category = ?", category)
}

// GetBySupplier retrieves all products from a supplier (exact match).
func (r *GORMProductRepository) GetBySupplier(supplier string) ([]models.Product, error) {
	return r.list("supplier = ?", supplier)
}

// GetLowStock retrieves products whose quantity is at or below their
// minimum stock level.
func (r *GORMProductRepository) GetLowStock() ([]models.Product, error) {
	return r.list("quantity <= min_stock_level")
}

// GetOutOfStock retrieves products with zero quantity.
func (r *GORMProductRepository) GetOutOfStock() ([]models.Product, error) {
	return r.list("quantity = 0")
}

// Search retrieves products whose name or SKU contains the term,
// case-insensitively.
func (r *GORMProductRepository) Search(term string) ([]models.Product, error) {
	pattern := "%" + strings.ToLower(term) + "%"
	return r.list("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", pattern, pattern)
}

// GetByPriceRange retrieves products priced within [min, max] inclusive.
func (r *GORMProductRepository) GetByPriceRange(min, max decimal.Decimal) ([]models.Product, error) {
	return r.list("price BETWEEN ? AND ?", min, max)
}

func (r *GORMProductRepository) list(query string, args ...interface{}) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where(query, args...).Order("created_at").Find(&products).Error; err != nil {
		return nil, storageErr("list products", err)
	}
	return products, nil
}

// TotalInventoryValue sums price × quantity over the whole table,
// returning zero for an empty table.
func (r *GORMProductRepository) TotalInventoryValue() (decimal.Decimal, error) {
	var value decimal.Decimal
	row := r.db.Model(&models.Product{}).
		Select("COALESCE(SUM(quantity * price), 0)").
		Row()
	if err := row.Scan(&value); err != nil {
		return decimal.Zero, storageErr("total inventory value", err)
	}
	return value, nil
}

// CategorySummary returns per-category product counts and quantities.
func (r *GORMProductRepository) CategorySummary() ([]models.CategorySummary, error) {
	var summaries []models.CategorySummary
	err := r.db.Model(&models.Product{}).
		Select("category, COUNT(*) AS product_count, COALESCE(SUM(quantity), 0) AS total_quantity").
		Group("category").
		Order("category").
		Scan(&summaries).Error
	if err != nil {
		return nil, storageErr("category summary", err)
	}
	return summaries, nil
}

// SupplierSummary returns per-supplier product counts.
func (r *GORMProductRepository) SupplierSummary() ([]models.SupplierSummary, error) {
	var summaries []models.SupplierSummary
	err := r.db.Model(&models.Product{}).
		Select("supplier, COUNT(*) AS product_count").
		Group("supplier").
		Order("supplier").
		Scan(&summaries).Error
	if err != nil {
		return nil, storageErr("supplier summary", err)
	}
	return summaries, nil
}

// ExistsSKUExcluding reports whether another product (different id)
// already uses this SKU.
func (r *GORMProductRepository) ExistsSKUExcluding(sku, id string) (bool, error) {
	return r.exists("sku = ? AND id <> ?", sku, id)
}

// ExistsBarcodeExcluding reports whether another product (different id)
// already uses this barcode.
func (r *GORMProductRepository) ExistsBarcodeExcluding(barcode, id string) (bool, error) {
	return r.exists("barcode = ? AND id <> ?", barcode, id)
}

func (r *GORMProductRepository) exists(query string, args ...interface{}) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Product{}).Where(query, args...).Count(&count).Error; err != nil {
		return false, storageErr("existence check", err)
	}
	return count > 0, nil
}

// Create inserts a new product, assigning a UUID when the caller did not
// provide an id.
func (r *GORMProductRepository) Create(product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := r.db.Create(product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
		}
		return storageErr("create product", err)
	}
	return nil
}

// Update overwrites an existing product row, including zero-valued
// fields. Save is avoided here: it would insert a fresh row when the id
// matches nothing instead of reporting the miss.
func (r *GORMProductRepository) Update(product *models.Product) error {
	res := r.db.Model(&models.Product{}).
		Where("id = ?", product.ID).
		Select("*").
		Updates(product)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %v", ErrDuplicateKey, res.Error)
		}
		return storageErr("update product", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %s", ErrProductNotFound, product.ID)
	}
	return nil
}

// Delete removes a product row by id.
func (r *GORMProductRepository) Delete(id string) error {
	res := r.db.Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return storageErr("delete product", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %s", ErrProductNotFound, id)
	}
	return nil
}
