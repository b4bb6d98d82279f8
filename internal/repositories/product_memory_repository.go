package repositories

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gudang/internal/models"
)

// MemoryProductRepository is an in-memory implementation of
// ProductRepository. It backs the service when no database is configured
// and mirrors the unique constraints the real schema enforces.
type MemoryProductRepository struct {
	products map[string]models.Product
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

// snapshot returns all products sorted by creation time (insertion order).
func (r *MemoryProductRepository) snapshot() []models.Product {
	productList := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		productList = append(productList, p)
	}
	sort.Slice(productList, func(i, j int) bool {
		if productList[i].CreatedAt.Equal(productList[j].CreatedAt) {
			return productList[i].ID < productList[j].ID
		}
		return productList[i].CreatedAt.Before(productList[j].CreatedAt)
	})
	return productList
}

// GetAll returns all products.
func (r *MemoryProductRepository) GetAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot(), nil
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %s", ErrProductNotFound, id)
	}
	return &product, nil
}

// GetBySKU returns a product by exact SKU.
func (r *MemoryProductRepository) GetBySKU(sku string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.SKU == sku {
			product := p
			return &product, nil
		}
	}
	return nil, fmt.Errorf("%w: sku %s", ErrProductNotFound, sku)
}

// GetByBarcode returns a product by exact barcode.
func (r *MemoryProductRepository) GetByBarcode(barcode string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.HasBarcode() && *p.Barcode == barcode {
			product := p
			return &product, nil
		}
	}
	return nil, fmt.Errorf("%w: barcode %s", ErrProductNotFound, barcode)
}

func (r *MemoryProductRepository) filter(keep func(*models.Product) bool) []models.Product {
	matched := make([]models.Product, 0)
	for _, p := range r.snapshot() {
		p := p
		if keep(&p) {
			matched = append(matched, p)
		}
	}
	return matched
}

// GetByCategory returns all products in a category.
func (r *MemoryProductRepository) GetByCategory(category string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(p *models.Product) bool { return p.Category == category }), nil
}

// GetBySupplier returns all products from a supplier.
func (r *MemoryProductRepository) GetBySupplier(supplier string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(p *models.Product) bool { return p.Supplier == supplier }), nil
}

// GetLowStock returns products at or below their minimum stock level.
func (r *MemoryProductRepository) GetLowStock() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(p *models.Product) bool { return p.IsLowStock() }), nil
}

// GetOutOfStock returns products with zero quantity.
func (r *MemoryProductRepository) GetOutOfStock() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(p *models.Product) bool { return p.IsOutOfStock() }), nil
}

// Search returns products whose name or SKU contains the term,
// case-insensitively.
func (r *MemoryProductRepository) Search(term string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(term)
	return r.filter(func(p *models.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.SKU), needle)
	}), nil
}

// GetByPriceRange returns products priced within [min, max] inclusive.
func (r *MemoryProductRepository) GetByPriceRange(min, max decimal.Decimal) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(p *models.Product) bool {
		return p.Price.GreaterThanOrEqual(min) && p.Price.LessThanOrEqual(max)
	}), nil
}

// TotalInventoryValue sums price × quantity over all products.
func (r *MemoryProductRepository) TotalInventoryValue() (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := decimal.Zero
	for _, p := range r.products {
		total = total.Add(p.TotalValue())
	}
	return total, nil
}

// CategorySummary returns per-category product counts and quantities.
func (r *MemoryProductRepository) CategorySummary() ([]models.CategorySummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byCategory := make(map[string]*models.CategorySummary)
	for _, p := range r.products {
		summary, ok := byCategory[p.Category]
		if !ok {
			summary = &models.CategorySummary{Category: p.Category}
			byCategory[p.Category] = summary
		}
		summary.ProductCount++
		summary.TotalQuantity += p.Quantity
	}

	summaries := make([]models.CategorySummary, 0, len(byCategory))
	for _, s := range byCategory {
		summaries = append(summaries, *s)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Category < summaries[j].Category })
	return summaries, nil
}

// SupplierSummary returns per-supplier product counts.
func (r *MemoryProductRepository) SupplierSummary() ([]models.SupplierSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bySupplier := make(map[string]int)
	for _, p := range r.products {
		bySupplier[p.Supplier]++
	}

	summaries := make([]models.SupplierSummary, 0, len(bySupplier))
	for supplier, count := range bySupplier {
		summaries = append(summaries, models.SupplierSummary{Supplier: supplier, ProductCount: count})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Supplier < summaries[j].Supplier })
	return summaries, nil
}

// ExistsSKUExcluding reports whether another product already uses this SKU.
func (r *MemoryProductRepository) ExistsSKUExcluding(sku, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.skuTaken(sku, id), nil
}

// ExistsBarcodeExcluding reports whether another product already uses
// this barcode.
func (r *MemoryProductRepository) ExistsBarcodeExcluding(barcode, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.barcodeTaken(barcode, id), nil
}

func (r *MemoryProductRepository) skuTaken(sku, excludeID string) bool {
	for _, p := range r.products {
		if p.ID != excludeID && p.SKU == sku {
			return true
		}
	}
	return false
}

func (r *MemoryProductRepository) barcodeTaken(barcode, excludeID string) bool {
	for _, p := range r.products {
		if p.ID != excludeID && p.HasBarcode() && *p.Barcode == barcode {
			return true
		}
	}
	return false
}

// Create adds a new product, enforcing the same unique constraints the
// database schema carries.
func (r *MemoryProductRepository) Create(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if r.skuTaken(product.SKU, product.ID) {
		return fmt.Errorf("%w: sku %s", ErrDuplicateKey, product.SKU)
	}
	if product.HasBarcode() && r.barcodeTaken(*product.Barcode, product.ID) {
		return fmt.Errorf("%w: barcode %s", ErrDuplicateKey, *product.Barcode)
	}
	r.products[product.ID] = *product
	return nil
}

// Update modifies an existing product.
func (r *MemoryProductRepository) Update(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return fmt.Errorf("%w: id %s", ErrProductNotFound, product.ID)
	}
	if r.skuTaken(product.SKU, product.ID) {
		return fmt.Errorf("%w: sku %s", ErrDuplicateKey, product.SKU)
	}
	if product.HasBarcode() && r.barcodeTaken(*product.Barcode, product.ID) {
		return fmt.Errorf("%w: barcode %s", ErrDuplicateKey, *product.Barcode)
	}
	r.products[product.ID] = *product
	return nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return fmt.Errorf("%w: id %s", ErrProductNotFound, id)
	}
	delete(r.products, id)
	return nil
}
