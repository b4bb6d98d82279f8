package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"gudang/internal/models"
	"gudang/internal/repositories"
)

// Business-rule errors. The HTTP boundary maps these to 400 responses.
var (
	ErrDuplicateSKU     = errors.New("a product with this sku already exists")
	ErrDuplicateBarcode = errors.New("a product with this barcode already exists")
	ErrInvalidQuantity  = errors.New("quantity must be non-negative")
)

// EventPublisher publishes inventory events to the message broker.
// A nil publisher disables event publication.
type EventPublisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

// InventoryService enforces the invariants the repository does not and
// assembles aggregate views over the product table.
type InventoryService struct {
	repo   repositories.ProductRepository
	events EventPublisher
}

// NewInventoryService creates a new InventoryService.
func NewInventoryService(repo repositories.ProductRepository, events EventPublisher) *InventoryService {
	return &InventoryService{
		repo:   repo,
		events: events,
	}
}

// normalizeBarcode maps an empty barcode to nil so absent barcodes never
// take part in uniqueness checks or the unique index.
func normalizeBarcode(product *models.Product) {
	if product.Barcode != nil && *product.Barcode == "" {
		product.Barcode = nil
	}
}

// CreateProduct validates uniqueness of sku and barcode, stamps both
// timestamps, and persists the product. The database unique constraints
// remain authoritative: a write lost to a concurrent creator is
// re-attributed to the offending field instead of surfacing as a storage
// error.
func (s *InventoryService) CreateProduct(product *models.Product) (*models.Product, error) {
	normalizeBarcode(product)

	if _, err := s.repo.GetBySKU(product.SKU); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSKU, product.SKU)
	} else if !errors.Is(err, repositories.ErrProductNotFound) {
		return nil, err
	}
	if product.HasBarcode() {
		if _, err := s.repo.GetByBarcode(*product.Barcode); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBarcode, *product.Barcode)
		} else if !errors.Is(err, repositories.ErrProductNotFound) {
			return nil, err
		}
	}

	now := time.Now()
	product.ID = "" // assigned by storage
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.repo.Create(product); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, s.attributeDuplicate(product, "")
		}
		return nil, err
	}

	s.publish("product.created", map[string]interface{}{
		"product_id": product.ID,
		"sku":        product.SKU,
		"name":       product.Name,
		"quantity":   product.Quantity,
	})
	return product, nil
}

// UpdateProduct replaces all mutable fields of an existing product.
// Uniqueness checks exclude the product itself so it keeps its own sku
// and barcode; id and createdAt are preserved, updatedAt is restamped.
func (s *InventoryService) UpdateProduct(id string, input *models.Product) (*models.Product, error) {
	existing, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	normalizeBarcode(input)

	if taken, err := s.repo.ExistsSKUExcluding(input.SKU, id); err != nil {
		return nil, err
	} else if taken {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateSKU, input.SKU)
	}
	if input.HasBarcode() {
		if taken, err := s.repo.ExistsBarcodeExcluding(*input.Barcode, id); err != nil {
			return nil, err
		} else if taken {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateBarcode, *input.Barcode)
		}
	}

	existing.Name = input.Name
	existing.SKU = input.SKU
	existing.Category = input.Category
	existing.Quantity = input.Quantity
	existing.Price = input.Price
	existing.Supplier = input.Supplier
	existing.Barcode = input.Barcode
	existing.MinStockLevel = input.MinStockLevel
	existing.UpdatedAt = time.Now()

	if err := s.repo.Update(existing); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, s.attributeDuplicate(existing, id)
		}
		return nil, err
	}

	s.publish("product.updated", map[string]interface{}{
		"product_id": existing.ID,
		"sku":        existing.SKU,
	})
	return existing, nil
}

// DeleteProduct removes a product by id.
func (s *InventoryService) DeleteProduct(id string) error {
	product, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}

	s.publish("product.deleted", map[string]interface{}{
		"product_id": product.ID,
		"sku":        product.SKU,
	})
	return nil
}

// UpdateStock sets the quantity of a product and restamps updatedAt.
// Negative quantities are rejected here rather than relying on the
// entity-level constraint, which is not re-evaluated on this path.
func (s *InventoryService) UpdateStock(id string, newQuantity int) (*models.Product, error) {
	if newQuantity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidQuantity, newQuantity)
	}

	product, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	product.Quantity = newQuantity
	product.UpdatedAt = time.Now()
	if err := s.repo.Update(product); err != nil {
		return nil, err
	}

	s.publish("stock.updated", map[string]interface{}{
		"product_id": product.ID,
		"sku":        product.SKU,
		"quantity":   product.Quantity,
	})
	if product.IsLowStock() {
		s.publish("product.low_stock", map[string]interface{}{
			"product_id":      product.ID,
			"sku":             product.SKU,
			"quantity":        product.Quantity,
			"min_stock_level": product.MinStockLevel,
		})
	}
	return product, nil
}

// GetAllProducts retrieves all products.
func (s *InventoryService) GetAllProducts() ([]models.Product, error) {
	return s.repo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *InventoryService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// GetProductBySKU retrieves a single product by its SKU.
func (s *InventoryService) GetProductBySKU(sku string) (*models.Product, error) {
	return s.repo.GetBySKU(sku)
}

// GetProductByBarcode retrieves a single product by its barcode.
func (s *InventoryService) GetProductByBarcode(barcode string) (*models.Product, error) {
	return s.repo.GetByBarcode(barcode)
}

// SearchProducts matches the term against product names and SKUs.
func (s *InventoryService) SearchProducts(term string) ([]models.Product, error) {
	return s.repo.Search(term)
}

// GetProductsByCategory retrieves all products in a category.
func (s *InventoryService) GetProductsByCategory(category string) ([]models.Product, error) {
	return s.repo.GetByCategory(category)
}

// GetProductsBySupplier retrieves all products from a supplier.
func (s *InventoryService) GetProductsBySupplier(supplier string) ([]models.Product, error) {
	return s.repo.GetBySupplier(supplier)
}

// GetLowStockProducts retrieves products at or below their minimum stock
// level.
func (s *InventoryService) GetLowStockProducts() ([]models.Product, error) {
	return s.repo.GetLowStock()
}

// GetOutOfStockProducts retrieves products with zero quantity.
func (s *InventoryService) GetOutOfStockProducts() ([]models.Product, error) {
	return s.repo.GetOutOfStock()
}

// GetProductsByPriceRange retrieves products priced within [min, max].
func (s *InventoryService) GetProductsByPriceRange(min, max decimal.Decimal) ([]models.Product, error) {
	return s.repo.GetByPriceRange(min, max)
}

// GetCategorySummary returns per-category rollups.
func (s *InventoryService) GetCategorySummary() ([]models.CategorySummary, error) {
	return s.repo.CategorySummary()
}

// GetSupplierSummary returns per-supplier rollups.
func (s *InventoryService) GetSupplierSummary() ([]models.SupplierSummary, error) {
	return s.repo.SupplierSummary()
}

// GetInventoryStats recomputes the aggregate view from current state.
func (s *InventoryService) GetInventoryStats() (*models.InventoryStats, error) {
	all, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}
	low, err := s.repo.GetLowStock()
	if err != nil {
		return nil, err
	}
	out, err := s.repo.GetOutOfStock()
	if err != nil {
		return nil, err
	}
	totalValue, err := s.repo.TotalInventoryValue()
	if err != nil {
		return nil, err
	}

	totalQuantity := 0
	for _, p := range all {
		totalQuantity += p.Quantity
	}

	return &models.InventoryStats{
		TotalProducts:      len(all),
		LowStockProducts:   len(low),
		OutOfStockProducts: len(out),
		TotalValue:         totalValue,
		TotalQuantity:      totalQuantity,
	}, nil
}

// attributeDuplicate turns a storage-level unique-constraint rejection
// into the business error naming the offending field. The pre-checks
// above normally catch duplicates first; this path only runs when a
// concurrent writer won the race.
func (s *InventoryService) attributeDuplicate(product *models.Product, excludeID string) error {
	if product.HasBarcode() {
		if taken, err := s.repo.ExistsBarcodeExcluding(*product.Barcode, excludeID); err == nil && taken {
			return fmt.Errorf("%w: %s", ErrDuplicateBarcode, *product.Barcode)
		}
	}
	return fmt.Errorf("%w: %s", ErrDuplicateSKU, product.SKU)
}

// publish sends an inventory event. Publishing failures are logged and
// never fail the request that triggered them.
func (s *InventoryService) publish(routingKey string, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", routingKey, err)
		return
	}
	if err := s.events.Publish("inventory", routingKey, body); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", routingKey, err)
	}
}
