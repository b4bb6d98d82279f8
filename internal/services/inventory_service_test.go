package services_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gudang/internal/models"
	"gudang/internal/repositories"
	"gudang/internal/services"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll() ([]models.Product, error) {
	args := m.Called()
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) GetBySKU(sku string) (*models.Product, error) {
	args := m.Called(sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByBarcode(barcode string) (*models.Product, error) {
	args := m.Called(barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByCategory(category string) ([]models.Product, error) {
	args := m.Called(category)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetBySupplier(supplier string) ([]models.Product, error) {
	args := m.Called(supplier)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetLowStock() ([]models.Product, error) {
	args := m.Called()
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetOutOfStock() ([]models.Product, error) {
	args := m.Called()
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) Search(term string) ([]models.Product, error) {
	args := m.Called(term)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByPriceRange(min, max decimal.Decimal) ([]models.Product, error) {
	args := m.Called(min, max)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) TotalInventoryValue() (decimal.Decimal, error) {
	args := m.Called()
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockProductRepository) CategorySummary() ([]models.CategorySummary, error) {
	args := m.Called()
	return args.Get(0).([]models.CategorySummary), args.Error(1)
}

func (m *MockProductRepository) SupplierSummary() ([]models.SupplierSummary, error) {
	args := m.Called()
	return args.Get(0).([]models.SupplierSummary), args.Error(1)
}

func (m *MockProductRepository) ExistsSKUExcluding(sku, id string) (bool, error) {
	args := m.Called(sku, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) ExistsBarcodeExcluding(barcode, id string) (bool, error) {
	args := m.Called(barcode, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of services.EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(exchange, routingKey string, body []byte) error {
	args := m.Called(exchange, routingKey, body)
	return args.Error(0)
}

func strPtr(s string) *string { return &s }

func TestInventoryService_CreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewInventoryService(mockRepo, nil)

	draft := &models.Product{
		Name:          "Laptop Stand",
		SKU:           "LAP-001",
		Category:      "Accessories",
		Quantity:      3,
		Price:         decimal.RequireFromString("49.90"),
		Supplier:      "Acme Supplies",
		Barcode:       strPtr("4006381333931"),
		MinStockLevel: 5,
	}

	mockRepo.On("GetBySKU", "LAP-001").Return(nil, repositories.ErrProductNotFound).Once()
	mockRepo.On("GetByBarcode", "4006381333931").Return(nil, repositories.ErrProductNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.Product")).Run(func(args mock.Arguments) {
		args.Get(0).(*models.Product).ID = "generated-id"
	}).Return(nil).Once()

	created, err := service.CreateProduct(draft)

	assert.NoError(t, err)
	assert.Equal(t, "generated-id", created.ID)
	assert.WithinDuration(t, time.Now(), created.CreatedAt, time.Second)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.True(t, created.IsLowStock(), "quantity 3 with minimum 5 is low stock")
	mockRepo.AssertExpectations(t)
}

func TestInventoryService_CreateProduct_DuplicateSKU(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewInventoryService(mockRepo, nil)

	existing := &models.Product{ID: "other", SKU: "LAP-001"}
	mockRepo.On("GetBySKU", "LAP-001").Return(existing, nil).Once()

	created, err := service.CreateProduct(&models.Product{Name: "Laptop Stand", SKU: "LAP-001"})

	assert.Nil(t, created)
	assert.ErrorIs(t, err, services.ErrDuplicateSKU)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestInventoryService_CreateProduct_DuplicateBarcode(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewInventoryService(mockRepo, nil)

	mockRepo.On("GetBySKU", "NEW-001").Return(nil, repositories.ErrProductNotFound).Once()
	mockRepo.On("GetByBarcode", "4006381333931").
		Return(&models.Product{ID: "other", Barcode: strPtr("4006381333931")}, nil).Once()

	created, err := service.CreateProduct(&models.Product{
		SKU:     "NEW-001",
		Barcode: strPtr("4006381333931"),
	})

	assert.Nil(t, created)
	assert.ErrorIs(t, err, services.ErrDuplicateBarcode)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestInventoryService_CreateProduct_AbsentBarcodeNeverConflicts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewInventoryService(mockRepo, nil)

	// An empty barcode is normalized to nil, so no barcode lookup happens.
	mockRepo.On("GetBySKU", "NEW-002").Return(nil, repositories.ErrProductNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.Product")).Return(nil).Once()

	created, err := service.CreateProduct(&models.Product{
		SKU:     "NEW-002",
		Barcode: strPtr(""),
	})

	assert.NoError(t, err)
	assert.Nil(t, created.Barcode)
	mockRepo.AssertNotCalled(t, "GetByBarcode", mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestInventoryService_CreateProduct_LostRaceAttributedToSKU(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewInventoryService(mockRepo, nil)

	// The pre-check passes but a concurrent creator wins the insert; the
	// storage-level rejection must still surface as a duplicate-sku error.
	mockRepo.On("GetBySKU", "RACE-01").Return(nil, repositories.ErrProductNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.Product")).
		Return(repositories.ErrDuplicateKey).Once()

	created, err := service.CreateProduct(&models.Product{SKU: "RACE-01"})

	assert.Nil(t, created)
	assert.ErrorIs(t, err, services.ErrDuplicateSKU)
	mockRepo.AssertExpectations(t)
}

func TestInventoryService_UpdateProduct_KeepsOwnSKUAndBarcode(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewInventoryService(mockRepo, nil)

	createdAt := time.Now().Add(-time.Hour)
	existing := &models.Product{
		ID:        "prod-1",
		Name:      "Laptop Stand",
		SKU:       "LAP-001",
		Barcode:   strPtr("4006381333931"),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	mockRepo.On("GetByID", "prod-1").Return(existing, nil).Once()
	mockRepo.On("ExistsSKUExcluding", "LAP-001", "prod-1").Return(false, nil).Once()
	mockRepo.On("ExistsBarcodeExcluding", "4006381333931", "prod-1").Return(false, nil).Once()
	mockRepo.On("Update", mock.AnythingOfType("*models.Product")).Return(nil).Once()

	updated, err := service.UpdateProduct("prod-1", &models.Product{
		Name:          "Laptop Stand v2",
		SKU:           "LAP-001",
		Category:      "Accessories",
		Quantity:      7,
		Price:         decimal.RequireFromString("54.90"),
		Supplier:      "Acme Supplies",
		Barcode:       strPtr("4006381333931"),
		MinStockLevel: 5,
	})

	assert.NoError(t, err)
	assert.Equal(t, "prod-1", updated.ID)
	assert.Equal(t, "Laptop Stand v2", updated.Name)
	assert.Equal(t, createdAt, updated.CreatedAt, "createdAt must be preserved")
	assert.True(t, updated.UpdatedAt.After(createdAt), "updatedAt must be restamped")
	mockRepo.AssertExpectations(t)
}

func TestInventoryService_UpdateProduct_NotFound(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewInventoryService(mockRepo, nil)

	mockRepo.On("GetByID", "missing").Return(nil, repositories.ErrProductNotFound).Once()

	updated, err := service.UpdateProduct("missing", &models.Product{SKU: "LAP-001"})

	assert.Nil(t, updated)
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	mockRepo.AssertExpectations(t)
}

func TestInventoryService_UpdateProduct_DuplicateSKU(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewInventoryService(mockRepo, nil)

	mockRepo.On("GetByID", "prod-1").Return(&models.Product{ID: "prod-1", SKU: "LAP-001"}, nil).Once()
	mockRepo.On("ExistsSKUExcluding", "KEY-014", "prod-1").Return(true, nil).Once()

	updated, err := service.UpdateProduct("prod-1", &models.Product{SKU: "KEY-014"})

	assert.Nil(t, updated)
	assert.ErrorIs(t, err, services.ErrDuplicateSKU)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestInventoryService_DeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewInventoryService(mockRepo, nil)

	mockRepo.On("GetByID", "prod-1").Return(&models.Product{ID: "prod-1", SKU: "LAP-001"}, nil).Once()
	mockRepo.On("Delete", "prod-1").Return(nil).Once()
	assert.NoError(t, service.DeleteProduct("prod-1"))

	mockRepo.On("GetByID", "missing").Return(nil, repositories.ErrProductNotFound).Once()
	err := service.DeleteProduct("missing")
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
	mockRepo.AssertExpectations(t)
}

func TestInventoryService_UpdateStock_RejectsNegativeQuantity(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewInventoryService(mockRepo, nil)

	product, err := service.UpdateStock("prod-1", -1)

	assert.Nil(t, product)
	assert.ErrorIs(t, err, services.ErrInvalidQuantity)
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything)
}

func TestInventoryService_UpdateStock_ToZeroPublishesLowStockAlert(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockEvents := new(MockEventPublisher)
	service := services.NewInventoryService(mockRepo, mockEvents)

	mockRepo.On("GetByID", "prod-1").Return(&models.Product{
		ID:            "prod-1",
		SKU:           "LAP-001",
		Quantity:      10,
		MinStockLevel: 5,
	}, nil).Once()
	mockRepo.On("Update", mock.AnythingOfType("*models.Product")).Return(nil).Once()
	mockEvents.On("Publish", "inventory", "stock.updated", mock.Anything).Return(nil).Once()
	mockEvents.On("Publish", "inventory", "product.low_stock", mock.Anything).Return(nil).Once()

	product, err := service.UpdateStock("prod-1", 0)

	assert.NoError(t, err)
	assert.True(t, product.IsOutOfStock())
	assert.True(t, product.IsLowStock())
	mockRepo.AssertExpectations(t)
	mockEvents.AssertExpectations(t)
}

func TestInventoryService_SearchPassesThrough(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewInventoryService(mockRepo, nil)

	mockRepo.On("Search", "nothing").Return([]models.Product{}, nil).Once()

	products, err := service.SearchProducts("nothing")

	assert.NoError(t, err, "an empty result is not an error")
	assert.Empty(t, products)
	mockRepo.AssertExpectations(t)
}

func TestInventoryService_GetInventoryStats_EmptyTable(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewInventoryService(mockRepo, nil)

	mockRepo.On("GetAll").Return([]models.Product{}, nil).Once()
	mockRepo.On("GetLowStock").Return([]models.Product{}, nil).Once()
	mockRepo.On("GetOutOfStock").Return([]models.Product{}, nil).Once()
	mockRepo.On("TotalInventoryValue").Return(decimal.Zero, nil).Once()

	stats, err := service.GetInventoryStats()

	assert.NoError(t, err)
	assert.Equal(t, 0, stats.TotalProducts)
	assert.Equal(t, 0, stats.LowStockProducts)
	assert.Equal(t, 0, stats.OutOfStockProducts)
	assert.Equal(t, 0, stats.TotalQuantity)
	assert.True(t, stats.TotalValue.IsZero())
	mockRepo.AssertExpectations(t)
}

func TestInventoryService_GetInventoryStats_FoldsQuantities(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewInventoryService(mockRepo, nil)

	all := []models.Product{
		{ID: "1", Quantity: 3},
		{ID: "2", Quantity: 7},
		{ID: "3", Quantity: 0},
	}
	mockRepo.On("GetAll").Return(all, nil).Once()
	mockRepo.On("GetLowStock").Return(all[2:], nil).Once()
	mockRepo.On("GetOutOfStock").Return(all[2:], nil).Once()
	mockRepo.On("TotalInventoryValue").Return(decimal.RequireFromString("159.70"), nil).Once()

	stats, err := service.GetInventoryStats()

	assert.NoError(t, err)
	assert.Equal(t, 3, stats.TotalProducts)
	assert.Equal(t, 1, stats.LowStockProducts)
	assert.Equal(t, 1, stats.OutOfStockProducts)
	assert.Equal(t, 10, stats.TotalQuantity)
	assert.True(t, stats.TotalValue.Equal(decimal.RequireFromString("159.70")))
	mockRepo.AssertExpectations(t)
}
