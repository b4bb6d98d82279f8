package handlers

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"gudang/internal/models"
	"gudang/internal/repositories"
	"gudang/internal/services"
)

// ProductHandler handles HTTP requests for the product inventory.
type ProductHandler struct {
	service  *services.InventoryService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.InventoryService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
// Static paths are registered before the parameterized ones so
// /products/search is not captured by /products/:id.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	products := router.Group("/products")
	products.Get("/", h.HandleGetProducts)
	products.Get("/search", h.HandleSearch)
	products.Get("/low-stock", h.HandleLowStock)
	products.Get("/out-of-stock", h.HandleOutOfStock)
	products.Get("/price-range", h.HandlePriceRange)
	products.Get("/stats", h.HandleStats)
	products.Get("/summary/categories", h.HandleCategorySummary)
	products.Get("/summary/suppliers", h.HandleSupplierSummary)
	products.Get("/sku/:sku", h.HandleGetBySKU)
	products.Get("/barcode/:barcode", h.HandleGetByBarcode)
	products.Get("/category/:category", h.HandleGetByCategory)
	products.Get("/supplier/:supplier", h.HandleGetBySupplier)
	products.Get("/:id", h.HandleGetProductByID)
	products.Post("/", h.HandleCreateProduct)
	products.Put("/:id/stock", h.HandleUpdateStock)
	products.Put("/:id", h.HandleUpdateProduct)
	products.Delete("/:id", h.HandleDeleteProduct)
}

// ProductRequest is the draft a caller supplies for create and full
// update. Field constraints mirror the column constraints; the decimal
// price is checked explicitly since struct tags cannot express it.
type ProductRequest struct {
	Name          string          `json:"name" validate:"required,max=255"`
	SKU           string          `json:"sku" validate:"required,max=100"`
	Category      string          `json:"category" validate:"required,max=100"`
	Quantity      int             `json:"quantity" validate:"gte=0"`
	Price         decimal.Decimal `json:"price"`
	Supplier      string          `json:"supplier" validate:"required,max=255"`
	Barcode       string          `json:"barcode" validate:"omitempty,max=100"`
	MinStockLevel int             `json:"min_stock_level" validate:"gte=0"`
}

func (req *ProductRequest) toProduct() *models.Product {
	product := &models.Product{
		Name:          req.Name,
		SKU:           req.SKU,
		Category:      req.Category,
		Quantity:      req.Quantity,
		Price:         req.Price,
		Supplier:      req.Supplier,
		MinStockLevel: req.MinStockLevel,
	}
	if req.Barcode != "" {
		barcode := req.Barcode
		product.Barcode = &barcode
	}
	return product
}

// validateRequest runs the declarative tag checks plus the explicit
// price checks and returns a field → message map, empty when valid.
func (h *ProductHandler) validateRequest(req *ProductRequest) map[string]string {
	errorMessages := make(map[string]string)
	if err := h.validate.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			for _, e := range validationErrors {
				errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
			}
		}
	}
	if err := models.ValidatePrice(req.Price); err != nil {
		errorMessages["Price"] = err.Error()
	}
	return errorMessages
}

// respondError translates core error kinds into HTTP statuses. The
// service never knows about HTTP; this is the only place the mapping
// lives.
func (h *ProductHandler) respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, repositories.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrDuplicateSKU),
		errors.Is(err, services.ErrDuplicateBarcode),
		errors.Is(err, services.ErrInvalidQuantity):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": err.Error(),
		})
	default:
		log.Printf("Unexpected error handling %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal server error",
		})
	}
}

func (h *ProductHandler) respondList(c *fiber.Ctx, products []models.Product, err error) error {
	if err != nil {
		return h.respondError(c, err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return c.JSON(products)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	return h.respondList(c, products, err)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.Params("id"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(product)
}

// HandleGetBySKU retrieves a single product by its SKU.
func (h *ProductHandler) HandleGetBySKU(c *fiber.Ctx) error {
	product, err := h.service.GetProductBySKU(c.Params("sku"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(product)
}

// HandleGetByBarcode retrieves a single product by its barcode.
func (h *ProductHandler) HandleGetByBarcode(c *fiber.Ctx) error {
	product, err := h.service.GetProductByBarcode(c.Params("barcode"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if errorMessages := h.validateRequest(&req); len(errorMessages) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	created, err := h.service.CreateProduct(req.toProduct())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// HandleUpdateProduct replaces all mutable fields of an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if errorMessages := h.validateRequest(&req); len(errorMessages) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	updated, err := h.service.UpdateProduct(c.Params("id"), req.toProduct())
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(updated)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.Params("id")); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
	})
}

// UpdateStockRequest carries the new absolute quantity for a product.
// A pointer distinguishes a missing field from an explicit zero.
type UpdateStockRequest struct {
	Quantity *int `json:"quantity"`
}

// HandleUpdateStock sets the stock quantity of a product.
func (h *ProductHandler) HandleUpdateStock(c *fiber.Ctx) error {
	var req UpdateStockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}
	if req.Quantity == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Quantity is required",
		})
	}

	product, err := h.service.UpdateStock(c.Params("id"), *req.Quantity)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(product)
}

// HandleSearch matches the q parameter against product names and SKUs.
func (h *ProductHandler) HandleSearch(c *fiber.Ctx) error {
	term := c.Query("q")
	if term == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Query parameter 'q' is required",
		})
	}
	products, err := h.service.SearchProducts(term)
	return h.respondList(c, products, err)
}

// HandleGetByCategory retrieves all products in a category.
func (h *ProductHandler) HandleGetByCategory(c *fiber.Ctx) error {
	products, err := h.service.GetProductsByCategory(c.Params("category"))
	return h.respondList(c, products, err)
}

// HandleGetBySupplier retrieves all products from a supplier.
func (h *ProductHandler) HandleGetBySupplier(c *fiber.Ctx) error {
	products, err := h.service.GetProductsBySupplier(c.Params("supplier"))
	return h.respondList(c, products, err)
}

// HandleLowStock retrieves products at or below their minimum stock level.
func (h *ProductHandler) HandleLowStock(c *fiber.Ctx) error {
	products, err := h.service.GetLowStockProducts()
	return h.respondList(c, products, err)
}

// HandleOutOfStock retrieves products with zero quantity.
func (h *ProductHandler) HandleOutOfStock(c *fiber.Ctx) error {
	products, err := h.service.GetOutOfStockProducts()
	return h.respondList(c, products, err)
}

// HandlePriceRange retrieves products priced within [min, max] inclusive.
func (h *ProductHandler) HandlePriceRange(c *fiber.Ctx) error {
	min, err := decimal.NewFromString(c.Query("min"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Query parameter 'min' must be a decimal number",
		})
	}
	max, err := decimal.NewFromString(c.Query("max"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Query parameter 'max' must be a decimal number",
		})
	}
	if min.GreaterThan(max) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "'min' must not exceed 'max'",
		})
	}

	products, err := h.service.GetProductsByPriceRange(min, max)
	return h.respondList(c, products, err)
}

// HandleStats returns the aggregate inventory statistics.
func (h *ProductHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.service.GetInventoryStats()
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(stats)
}

// HandleCategorySummary returns per-category rollups.
func (h *ProductHandler) HandleCategorySummary(c *fiber.Ctx) error {
	summaries, err := h.service.GetCategorySummary()
	if err != nil {
		return h.respondError(c, err)
	}
	if summaries == nil {
		summaries = []models.CategorySummary{}
	}
	return c.JSON(summaries)
}

// HandleSupplierSummary returns per-supplier rollups.
func (h *ProductHandler) HandleSupplierSummary(c *fiber.Ctx) error {
	summaries, err := h.service.GetSupplierSummary()
	if err != nil {
		return h.respondError(c, err)
	}
	if summaries == nil {
		summaries = []models.SupplierSummary{}
	}
	return c.JSON(summaries)
}
