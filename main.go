package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"gudang/internal/handlers"
	"gudang/internal/middleware"
	"gudang/internal/models"
	"gudang/internal/repositories"
	"gudang/internal/services"
	"gudang/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_DSN", "")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")
	viper.SetDefault("AUTH_ENABLED", false)
	viper.SetDefault("JWT_SECRET", "")
	viper.AutomaticEnv()

	appPort := viper.GetString("APP_PORT")

	// --- Initialize Repository ---
	// With a DSN the product table lives in Postgres; without one an
	// in-memory repository keeps the service runnable for development.
	var productRepo repositories.ProductRepository
	if dsn := viper.GetString("DATABASE_DSN"); dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		if err := db.AutoMigrate(&models.Product{}); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
		productRepo = repositories.NewGORMProductRepository(db)
	} else {
		log.Println("DATABASE_DSN is empty, using in-memory product repository")
		memRepo := repositories.NewMemoryProductRepository()
		seedProducts(memRepo)
		productRepo = memRepo
	}

	// --- Initialize RabbitMQ Client ---
	// Event publishing is optional; without a broker URL the service
	// simply skips it.
	var eventPublisher services.EventPublisher
	if mqURL := viper.GetString("RABBITMQ_URL"); mqURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: mqURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()
		eventPublisher = mqClient

		// Consume our own event stream to surface low-stock alerts in the
		// service log. Other consumers bind their own queues.
		if err := mqClient.ConsumeInventoryEvents(func(msg amqp.Delivery) error {
			if msg.RoutingKey == "product.low_stock" {
				log.Printf("LOW STOCK ALERT: %s", string(msg.Body))
			} else {
				log.Printf("Inventory event %s: %s", msg.RoutingKey, string(msg.Body))
			}
			return nil
		}); err != nil {
			log.Printf("Failed to start inventory event consumer: %v", err)
		}
	}

	// --- Initialize Service and Handler ---
	inventoryService := services.NewInventoryService(productRepo, eventPublisher)
	productHandler := handlers.NewProductHandler(inventoryService)

	// --- Initialize Fiber App ---
	app := fiber.New()

	// --- Middleware ---
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: viper.GetString("CORS_ORIGINS"),
	}))

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")
	if viper.GetBool("AUTH_ENABLED") {
		protected := apiV1.Group("", middleware.AuthRequired(viper.GetString("JWT_SECRET")))
		productHandler.RegisterRoutes(protected)
	} else {
		productHandler.RegisterRoutes(apiV1)
	}

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// seedProducts populates the in-memory repository with some initial data
// for development runs.
func seedProducts(repo repositories.ProductRepository) {
	barcode := func(s string) *string { return &s }
	now := time.Now()
	products := []models.Product{
		{
			Name:          "Laptop Stand",
			SKU:           "LAP-001",
			Category:      "Accessories",
			Quantity:      12,
			Price:         decimal.RequireFromString("49.90"),
			Supplier:      "Acme Supplies",
			Barcode:       barcode("4006381333931"),
			MinStockLevel: 5,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			Name:          "Mechanical Keyboard",
			SKU:           "KEY-014",
			Category:      "Peripherals",
			Quantity:      25,
			Price:         decimal.RequireFromString("89.00"),
			Supplier:      "Keytron",
			MinStockLevel: 10,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		{
			Name:          "Wireless Mouse",
			SKU:           "MOU-002",
			Category:      "Peripherals",
			Quantity:      0,
			Price:         decimal.RequireFromString("24.50"),
			Supplier:      "Acme Supplies",
			Barcode:       barcode("4006381333948"),
			MinStockLevel: 8,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}

	for i := range products {
		if err := repo.Create(&products[i]); err != nil {
			log.Printf("Error seeding product %s: %v", products[i].Name, err)
		} else {
			log.Printf("Seeded product: %s (ID: %s)", products[i].Name, products[i].ID)
		}
	}
}
