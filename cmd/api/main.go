package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-pos-api/internal/handler"
	"go-pos-api/internal/middleware"
	"go-pos-api/internal/model"
	"go-pos-api/internal/repository"
	"go-pos-api/internal/service"
	"go-pos-api/internal/ws"
	"go-pos-api/pkg/database"
	applogger "go-pos-api/pkg/logger"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found")
	}
	applogger.Init()

	// 2. Setup Database
	db := database.ConnectDB()
	// Auto Migrate (Hati-hati di production, sebaiknya pakai tools migrasi terpisah)
	db.AutoMigrate(
		&model.Category{},
		&model.Product{},
		&model.User{},
		&model.Transaction{},
		&model.TransactionItem{},
		&model.StockMovement{},
		&model.TransactionCounter{},
	)

	// 3. Seed default admin user
	seedAdmin(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	store := repository.NewStore(db)

	saleService := service.NewSaleService(store, wsHub)
	productService := service.NewProductService(store, wsHub)
	reportService := service.NewReportService(store)
	authService := service.NewAuthService(store)
	userService := service.NewUserService(store)

	trxHandler := handler.NewTransactionHandler(saleService)
	productHandler := handler.NewProductHandler(productService)
	reportHandler := handler.NewReportHandler(reportService)
	categoryHandler := handler.NewCategoryHandler(store)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "POS Kasir API v1.0",
	})

	// Middleware
	app.Use(fiberlogger.New()) // Logging request
	app.Use(recover.New())     // Panic recovery
	app.Use(cors.New())        // CORS

	// 7. Routes
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/heartbeat", middleware.RequireAuth(store), authHandler.Heartbeat)
	auth.Post("/change-password", middleware.RequireAuth(store), authHandler.ChangePassword)
	auth.Get("/me", middleware.RequireAuth(store), authHandler.Me)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(store))

	adminOnly := middleware.RequireRole(model.RoleAdmin)
	adminOrManager := middleware.RequireRole(model.RoleAdmin, model.RoleManager)

	// Product Routes
	protected.Get("/products", productHandler.List)
	protected.Get("/products/low-stock", productHandler.LowStock)
	protected.Get("/products/:id", productHandler.Get)
	protected.Post("/products", adminOrManager, productHandler.Create)
	protected.Put("/products/:id", adminOrManager, productHandler.Update)
	protected.Delete("/products/:id", adminOrManager, productHandler.Delete)
	protected.Patch("/products/:id/stock", adminOrManager, productHandler.AdjustStock)

	// Category Routes
	protected.Get("/categories", categoryHandler.List)
	protected.Post("/categories", adminOrManager, categoryHandler.Create)
	protected.Put("/categories/:id", adminOrManager, categoryHandler.Update)
	protected.Delete("/categories/:id", adminOrManager, categoryHandler.Delete)

	// Transaction Routes
	protected.Get("/transactions", trxHandler.List)
	protected.Get("/transactions/:id", trxHandler.Get)
	protected.Post("/transactions", trxHandler.Create)
	protected.Post("/transactions/:id/cancel", adminOrManager, trxHandler.Cancel)

	// Report Routes
	protected.Get("/reports/daily/:date", reportHandler.DailySales)
	protected.Get("/reports/range", reportHandler.SalesByRange)
	protected.Get("/reports/stock-flow", reportHandler.StockFlow)
	protected.Get("/dashboard/stats", reportHandler.DashboardStats)
	protected.Get("/stock-movements", reportHandler.Movements)

	// User Management Routes (admin only)
	protected.Get("/users", adminOnly, userHandler.List)
	protected.Get("/users/:id", adminOnly, userHandler.Get)
	protected.Post("/users", adminOnly, userHandler.Create)
	protected.Put("/users/:id", adminOnly, userHandler.Update)
	protected.Delete("/users/:id", adminOnly, userHandler.Delete)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "3000"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic().Err(err).Msg("server stopped")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}

// seedAdmin creates the default admin account on first boot.
func seedAdmin(db *gorm.DB) {
	ctx := context.Background()
	store := repository.NewStore(db)

	if _, err := store.Users().FindByEmail(ctx, "admin@example.com"); err == nil {
		return
	}

	admin := &model.User{
		Email:    "admin@example.com",
		FullName: "Administrator",
		Role:     model.RoleAdmin,
		IsActive: true,
	}
	admin.CreatedBy = "system"
	admin.UpdatedBy = "system"

	if err := admin.SetPassword("admin123"); err != nil {
		log.Warn().Err(err).Msg("failed to hash admin password")
		return
	}

	if err := store.Users().Create(ctx, admin); err != nil {
		log.Warn().Err(err).Msg("failed to create admin user")
		return
	}
	log.Info().Msg("admin user created: admin@example.com / admin123")
}
