package router

import (
	"database/sql"

	"cafe_order_backend/internal/events"
	"cafe_order_backend/internal/handlers"
	"cafe_order_backend/internal/middleware"
	"cafe_order_backend/internal/repositories"
	"cafe_order_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles the wired service layer so the caller can reach pieces the
// router also uses, e.g. the order service for the orphan sweeper.
type Services struct {
	Auth    services.AuthService
	Menu    services.MenuService
	Table   services.TableService
	Order   services.OrderService
	Report  services.ReportService
	Setting services.SettingService
}

// Setup wires repositories, services and handlers, and registers all routes.
func Setup(engine *gin.Engine, db *sql.DB, hub *events.Hub) *Services {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	menuRepo := repositories.NewMenuRepository(db)
	tableRepo := repositories.NewTableRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	movementRepo := repositories.NewStockMovementRepository(db)
	settingRepo := repositories.NewSettingRepository(db)

	// Initialize Services
	authService := services.NewAuthService(authRepo)
	menuService := services.NewMenuService(menuRepo, movementRepo)
	tableService := services.NewTableService(tableRepo)
	orderService := services.NewOrderService(orderRepo, menuRepo, movementRepo, settingRepo, hub)
	reportService := services.NewReportService(orderRepo)
	settingService := services.NewSettingService(settingRepo)
	cartBank := services.NewCartBank()

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	menuHandler := handlers.NewMenuHandler(menuService)
	tableHandler := handlers.NewTableHandler(tableService)
	orderHandler := handlers.NewOrderHandler(orderService)
	cartHandler := handlers.NewCartHandler(cartBank, tableService, menuService, orderService)
	reportHandler := handlers.NewReportHandler(reportService)
	settingHandler := handlers.NewSettingHandler(settingService)
	eventHandler := handlers.NewEventHandler(hub, tableService, orderService)

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiV1 := engine.Group("/api/v1")

	SetupAuthRoutes(apiV1, authHandler)
	SetupCustomerRoutes(apiV1, cartHandler, eventHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupOrderRoutes(authenticated, orderHandler, eventHandler)
		SetupMenuRoutes(authenticated, menuHandler)
		SetupTableRoutes(authenticated, tableHandler)
		SetupReportRoutes(authenticated, reportHandler)
		SetupSettingRoutes(authenticated, settingHandler)
	}

	return &Services{
		Auth:    authService,
		Menu:    menuService,
		Table:   tableService,
		Order:   orderService,
		Report:  reportService,
		Setting: settingService,
	}
}
