package router

import (
	"cafe_order_backend/internal/handlers"
	"cafe_order_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupAuthRoutes sets up the authentication routes.
func SetupAuthRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	authRoutes := apiGroup.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/refresh-token", authHandler.Refresh)

		authRequiredRoutes := authRoutes.Group("")
		authRequiredRoutes.Use(middleware.AuthMiddleware())
		{
			authRequiredRoutes.POST("/logout", authHandler.Logout)
			authRequiredRoutes.GET("/me", authHandler.Me)
		}
	}
}

// SetupCustomerRoutes sets up the public customer flow behind a table QR
// token: menu browsing, cart mutation, checkout, and order tracking. The QR
// token in the path is the customer's only credential.
func SetupCustomerRoutes(apiGroup *gin.RouterGroup, cartHandler *handlers.CartHandler, eventHandler *handlers.EventHandler) {
	tableRoutes := apiGroup.Group("/table/:qr_token")
	{
		tableRoutes.GET("", cartHandler.GetTableContext)
		tableRoutes.GET("/menu", cartHandler.GetMenu)

		tableRoutes.GET("/cart", cartHandler.GetCart)
		tableRoutes.POST("/cart/items", cartHandler.AddCartItem)
		tableRoutes.PUT("/cart/items/:menu_id", cartHandler.UpdateCartItem)
		tableRoutes.DELETE("/cart/items/:menu_id", cartHandler.RemoveCartItem)
		tableRoutes.DELETE("/cart", cartHandler.ClearCart)

		tableRoutes.POST("/checkout", cartHandler.Checkout)
		tableRoutes.GET("/orders/:id", cartHandler.GetOrder)
		tableRoutes.GET("/orders/:id/events", eventHandler.StreamOrderEvents)
	}
}

// SetupOrderRoutes sets up the staff order routes.
func SetupOrderRoutes(authenticatedGroup *gin.RouterGroup, orderHandler *handlers.OrderHandler, eventHandler *handlers.EventHandler) {
	orderRoutes := authenticatedGroup.Group("/orders")
	orderRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		orderRoutes.GET("", orderHandler.GetOrders)
		orderRoutes.GET("/events", eventHandler.StreamAllOrderEvents)
		orderRoutes.GET("/:id", orderHandler.GetOrderByID)
		orderRoutes.PATCH("/:id/status", orderHandler.UpdateOrderStatus)
	}
}

// SetupMenuRoutes sets up the staff menu management routes.
func SetupMenuRoutes(authenticatedGroup *gin.RouterGroup, menuHandler *handlers.MenuHandler) {
	menuRoutes := authenticatedGroup.Group("/menus")
	menuRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		menuRoutes.POST("", menuHandler.CreateMenuItem)
		menuRoutes.GET("", menuHandler.GetMenuItems)
		menuRoutes.GET("/:id", menuHandler.GetMenuItemByID)
		menuRoutes.PUT("/:id", menuHandler.UpdateMenuItem)
		menuRoutes.DELETE("/:id", menuHandler.DeleteMenuItem)
		menuRoutes.POST("/:id/stock", menuHandler.AdjustStock)
	}

	movementRoutes := authenticatedGroup.Group("/stock-movements")
	movementRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		movementRoutes.GET("", menuHandler.GetStockMovements)
	}
}

// SetupTableRoutes sets up the staff table management routes.
func SetupTableRoutes(authenticatedGroup *gin.RouterGroup, tableHandler *handlers.TableHandler) {
	tableRoutes := authenticatedGroup.Group("/tables")
	tableRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		tableRoutes.POST("", tableHandler.CreateTable)
		tableRoutes.GET("", tableHandler.GetTables)
		tableRoutes.GET("/:id", tableHandler.GetTableByID)
		tableRoutes.POST("/:id/regenerate-qr", tableHandler.RegenerateQRToken)
		tableRoutes.PATCH("/:id/active", tableHandler.SetTableActive)
		tableRoutes.DELETE("/:id", tableHandler.DeleteTable)
	}
}

// SetupReportRoutes sets up the reporting routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		reportRoutes.GET("/daily", reportHandler.GetDailyReport)
	}

	dashboardRoutes := authenticatedGroup.Group("/dashboard")
	dashboardRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		dashboardRoutes.GET("/summary", reportHandler.GetDashboardSummary)
	}
}

// SetupSettingRoutes sets up the application settings routes. Writes are
// Admin only; reads are open to all staff.
func SetupSettingRoutes(authenticatedGroup *gin.RouterGroup, settingHandler *handlers.SettingHandler) {
	settingRoutes := authenticatedGroup.Group("/settings")
	settingRoutes.Use(middleware.RoleAuthMiddleware("Admin", "Staff"))
	{
		settingRoutes.GET("", settingHandler.GetSettings)
		settingRoutes.GET("/:key", settingHandler.GetSettingByKey)
	}

	settingAdminRoutes := authenticatedGroup.Group("/settings")
	settingAdminRoutes.Use(middleware.RoleAuthMiddleware("Admin"))
	{
		settingAdminRoutes.PUT("", settingHandler.UpsertSetting)
		settingAdminRoutes.DELETE("/:key", settingHandler.DeleteSettingByKey)
	}
}
