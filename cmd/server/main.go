package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"cafe_order_backend/internal/database"
	"cafe_order_backend/internal/events"
	"cafe_order_backend/internal/middleware"
	"cafe_order_backend/internal/router"
	"cafe_order_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	utils.InitLogger()
	utils.InitJWTSecret()

	// Load database configuration from environment variables
	dbHost := utils.Getenv("DB_HOST", "localhost")
	dbPort := utils.Getenv("DB_PORT", "5432")
	dbUser := utils.Getenv("DB_USER", "cafe_user")
	dbPassword := utils.Getenv("DB_PASSWORD", "cafe_password")
	dbName := utils.Getenv("DB_NAME", "cafe_order_db")
	dbSSLMode := utils.Getenv("DB_SSLMODE", "disable")
	dbSchemaPath := utils.Getenv("DB_SCHEMA_PATH", "")

	database.InitDB(dbHost, dbPort, dbUser, dbPassword, dbName, dbSSLMode, dbSchemaPath)
	utils.LogInfo("Database initialized", map[string]interface{}{"host": dbHost, "database": dbName})

	engine := gin.Default()
	engine.Use(utils.GinLogger())
	engine.Use(middleware.MetricsMiddleware())

	// CORS configuration
	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Cart-Session"}
	config.ExposeHeaders = []string{"X-Cart-Session"}
	config.AllowCredentials = true
	engine.Use(cors.New(config))

	hub := events.NewHub()
	svcs := router.Setup(engine, database.GetDB(), hub)

	// Background sweep for pending orders left without items by an
	// interrupted checkout.
	sweepInterval := utils.GetenvDuration("ORPHAN_SWEEP_INTERVAL", time.Minute)
	sweepGrace := utils.GetenvDuration("ORPHAN_SWEEP_GRACE", 5*time.Minute)
	svcs.Order.StartOrphanSweeper(context.Background(), sweepInterval, sweepGrace)

	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("Server starting", map[string]interface{}{"port": port})

	if err := engine.Run(":" + port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
