package main

import (
	"log"
	"net/http"
	"os"
	"strconv"

	"deliverus-api/config"
	"deliverus-api/handlers"
	"deliverus-api/routes"
	"deliverus-api/service"
	"deliverus-api/statemachine"
	"deliverus-api/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	// Set Gin mode
	if os.Getenv("GIN_MODE") == "" && cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger, err := config.NewLogger(cfg.Env)
	if err != nil {
		log.Fatal("Failed to build logger:", err)
	}
	defer logger.Sync()

	// Initialize database
	config.InitDB(cfg)

	// Wire the order lifecycle: gorm stores, wall clock, transition engine
	orderService := service.NewOrderService(
		store.NewGormOrderStore(config.DB),
		store.NewGormRestaurantStore(config.DB),
		statemachine.SystemClock{},
		logger,
	)
	orderHandler := handlers.NewOrderHandler(orderService, logger)

	// Create Gin router with default middleware (logger + recovery)
	r := gin.Default()

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "DeliverUS API",
			"version": "1.0.0",
		})
	})

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Register all routes
	routes.SetupRoutes(r, orderHandler)

	// Start server
	addr := ":" + strconv.Itoa(cfg.Port)
	logger.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := r.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
