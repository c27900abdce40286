package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/kilopos/internal/server/http/handlers"
	"github.com/polkiloo/kilopos/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.PosFacade, health handlers.HealthChecker, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest(middleware.DefaultMaxBodyBytes))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	orderHandler := handlers.NewOrderHandler(facade)
	drawerHandler := handlers.NewDrawerHandler(facade)
	reportHandler := handlers.NewReportHandler(facade)
	healthHandler := handlers.NewHealthHandler(health)

	engine.GET("/healthz", healthHandler.Check)

	api := engine.Group("/api")
	api.Use(middleware.AuthRequired(facade))

	orders := api.Group("/orders")
	orders.POST("", orderHandler.Create)
	orders.GET("/:id", orderHandler.Get)
	orders.POST("/:id/items", orderHandler.AddItem)
	orders.DELETE("/:id/items/:itemId", orderHandler.RemoveItem)
	orders.POST("/:id/edit", orderHandler.BeginEdit)
	orders.DELETE("/:id/edit", orderHandler.EndEdit)
	orders.POST("/:id/close", orderHandler.Close)
	orders.POST("/:id/cancel", orderHandler.Cancel)

	drawer := api.Group("/drawer")
	drawer.GET("", drawerHandler.Status)
	drawer.GET("/history", drawerHandler.History)
	drawer.POST("/open", drawerHandler.Open)
	drawer.POST("/close", drawerHandler.Close)

	api.GET("/reports/daily", reportHandler.Daily)

	return engine
}
