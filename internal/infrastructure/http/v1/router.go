// Package v1 assembles the terminal's local HTTP API.
package v1

import (
	"github.com/gin-gonic/gin"

	"abasto/internal/infrastructure/http/v1/handlers"
	"abasto/internal/infrastructure/http/v1/middleware"
	"abasto/internal/terminal"
	"abasto/pkg/logger"
)

// NewRouter builds the gin engine with the full middleware chain and routes.
func NewRouter(svc *terminal.Service, log *logger.Logger, development bool) *gin.Engine {
	if !development {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Order matters: recovery outermost, then tracing so every log line
	// carries ids, then request logging, then error rendering.
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(log))
	router.Use(middleware.ErrorHandler())

	health := handlers.NewHealthHandler(svc.Store(), svc.Sessions())
	catalogH := handlers.NewCatalogHandler(svc)
	cartH := handlers.NewCartHandler(svc)
	draftH := handlers.NewDraftHandler(svc)
	bulkH := handlers.NewBulkPriceHandler(svc)

	router.GET("/health/live", health.Live)
	router.GET("/health/ready", health.Ready)
	router.GET("/health/info", health.Info)

	api := router.Group("/api/v1")
	{
		api.GET("/catalog", catalogH.List)
		api.GET("/catalog/items/:id", catalogH.Get)
		api.PUT("/catalog/items/:id", catalogH.Update)
		api.DELETE("/catalog/items/:id", catalogH.Delete)
		api.GET("/catalog/low-stock", catalogH.LowStock)
		api.POST("/catalog/refresh", catalogH.Refresh)

		api.POST("/scan", catalogH.Scan)
		api.POST("/quick-sell", cartH.QuickSell)

		api.POST("/sessions", cartH.CreateSession)
		api.DELETE("/sessions/:sid", cartH.DeleteSession)

		api.GET("/sessions/:sid/cart", cartH.GetCart)
		api.PUT("/sessions/:sid/cart/lines", cartH.SetLine)
		api.POST("/sessions/:sid/cart/lines", cartH.AddLine)
		api.POST("/sessions/:sid/cart/clear", cartH.ClearCart)
		api.POST("/sessions/:sid/checkout", cartH.Checkout)

		api.GET("/sessions/:sid/draft", draftH.Get)
		api.POST("/sessions/:sid/draft/lines", draftH.AddLine)
		api.PUT("/sessions/:sid/draft/lines/:index", draftH.UpdateLine)
		api.DELETE("/sessions/:sid/draft/lines/:index", draftH.RemoveLine)
		api.POST("/sessions/:sid/draft/commit", draftH.Commit)

		api.POST("/bulk-price", bulkH.Apply)
		api.POST("/bulk-price/preview", bulkH.Preview)
	}

	return router
}
