package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"buyerradar/server/internal/metrics"
)

// NewRouter builds the HTTP router with middleware and every route.
func NewRouter(handler *Handler, allowedOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(handler.logger))

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowedOrigins
	}
	router.Use(cors.New(corsConfig))

	SetupRoutes(router, handler)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
	return router
}

func SetupRoutes(router *gin.Engine, handler *Handler) {
	api := router.Group("/api")
	{
		api.GET("/buyers", handler.GetBuyers)
		api.GET("/buyers/:id/footprint", handler.GetBuyerFootprint)
		api.GET("/boundary", handler.GetBoundary)
		api.GET("/markets", handler.GetMarkets)
		api.POST("/reload", handler.TriggerReload)
		api.GET("/health", handler.Health)
	}
}
