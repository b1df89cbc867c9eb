package routes

import (
	"github.com/Cyvadra/tv-relay/internal/handlers"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all the routes for the application
func SetupRoutes(r *gin.Engine, webhookHandler *handlers.WebhookHandler, alertHandler *handlers.AlertHandler) {
	// Alert webhook
	r.POST("/webhook", webhookHandler.HandleWebhook)

	// API routes
	api := r.Group("/api/v1")
	{
		api.POST("/webhook/tradingview", webhookHandler.HandleWebhook)

		alerts := api.Group("/alerts")
		{
			alerts.GET("", alertHandler.GetAlerts)
			alerts.GET("/:id", alertHandler.GetAlert)
		}
	}

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "tv-relay",
		})
	})

	// Root endpoint
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "TradingView Alert Relay",
			"version": "1.0.0",
			"endpoints": gin.H{
				"webhook": "/webhook",
				"alerts":  "/api/v1/alerts",
				"health":  "/health",
			},
		})
	})
}

// NewEngine creates a gin engine with logging and recovery middleware
func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(handlers.Recovery())
	r.Use(handlers.RequestLogger())
	return r
}
