package httpapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"worksflow/logger"
)

type RouterConfig struct {
	Webhook    *WebhookHandler
	Agreements *AgreementsHandler

	// APIJWTSecret guards the manual API when non-empty.
	APIJWTSecret string

	Log *logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Inbound job-system notifications. GET is a liveness probe only.
	router.POST("/webhooks/jobs", cfg.Webhook.Receive)
	router.GET("/webhooks/jobs", cfg.Webhook.Liveness)

	api := router.Group("/api")
	if cfg.APIJWTSecret != "" {
		api.Use(RequireAuth(cfg.APIJWTSecret, cfg.Log))
	}
	api.GET("/agreements", cfg.Agreements.List)
	api.GET("/agreements/:jobId", cfg.Agreements.Get)
	api.POST("/agreements", cfg.Agreements.Create)
	api.PATCH("/agreements/:jobId", cfg.Agreements.Update)
	api.DELETE("/agreements/:jobId", cfg.Agreements.Delete)

	return router
}
