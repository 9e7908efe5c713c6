package handler

import (
	"net/http"

	"reviewpilot/pkg/logger"
	"reviewpilot/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter настраивает маршруты сервиса авто-ответчика
func NewRouter(handler *AutoResponderHandler, authMiddleware *AuthMiddleware) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware("reviewpilot"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "reviewpilot"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	autoresponder := router.Group("/autoresponder")
	autoresponder.Use(authMiddleware.Authenticate())
	{
		autoresponder.POST("/:business_id/start", handler.StartJob)
		autoresponder.POST("/:business_id/stop", handler.StopJob)
		autoresponder.GET("/:business_id/status", handler.JobStatus)
	}

	reviews := router.Group("/reviews")
	reviews.Use(authMiddleware.Authenticate())
	{
		reviews.POST("/analyze-sentiment", handler.AnalyzeSentiment)
		reviews.POST("/business/:business_id/sync", handler.SyncReviews)
		reviews.GET("/business/:business_id", handler.GetReviews)
		reviews.POST("/:review_id/respond", handler.Respond)
		reviews.POST("/:review_id/publish", handler.Publish)
		reviews.POST("/:review_id/reanalyze", handler.Reanalyze)
	}

	return router
}
