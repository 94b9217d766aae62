package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reviewcatalog/pkg/logger"
	"reviewcatalog/pkg/metrics"
)

const serviceName = "catalog-service"

// SetupRoutes настраивает все маршруты Catalog Service с использованием Gin
func SetupRoutes(catalogHandler *CatalogHandler) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware(serviceName))

	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Accept", "Content-Type", logger.RequestIDHeader},
		ExposeHeaders:   []string{logger.RequestIDHeader},
		MaxAge:          300,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	products := router.Group("/products")
	{
		products.GET("", catalogHandler.GetAllProducts)
		products.GET("/:id", catalogHandler.GetProduct)
		products.GET("/:id/rating", catalogHandler.GetProductRating)

		// Отзывы: один автор - один отзыв на товар
		products.GET("/:id/reviews", catalogHandler.GetProductReviews)
		products.POST("/:id/reviews", catalogHandler.AddReview)
		products.PUT("/:id/reviews/:author", catalogHandler.UpdateReview)
		products.DELETE("/:id/reviews/:author", catalogHandler.DeleteReview)
	}

	return router
}
