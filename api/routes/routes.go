package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/onec-docsearch/api/handlers"
	"github.com/feichai0017/onec-docsearch/api/middleware"
)

// SetupRoutes wires all endpoints.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, rateRPS float64, rateBurst int) {
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(rateRPS, rateBurst))

	v1.GET("/health", h.Health.Health)

	index := v1.Group("/index")
	{
		index.GET("/status", h.Index.Status)
		index.POST("/rebuild", h.Index.Rebuild)
	}

	archive := v1.Group("/archive")
	{
		archive.POST("/preview", h.Archive.Preview)
	}
}
