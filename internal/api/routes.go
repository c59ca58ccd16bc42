// internal/api/routes.go
package api

import (
	"energy_finance/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, svc *service.Service) {
	h := NewHandler(svc)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/stats", h.GetStats)
		api.POST("/calculate", h.Calculate)
		api.POST("/analysis/batch", h.AnalyzeBatch)

		// Projects
		projects := api.Group("/projects")
		{
			projects.POST("", h.CreateProject)
			projects.GET("", h.ListProjects)
			projects.POST("/import", h.ImportProjects)
			projects.GET("/:id", h.GetProject)
			projects.DELETE("/:id", h.DeleteProject)
			projects.POST("/:id/analysis", h.Analyze)
			projects.GET("/:id/analysis", h.GetAnalysis)
			projects.GET("/:id/cashflows", h.GetCashFlows)
		}

		// Import templates
		templates := api.Group("/templates")
		{
			templates.GET("/project.xlsx", h.TemplateXLSX)
			templates.GET("/project.csv", h.TemplateCSV)
		}

		// Cache management
		cache := api.Group("/cache")
		{
			cache.GET("/stats", h.GetCacheStats)
			cache.POST("/clear", h.ClearCache)
		}
	}
}

// NewRouter builds the engine with the standard middleware chain
func NewRouter(svc *service.Service) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(Logger())
	r.Use(CORS())

	SetupRoutes(r, svc)
	return r
}
