package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes registers every route on r. The shared backend key, when set,
// guards everything under /api.
func SetupRoutes(r *gin.Engine, h *Handler) {
	h.routes = r.Routes

	r.GET("/", h.healthCheck)

	apiGroup := r.Group("/api", BackendKeyMiddleware(h.Config.BackendKey))
	{
		apiGroup.POST("/search", h.createSearch)
		apiGroup.GET("/search", h.listSearches)
		apiGroup.GET("/search/:request_id", h.getSearch)
		apiGroup.DELETE("/search/:request_id", h.deleteSearch)

		apiGroup.GET("/model", h.getModelHandler)
		apiGroup.POST("/model", h.setModelHandler)
	}

	demo := apiGroup.Group("/demo")
	{
		demo.GET("/search-example", h.demoExample)
		demo.GET("/search-stream", h.demoStream)
		demo.GET("/categories", h.demoCategories)
	}

	hubspot := apiGroup.Group("/hubspot/oauth")
	{
		hubspot.POST("/token", h.hubSpotToken)
		hubspot.GET("/health", h.hubSpotHealth)
		hubspot.GET("/debug", h.hubSpotDebug)
		hubspot.GET("/test", h.hubSpotTest)
	}

	system := apiGroup.Group("/system")
	{
		system.GET("/prismatic/diagnostics", h.diagnostics)
		system.GET("/deployment/sync-check", h.syncCheck)
		system.GET("/health/comprehensive", h.comprehensiveHealth)
		system.POST("/webhook/test", h.webhookTest)
	}
}

// NewEngine builds the gin engine with the standard middleware stack.
func NewEngine(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(h.log), CORSMiddleware())
	SetupRoutes(r, h)
	return r
}
