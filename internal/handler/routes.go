package handler

import (
	"github.com/cleberrangel/caregiver-fit-api/internal/middleware"
	"github.com/cleberrangel/caregiver-fit-api/internal/websocket"
	"github.com/gin-gonic/gin"
)

// WSPath é a rota de inscrição do websocket
const WSPath = "/ws"

// Handlers agrupa os handlers registrados no router
type Handlers struct {
	Health     *HealthHandler
	Catalog    *CatalogHandler
	Assessment *AssessmentHandler
	Draft      *DraftHandler
	WebSocket  *WebSocketHandler
}

// NewRouter monta o router com middlewares e rotas. Health e métricas são
// públicos; /api/v1 e /ws exigem TOKEN_API.
func NewRouter(tokenAPI string, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID()) // Request ID + logging estruturado
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AuditMiddleware())

	r.GET("/health", h.Health.DetailedHealthCheck)
	r.GET("/health/live", h.Health.LivenessCheck)
	r.GET("/health/ready", h.Health.ReadinessCheck)
	r.GET("/metrics", h.Health.GetMetrics)
	r.GET("/metrics/summary", h.Health.GetMetricsSummary)
	r.GET("/metrics/endpoints", h.Health.GetEndpointMetrics)

	r.GET(WSPath, websocket.AuthMiddleware(tokenAPI), h.WebSocket.HandleConnection)

	api := r.Group("/api/v1")
	api.Use(middleware.BearerAuth(middleware.AuthConfig{
		TokenAPI: tokenAPI,
	}))
	{
		api.GET("/catalog", h.Catalog.Get)

		api.POST("/assessments/score", h.Assessment.Score)
		api.POST("/assessments", h.Assessment.Create)
		api.GET("/assessments", h.Assessment.List)
		api.GET("/assessments/:id", h.Assessment.Get)
		api.GET("/assessments/:id/summary", h.Assessment.Summary)
		api.GET("/assessments/:id/export", h.Assessment.Export)
		api.POST("/assessments/:id/sync", h.Assessment.Sync)

		api.POST("/drafts", h.Draft.Create)
		api.GET("/drafts/:id", h.Draft.Get)
		api.POST("/drafts/:id/tasks/toggle", h.Draft.ToggleTask)
		api.POST("/drafts/:id/tasks/adjust", h.Draft.AdjustHours)
		api.POST("/drafts/:id/interests/toggle", h.Draft.ToggleInterest)
		api.DELETE("/drafts/:id", h.Draft.Delete)

		api.GET("/ws/stats", h.WebSocket.GetConnectionStats)
	}

	return r
}
