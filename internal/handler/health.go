package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/cleberrangel/caregiver-fit-api/internal/database"
	"github.com/cleberrangel/caregiver-fit-api/internal/metrics"
	"github.com/cleberrangel/caregiver-fit-api/internal/websocket"
	"github.com/gin-gonic/gin"
)

// MaxHeapMB é o limite de heap acima do qual o serviço se declara unhealthy
const MaxHeapMB = 512

// MaxWSConnections é o número de conexões websocket a partir do qual o hub fica degraded
const MaxWSConnections = 100

// HealthHandler handles health check and metrics endpoints
type HealthHandler struct {
	db         *sql.DB
	wsHub      *websocket.Hub
	analyzerOn bool
	version    string
	startTime  time.Time
}

// NewHealthHandler creates a new health handler. db é nil quando o histórico fica em memória.
func NewHealthHandler(db *sql.DB, wsHub *websocket.Hub, analyzerOn bool, version string) *HealthHandler {
	return &HealthHandler{
		db:         db,
		wsHub:      wsHub,
		analyzerOn: analyzerOn,
		version:    version,
		startTime:  time.Now(),
	}
}

// LivenessCheck returns basic liveness status
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health/live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ReadinessCheck returns readiness status including storage
// @Summary Readiness check
// @Tags health
// @Produce json
// @Success 200 {object} metrics.HealthCheck
// @Failure 503 {object} metrics.HealthCheck
// @Router /health/ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	components := map[string]metrics.HealthStatus{
		"storage": h.checkStorage(c),
		"memory":  metrics.CheckMemoryHealth(MaxHeapMB),
	}
	h.respond(c, components)
}

// DetailedHealthCheck returns comprehensive health information
// @Summary Detailed health check
// @Tags health
// @Produce json
// @Success 200 {object} metrics.HealthCheck
// @Failure 503 {object} metrics.HealthCheck
// @Router /health [get]
func (h *HealthHandler) DetailedHealthCheck(c *gin.Context) {
	components := map[string]metrics.HealthStatus{
		"storage":   h.checkStorage(c),
		"memory":    metrics.CheckMemoryHealth(MaxHeapMB),
		"websocket": h.checkWebSocketHealth(),
		"analyzer":  h.checkAnalyzer(),
	}
	h.respond(c, components)
}

func (h *HealthHandler) respond(c *gin.Context, components map[string]metrics.HealthStatus) {
	overallStatus := metrics.DetermineOverallStatus(components)

	statusCode := http.StatusOK
	if overallStatus == metrics.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, metrics.HealthCheck{
		Status:     overallStatus,
		Version:    h.version,
		Uptime:     time.Since(h.startTime).String(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	})
}

func (h *HealthHandler) checkStorage(c *gin.Context) metrics.HealthStatus {
	if h.db == nil {
		return metrics.HealthStatus{Status: metrics.StatusHealthy, Message: "in-memory"}
	}
	return metrics.CheckDatabaseHealth(c.Request.Context(), h.db)
}

// checkWebSocketHealth checks WebSocket hub health
func (h *HealthHandler) checkWebSocketHealth() metrics.HealthStatus {
	if h.wsHub == nil {
		return metrics.HealthStatus{
			Status:  metrics.StatusUnhealthy,
			Message: "WebSocket hub not initialized",
		}
	}

	if h.wsHub.GetConnectionCount() > MaxWSConnections {
		return metrics.HealthStatus{
			Status:  metrics.StatusDegraded,
			Message: "WebSocket connections near limit",
		}
	}

	return metrics.HealthStatus{Status: metrics.StatusHealthy}
}

// Sem chave do Gemini só a pontuação do motor funciona
func (h *HealthHandler) checkAnalyzer() metrics.HealthStatus {
	if !h.analyzerOn {
		return metrics.HealthStatus{
			Status:  metrics.StatusDegraded,
			Message: "GEMINI_API_KEY not configured, only scoring available",
		}
	}
	return metrics.HealthStatus{Status: metrics.StatusHealthy}
}

// GetMetrics returns application metrics
// @Summary Get application metrics
// @Tags metrics
// @Produce json
// @Success 200 {object} metrics.MetricsSnapshot
// @Router /metrics [get]
func (h *HealthHandler) GetMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, metrics.Get().Snapshot())
}

// GetMetricsSummary returns a summary of key metrics
func (h *HealthHandler) GetMetricsSummary(c *gin.Context) {
	snapshot := metrics.Get().Snapshot()

	requestSuccessRate := float64(0)
	if snapshot.Requests.Total > 0 {
		requestSuccessRate = float64(snapshot.Requests.Successful) / float64(snapshot.Requests.Total) * 100
	}

	analysisErrorRate := float64(0)
	if snapshot.Analysis.Calls > 0 {
		analysisErrorRate = float64(snapshot.Analysis.Errors) / float64(snapshot.Analysis.Calls) * 100
	}

	cacheHitRate := float64(0)
	if lookups := snapshot.Cache.Hits + snapshot.Cache.Misses; lookups > 0 {
		cacheHitRate = float64(snapshot.Cache.Hits) / float64(lookups) * 100
	}

	summary := gin.H{
		"uptime_seconds": snapshot.UptimeSeconds,
		"version":        h.version,
		"requests": gin.H{
			"total":        snapshot.Requests.Total,
			"success_rate": requestSuccessRate,
			"avg_latency":  snapshot.Requests.AvgLatencyMs,
		},
		"assessments": gin.H{
			"scored":   snapshot.Assessments.Scored,
			"created":  snapshot.Assessments.Created,
			"failed":   snapshot.Assessments.Failed,
			"rejected": snapshot.Assessments.Rejected,
		},
		"analysis": gin.H{
			"calls":       snapshot.Analysis.Calls,
			"fallbacks":   snapshot.Analysis.Fallbacks,
			"error_rate":  analysisErrorRate,
			"avg_latency": snapshot.Analysis.AvgLatencyMs,
		},
		"syncs": gin.H{
			"total":  snapshot.Syncs.Total,
			"errors": snapshot.Syncs.Errors,
		},
		"drafts": gin.H{
			"hit_rate": cacheHitRate,
		},
		"websocket": gin.H{
			"connections": snapshot.WebSocket.Connections,
		},
		"system": gin.H{
			"goroutines":  snapshot.System.Goroutines,
			"heap_mb":     snapshot.System.HeapAllocMB,
			"heap_use_mb": snapshot.System.HeapInUseMB,
		},
	}
	if h.db != nil {
		summary["database"] = database.GetPoolStats(h.db)
	}

	c.JSON(http.StatusOK, summary)
}

// GetEndpointMetrics returns metrics broken down by endpoint
func (h *HealthHandler) GetEndpointMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"endpoints": metrics.Get().Snapshot().Endpoints,
	})
}
