package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/cleberrangel/caregiver-fit-api/internal/logger"
	"github.com/cleberrangel/caregiver-fit-api/internal/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware registra contadores e latência de cada requisição
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start).Milliseconds()
		statusCode := c.Writer.Status()

		metrics.Get().IncrementRequests(statusCode < 400, latency)

		// Rota registrada, para não explodir a cardinalidade com IDs
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metrics.Get().TrackEndpoint(path, c.Request.Method, statusCode, latency)
	}
}

// AuditMiddleware registra no audit log as operações que alteram estado
func AuditMiddleware() gin.HandlerFunc {
	auditPaths := []string{
		"/api/v1/assessments",
		"/api/v1/drafts",
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		shouldAudit := false
		for _, p := range auditPaths {
			if strings.HasPrefix(path, p) {
				shouldAudit = true
				break
			}
		}

		c.Next()

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete:
		default:
			return
		}
		if !shouldAudit {
			return
		}

		logger.AuditRequest(
			c.Request.Context(),
			c.Request.Method,
			path,
			c.Writer.Status(),
			time.Since(start).Milliseconds(),
			c.ClientIP(),
		)
	}
}
