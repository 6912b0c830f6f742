package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/logger"
	"github.com/cleberrangel/schedule-progress-api/internal/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware tracks request metrics
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start).Milliseconds()
		statusCode := c.Writer.Status()

		metrics.Get().IncrementRequests(statusCode < 400, latency)

		// Usa o template da rota para não explodir a cardinalidade com datas
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metrics.Get().TrackEndpoint(path, c.Request.Method, statusCode, latency)
	}
}

// AuditMiddleware logs audit events for state-changing operations and downloads
func AuditMiddleware() gin.HandlerFunc {
	auditPaths := []string{
		"/api/v1/days",
		"/api/v1/reports",
		"/api/v1/export",
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		shouldAudit := false
		for _, auditPath := range auditPaths {
			if strings.HasPrefix(path, auditPath) {
				shouldAudit = true
				break
			}
		}

		c.Next()

		if !shouldAudit {
			return
		}
		// Leituras de registros diários são frequentes demais para auditar
		if c.Request.Method == http.MethodGet && strings.HasPrefix(path, "/api/v1/days") {
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
