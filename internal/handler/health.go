package handler

import (
	"net/http"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/metrics"
	"github.com/cleberrangel/schedule-progress-api/internal/service"
	"github.com/cleberrangel/schedule-progress-api/internal/websocket"
	"github.com/gin-gonic/gin"
)

// maxHeapMB é o limite de memória usado no readiness
const maxHeapMB = 512

// HealthHandler handles health check and metrics endpoints
type HealthHandler struct {
	store     metrics.Pinger
	wsHub     *websocket.Hub
	uploads   *service.UploadService
	version   string
	startTime time.Time
}

// NewHealthHandler creates a new health handler. wsHub and uploads may be nil.
func NewHealthHandler(store metrics.Pinger, wsHub *websocket.Hub, uploads *service.UploadService, version string) *HealthHandler {
	return &HealthHandler{
		store:     store,
		wsHub:     wsHub,
		uploads:   uploads,
		version:   version,
		startTime: time.Now(),
	}
}

// LivenessCheck returns basic liveness status
// @Router /health/live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// ReadinessCheck returns readiness status including storage and memory
// @Router /health/ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	components := make(map[string]metrics.HealthStatus)

	components["storage"] = metrics.CheckStorageHealth(c.Request.Context(), h.store)
	components["memory"] = metrics.CheckMemoryHealth(maxHeapMB)
	if h.wsHub != nil {
		components["websocket"] = metrics.HealthStatus{Status: "healthy"}
	}

	overallStatus := metrics.DetermineOverallStatus(components)

	healthCheck := metrics.HealthCheck{
		Status:     overallStatus,
		Version:    h.version,
		Uptime:     time.Since(h.startTime).String(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Components: components,
	}

	statusCode := http.StatusOK
	if overallStatus == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, healthCheck)
}

// GetMetrics returns application metrics
// @Router /metrics [get]
func (h *HealthHandler) GetMetrics(c *gin.Context) {
	body := gin.H{"metrics": metrics.Get().Snapshot()}

	if h.uploads != nil {
		body["upload_cache"] = h.uploads.CacheStats()
	}
	if h.wsHub != nil {
		body["websocket_dates"] = h.wsHub.GetWatchedDates()
	}

	c.JSON(http.StatusOK, body)
}
