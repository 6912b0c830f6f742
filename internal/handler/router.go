package handler

import (
	"net/http"
	"runtime"

	"github.com/cleberrangel/schedule-progress-api/internal/middleware"
	"github.com/cleberrangel/schedule-progress-api/internal/service"
	"github.com/cleberrangel/schedule-progress-api/internal/websocket"
	"github.com/gin-gonic/gin"
)

// RouterConfig reúne o que o router precisa
type RouterConfig struct {
	TokenAPI           string
	Version            string
	RateLimitPerMinute int
	MaxUploadBytes     int64

	Uploads  *service.UploadService
	Progress *service.ProgressService
	History  *service.HistoryService
	Hub      *websocket.Hub
}

// NewRouter monta todas as rotas da API
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID()) // Request ID + logging estruturado
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware())

	if cfg.MaxUploadBytes > 0 {
		// margem para os campos do multipart
		r.MaxMultipartMemory = cfg.MaxUploadBytes + 1<<20
	}

	health := NewHealthHandler(cfg.Progress, cfg.Hub, cfg.Uploads, cfg.Version)
	extract := NewExtractHandler(cfg.Uploads)
	days := NewDayHandler(cfg.Progress)
	reports := NewReportHandler(cfg.Progress)
	history := NewHistoryHandler(cfg.History)

	// Health check (público)
	r.GET("/health/live", health.LivenessCheck)
	r.GET("/health/ready", health.ReadinessCheck)
	r.GET("/metrics", health.GetMetrics)

	// Debug memory endpoint (público)
	r.GET("/debug/memory", func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		c.JSON(http.StatusOK, gin.H{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"heap_alloc_mb":  m.HeapAlloc / 1024 / 1024,
			"heap_inuse_mb":  m.HeapInuse / 1024 / 1024,
			"goroutines":     runtime.NumGoroutine(),
			"gc_runs":        m.NumGC,
			"gc_pause_total": m.PauseTotalNs / 1000000, // ms
		})
	})

	auth := middleware.BearerAuth(middleware.AuthConfig{TokenAPI: cfg.TokenAPI})
	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute)

	// Grupo de rotas protegidas
	api := r.Group("/api/v1")
	api.Use(limiter.Middleware(), auth, middleware.AuditMiddleware())
	{
		api.POST("/extract", extract.Extract)
		api.POST("/explain", extract.Explain)

		day := api.Group("/days/:date", middleware.DayContext())
		day.GET("", days.Get)
		day.PUT("", days.Save)
		day.DELETE("", days.Clear)
		day.POST("/upload", days.Upload)
		day.PATCH("/tasks/:id", days.Toggle)

		api.GET("/reports", reports.Custom)
		api.GET("/reports/:window", reports.Window)
		api.GET("/export", reports.Export)

		api.GET("/history", history.ListHistory)
	}

	if cfg.Hub != nil {
		r.GET("/ws", limiter.Middleware(), auth, websocket.DateParam(), cfg.Hub.ServeWS)
	}

	return r
}
