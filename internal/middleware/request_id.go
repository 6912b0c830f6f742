package middleware

import (
	"net/url"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	// HeaderRequestID é o header HTTP para request ID
	HeaderRequestID = "X-Request-ID"
	// HeaderTraceID é o header HTTP para trace ID (distributed tracing)
	HeaderTraceID = "X-Trace-ID"

	maxIncomingIDLength = 64
)

// RequestID adiciona request_id e trace_id ao contexto e loga início e fim
// de cada requisição
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := incomingID(c.GetHeader(HeaderRequestID))
		if requestID == "" {
			requestID = uuid.New().String()[:8]
		}
		traceID := incomingID(c.GetHeader(HeaderTraceID))
		if traceID == "" {
			traceID = uuid.New().String()
		}

		ctx := logger.WithRequestID(c.Request.Context(), requestID)
		ctx = logger.WithTraceID(ctx, traceID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, traceID)

		log := logger.Get(ctx)
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("query", redactQuery(c.Request.URL.Query())).
			Str("client_ip", c.ClientIP()).
			Int64("content_length", c.Request.ContentLength).
			Msg("Request started")

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		completed(*log, status).
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Int("status", status).
			Int("size", c.Writer.Size()).
			Float64("latency_ms", float64(duration.Microseconds())/1000).
			Int("errors", len(c.Errors)).
			Msg("Request completed")
	}
}

func completed(log zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= 500:
		return log.Error()
	case status >= 400:
		return log.Warn()
	default:
		return log.Info()
	}
}

// incomingID aceita ids de clientes apenas se forem curtos e imprimíveis
func incomingID(id string) string {
	if len(id) == 0 || len(id) > maxIncomingIDLength {
		return ""
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return ""
		}
	}
	return id
}

// redactQuery esconde o token do websocket (?token=) nos logs
func redactQuery(q url.Values) string {
	if q.Has("token") {
		q.Set("token", "***")
	}
	return q.Encode()
}

// DayContext marca o logger da requisição com o parâmetro :date
func DayContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if date := c.Param("date"); date != "" {
			c.Request = c.Request.WithContext(logger.WithDate(c.Request.Context(), date))
		}
		c.Next()
	}
}
