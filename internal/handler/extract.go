package handler

import (
	"net/http"

	"github.com/cleberrangel/schedule-progress-api/internal/extraction"
	"github.com/cleberrangel/schedule-progress-api/internal/model"
	"github.com/cleberrangel/schedule-progress-api/internal/service"
	"github.com/gin-gonic/gin"
)

// maxExtractLines limita o tamanho de uma requisição de extração
const maxExtractLines = 20000

// ExtractHandler expõe o pipeline sem persistência
type ExtractHandler struct {
	uploads *service.UploadService
}

// NewExtractHandler creates a new extract handler
func NewExtractHandler(uploads *service.UploadService) *ExtractHandler {
	return &ExtractHandler{uploads: uploads}
}

// Extract runs the pipeline over {"lines":[...]} or {"text":"..."}
// @Router /api/v1/extract [post]
func (h *ExtractHandler) Extract(c *gin.Context) {
	lines, ok := h.bindLines(c)
	if !ok {
		return
	}

	entries, stats := h.uploads.ExtractLines(c.Request.Context(), lines)

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data: gin.H{
			"entries": entries,
			"stats":   stats,
		},
		Meta: &model.Meta{
			TotalTasks:     len(entries),
			DiscardedLines: stats.Discarded(),
		},
	})
}

// Explain returns the classification trace of each line
// @Router /api/v1/explain [post]
func (h *ExtractHandler) Explain(c *gin.Context) {
	lines, ok := h.bindLines(c)
	if !ok {
		return
	}

	pipeline := h.uploads.Pipeline()
	out := make([]extraction.Explanation, 0, len(lines))
	for _, line := range lines {
		out = append(out, pipeline.Explain(line))
	}

	c.JSON(http.StatusOK, model.Response{Success: true, Data: out})
}

func (h *ExtractHandler) bindLines(c *gin.Context) ([]string, bool) {
	var req model.ExtractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "payload inválido", err.Error())
		return nil, false
	}

	lines := req.Lines
	if len(lines) == 0 && req.Text != "" {
		lines = extraction.SplitLines(req.Text)
	}
	if len(lines) == 0 {
		badRequest(c, "nenhuma linha enviada", "use o campo 'lines' ou 'text'")
		return nil, false
	}
	if len(lines) > maxExtractLines {
		badRequest(c, "linhas demais", "o limite é 20000 linhas por requisição")
		return nil, false
	}

	return lines, true
}
