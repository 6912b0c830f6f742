package handler

import (
	"net/http"
	"strconv"

	"github.com/cleberrangel/schedule-progress-api/internal/model"
	"github.com/cleberrangel/schedule-progress-api/internal/service"
	"github.com/gin-gonic/gin"
)

// HistoryHandler handles extraction history requests
type HistoryHandler struct {
	historyService *service.HistoryService
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(historyService *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// ListHistory returns the most recent extraction runs (?limit=, default 50)
// @Router /api/v1/history [get]
func (h *HistoryHandler) ListHistory(c *gin.Context) {
	limit := service.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, "limit inválido", raw)
			return
		}
		limit = n
	}

	runs, err := h.historyService.Recent(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    runs,
		Meta:    &model.Meta{TotalRows: len(runs)},
	})
}
