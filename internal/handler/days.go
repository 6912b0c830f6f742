package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/cleberrangel/schedule-progress-api/internal/logger"
	"github.com/cleberrangel/schedule-progress-api/internal/middleware"
	"github.com/cleberrangel/schedule-progress-api/internal/model"
	"github.com/cleberrangel/schedule-progress-api/internal/service"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DayHandler gerencia o registro de tarefas de cada dia
type DayHandler struct {
	progress *service.ProgressService
}

// NewDayHandler creates a new day handler
func NewDayHandler(progress *service.ProgressService) *DayHandler {
	return &DayHandler{progress: progress}
}

func (h *DayHandler) date(c *gin.Context) (time.Time, bool) {
	date, err := h.progress.ParseDate(c.Param("date"))
	if err != nil {
		respondError(c, err)
		return time.Time{}, false
	}
	return date, true
}

// Upload extrai as tarefas de um arquivo e substitui o registro do dia
// @Router /api/v1/days/{date}/upload [post]
func (h *DayHandler) Upload(c *gin.Context) {
	date, ok := h.date(c)
	if !ok {
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		badRequest(c, "arquivo não encontrado no formulário", "use o campo 'file' para enviar o arquivo")
		return
	}
	defer file.Close()

	filename := middleware.SanitizeFilename(header.Filename)
	logger.FromGin(c).Info().
		Str("file_name", filename).
		Int64("size", header.Size).
		Msg("Processando upload de arquivo")

	record, result, err := h.progress.ImportFile(c.Request.Context(), date, filename, file, header.Size)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.Audit(c.Request.Context(), logger.AuditEvent{
		Action:     logger.AuditActionFileUpload,
		Resource:   "day",
		ResourceID: record.Date,
		ClientIP:   c.ClientIP(),
		Success:    true,
		Details:    map[string]interface{}{"file_name": filename, "size": header.Size},
	})

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data: gin.H{
			"record":     record,
			"extraction": result,
		},
		Meta: &model.Meta{
			TotalTasks:     record.TotalCount,
			DiscardedLines: result.Stats.Discarded(),
		},
	})
}

// Get retorna o registro do dia; ?format=xlsx baixa a planilha de tarefas
// @Router /api/v1/days/{date} [get]
func (h *DayHandler) Get(c *gin.Context) {
	date, ok := h.date(c)
	if !ok {
		return
	}

	if c.Query("format") == "xlsx" {
		buf, err := h.progress.DayXLSX(c.Request.Context(), date)
		if err != nil {
			respondError(c, err)
			return
		}
		filename := fmt.Sprintf("tarefas_%s.xlsx", date.Format(model.DateLayout))
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
		return
	}

	record, err := h.progress.Get(c.Request.Context(), date)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{Success: true, Data: record})
}

// Save aplica os estados de conclusão enviados
// @Router /api/v1/days/{date} [put]
func (h *DayHandler) Save(c *gin.Context) {
	date, ok := h.date(c)
	if !ok {
		return
	}

	var req model.SaveProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "payload inválido", err.Error())
		return
	}

	record, err := h.progress.SaveCompletion(c.Request.Context(), date, req.Tasks)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{Success: true, Data: record})
}

// Toggle marca ou desmarca uma tarefa
// @Router /api/v1/days/{date}/tasks/{id} [patch]
func (h *DayHandler) Toggle(c *gin.Context) {
	date, ok := h.date(c)
	if !ok {
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 0 {
		badRequest(c, "id inválido", c.Param("id"))
		return
	}

	var req model.ToggleTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "payload inválido", err.Error())
		return
	}

	record, err := h.progress.Toggle(c.Request.Context(), date, id, *req.Completed)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{Success: true, Data: record})
}

// Clear remove o registro do dia
// @Router /api/v1/days/{date} [delete]
func (h *DayHandler) Clear(c *gin.Context) {
	date, ok := h.date(c)
	if !ok {
		return
	}

	if err := h.progress.Clear(c.Request.Context(), date); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
