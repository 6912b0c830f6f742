package handler

import (
	"fmt"
	"net/http"

	"github.com/cleberrangel/schedule-progress-api/internal/model"
	"github.com/cleberrangel/schedule-progress-api/internal/progress"
	"github.com/cleberrangel/schedule-progress-api/internal/service"
	"github.com/gin-gonic/gin"
)

// ReportHandler handles report generation requests
type ReportHandler struct {
	progress *service.ProgressService
}

// NewReportHandler creates a new report handler
func NewReportHandler(progress *service.ProgressService) *ReportHandler {
	return &ReportHandler{progress: progress}
}

// Window returns the weekly or monthly report
// @Router /api/v1/reports/{window} [get]
func (h *ReportHandler) Window(c *gin.Context) {
	report, err := h.progress.Report(c.Request.Context(), c.Param("window"))
	if err != nil {
		respondError(c, err)
		return
	}
	h.respond(c, report)
}

// Custom returns the report of ?start=&end=
// @Router /api/v1/reports [get]
func (h *ReportHandler) Custom(c *gin.Context) {
	rawStart, rawEnd := c.Query("start"), c.Query("end")
	if rawStart == "" || rawEnd == "" {
		badRequest(c, "parâmetros start e end são obrigatórios", "formato YYYY-MM-DD")
		return
	}

	start, err := h.progress.ParseDate(rawStart)
	if err != nil {
		respondError(c, err)
		return
	}
	end, err := h.progress.ParseDate(rawEnd)
	if err != nil {
		respondError(c, err)
		return
	}

	report, err := h.progress.CustomReport(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respond(c, report)
}

func (h *ReportHandler) respond(c *gin.Context, report progress.Report) {
	if c.Query("format") == "xlsx" {
		buf, err := h.progress.ReportXLSX(c.Request.Context(), report)
		if err != nil {
			respondError(c, err)
			return
		}
		filename := fmt.Sprintf("relatorio_%s_%s.xlsx", report.Start, report.End)
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    report,
		Meta:    &model.Meta{TotalRows: len(report.Rows)},
	})
}

// Export returns every persisted record keyed by storage key
// @Router /api/v1/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	records, err := h.progress.Export(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    records,
		Meta:    &model.Meta{TotalRows: len(records)},
	})
}
