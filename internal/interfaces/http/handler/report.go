package handler

import (
	productionapp "github.com/frameshop/backend/internal/application/production"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves batch statistics and labor reports
type ReportHandler struct {
	BaseHandler
	reportService *productionapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *productionapp.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// BatchStats godoc
// @Summary      Get batch statistics
// @Description  Return the live frame distribution and totals of a batch
// @Tags         reports
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} dto.Response{data=productionapp.BatchStatsResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/batches/{id}/stats [get]
func (h *ReportHandler) BatchStats(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	stats, err := h.reportService.BatchStats(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// BatchReport godoc
// @Summary      Get batch report
// @Description  Return hours, labor cost and yield of a batch
// @Tags         reports
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} dto.Response{data=productionapp.BatchReportResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/batches/{id}/report [get]
func (h *ReportHandler) BatchReport(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	report, err := h.reportService.BatchReport(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// StageReport godoc
// @Summary      Get stage report
// @Description  Return logged work per stage, optionally within a date range
// @Tags         reports
// @Produce      json
// @Param        from query string false "From date (YYYY-MM-DD or RFC3339)"
// @Param        to query string false "To date (YYYY-MM-DD or RFC3339)"
// @Success      200 {object} dto.Response{data=productionapp.StageReportResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/stages/report [get]
func (h *ReportHandler) StageReport(c *gin.Context) {
	var filter productionapp.StageReportFilter
	var ok bool
	if filter.From, ok = h.queryTime(c, "from"); !ok {
		return
	}
	if filter.To, ok = h.queryTime(c, "to"); !ok {
		return
	}

	report, err := h.reportService.StageReport(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
