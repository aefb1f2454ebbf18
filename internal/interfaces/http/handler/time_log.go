package handler

import (
	productionapp "github.com/frameshop/backend/internal/application/production"
	"github.com/gin-gonic/gin"
)

// TimeLogHandler serves the time log ledger
type TimeLogHandler struct {
	BaseHandler
	timeLogService *productionapp.TimeLogService
}

// NewTimeLogHandler creates a new TimeLogHandler
func NewTimeLogHandler(timeLogService *productionapp.TimeLogService) *TimeLogHandler {
	return &TimeLogHandler{timeLogService: timeLogService}
}

// List godoc
// @Summary      List time logs
// @Description  Return time logs filtered by worker, stage, batch and completion date
// @Tags         time-logs
// @Produce      json
// @Param        user_id query string false "Worker ID" format(uuid)
// @Param        stage_id query string false "Stage ID" format(uuid)
// @Param        batch_id query string false "Batch ID" format(uuid)
// @Param        from query string false "Completed on or after (YYYY-MM-DD or RFC3339)"
// @Param        to query string false "Completed on or before (YYYY-MM-DD or RFC3339)"
// @Success      200 {object} dto.Response{data=[]productionapp.TimeLogResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/time-logs [get]
func (h *TimeLogHandler) List(c *gin.Context) {
	var filter productionapp.TimeLogListFilter
	var ok bool
	if filter.UserID, ok = h.queryUUID(c, "user_id"); !ok {
		return
	}
	if filter.StageID, ok = h.queryUUID(c, "stage_id"); !ok {
		return
	}
	if filter.BatchID, ok = h.queryUUID(c, "batch_id"); !ok {
		return
	}
	if filter.From, ok = h.queryTime(c, "from"); !ok {
		return
	}
	if filter.To, ok = h.queryTime(c, "to"); !ok {
		return
	}

	logs, err := h.timeLogService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, logs)
}

// Create godoc
// @Summary      Create manual time log
// @Description  Record work that was not timed
// @Tags         time-logs
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Acting worker ID when token auth is disabled" format(uuid)
// @Param        request body productionapp.CreateTimeLogRequest true "Time log"
// @Success      201 {object} dto.Response{data=productionapp.TimeLogResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/time-logs [post]
func (h *TimeLogHandler) Create(c *gin.Context) {
	enteredBy, ok := h.requireUser(c)
	if !ok {
		return
	}
	var req productionapp.CreateTimeLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}

	entry, err := h.timeLogService.CreateManual(c.Request.Context(), req, enteredBy)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

// Correct godoc
// @Summary      Correct time log
// @Description  Edit a time log. The first original duration is kept
// @Tags         time-logs
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Acting worker ID when token auth is disabled" format(uuid)
// @Param        id path string true "Time log ID" format(uuid)
// @Param        request body productionapp.CorrectTimeLogRequest true "Correction"
// @Success      200 {object} dto.Response{data=productionapp.TimeLogResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/time-logs/{id} [put]
func (h *TimeLogHandler) Correct(c *gin.Context) {
	editor, ok := h.requireUser(c)
	if !ok {
		return
	}
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req productionapp.CorrectTimeLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}

	entry, err := h.timeLogService.Correct(c.Request.Context(), id, req, editor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}
