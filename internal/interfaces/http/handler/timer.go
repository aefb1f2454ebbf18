package handler

import (
	productionapp "github.com/frameshop/backend/internal/application/production"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TimerHandler serves the worker's stage timer
type TimerHandler struct {
	BaseHandler
	timerService *productionapp.TimerService
}

// NewTimerHandler creates a new TimerHandler
func NewTimerHandler(timerService *productionapp.TimerService) *TimerHandler {
	return &TimerHandler{timerService: timerService}
}

// actorAndStage resolves the acting worker and the :id stage
func (h *TimerHandler) actorAndStage(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := h.requireUser(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	stageID, ok := h.pathUUID(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return userID, stageID, true
}

// Start godoc
// @Summary      Start timer
// @Description  Open a running timer for the acting worker on a work stage
// @Tags         timers
// @Produce      json
// @Param        X-User-ID header string false "Acting worker ID when token auth is disabled" format(uuid)
// @Param        id path string true "Stage ID" format(uuid)
// @Param        batch_id query string false "Batch worked on" format(uuid)
// @Success      201 {object} dto.Response{data=productionapp.TimerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/stages/{id}/start-timer [post]
func (h *TimerHandler) Start(c *gin.Context) {
	userID, stageID, ok := h.actorAndStage(c)
	if !ok {
		return
	}
	batchID, ok := h.queryUUID(c, "batch_id")
	if !ok {
		return
	}

	timer, err := h.timerService.Start(c.Request.Context(), userID, stageID, batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, timer)
}

// Pause godoc
// @Summary      Pause timer
// @Description  Freeze the acting worker's running timer on the stage
// @Tags         timers
// @Produce      json
// @Param        X-User-ID header string false "Acting worker ID when token auth is disabled" format(uuid)
// @Param        id path string true "Stage ID" format(uuid)
// @Success      200 {object} dto.Response{data=productionapp.TimerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      410 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/stages/{id}/pause-timer [post]
func (h *TimerHandler) Pause(c *gin.Context) {
	userID, stageID, ok := h.actorAndStage(c)
	if !ok {
		return
	}
	timer, err := h.timerService.Pause(c.Request.Context(), userID, stageID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, timer)
}

// Resume godoc
// @Summary      Resume timer
// @Description  Restart the acting worker's paused timer on the stage
// @Tags         timers
// @Produce      json
// @Param        X-User-ID header string false "Acting worker ID when token auth is disabled" format(uuid)
// @Param        id path string true "Stage ID" format(uuid)
// @Success      200 {object} dto.Response{data=productionapp.TimerResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      410 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/stages/{id}/resume-timer [post]
func (h *TimerHandler) Resume(c *gin.Context) {
	userID, stageID, ok := h.actorAndStage(c)
	if !ok {
		return
	}
	timer, err := h.timerService.Resume(c.Request.Context(), userID, stageID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, timer)
}

// Stop godoc
// @Summary      Stop timer
// @Description  Close the acting worker's timer into a time log
// @Tags         timers
// @Produce      json
// @Param        X-User-ID header string false "Acting worker ID when token auth is disabled" format(uuid)
// @Param        id path string true "Stage ID" format(uuid)
// @Param        items_processed query int false "Units processed" minimum(0)
// @Param        items_rejected query int false "Units rejected" minimum(0)
// @Success      200 {object} dto.Response{data=productionapp.TimeLogResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      410 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/stages/{id}/stop-timer [post]
func (h *TimerHandler) Stop(c *gin.Context) {
	userID, stageID, ok := h.actorAndStage(c)
	if !ok {
		return
	}
	var req productionapp.StopTimerRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.bindFailed(c, err)
		return
	}

	entry, err := h.timerService.Stop(c.Request.Context(), userID, stageID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// MyTimer godoc
// @Summary      Get my timer
// @Description  Return the acting worker's timer snapshot, or state NONE
// @Tags         timers
// @Produce      json
// @Param        X-User-ID header string false "Acting worker ID when token auth is disabled" format(uuid)
// @Success      200 {object} dto.Response{data=productionapp.TimerResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/stages/my-timer [get]
func (h *TimerHandler) MyTimer(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	timer, err := h.timerService.MyTimer(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, timer)
}

// ActiveWorkers godoc
// @Summary      List active workers
// @Description  Return open timers grouped by work stage ID
// @Tags         timers
// @Produce      json
// @Success      200 {object} dto.Response{data=map[string][]productionapp.ActiveWorkerResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/stages/active-workers [get]
func (h *TimerHandler) ActiveWorkers(c *gin.Context) {
	workers, err := h.timerService.ActiveWorkers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, workers)
}
