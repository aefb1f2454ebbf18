package handler

import (
	productionapp "github.com/frameshop/backend/internal/application/production"
	"github.com/gin-gonic/gin"
)

// StageHandler serves the stage catalog
type StageHandler struct {
	BaseHandler
	stageService *productionapp.StageService
}

// NewStageHandler creates a new StageHandler
func NewStageHandler(stageService *productionapp.StageService) *StageHandler {
	return &StageHandler{stageService: stageService}
}

// List godoc
// @Summary      List stages
// @Description  Return every stage in workflow order with its work and final stage flags
// @Tags         stages
// @Produce      json
// @Success      200 {object} dto.Response{data=[]productionapp.StageResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/stages [get]
func (h *StageHandler) List(c *gin.Context) {
	stages, err := h.stageService.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stages)
}

// Create godoc
// @Summary      Create stage
// @Description  Add a stage. Orders of work stages must stay contiguous from 1 and cannot change while frames are in production
// @Tags         stages
// @Accept       json
// @Produce      json
// @Param        request body productionapp.CreateStageRequest true "Stage"
// @Success      201 {object} dto.Response{data=productionapp.StageResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/stages [post]
func (h *StageHandler) Create(c *gin.Context) {
	var req productionapp.CreateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}

	stage, err := h.stageService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, stage)
}

// Update godoc
// @Summary      Update stage
// @Description  Rename, recolor or reorder a stage. Reordering follows the same rules as creating
// @Tags         stages
// @Accept       json
// @Produce      json
// @Param        id path string true "Stage ID" format(uuid)
// @Param        request body productionapp.UpdateStageRequest true "Changes"
// @Success      200 {object} dto.Response{data=productionapp.StageResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/stages/{id} [put]
func (h *StageHandler) Update(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req productionapp.UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}

	stage, err := h.stageService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stage)
}

// Delete godoc
// @Summary      Delete stage
// @Description  Remove a stage without production history, keeping the remaining orders contiguous
// @Tags         stages
// @Produce      json
// @Param        id path string true "Stage ID" format(uuid)
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/stages/{id} [delete]
func (h *StageHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.stageService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
