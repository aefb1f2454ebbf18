package handler

import (
	productionapp "github.com/frameshop/backend/internal/application/production"
	"github.com/gin-gonic/gin"
)

// BatchHandler serves production batches
type BatchHandler struct {
	BaseHandler
	batchService *productionapp.BatchService
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(batchService *productionapp.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

// Create godoc
// @Summary      Create batch
// @Description  Build a batch from sales orders, aggregating their lines into frames at the first work stage
// @Tags         batches
// @Accept       json
// @Produce      json
// @Param        X-User-ID header string false "Acting worker ID when token auth is disabled" format(uuid)
// @Param        request body productionapp.CreateBatchRequest true "Batch"
// @Success      201 {object} dto.Response{data=productionapp.BatchResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/batches [post]
func (h *BatchHandler) Create(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	var req productionapp.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFailed(c, err)
		return
	}

	batch, err := h.batchService.Create(c.Request.Context(), req, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, batch)
}

// List godoc
// @Summary      List batches
// @Description  Return a page of batches
// @Tags         batches
// @Produce      json
// @Param        status query string false "Batch status" Enums(ACTIVE, COMPLETED, ARCHIVED)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]productionapp.BatchResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/batches [get]
func (h *BatchHandler) List(c *gin.Context) {
	var filter productionapp.BatchListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.bindFailed(c, err)
		return
	}

	page, err := h.batchService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get godoc
// @Summary      Get batch
// @Description  Return one batch
// @Tags         batches
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} dto.Response{data=productionapp.BatchResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/batches/{id} [get]
func (h *BatchHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	batch, err := h.batchService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// Archive godoc
// @Summary      Archive batch
// @Description  Close a batch to further work
// @Tags         batches
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} dto.Response{data=productionapp.BatchResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/batches/{id}/archive [post]
func (h *BatchHandler) Archive(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	batch, err := h.batchService.Archive(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// ListFrames godoc
// @Summary      List batch frames
// @Description  Return the batch's frames grouped by size with grand totals, optionally only those at one stage
// @Tags         batches
// @Produce      json
// @Param        id path string true "Batch ID" format(uuid)
// @Param        stage_id query string false "Stage ID" format(uuid)
// @Success      200 {object} dto.Response{data=productionapp.FramesResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/batches/{id}/frames [get]
func (h *BatchHandler) ListFrames(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	stageID, ok := h.queryUUID(c, "stage_id")
	if !ok {
		return
	}

	frames, err := h.batchService.ListFrames(c.Request.Context(), id, stageID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, frames)
}
