package handler

import (
	productionapp "github.com/frameshop/backend/internal/application/production"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FrameHandler records progress on frames and moves them through the workflow
type FrameHandler struct {
	BaseHandler
	progressService   *productionapp.ProgressService
	transitionService *productionapp.TransitionService
}

// NewFrameHandler creates a new FrameHandler
func NewFrameHandler(progressService *productionapp.ProgressService, transitionService *productionapp.TransitionService) *FrameHandler {
	return &FrameHandler{
		progressService:   progressService,
		transitionService: transitionService,
	}
}

// SetProgressQuery carries the counts of PUT /batches/:id/frames/:frame_id
type SetProgressQuery struct {
	QtyCompleted *int `form:"qty_completed" binding:"required,min=0"`
	QtyRejected  *int `form:"qty_rejected" binding:"omitempty,min=0"`
}

type frameTarget struct {
	userID  uuid.UUID
	batchID uuid.UUID
	frameID uuid.UUID
}

// target resolves the acting worker, :id and :frame_id
func (h *FrameHandler) target(c *gin.Context, withFrame bool) (frameTarget, bool) {
	var t frameTarget
	var ok bool
	if t.userID, ok = h.requireUser(c); !ok {
		return t, false
	}
	if t.batchID, ok = h.pathUUID(c, "id"); !ok {
		return t, false
	}
	if withFrame {
		if t.frameID, ok = h.pathUUID(c, "frame_id"); !ok {
			return t, false
		}
	}
	return t, true
}

// SetProgress godoc
// @Summary      Set frame progress
// @Description  Overwrite the completed and rejected counts at the frame's current stage. Requires a running timer on that stage
// @Tags         frames
// @Produce      json
// @Param        X-User-ID header string false "Acting worker ID when token auth is disabled" format(uuid)
// @Param        id path string true "Batch ID" format(uuid)
// @Param        frame_id path string true "Frame ID" format(uuid)
// @Param        qty_completed query int true "Units completed" minimum(0)
// @Param        qty_rejected query int false "Units rejected, final stage only" minimum(0)
// @Success      200 {object} dto.Response{data=productionapp.FrameResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      410 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/batches/{id}/frames/{frame_id} [put]
func (h *FrameHandler) SetProgress(c *gin.Context) {
	t, ok := h.target(c, true)
	if !ok {
		return
	}
	var q SetProgressQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.bindFailed(c, err)
		return
	}

	frame, err := h.progressService.SetProgress(c.Request.Context(), productionapp.SetProgressCommand{
		BatchID:      t.batchID,
		FrameID:      t.frameID,
		UserID:       t.userID,
		QtyCompleted: *q.QtyCompleted,
		QtyRejected:  q.QtyRejected,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, frame)
}

// Move godoc
// @Summary      Move frame
// @Description  Advance one complete frame to the next stage
// @Tags         frames
// @Produce      json
// @Param        X-User-ID header string false "Acting worker ID when token auth is disabled" format(uuid)
// @Param        id path string true "Batch ID" format(uuid)
// @Param        frame_id path string true "Frame ID" format(uuid)
// @Param        target_stage_id query string true "Next stage ID" format(uuid)
// @Success      200 {object} dto.Response{data=productionapp.MoveResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      410 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/batches/{id}/frames/{frame_id}/move [post]
func (h *FrameHandler) Move(c *gin.Context) {
	t, ok := h.target(c, true)
	if !ok {
		return
	}
	targetID, ok := h.requiredQueryUUID(c, "target_stage_id")
	if !ok {
		return
	}

	result, err := h.transitionService.MoveFrame(c.Request.Context(), productionapp.MoveFrameCommand{
		BatchID:       t.batchID,
		FrameID:       t.frameID,
		TargetStageID: targetID,
		UserID:        t.userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// MoveAll godoc
// @Summary      Move all completed frames
// @Description  Advance every complete frame at a stage. Failures are collected per frame
// @Tags         frames
// @Produce      json
// @Param        X-User-ID header string false "Acting worker ID when token auth is disabled" format(uuid)
// @Param        id path string true "Batch ID" format(uuid)
// @Param        from_stage_id query string true "Source stage ID" format(uuid)
// @Success      200 {object} dto.Response{data=productionapp.BulkMoveResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      410 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/batches/{id}/frames/move-all [post]
func (h *FrameHandler) MoveAll(c *gin.Context) {
	t, ok := h.target(c, false)
	if !ok {
		return
	}
	fromID, ok := h.requiredQueryUUID(c, "from_stage_id")
	if !ok {
		return
	}

	result, err := h.transitionService.MoveAllCompleted(c.Request.Context(), t.batchID, fromID, t.userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ToInventory godoc
// @Summary      Move frame to inventory
// @Description  Hand a frame's good units at the final stage over to inventory
// @Tags         frames
// @Produce      json
// @Param        X-User-ID header string false "Acting worker ID when token auth is disabled" format(uuid)
// @Param        id path string true "Batch ID" format(uuid)
// @Param        frame_id path string true "Frame ID" format(uuid)
// @Success      200 {object} dto.Response{data=productionapp.MoveResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      410 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/batches/{id}/frames/{frame_id}/to-inventory [post]
func (h *FrameHandler) ToInventory(c *gin.Context) {
	t, ok := h.target(c, true)
	if !ok {
		return
	}

	result, err := h.transitionService.MoveToInventory(c.Request.Context(), productionapp.MoveFrameCommand{
		BatchID: t.batchID,
		FrameID: t.frameID,
		UserID:  t.userID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// AllToInventory godoc
// @Summary      Move all frames to inventory
// @Description  Hand every eligible frame at the final stage over to inventory
// @Tags         frames
// @Produce      json
// @Param        X-User-ID header string false "Acting worker ID when token auth is disabled" format(uuid)
// @Param        id path string true "Batch ID" format(uuid)
// @Success      200 {object} dto.Response{data=productionapp.BulkMoveResult}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      410 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      500 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /production/batches/{id}/frames/all-to-inventory [post]
func (h *FrameHandler) AllToInventory(c *gin.Context) {
	t, ok := h.target(c, false)
	if !ok {
		return
	}

	result, err := h.transitionService.MoveAllToInventory(c.Request.Context(), t.batchID, t.userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
