package router

import (
	"github.com/frameshop/backend/internal/infrastructure/auth"
	"github.com/frameshop/backend/internal/interfaces/http/handler"
	"github.com/frameshop/backend/internal/interfaces/http/middleware"
)

// ProductionHandlers are the handlers mounted under /production
type ProductionHandlers struct {
	Stages   *handler.StageHandler
	Timers   *handler.TimerHandler
	TimeLogs *handler.TimeLogHandler
	Batches  *handler.BatchHandler
	Frames   *handler.FrameHandler
	Reports  *handler.ReportHandler
}

// NewProductionGroup lays out the production API. Catalog edits, manual time
// entries and batch lifecycle changes need a supervisor or admin token.
func NewProductionGroup(h ProductionHandlers) *DomainGroup {
	manage := middleware.RequireRole(auth.RoleSupervisor, auth.RoleAdmin)
	g := NewDomainGroup("production", "/production")

	stages := g.Group("stages", "/stages")
	stages.GET("", h.Stages.List)
	stages.POST("", manage, h.Stages.Create)
	stages.PUT("/:id", manage, h.Stages.Update)
	stages.DELETE("/:id", manage, h.Stages.Delete)
	stages.GET("/active-workers", h.Timers.ActiveWorkers)
	stages.GET("/my-timer", h.Timers.MyTimer)
	stages.GET("/report", h.Reports.StageReport)
	stages.POST("/:id/start-timer", h.Timers.Start)
	stages.POST("/:id/pause-timer", h.Timers.Pause)
	stages.POST("/:id/resume-timer", h.Timers.Resume)
	stages.POST("/:id/stop-timer", h.Timers.Stop)

	logs := g.Group("time-logs", "/time-logs")
	logs.GET("", h.TimeLogs.List)
	logs.POST("", manage, h.TimeLogs.Create)
	logs.PUT("/:id", manage, h.TimeLogs.Correct)

	batches := g.Group("batches", "/batches")
	batches.POST("", manage, h.Batches.Create)
	batches.GET("", h.Batches.List)
	batches.GET("/:id", h.Batches.Get)
	batches.POST("/:id/archive", manage, h.Batches.Archive)
	batches.GET("/:id/frames", h.Batches.ListFrames)
	batches.PUT("/:id/frames/:frame_id", h.Frames.SetProgress)
	batches.POST("/:id/frames/:frame_id/move", h.Frames.Move)
	batches.POST("/:id/frames/move-all", h.Frames.MoveAll)
	batches.POST("/:id/frames/:frame_id/to-inventory", h.Frames.ToInventory)
	batches.POST("/:id/frames/all-to-inventory", h.Frames.AllToInventory)
	batches.GET("/:id/stats", h.Reports.BatchStats)
	batches.GET("/:id/report", h.Reports.BatchReport)

	return g
}

// NewSystemGroup exposes /system/ping under the API prefix
func NewSystemGroup(h *handler.SystemHandler) *DomainGroup {
	return NewDomainGroup("system", "/system").GET("/ping", h.Ping)
}
