package production

import (
	"time"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StageResponse represents a stage in API responses
type StageResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Order       int       `json:"order"`
	Color       string    `json:"color"`
	IsWorkStage bool      `json:"is_work_stage"`
	IsTerminal  bool      `json:"is_terminal"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateStageRequest represents a request to add a stage
type CreateStageRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Order int    `json:"order" binding:"min=0"`
	Color string `json:"color" binding:"omitempty,hexcolor"`
}

// UpdateStageRequest represents a partial stage update
type UpdateStageRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=100"`
	Order *int    `json:"order" binding:"omitempty,min=0"`
	Color *string `json:"color" binding:"omitempty,hexcolor"`
}

// TimerResponse is a snapshot of a worker's timer taken at fetch time
type TimerResponse struct {
	SessionID          *uuid.UUID            `json:"session_id,omitempty"`
	UserID             uuid.UUID             `json:"user_id"`
	StageID            *uuid.UUID            `json:"stage_id,omitempty"`
	StageName          string                `json:"stage_name,omitempty"`
	BatchID            *uuid.UUID            `json:"batch_id,omitempty"`
	State              production.TimerState `json:"state"`
	StartedAt          *time.Time            `json:"started_at,omitempty"`
	IsPaused           bool                  `json:"is_paused"`
	AccumulatedMinutes float64               `json:"accumulated_minutes"`
	ElapsedSeconds     int64                 `json:"elapsed_seconds"`
	LastActivityAt     *time.Time            `json:"last_activity_at,omitempty"`
	ServerTime         time.Time             `json:"server_time"`
}

// ActiveWorkerResponse is one worker with an open timer
type ActiveWorkerResponse struct {
	UserID             uuid.UUID  `json:"user_id"`
	UserName           string     `json:"user_name"`
	BatchID            *uuid.UUID `json:"batch_id,omitempty"`
	StartedAt          time.Time  `json:"started_at"`
	IsPaused           bool       `json:"is_paused"`
	AccumulatedMinutes float64    `json:"accumulated_minutes"`
	ElapsedSeconds     int64      `json:"elapsed_seconds"`
}

// StopTimerRequest carries the item counts reported when stopping a timer
type StopTimerRequest struct {
	ItemsProcessed int `form:"items_processed" binding:"min=0"`
	ItemsRejected  int `form:"items_rejected" binding:"min=0"`
}

// TimeLogResponse represents a time log in API responses
type TimeLogResponse struct {
	ID                      uuid.UUID  `json:"id"`
	UserID                  uuid.UUID  `json:"user_id"`
	StageID                 uuid.UUID  `json:"stage_id"`
	BatchID                 *uuid.UUID `json:"batch_id,omitempty"`
	SessionID               *uuid.UUID `json:"session_id,omitempty"`
	DurationMinutes         float64    `json:"duration_minutes"`
	ItemsProcessed          int        `json:"items_processed"`
	ItemsRejected           int        `json:"items_rejected"`
	ItemsPerHour            float64    `json:"items_per_hour"`
	CompletedAt             time.Time  `json:"completed_at"`
	ManualEntry             bool       `json:"manual_entry"`
	EditedAt                *time.Time `json:"edited_at,omitempty"`
	EditedBy                *uuid.UUID `json:"edited_by,omitempty"`
	OriginalDurationMinutes *float64   `json:"original_duration_minutes,omitempty"`
	AdminNotes              string     `json:"admin_notes,omitempty"`
}

// TimeLogListFilter represents filter options for time log listings
type TimeLogListFilter struct {
	UserID  *uuid.UUID `form:"user_id"`
	StageID *uuid.UUID `form:"stage_id"`
	BatchID *uuid.UUID `form:"batch_id"`
	From    *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To      *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// CreateTimeLogRequest represents a manual time entry
type CreateTimeLogRequest struct {
	UserID          uuid.UUID  `json:"user_id" binding:"required"`
	StageID         uuid.UUID  `json:"stage_id" binding:"required"`
	BatchID         *uuid.UUID `json:"batch_id"`
	DurationMinutes float64    `json:"duration_minutes" binding:"gt=0,lte=1440"`
	ItemsProcessed  int        `json:"items_processed" binding:"min=0"`
	ItemsRejected   int        `json:"items_rejected" binding:"min=0"`
	CompletedAt     *time.Time `json:"completed_at"`
	Notes           string     `json:"notes" binding:"max=500"`
}

// CorrectTimeLogRequest represents an authorized edit of a time log
type CorrectTimeLogRequest struct {
	DurationMinutes *float64 `json:"duration_minutes" binding:"omitempty,min=0,lte=1440"`
	ItemsProcessed  *int     `json:"items_processed" binding:"omitempty,min=0"`
	ItemsRejected   *int     `json:"items_rejected" binding:"omitempty,min=0"`
	AdminNotes      string   `json:"admin_notes" binding:"required,max=500"`
}

// CreateBatchRequest represents a request to build a batch from orders
type CreateBatchRequest struct {
	Name     string      `json:"name" binding:"required,max=200"`
	OrderIDs []uuid.UUID `json:"order_ids"`
}

// BatchListFilter represents filter options for batch listings
type BatchListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=ACTIVE COMPLETED ARCHIVED"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// BatchResponse represents a batch in API responses
type BatchResponse struct {
	ID                uuid.UUID   `json:"id"`
	Name              string      `json:"name"`
	OrderIDs          []uuid.UUID `json:"order_ids"`
	Status            string      `json:"status"`
	CreatedBy         uuid.UUID   `json:"created_by"`
	FrameCount        int         `json:"frame_count"`
	TotalRequired     int         `json:"total_required"`
	FramesInInventory int         `json:"frames_in_inventory"`
	CompletedAt       *time.Time  `json:"completed_at,omitempty"`
	ArchivedAt        *time.Time  `json:"archived_at,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
	Version           int         `json:"version"`
}

// FrameResponse is a frame with the ledger entry of its current stage
type FrameResponse struct {
	ID               uuid.UUID  `json:"id"`
	BatchID          uuid.UUID  `json:"batch_id"`
	Size             string     `json:"size"`
	Color            string     `json:"color"`
	QtyRequired      int        `json:"qty_required"`
	QtyCompleted     int        `json:"qty_completed"`
	QtyRejected      int        `json:"qty_rejected"`
	IsComplete       bool       `json:"is_complete"`
	RejectionRate    float64    `json:"rejection_rate"`
	CurrentStageID   uuid.UUID  `json:"current_stage_id"`
	CurrentStageName string     `json:"current_stage_name"`
	Status           string     `json:"status"`
	QtyGood          int        `json:"qty_good,omitempty"`
	InventoriedAt    *time.Time `json:"inventoried_at,omitempty"`
	Version          int        `json:"version"`
}

// SizeGroup is the subtotal of all frames of one size
type SizeGroup struct {
	Size           string          `json:"size"`
	Frames         []FrameResponse `json:"frames"`
	TotalRequired  int             `json:"total_required"`
	TotalCompleted int             `json:"total_completed"`
}

// FramesResponse is the frame listing of a batch
type FramesResponse struct {
	BatchID             uuid.UUID       `json:"batch_id"`
	StageID             *uuid.UUID      `json:"stage_id,omitempty"`
	Frames              []FrameResponse `json:"frames"`
	SizeGroups          []SizeGroup     `json:"size_groups"`
	GrandTotalRequired  int             `json:"grand_total_required"`
	GrandTotalCompleted int             `json:"grand_total_completed"`
}

// SetProgressCommand records progress on a frame's current stage
type SetProgressCommand struct {
	BatchID      uuid.UUID
	FrameID      uuid.UUID
	UserID       uuid.UUID
	QtyCompleted int
	QtyRejected  *int
}

// MoveFrameCommand advances a frame to the next stage
type MoveFrameCommand struct {
	BatchID       uuid.UUID
	FrameID       uuid.UUID
	TargetStageID uuid.UUID
	UserID        uuid.UUID
}

// MoveResult is the outcome of a single-frame transition
type MoveResult struct {
	Frame       FrameResponse `json:"frame"`
	FromStageID uuid.UUID     `json:"from_stage_id"`
	ToStageID   *uuid.UUID    `json:"to_stage_id,omitempty"`
	ReceiptID   *uuid.UUID    `json:"receipt_id,omitempty"`
	BatchStatus string        `json:"batch_status"`
	Message     string        `json:"message"`
}

// MoveFailure is a frame a bulk move could not move
type MoveFailure struct {
	FrameID uuid.UUID `json:"frame_id"`
	Size    string    `json:"size"`
	Color   string    `json:"color"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// BulkMoveResult is the outcome of a bulk transition. Each frame moves
// independently; failures are reported alongside the successes.
type BulkMoveResult struct {
	MovedCount   int           `json:"moved_count"`
	SkippedCount int           `json:"skipped_count"`
	Failures     []MoveFailure `json:"failures"`
	BatchStatus  string        `json:"batch_status"`
	Message      string        `json:"message"`
}

// StageStats is the frame distribution at one stage of a batch
type StageStats struct {
	StageID        uuid.UUID `json:"stage_id"`
	StageName      string    `json:"stage_name"`
	Order          int       `json:"order"`
	FrameCount     int       `json:"frame_count"`
	CompleteFrames int       `json:"complete_frames"`
	QtyRequired    int       `json:"qty_required"`
	QtyCompleted   int       `json:"qty_completed"`
	QtyRejected    int       `json:"qty_rejected"`
	ActiveWorkers  int       `json:"active_workers"`
}

// BatchStatsResponse is the live state of a batch
type BatchStatsResponse struct {
	BatchID           uuid.UUID    `json:"batch_id"`
	Status            string       `json:"status"`
	TotalFrames       int          `json:"total_frames"`
	TotalRequired     int          `json:"total_required"`
	FramesInInventory int          `json:"frames_in_inventory"`
	UnitsInInventory  int          `json:"units_in_inventory"`
	ActiveWorkers     int          `json:"active_workers"`
	TotalHours        float64      `json:"total_hours"`
	Stages            []StageStats `json:"stages"`
}

// WorkerBreakdown is one worker's share of a batch
type WorkerBreakdown struct {
	UserID         uuid.UUID       `json:"user_id"`
	UserName       string          `json:"user_name"`
	Hours          float64         `json:"hours"`
	LaborCost      decimal.Decimal `json:"labor_cost"`
	ItemsProcessed int             `json:"items_processed"`
	ItemsRejected  int             `json:"items_rejected"`
	ItemsPerHour   float64         `json:"items_per_hour"`
	OpenSession    bool            `json:"open_session"`
}

// StageBreakdown is one stage's share of a batch or of all logged work
type StageBreakdown struct {
	StageID           uuid.UUID       `json:"stage_id"`
	StageName         string          `json:"stage_name"`
	Order             int             `json:"order"`
	Hours             float64         `json:"hours"`
	LaborCost         decimal.Decimal `json:"labor_cost"`
	ItemsProcessed    int             `json:"items_processed"`
	ItemsRejected     int             `json:"items_rejected"`
	AvgMinutesPerItem float64         `json:"avg_minutes_per_item"`
	ItemsPerHour      float64         `json:"items_per_hour"`
	LogCount          int             `json:"log_count"`
}

// BatchReportResponse is the cost and throughput report of a batch
type BatchReportResponse struct {
	BatchID             uuid.UUID         `json:"batch_id"`
	BatchName           string            `json:"batch_name"`
	TotalHours          float64           `json:"total_hours"`
	LiveHours           float64           `json:"live_hours"`
	TotalLaborCost      decimal.Decimal   `json:"total_labor_cost"`
	CompletedUnits      int               `json:"completed_units"`
	RejectedUnits       int               `json:"rejected_units"`
	AvgCostPerCompleted decimal.Decimal   `json:"avg_cost_per_completed"`
	RejectionRate       float64           `json:"rejection_rate"`
	ItemsPerHour        float64           `json:"items_per_hour"`
	Workers             []WorkerBreakdown `json:"workers"`
	Stages              []StageBreakdown  `json:"stages"`
	OpenSessions        int               `json:"open_sessions"`
	GeneratedAt         time.Time         `json:"generated_at"`
}

// StageReportFilter bounds a stage report by completion time
type StageReportFilter struct {
	From *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To   *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

// StageReportResponse totals logged work per stage
type StageReportResponse struct {
	From       *time.Time       `json:"from,omitempty"`
	To         *time.Time       `json:"to,omitempty"`
	Stages     []StageBreakdown `json:"stages"`
	TotalHours float64          `json:"total_hours"`
}

// ToStageResponse converts a stage to a response
func ToStageResponse(s production.Stage, registry *production.StageRegistry) StageResponse {
	return StageResponse{
		ID:          s.ID,
		Name:        s.Name,
		Order:       s.Order,
		Color:       s.Color,
		IsWorkStage: s.IsWorkStage(),
		IsTerminal:  registry != nil && registry.IsTerminal(s.ID),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ToTimerResponse converts an open session to a snapshot at now
func ToTimerResponse(s *production.TimerSession, stageName string, now time.Time) TimerResponse {
	sessionID, stageID := s.ID, s.StageID
	startedAt, lastActivity := s.StartedAt, s.LastActivityAt
	return TimerResponse{
		SessionID:          &sessionID,
		UserID:             s.UserID,
		StageID:            &stageID,
		StageName:          stageName,
		BatchID:            s.BatchID,
		State:              s.State(),
		StartedAt:          &startedAt,
		IsPaused:           s.IsPaused,
		AccumulatedMinutes: round2(s.Accumulated.Minutes()),
		ElapsedSeconds:     int64(s.Elapsed(now).Seconds()),
		LastActivityAt:     &lastActivity,
		ServerTime:         now,
	}
}

// NoTimerResponse is the snapshot of a worker without an open session
func NoTimerResponse(userID uuid.UUID, now time.Time) TimerResponse {
	return TimerResponse{UserID: userID, State: production.TimerStateNone, ServerTime: now}
}

// ToTimeLogResponse converts a time log to a response
func ToTimeLogResponse(e *production.TimeLogEntry) TimeLogResponse {
	resp := TimeLogResponse{
		ID:              e.ID,
		UserID:          e.UserID,
		StageID:         e.StageID,
		BatchID:         e.BatchID,
		SessionID:       e.SessionID,
		DurationMinutes: round2(e.DurationMinutes()),
		ItemsProcessed:  e.ItemsProcessed,
		ItemsRejected:   e.ItemsRejected,
		ItemsPerHour:    round2(e.ItemsPerHour()),
		CompletedAt:     e.CompletedAt,
		ManualEntry:     e.ManualEntry,
		EditedAt:        e.EditedAt,
		EditedBy:        e.EditedBy,
		AdminNotes:      e.AdminNotes,
	}
	if e.OriginalDuration != nil {
		original := round2(e.OriginalDuration.Minutes())
		resp.OriginalDurationMinutes = &original
	}
	return resp
}

// ToBatchResponse converts a batch and its frames to a response
func ToBatchResponse(b *production.Batch, frames []production.Frame) BatchResponse {
	resp := BatchResponse{
		ID:          b.ID,
		Name:        b.Name,
		OrderIDs:    b.OrderIDs,
		Status:      b.Status.String(),
		CreatedBy:   b.CreatedBy,
		FrameCount:  len(frames),
		CompletedAt: b.CompletedAt,
		ArchivedAt:  b.ArchivedAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
		Version:     b.Version,
	}
	if resp.OrderIDs == nil {
		resp.OrderIDs = []uuid.UUID{}
	}
	for _, f := range frames {
		resp.TotalRequired += f.QtyRequired
		if f.IsInInventory() {
			resp.FramesInInventory++
		}
	}
	return resp
}

// ToFrameResponse converts a frame and the ledger entry of its current stage
func ToFrameResponse(f *production.Frame, p *production.StageProgress, stageName string) FrameResponse {
	resp := FrameResponse{
		ID:               f.ID,
		BatchID:          f.BatchID,
		Size:             f.Size,
		Color:            f.Color,
		QtyRequired:      f.QtyRequired,
		CurrentStageID:   f.CurrentStageID,
		CurrentStageName: stageName,
		Status:           f.Status.String(),
		QtyGood:          f.QtyGood,
		InventoriedAt:    f.InventoriedAt,
		Version:          f.Version,
	}
	if p != nil {
		resp.QtyCompleted = p.QtyCompleted
		resp.QtyRejected = p.QtyRejected
		resp.IsComplete = p.IsComplete(f.QtyRequired)
		resp.RejectionRate = round2(p.RejectionRate() * 100)
	}
	return resp
}
