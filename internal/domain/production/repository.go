package production

import (
	"context"
	"time"

	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StageRepository persists stages
type StageRepository interface {
	// FindAll returns every stage ordered by order index
	FindAll(ctx context.Context) ([]Stage, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Stage, error)
	Save(ctx context.Context, stage *Stage) error
	Delete(ctx context.Context, id uuid.UUID) error
	// IsReferenced reports whether any frame, ledger entry, timer session or
	// time log points at the stage
	IsReferenced(ctx context.Context, id uuid.UUID) (bool, error)
	// HasFramesInProduction reports whether any frame is still in production
	HasFramesInProduction(ctx context.Context) (bool, error)
}

// BatchFilter narrows batch listings
type BatchFilter struct {
	shared.Filter
	Status   BatchStatus
	OrderBy  string
	OrderDir string
}

// BatchRepository persists batches
type BatchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	FindAll(ctx context.Context, filter BatchFilter) ([]Batch, int64, error)
	// Create inserts a new batch together with its order links
	Create(ctx context.Context, batch *Batch) error
	// Save updates status fields using optimistic locking on Version
	Save(ctx context.Context, batch *Batch) error
}

// FrameRepository persists frames
type FrameRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Frame, error)
	FindByBatch(ctx context.Context, batchID uuid.UUID) ([]Frame, error)
	FindByBatchAndStage(ctx context.Context, batchID, stageID uuid.UUID) ([]Frame, error)
	CreateBatch(ctx context.Context, frames []*Frame) error
	// Save updates a frame using optimistic locking on Version
	Save(ctx context.Context, frame *Frame) error
}

// ProgressRepository persists the (frame, stage) ledger
type ProgressRepository interface {
	Find(ctx context.Context, frameID, stageID uuid.UUID) (*StageProgress, error)
	FindByFrames(ctx context.Context, frameIDs []uuid.UUID) ([]StageProgress, error)
	Upsert(ctx context.Context, progress *StageProgress) error
}

// TimerSessionRepository persists open timer sessions
type TimerSessionRepository interface {
	FindByUser(ctx context.Context, userID uuid.UUID) (*TimerSession, error)
	FindAll(ctx context.Context) ([]TimerSession, error)
	// FindIdle returns sessions whose last activity is before cutoff
	FindIdle(ctx context.Context, cutoff time.Time) ([]TimerSession, error)
	// Create fails with CONFLICT when the user already has an open session
	Create(ctx context.Context, session *TimerSession) error
	Update(ctx context.Context, session *TimerSession) error
	// Delete fails with NOT_FOUND when the session was already closed
	Delete(ctx context.Context, id uuid.UUID) error
}

// TimeLogFilter narrows time log listings
type TimeLogFilter struct {
	UserID  *uuid.UUID
	StageID *uuid.UUID
	BatchID *uuid.UUID
	From    *time.Time
	To      *time.Time
}

// TimeLogRepository persists time logs
type TimeLogRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*TimeLogEntry, error)
	FindAll(ctx context.Context, filter TimeLogFilter) ([]TimeLogEntry, error)
	Create(ctx context.Context, entry *TimeLogEntry) error
	Save(ctx context.Context, entry *TimeLogEntry) error
}
