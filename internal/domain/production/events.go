package production

import (
	"time"

	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Aggregate type constants
const (
	AggregateTypeBatch        = "Batch"
	AggregateTypeFrame        = "Frame"
	AggregateTypeTimerSession = "TimerSession"
)

// Event type constants
const (
	EventTypeBatchCreated          = "BatchCreated"
	EventTypeTimerStarted          = "TimerStarted"
	EventTypeTimerPaused           = "TimerPaused"
	EventTypeTimerResumed          = "TimerResumed"
	EventTypeTimerStopped          = "TimerStopped"
	EventTypeTimerExpired          = "TimerExpired"
	EventTypeFrameProgressRecorded = "FrameProgressRecorded"
	EventTypeFrameMoved            = "FrameMoved"
	EventTypeFrameMovedToInventory = "FrameMovedToInventory"
)

// BatchCreatedEvent is raised when a batch and its frames are created
type BatchCreatedEvent struct {
	shared.BaseDomainEvent
	BatchID       uuid.UUID `json:"batch_id"`
	Name          string    `json:"name"`
	OrderCount    int       `json:"order_count"`
	FrameCount    int       `json:"frame_count"`
	TotalRequired int       `json:"total_required"`
}

// NewBatchCreatedEvent creates a new BatchCreatedEvent
func NewBatchCreatedEvent(b *Batch, frameCount, totalRequired int) *BatchCreatedEvent {
	return &BatchCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBatchCreated, AggregateTypeBatch, b.ID, b.CreatedAt),
		BatchID:         b.ID,
		Name:            b.Name,
		OrderCount:      len(b.OrderIDs),
		FrameCount:      frameCount,
		TotalRequired:   totalRequired,
	}
}

// TimerEvent is raised on every timer state change
type TimerEvent struct {
	shared.BaseDomainEvent
	SessionID uuid.UUID     `json:"session_id"`
	UserID    uuid.UUID     `json:"user_id"`
	StageID   uuid.UUID     `json:"stage_id"`
	BatchID   *uuid.UUID    `json:"batch_id,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}

// NewTimerEvent creates a timer event of the given type
func NewTimerEvent(eventType string, s *TimerSession, at time.Time) *TimerEvent {
	return &TimerEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeTimerSession, s.ID, at),
		SessionID:       s.ID,
		UserID:          s.UserID,
		StageID:         s.StageID,
		BatchID:         s.BatchID,
		Elapsed:         s.Elapsed(at),
	}
}

// TimerClosedEvent is raised when a session is stopped or expires
type TimerClosedEvent struct {
	shared.BaseDomainEvent
	SessionID      uuid.UUID     `json:"session_id"`
	LogID          uuid.UUID     `json:"log_id"`
	UserID         uuid.UUID     `json:"user_id"`
	StageID        uuid.UUID     `json:"stage_id"`
	BatchID        *uuid.UUID    `json:"batch_id,omitempty"`
	Duration       time.Duration `json:"duration"`
	ItemsProcessed int           `json:"items_processed"`
	ItemsRejected  int           `json:"items_rejected"`
}

// NewTimerClosedEvent creates a TimerStopped or TimerExpired event
func NewTimerClosedEvent(eventType string, s *TimerSession, entry *TimeLogEntry) *TimerClosedEvent {
	return &TimerClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeTimerSession, s.ID, entry.CompletedAt),
		SessionID:       s.ID,
		LogID:           entry.ID,
		UserID:          entry.UserID,
		StageID:         entry.StageID,
		BatchID:         entry.BatchID,
		Duration:        entry.Duration,
		ItemsProcessed:  entry.ItemsProcessed,
		ItemsRejected:   entry.ItemsRejected,
	}
}

// FrameProgressRecordedEvent is raised on every ledger write
type FrameProgressRecordedEvent struct {
	shared.BaseDomainEvent
	FrameID      uuid.UUID `json:"frame_id"`
	BatchID      uuid.UUID `json:"batch_id"`
	StageID      uuid.UUID `json:"stage_id"`
	QtyRequired  int       `json:"qty_required"`
	QtyCompleted int       `json:"qty_completed"`
	QtyRejected  int       `json:"qty_rejected"`
}

// NewFrameProgressRecordedEvent creates a new FrameProgressRecordedEvent
func NewFrameProgressRecordedEvent(f *Frame, p *StageProgress, at time.Time) *FrameProgressRecordedEvent {
	return &FrameProgressRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFrameProgressRecorded, AggregateTypeFrame, f.ID, at),
		FrameID:         f.ID,
		BatchID:         f.BatchID,
		StageID:         p.StageID,
		QtyRequired:     f.QtyRequired,
		QtyCompleted:    p.QtyCompleted,
		QtyRejected:     p.QtyRejected,
	}
}

// FrameMovedEvent is raised when a frame advances a stage
type FrameMovedEvent struct {
	shared.BaseDomainEvent
	FrameID     uuid.UUID `json:"frame_id"`
	BatchID     uuid.UUID `json:"batch_id"`
	FromStageID uuid.UUID `json:"from_stage_id"`
	ToStageID   uuid.UUID `json:"to_stage_id"`
	ToStageName string    `json:"to_stage_name"`
	MovedBy     uuid.UUID `json:"moved_by"`
}

// NewFrameMovedEvent creates a new FrameMovedEvent
func NewFrameMovedEvent(f *Frame, from, to Stage, by uuid.UUID, at time.Time) *FrameMovedEvent {
	return &FrameMovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFrameMoved, AggregateTypeFrame, f.ID, at),
		FrameID:         f.ID,
		BatchID:         f.BatchID,
		FromStageID:     from.ID,
		ToStageID:       to.ID,
		ToStageName:     to.Name,
		MovedBy:         by,
	}
}

// FrameMovedToInventoryEvent is raised when a frame leaves production
type FrameMovedToInventoryEvent struct {
	shared.BaseDomainEvent
	FrameID     uuid.UUID `json:"frame_id"`
	BatchID     uuid.UUID `json:"batch_id"`
	ReceiptID   uuid.UUID `json:"receipt_id"`
	QtyGood     int       `json:"qty_good"`
	QtyRejected int       `json:"qty_rejected"`
}

// NewFrameMovedToInventoryEvent creates a new FrameMovedToInventoryEvent
func NewFrameMovedToInventoryEvent(f *Frame, r InventoryReceipt) *FrameMovedToInventoryEvent {
	return &FrameMovedToInventoryEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFrameMovedToInventory, AggregateTypeFrame, f.ID, r.ReceivedAt),
		FrameID:         f.ID,
		BatchID:         f.BatchID,
		ReceiptID:       r.ID,
		QtyGood:         r.QtyGood,
		QtyRejected:     r.QtyRejected,
	}
}
