package models

import (
	"time"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/google/uuid"
)

// StageModel is the persistence model for a pipeline stage
type StageModel struct {
	BaseModel
	Name  string `gorm:"type:varchar(100);not null"`
	Order int    `gorm:"column:order_index;not null;uniqueIndex:idx_stages_order_index"`
	Color string `gorm:"type:varchar(7);not null"`
}

// TableName returns the table name for GORM
func (StageModel) TableName() string {
	return "stages"
}

// ToDomain converts the persistence model to a domain Stage
func (m *StageModel) ToDomain() *production.Stage {
	return &production.Stage{
		BaseEntity: m.BaseModel.ToDomain(),
		Name:       m.Name,
		Order:      m.Order,
		Color:      m.Color,
	}
}

// FromDomain populates the persistence model from a domain Stage
func (m *StageModel) FromDomain(s *production.Stage) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.Name = s.Name
	m.Order = s.Order
	m.Color = s.Color
}

// StageModelFromDomain creates a new persistence model from a domain Stage
func StageModelFromDomain(s *production.Stage) *StageModel {
	m := &StageModel{}
	m.FromDomain(s)
	return m
}

// BatchModel is the persistence model for the Batch aggregate root
type BatchModel struct {
	AggregateModel
	Name        string     `gorm:"type:varchar(200);not null"`
	Status      string     `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	CreatedBy   uuid.UUID  `gorm:"type:uuid;not null"`
	CompletedAt *time.Time `gorm:""`
	ArchivedAt  *time.Time `gorm:""`
	// Associations
	Orders []BatchOrderModel `gorm:"foreignKey:BatchID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (BatchModel) TableName() string {
	return "batches"
}

// ToDomain converts the persistence model to a domain Batch
func (m *BatchModel) ToDomain() *production.Batch {
	orderIDs := make([]uuid.UUID, len(m.Orders))
	for i, o := range m.Orders {
		orderIDs[i] = o.OrderID
	}
	return &production.Batch{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		OrderIDs:          orderIDs,
		Status:            production.BatchStatus(m.Status),
		CreatedBy:         m.CreatedBy,
		CompletedAt:       m.CompletedAt,
		ArchivedAt:        m.ArchivedAt,
	}
}

// FromDomain populates the persistence model from a domain Batch
func (m *BatchModel) FromDomain(b *production.Batch) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.Name = b.Name
	m.Status = string(b.Status)
	m.CreatedBy = b.CreatedBy
	m.CompletedAt = b.CompletedAt
	m.ArchivedAt = b.ArchivedAt
	m.Orders = make([]BatchOrderModel, len(b.OrderIDs))
	for i, id := range b.OrderIDs {
		m.Orders[i] = BatchOrderModel{BatchID: b.ID, OrderID: id, Position: i}
	}
}

// BatchModelFromDomain creates a new persistence model from a domain Batch
func BatchModelFromDomain(b *production.Batch) *BatchModel {
	m := &BatchModel{}
	m.FromDomain(b)
	return m
}

// BatchOrderModel links a batch to one of its source orders
type BatchOrderModel struct {
	BatchID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (BatchOrderModel) TableName() string {
	return "batch_orders"
}

// FrameModel is the persistence model for the Frame aggregate root
type FrameModel struct {
	AggregateModel
	BatchID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_frames_batch_size_color,priority:1"`
	Size           string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_frames_batch_size_color,priority:2"`
	Color          string     `gorm:"type:varchar(50);not null;uniqueIndex:idx_frames_batch_size_color,priority:3"`
	QtyRequired    int        `gorm:"not null"`
	CurrentStageID uuid.UUID  `gorm:"type:uuid;not null;index"`
	Status         string     `gorm:"type:varchar(20);not null;default:'IN_PRODUCTION'"`
	InventoriedAt  *time.Time `gorm:""`
	QtyGood        int        `gorm:"not null;default:0"`
	QtyRejected    int        `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (FrameModel) TableName() string {
	return "frames"
}

// ToDomain converts the persistence model to a domain Frame
func (m *FrameModel) ToDomain() *production.Frame {
	return &production.Frame{
		BaseAggregateRoot: m.ToAggregateRoot(),
		BatchID:           m.BatchID,
		Size:              m.Size,
		Color:             m.Color,
		QtyRequired:       m.QtyRequired,
		CurrentStageID:    m.CurrentStageID,
		Status:            production.FrameStatus(m.Status),
		InventoriedAt:     m.InventoriedAt,
		QtyGood:           m.QtyGood,
		QtyRejected:       m.QtyRejected,
	}
}

// FromDomain populates the persistence model from a domain Frame
func (m *FrameModel) FromDomain(f *production.Frame) {
	m.FromDomainAggregateRoot(f.BaseAggregateRoot)
	m.BatchID = f.BatchID
	m.Size = f.Size
	m.Color = f.Color
	m.QtyRequired = f.QtyRequired
	m.CurrentStageID = f.CurrentStageID
	m.Status = string(f.Status)
	m.InventoriedAt = f.InventoriedAt
	m.QtyGood = f.QtyGood
	m.QtyRejected = f.QtyRejected
}

// FrameModelFromDomain creates a new persistence model from a domain Frame
func FrameModelFromDomain(f *production.Frame) *FrameModel {
	m := &FrameModel{}
	m.FromDomain(f)
	return m
}

// StageProgressModel is one row of the (frame, stage) progress ledger
type StageProgressModel struct {
	FrameID      uuid.UUID  `gorm:"type:uuid;primaryKey"`
	StageID      uuid.UUID  `gorm:"type:uuid;primaryKey"`
	QtyCompleted int        `gorm:"not null;default:0"`
	QtyRejected  int        `gorm:"not null;default:0"`
	UpdatedBy    *uuid.UUID `gorm:"type:uuid"`
	UpdatedAt    time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StageProgressModel) TableName() string {
	return "frame_stage_progress"
}

// ToDomain converts the persistence model to a domain StageProgress
func (m *StageProgressModel) ToDomain() *production.StageProgress {
	return &production.StageProgress{
		FrameID:      m.FrameID,
		StageID:      m.StageID,
		QtyCompleted: m.QtyCompleted,
		QtyRejected:  m.QtyRejected,
		UpdatedBy:    m.UpdatedBy,
		UpdatedAt:    m.UpdatedAt,
	}
}

// StageProgressModelFromDomain creates a new persistence model from a domain StageProgress
func StageProgressModelFromDomain(p *production.StageProgress) *StageProgressModel {
	return &StageProgressModel{
		FrameID:      p.FrameID,
		StageID:      p.StageID,
		QtyCompleted: p.QtyCompleted,
		QtyRejected:  p.QtyRejected,
		UpdatedBy:    p.UpdatedBy,
		UpdatedAt:    p.UpdatedAt,
	}
}

// TimerSessionModel is an open timer. The unique user index enforces one
// open session per worker.
type TimerSessionModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_timer_sessions_user"`
	StageID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	BatchID        *uuid.UUID `gorm:"type:uuid;index"`
	StartedAt      time.Time  `gorm:"not null"`
	IsPaused       bool       `gorm:"not null;default:false"`
	AccumulatedMs  int64      `gorm:"not null;default:0"`
	LastActivityAt time.Time  `gorm:"not null;index"`
	CreatedAt      time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TimerSessionModel) TableName() string {
	return "timer_sessions"
}

// ToDomain converts the persistence model to a domain TimerSession
func (m *TimerSessionModel) ToDomain() *production.TimerSession {
	return &production.TimerSession{
		ID:             m.ID,
		UserID:         m.UserID,
		StageID:        m.StageID,
		BatchID:        m.BatchID,
		StartedAt:      m.StartedAt,
		IsPaused:       m.IsPaused,
		Accumulated:    durationFromMs(m.AccumulatedMs),
		LastActivityAt: m.LastActivityAt,
		CreatedAt:      m.CreatedAt,
	}
}

// TimerSessionModelFromDomain creates a new persistence model from a domain TimerSession
func TimerSessionModelFromDomain(s *production.TimerSession) *TimerSessionModel {
	return &TimerSessionModel{
		ID:             s.ID,
		UserID:         s.UserID,
		StageID:        s.StageID,
		BatchID:        s.BatchID,
		StartedAt:      s.StartedAt,
		IsPaused:       s.IsPaused,
		AccumulatedMs:  durationToMs(s.Accumulated),
		LastActivityAt: s.LastActivityAt,
		CreatedAt:      s.CreatedAt,
	}
}

// TimeLogModel is a closed interval of work
type TimeLogModel struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primary_key"`
	UserID             uuid.UUID  `gorm:"type:uuid;not null;index"`
	StageID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	BatchID            *uuid.UUID `gorm:"type:uuid;index"`
	SessionID          *uuid.UUID `gorm:"type:uuid"`
	DurationMs         int64      `gorm:"not null"`
	ItemsProcessed     int        `gorm:"not null;default:0"`
	ItemsRejected      int        `gorm:"not null;default:0"`
	CompletedAt        time.Time  `gorm:"not null;index"`
	ManualEntry        bool       `gorm:"not null;default:false"`
	EditedAt           *time.Time `gorm:""`
	EditedBy           *uuid.UUID `gorm:"type:uuid"`
	OriginalDurationMs *int64     `gorm:""`
	AdminNotes         string     `gorm:"type:text;not null;default:''"`
	CreatedAt          time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TimeLogModel) TableName() string {
	return "time_logs"
}

// ToDomain converts the persistence model to a domain TimeLogEntry
func (m *TimeLogModel) ToDomain() *production.TimeLogEntry {
	e := &production.TimeLogEntry{
		ID:             m.ID,
		UserID:         m.UserID,
		StageID:        m.StageID,
		BatchID:        m.BatchID,
		SessionID:      m.SessionID,
		Duration:       durationFromMs(m.DurationMs),
		ItemsProcessed: m.ItemsProcessed,
		ItemsRejected:  m.ItemsRejected,
		CompletedAt:    m.CompletedAt,
		ManualEntry:    m.ManualEntry,
		EditedAt:       m.EditedAt,
		EditedBy:       m.EditedBy,
		AdminNotes:     m.AdminNotes,
		CreatedAt:      m.CreatedAt,
	}
	if m.OriginalDurationMs != nil {
		d := durationFromMs(*m.OriginalDurationMs)
		e.OriginalDuration = &d
	}
	return e
}

// TimeLogModelFromDomain creates a new persistence model from a domain TimeLogEntry
func TimeLogModelFromDomain(e *production.TimeLogEntry) *TimeLogModel {
	m := &TimeLogModel{
		ID:             e.ID,
		UserID:         e.UserID,
		StageID:        e.StageID,
		BatchID:        e.BatchID,
		SessionID:      e.SessionID,
		DurationMs:     durationToMs(e.Duration),
		ItemsProcessed: e.ItemsProcessed,
		ItemsRejected:  e.ItemsRejected,
		CompletedAt:    e.CompletedAt,
		ManualEntry:    e.ManualEntry,
		EditedAt:       e.EditedAt,
		EditedBy:       e.EditedBy,
		AdminNotes:     e.AdminNotes,
		CreatedAt:      e.CreatedAt,
	}
	if e.OriginalDuration != nil {
		ms := durationToMs(*e.OriginalDuration)
		m.OriginalDurationMs = &ms
	}
	return m
}
