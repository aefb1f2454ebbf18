package production

import (
	"time"

	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// FrameStatus is the pipeline status of a frame
type FrameStatus string

const (
	FrameStatusInProduction FrameStatus = "IN_PRODUCTION"
	FrameStatusInInventory  FrameStatus = "IN_INVENTORY"
)

// IsValid checks if the status is a valid FrameStatus
func (s FrameStatus) IsValid() bool {
	return s == FrameStatusInProduction || s == FrameStatusInInventory
}

// String returns the string representation of FrameStatus
func (s FrameStatus) String() string {
	return string(s)
}

// Frame is all order items of one size and color within a batch
type Frame struct {
	shared.BaseAggregateRoot
	BatchID        uuid.UUID
	Size           string
	Color          string
	QtyRequired    int
	CurrentStageID uuid.UUID
	Status         FrameStatus
	InventoriedAt  *time.Time
	QtyGood        int
	QtyRejected    int
}

func newFrame(batchID uuid.UUID, g FrameGroup, stageID uuid.UUID, at time.Time) *Frame {
	root := shared.NewBaseAggregateRoot()
	root.CreatedAt = at
	root.UpdatedAt = at
	return &Frame{
		BaseAggregateRoot: root,
		BatchID:           batchID,
		Size:              g.Size,
		Color:             g.Color,
		QtyRequired:       g.QtyRequired,
		CurrentStageID:    stageID,
		Status:            FrameStatusInProduction,
	}
}

// IsInInventory reports whether the frame has left production
func (f *Frame) IsInInventory() bool {
	return f.Status == FrameStatusInInventory
}

func (f *Frame) ensureAt(progress *StageProgress) error {
	if f.IsInInventory() {
		return shared.NewStateError("frame %s-%s is already in inventory", f.Size, f.Color)
	}
	if progress.FrameID != f.ID || progress.StageID != f.CurrentStageID {
		return shared.NewStateError("progress entry does not belong to the frame's current stage")
	}
	return nil
}

// RecordProgress writes completed/rejected counts for the current stage
func (f *Frame) RecordProgress(progress *StageProgress, completed int, rejected *int, tracksRejections bool, by uuid.UUID, at time.Time) error {
	if err := f.ensureAt(progress); err != nil {
		return err
	}
	if err := progress.Record(f.QtyRequired, completed, rejected, tracksRejections, by, at); err != nil {
		return err
	}
	f.AddDomainEvent(NewFrameProgressRecordedEvent(f, progress, at))
	return nil
}

// Advance moves the frame to the next stage. It requires the current stage to
// be complete and returns the empty ledger entry for the target stage.
func (f *Frame) Advance(progress *StageProgress, from, to Stage, by uuid.UUID, at time.Time) (*StageProgress, error) {
	if err := f.ensureAt(progress); err != nil {
		return nil, err
	}
	if to.Order != from.Order+1 {
		return nil, shared.NewStateError("frames advance one stage at a time")
	}
	if !progress.IsComplete(f.QtyRequired) {
		return nil, shared.NewStateError("frame %s-%s is not complete at %s (%d of %d)",
			f.Size, f.Color, from.Name, progress.QtyCompleted, f.QtyRequired)
	}

	f.CurrentStageID = to.ID
	f.IncrementVersion()
	f.Touch(at)
	f.AddDomainEvent(NewFrameMovedEvent(f, from, to, by, at))
	return NewStageProgress(f.ID, to.ID, at), nil
}

// MoveToInventory hands the frame's completed units at the terminal stage to
// inventory. Partially completed frames may be handed off; nothing completed is an error.
func (f *Frame) MoveToInventory(progress *StageProgress, terminal bool, by uuid.UUID, at time.Time) (InventoryReceipt, error) {
	if err := f.ensureAt(progress); err != nil {
		return InventoryReceipt{}, err
	}
	if !terminal {
		return InventoryReceipt{}, shared.NewStateError("only frames at the final stage can move to inventory")
	}
	if progress.QtyCompleted <= 0 {
		return InventoryReceipt{}, shared.NewStateError("frame %s-%s has no completed units to move to inventory", f.Size, f.Color)
	}

	f.Status = FrameStatusInInventory
	f.InventoriedAt = &at
	f.QtyGood = progress.GoodUnits()
	f.QtyRejected = progress.QtyRejected
	f.IncrementVersion()
	f.Touch(at)

	receipt := InventoryReceipt{
		ID:          uuid.New(),
		FrameID:     f.ID,
		BatchID:     f.BatchID,
		Size:        f.Size,
		Color:       f.Color,
		QtyGood:     f.QtyGood,
		QtyRejected: f.QtyRejected,
		ReceivedBy:  by,
		ReceivedAt:  at,
	}
	f.AddDomainEvent(NewFrameMovedToInventoryEvent(f, receipt))
	return receipt, nil
}
