package production

import (
	"time"

	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// StageProgress is the ledger entry of one frame at one stage. Each stage
// tracks completion independently, so moving a frame starts a fresh entry.
type StageProgress struct {
	FrameID      uuid.UUID
	StageID      uuid.UUID
	QtyCompleted int
	QtyRejected  int
	UpdatedBy    *uuid.UUID
	UpdatedAt    time.Time
}

// NewStageProgress creates an empty ledger entry
func NewStageProgress(frameID, stageID uuid.UUID, at time.Time) *StageProgress {
	return &StageProgress{
		FrameID:   frameID,
		StageID:   stageID,
		UpdatedAt: at,
	}
}

// Record overwrites the entry. Out-of-range values are rejected, never clamped.
// A nil rejected keeps the current rejected count. Rejections can only be
// recorded where tracksRejections is set.
func (p *StageProgress) Record(required, completed int, rejected *int, tracksRejections bool, by uuid.UUID, at time.Time) error {
	if completed < 0 {
		return shared.NewValidationError("qty_completed cannot be negative")
	}
	if completed > required {
		return shared.NewValidationError("qty_completed %d exceeds qty_required %d", completed, required)
	}

	rej := p.QtyRejected
	if rejected != nil {
		rej = *rejected
	}
	if !tracksRejections && rej != 0 {
		return shared.NewValidationError("rejections can only be recorded at the final inspection stage")
	}
	if rej < 0 {
		return shared.NewValidationError("qty_rejected cannot be negative")
	}
	if rej > completed {
		return shared.NewValidationError("qty_rejected %d exceeds qty_completed %d", rej, completed)
	}

	p.QtyCompleted = completed
	p.QtyRejected = rej
	p.UpdatedBy = &by
	p.UpdatedAt = at
	return nil
}

// IsComplete reports whether the stage requirement is met
func (p *StageProgress) IsComplete(required int) bool {
	return p.QtyCompleted >= required
}

// GoodUnits is completed minus rejected
func (p *StageProgress) GoodUnits() int {
	return p.QtyCompleted - p.QtyRejected
}

// RejectionRate returns rejected / completed, 0 when nothing is completed
func (p *StageProgress) RejectionRate() float64 {
	return RejectionRate(p.QtyRejected, p.QtyCompleted)
}

// RejectionRate returns rejected / completed, 0 when completed is 0
func RejectionRate(rejected, completed int) float64 {
	if completed == 0 {
		return 0
	}
	return float64(rejected) / float64(completed)
}
