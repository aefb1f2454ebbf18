package production

import (
	"strings"
	"time"

	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BatchStatus represents the lifecycle status of a batch
type BatchStatus string

const (
	BatchStatusActive    BatchStatus = "ACTIVE"
	BatchStatusCompleted BatchStatus = "COMPLETED"
	BatchStatusArchived  BatchStatus = "ARCHIVED"
)

// IsValid checks if the status is a valid BatchStatus
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusActive, BatchStatusCompleted, BatchStatusArchived:
		return true
	}
	return false
}

// String returns the string representation of BatchStatus
func (s BatchStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s BatchStatus) CanTransitionTo(target BatchStatus) bool {
	switch s {
	case BatchStatusActive:
		return target == BatchStatusCompleted || target == BatchStatusArchived
	case BatchStatusCompleted:
		return target == BatchStatusArchived
	}
	return false
}

// Batch is a named group of orders sent to production together
type Batch struct {
	shared.BaseAggregateRoot
	Name        string
	OrderIDs    []uuid.UUID
	Status      BatchStatus
	CreatedBy   uuid.UUID
	CompletedAt *time.Time
	ArchivedAt  *time.Time
}

// NewBatch creates an active batch. Duplicate order ids are collapsed.
func NewBatch(name string, orderIDs []uuid.UUID, createdBy uuid.UUID, at time.Time) (*Batch, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("batch name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("batch name cannot exceed 200 characters")
	}

	seen := make(map[uuid.UUID]struct{}, len(orderIDs))
	ids := make([]uuid.UUID, 0, len(orderIDs))
	for _, id := range orderIDs {
		if id == uuid.Nil {
			return nil, shared.NewValidationError("order id cannot be empty")
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	root := shared.NewBaseAggregateRoot()
	root.CreatedAt = at
	root.UpdatedAt = at
	b := &Batch{
		BaseAggregateRoot: root,
		Name:              name,
		OrderIDs:          ids,
		Status:            BatchStatusActive,
		CreatedBy:         createdBy,
	}
	return b, nil
}

// EnsureWritable returns INVALID_STATE for archived batches
func (b *Batch) EnsureWritable() error {
	if b.Status == BatchStatusArchived {
		return shared.NewStateError("batch %q is archived", b.Name)
	}
	return nil
}

// Complete marks the batch completed once all frames reached inventory
func (b *Batch) Complete(at time.Time) error {
	if !b.Status.CanTransitionTo(BatchStatusCompleted) {
		return shared.NewStateError("cannot complete batch in %s status", b.Status)
	}
	b.Status = BatchStatusCompleted
	b.CompletedAt = &at
	b.IncrementVersion()
	b.Touch(at)
	return nil
}

// Archive retires the batch; no further production operations are allowed
func (b *Batch) Archive(at time.Time) error {
	if !b.Status.CanTransitionTo(BatchStatusArchived) {
		return shared.NewStateError("cannot archive batch in %s status", b.Status)
	}
	b.Status = BatchStatusArchived
	b.ArchivedAt = &at
	b.IncrementVersion()
	b.Touch(at)
	return nil
}

// MaterializeFrames aggregates the batch's order items into frames placed at
// the first work stage and records the creation event.
func (b *Batch) MaterializeFrames(items []OrderItem, firstStageID uuid.UUID, at time.Time) []*Frame {
	frames := AggregateFrames(b.ID, items, firstStageID, at)
	required := 0
	for _, f := range frames {
		required += f.QtyRequired
	}
	b.AddDomainEvent(NewBatchCreatedEvent(b, len(frames), required))
	return frames
}
