// Package production holds the application services of the production floor:
// stages, batches, worker timers, the progress ledger, stage transitions and
// reporting.
package production

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Locker serializes work on a key. The returned unlock must be called once
// the guarded work is done.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// StageCatalog loads the current stage pipeline
type StageCatalog interface {
	Registry(ctx context.Context) (*production.StageRegistry, error)
}

// Gatekeeper checks that a worker holds a running timer on a stage
type Gatekeeper interface {
	RequireRunningTimer(ctx context.Context, userID uuid.UUID, stage production.Stage) error
}

// Clock returns the current time
type Clock func() time.Time

// Lock keys. Locks are always taken in the order batch, frame, timer.
func batchLockKey(batchID uuid.UUID) string { return "batch:" + batchID.String() }
func frameLockKey(frameID uuid.UUID) string { return "frame:" + frameID.String() }
func timerLockKey(userID uuid.UUID) string  { return "timer:user:" + userID.String() }

type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// collectEvents drains the pending events of the given aggregates
func collectEvents[T eventSource](sources ...T) []shared.DomainEvent {
	var events []shared.DomainEvent
	for _, src := range sources {
		events = append(events, src.GetDomainEvents()...)
		src.ClearDomainEvents()
	}
	return events
}

// publishEvents publishes events after the writes that raised them are
// committed. Errors are logged by the event bus, not propagated.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, events ...shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	_ = publisher.Publish(ctx, events...)
}

// loadBatchFrame loads a frame and checks it belongs to the batch
func loadBatchFrame(ctx context.Context, frames production.FrameRepository, batchID, frameID uuid.UUID) (*production.Frame, error) {
	frame, err := frames.FindByID(ctx, frameID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, production.NewFrameNotFoundError()
		}
		return nil, err
	}
	if frame.BatchID != batchID {
		return nil, production.NewFrameNotFoundError()
	}
	return frame, nil
}

// loadWritableBatch loads a batch that still accepts production writes
func loadWritableBatch(ctx context.Context, batches production.BatchRepository, batchID uuid.UUID) (*production.Batch, error) {
	batch, err := batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if err := batch.EnsureWritable(); err != nil {
		return nil, err
	}
	return batch, nil
}

// currentProgress returns the ledger entry of the frame's current stage,
// or an empty one when nothing was recorded yet
func currentProgress(ctx context.Context, progress production.ProgressRepository, frame *production.Frame, at time.Time) (*production.StageProgress, error) {
	entry, err := progress.Find(ctx, frame.ID, frame.CurrentStageID)
	if errors.Is(err, shared.ErrNotFound) {
		return production.NewStageProgress(frame.ID, frame.CurrentStageID, at), nil
	}
	return entry, err
}

type progressKey struct {
	frameID uuid.UUID
	stageID uuid.UUID
}

func indexProgress(entries []production.StageProgress) map[progressKey]production.StageProgress {
	index := make(map[progressKey]production.StageProgress, len(entries))
	for _, e := range entries {
		index[progressKey{e.FrameID, e.StageID}] = e
	}
	return index
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func hours(d time.Duration) float64 {
	return round2(d.Hours())
}
