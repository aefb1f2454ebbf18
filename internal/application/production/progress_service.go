package production

import (
	"context"
	"time"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/frameshop/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ProgressService writes the (frame, stage) ledger. Writes to one frame are
// serialized on the frame lock and overwrite the previous value, so repeated
// or superseded writes leave the last arrival in place.
type ProgressService struct {
	batches        production.BatchRepository
	frames         production.FrameRepository
	progress       production.ProgressRepository
	stages         StageCatalog
	gate           Gatekeeper
	locker         Locker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            Clock
}

// NewProgressService creates a new ProgressService
func NewProgressService(
	batches production.BatchRepository,
	frames production.FrameRepository,
	progress production.ProgressRepository,
	stages StageCatalog,
	gate Gatekeeper,
	locker Locker,
	logger *zap.Logger,
) *ProgressService {
	return &ProgressService{
		batches:  batches,
		frames:   frames,
		progress: progress,
		stages:   stages,
		gate:     gate,
		locker:   locker,
		logger:   logger,
		now:      time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ProgressService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock replaces the time source
func (s *ProgressService) SetClock(now Clock) {
	s.now = now
}

// SetProgress overwrites the completed and rejected counts of the frame's
// current stage. The worker must hold a running timer on that stage.
// Out-of-range counts are rejected with VALIDATION_ERROR, never clamped.
func (s *ProgressService) SetProgress(ctx context.Context, cmd SetProgressCommand) (_ *FrameResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "progress", "set",
		telemetry.SpanAttrFrameID, cmd.FrameID, telemetry.SpanAttrUserID, cmd.UserID)
	defer telemetry.EndSpan(span, &err)

	unlock, err := s.locker.Lock(ctx, frameLockKey(cmd.FrameID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	frame, err := loadBatchFrame(ctx, s.frames, cmd.BatchID, cmd.FrameID)
	if err != nil {
		return nil, err
	}
	if _, err := loadWritableBatch(ctx, s.batches, cmd.BatchID); err != nil {
		return nil, err
	}
	if frame.IsInInventory() {
		return nil, shared.NewStateError("frame %s-%s is already in inventory", frame.Size, frame.Color)
	}

	registry, err := s.stages.Registry(ctx)
	if err != nil {
		return nil, err
	}
	stage, err := registry.ByID(frame.CurrentStageID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.RequireRunningTimer(ctx, cmd.UserID, stage); err != nil {
		return nil, err
	}

	now := s.now()
	entry, err := currentProgress(ctx, s.progress, frame, now)
	if err != nil {
		return nil, err
	}
	if err := frame.RecordProgress(entry, cmd.QtyCompleted, cmd.QtyRejected, registry.TracksRejections(stage.ID), cmd.UserID, now); err != nil {
		return nil, err
	}
	if err := s.progress.Upsert(ctx, entry); err != nil {
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, collectEvents(frame)...)
	s.logger.Debug("Frame progress recorded",
		zap.String("frame_id", frame.ID.String()),
		zap.String("stage", stage.Name),
		zap.Int("qty_completed", entry.QtyCompleted),
		zap.Int("qty_rejected", entry.QtyRejected),
	)
	resp := ToFrameResponse(frame, entry, stage.Name)
	return &resp, nil
}
