package production

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/frameshop/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransitionService moves frames forward through the pipeline and hands
// finished frames to inventory. Every transition requires the worker's
// running timer on the source stage.
type TransitionService struct {
	batches        production.BatchRepository
	frames         production.FrameRepository
	progress       production.ProgressRepository
	stages         StageCatalog
	gate           Gatekeeper
	txScope        TransactionScope
	locker         Locker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            Clock
}

// NewTransitionService creates a new TransitionService
func NewTransitionService(
	batches production.BatchRepository,
	frames production.FrameRepository,
	progress production.ProgressRepository,
	stages StageCatalog,
	gate Gatekeeper,
	txScope TransactionScope,
	locker Locker,
	logger *zap.Logger,
) *TransitionService {
	return &TransitionService{
		batches:  batches,
		frames:   frames,
		progress: progress,
		stages:   stages,
		gate:     gate,
		txScope:  txScope,
		locker:   locker,
		logger:   logger,
		now:      time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *TransitionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock replaces the time source
func (s *TransitionService) SetClock(now Clock) {
	s.now = now
}

// MoveFrame advances one frame to the stage directly after its current one.
// Checks run in order: frame, timer gate, target stage, completion.
func (s *TransitionService) MoveFrame(ctx context.Context, cmd MoveFrameCommand) (_ *MoveResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "transition", "move_frame",
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
	batch, err := loadWritableBatch(ctx, s.batches, cmd.BatchID)
	if err != nil {
		return nil, err
	}
	if frame.IsInInventory() {
		return nil, shared.NewStateError("frame %s-%s is already in inventory", frame.Size, frame.Color)
	}

	registry, err := s.stages.Registry(ctx)
	if err != nil {
		return nil, err
	}
	from, err := registry.ByID(frame.CurrentStageID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.RequireRunningTimer(ctx, cmd.UserID, from); err != nil {
		return nil, err
	}
	to, err := registry.ValidateForwardMove(from.ID, cmd.TargetStageID)
	if err != nil {
		return nil, err
	}

	next, err := s.advance(ctx, frame, from, to, cmd.UserID)
	if err != nil {
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, collectEvents(frame)...)
	s.logger.Info("Frame moved",
		zap.String("frame_id", frame.ID.String()),
		zap.String("from", from.Name),
		zap.String("to", to.Name),
		zap.String("user_id", cmd.UserID.String()),
	)
	toID := to.ID
	return &MoveResult{
		Frame:       ToFrameResponse(frame, next, to.Name),
		FromStageID: from.ID,
		ToStageID:   &toID,
		BatchStatus: batch.Status.String(),
		Message:     fmt.Sprintf("Moved %s-%s to %s", frame.Size, frame.Color, to.Name),
	}, nil
}

// advance moves the frame and opens its ledger entry at the target stage
func (s *TransitionService) advance(ctx context.Context, frame *production.Frame, from, to production.Stage, userID uuid.UUID) (*production.StageProgress, error) {
	now := s.now()
	entry, err := currentProgress(ctx, s.progress, frame, now)
	if err != nil {
		return nil, err
	}
	next, err := frame.Advance(entry, from, to, userID, now)
	if err != nil {
		return nil, err
	}
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Frames().Save(ctx, frame); err != nil {
			return err
		}
		return repos.Progress().Upsert(ctx, next)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// MoveAllCompleted advances every complete frame of the batch sitting at
// fromStageID. Frames move independently: one failure does not stop the rest.
func (s *TransitionService) MoveAllCompleted(ctx context.Context, batchID, fromStageID, userID uuid.UUID) (_ *BulkMoveResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "transition", "move_all_completed",
		telemetry.SpanAttrBatchID, batchID, telemetry.SpanAttrStageID, fromStageID)
	defer telemetry.EndSpan(span, &err)

	batch, err := loadWritableBatch(ctx, s.batches, batchID)
	if err != nil {
		return nil, err
	}
	registry, err := s.stages.Registry(ctx)
	if err != nil {
		return nil, err
	}
	from, err := registry.ByID(fromStageID)
	if err != nil {
		return nil, err
	}
	if !from.IsWorkStage() {
		return nil, shared.NewValidationError("no frames are tracked at stage %q", from.Name)
	}
	if err := s.gate.RequireRunningTimer(ctx, userID, from); err != nil {
		return nil, err
	}
	to, ok, err := registry.Next(from.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, shared.NewStateError("%s is the final stage; move its frames to inventory instead", from.Name)
	}

	frames, err := s.frames.FindByBatchAndStage(ctx, batchID, from.ID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.ledger(ctx, frames)
	if err != nil {
		return nil, err
	}

	result := &BulkMoveResult{Failures: []MoveFailure{}}
	for i := range frames {
		f := &frames[i]
		entry, ok := ledger[progressKey{f.ID, from.ID}]
		if !ok || !entry.IsComplete(f.QtyRequired) {
			result.SkippedCount++
			continue
		}
		if err := s.moveLocked(ctx, f.ID, from, to, userID); err != nil {
			result.Failures = append(result.Failures, s.failure(f, err))
			continue
		}
		result.MovedCount++
	}

	result.BatchStatus = batch.Status.String()
	result.Message = bulkMessage(result, fmt.Sprintf("from %s to %s", from.Name, to.Name))
	s.logger.Info("Moved completed frames",
		zap.String("batch_id", batchID.String()),
		zap.String("from", from.Name),
		zap.String("to", to.Name),
		zap.Int("moved", result.MovedCount),
		zap.Int("failed", len(result.Failures)),
	)
	return result, nil
}

// moveLocked reloads the frame under its lock before advancing it, since it
// may have moved since the listing
func (s *TransitionService) moveLocked(ctx context.Context, frameID uuid.UUID, from, to production.Stage, userID uuid.UUID) error {
	unlock, err := s.locker.Lock(ctx, frameLockKey(frameID))
	if err != nil {
		return err
	}
	defer unlock()

	frame, err := s.frames.FindByID(ctx, frameID)
	if err != nil {
		return err
	}
	if frame.IsInInventory() || frame.CurrentStageID != from.ID {
		return shared.NewStateError("frame is no longer at %s", from.Name)
	}
	if _, err := s.advance(ctx, frame, from, to, userID); err != nil {
		return err
	}
	publishEvents(ctx, s.eventPublisher, collectEvents(frame)...)
	return nil
}

// MoveToInventory hands a frame at the final stage to inventory. When it is
// the batch's last frame in production the batch completes.
func (s *TransitionService) MoveToInventory(ctx context.Context, cmd MoveFrameCommand) (_ *MoveResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "transition", "move_to_inventory",
		telemetry.SpanAttrFrameID, cmd.FrameID, telemetry.SpanAttrUserID, cmd.UserID)
	defer telemetry.EndSpan(span, &err)

	unlockBatch, err := s.locker.Lock(ctx, batchLockKey(cmd.BatchID))
	if err != nil {
		return nil, err
	}
	defer unlockBatch()
	unlockFrame, err := s.locker.Lock(ctx, frameLockKey(cmd.FrameID))
	if err != nil {
		return nil, err
	}
	defer unlockFrame()

	frame, err := loadBatchFrame(ctx, s.frames, cmd.BatchID, cmd.FrameID)
	if err != nil {
		return nil, err
	}
	batch, err := loadWritableBatch(ctx, s.batches, cmd.BatchID)
	if err != nil {
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

	entry, receipt, err := s.handoff(ctx, batch, frame, registry.IsTerminal(stage.ID), cmd.UserID)
	if err != nil {
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, collectEvents(frame)...)
	s.logger.Info("Frame moved to inventory",
		zap.String("frame_id", frame.ID.String()),
		zap.Int("qty_good", receipt.QtyGood),
		zap.Int("qty_rejected", receipt.QtyRejected),
		zap.String("batch_status", batch.Status.String()),
	)
	receiptID := receipt.ID
	return &MoveResult{
		Frame:       ToFrameResponse(frame, entry, stage.Name),
		FromStageID: stage.ID,
		ReceiptID:   &receiptID,
		BatchStatus: batch.Status.String(),
		Message:     fmt.Sprintf("Moved %d unit(s) of %s-%s to inventory", receipt.QtyGood, frame.Size, frame.Color),
	}, nil
}

// handoff writes the frame, its receipt and, for the batch's last frame,
// the batch completion in one transaction. batch is updated only on commit.
func (s *TransitionService) handoff(ctx context.Context, batch *production.Batch, frame *production.Frame, terminal bool, userID uuid.UUID) (*production.StageProgress, production.InventoryReceipt, error) {
	now := s.now()
	entry, err := currentProgress(ctx, s.progress, frame, now)
	if err != nil {
		return nil, production.InventoryReceipt{}, err
	}
	receipt, err := frame.MoveToInventory(entry, terminal, userID, now)
	if err != nil {
		return nil, production.InventoryReceipt{}, err
	}

	updated := *batch
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Frames().Save(ctx, frame); err != nil {
			return err
		}
		if err := repos.Inventory().Receive(ctx, receipt); err != nil {
			return err
		}
		all, err := repos.Frames().FindByBatch(ctx, batch.ID)
		if err != nil {
			return err
		}
		for _, f := range all {
			if !f.IsInInventory() {
				return nil
			}
		}
		if updated.Status != production.BatchStatusActive {
			return nil
		}
		if err := updated.Complete(now); err != nil {
			return err
		}
		return repos.Batches().Save(ctx, &updated)
	})
	if err != nil {
		return nil, production.InventoryReceipt{}, err
	}
	*batch = updated
	return entry, receipt, nil
}

// MoveAllToInventory hands every frame at the final stage with completed
// units to inventory. Frames move independently.
func (s *TransitionService) MoveAllToInventory(ctx context.Context, batchID, userID uuid.UUID) (_ *BulkMoveResult, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "transition", "move_all_to_inventory",
		telemetry.SpanAttrBatchID, batchID, telemetry.SpanAttrUserID, userID)
	defer telemetry.EndSpan(span, &err)

	unlockBatch, err := s.locker.Lock(ctx, batchLockKey(batchID))
	if err != nil {
		return nil, err
	}
	defer unlockBatch()

	batch, err := loadWritableBatch(ctx, s.batches, batchID)
	if err != nil {
		return nil, err
	}
	registry, err := s.stages.Registry(ctx)
	if err != nil {
		return nil, err
	}
	terminal, err := registry.Terminal()
	if err != nil {
		return nil, err
	}
	if err := s.gate.RequireRunningTimer(ctx, userID, terminal); err != nil {
		return nil, err
	}

	frames, err := s.frames.FindByBatchAndStage(ctx, batchID, terminal.ID)
	if err != nil {
		return nil, err
	}
	ledger, err := s.ledger(ctx, frames)
	if err != nil {
		return nil, err
	}

	result := &BulkMoveResult{Failures: []MoveFailure{}}
	for i := range frames {
		f := &frames[i]
		entry, ok := ledger[progressKey{f.ID, terminal.ID}]
		if !ok || entry.QtyCompleted <= 0 {
			result.SkippedCount++
			continue
		}
		if err := s.handoffLocked(ctx, batch, f.ID, terminal, userID); err != nil {
			result.Failures = append(result.Failures, s.failure(f, err))
			continue
		}
		result.MovedCount++
	}

	result.BatchStatus = batch.Status.String()
	result.Message = bulkMessage(result, "to inventory")
	s.logger.Info("Moved frames to inventory",
		zap.String("batch_id", batchID.String()),
		zap.Int("moved", result.MovedCount),
		zap.Int("failed", len(result.Failures)),
		zap.String("batch_status", result.BatchStatus),
	)
	return result, nil
}

func (s *TransitionService) handoffLocked(ctx context.Context, batch *production.Batch, frameID uuid.UUID, terminal production.Stage, userID uuid.UUID) error {
	unlock, err := s.locker.Lock(ctx, frameLockKey(frameID))
	if err != nil {
		return err
	}
	defer unlock()

	frame, err := s.frames.FindByID(ctx, frameID)
	if err != nil {
		return err
	}
	if frame.IsInInventory() || frame.CurrentStageID != terminal.ID {
		return shared.NewStateError("frame is no longer at %s", terminal.Name)
	}
	if _, _, err := s.handoff(ctx, batch, frame, true, userID); err != nil {
		return err
	}
	publishEvents(ctx, s.eventPublisher, collectEvents(frame)...)
	return nil
}

func (s *TransitionService) ledger(ctx context.Context, frames []production.Frame) (map[progressKey]production.StageProgress, error) {
	ids := make([]uuid.UUID, len(frames))
	for i, f := range frames {
		ids[i] = f.ID
	}
	entries, err := s.progress.FindByFrames(ctx, ids)
	if err != nil {
		return nil, err
	}
	return indexProgress(entries), nil
}

func (s *TransitionService) failure(f *production.Frame, err error) MoveFailure {
	failure := MoveFailure{FrameID: f.ID, Size: f.Size, Color: f.Color}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		failure.Code = domainErr.Code
		failure.Message = domainErr.Message
		return failure
	}
	s.logger.Error("Frame move failed", zap.String("frame_id", f.ID.String()), zap.Error(err))
	failure.Code = "INTERNAL_ERROR"
	failure.Message = "the frame could not be moved"
	return failure
}

func bulkMessage(result *BulkMoveResult, what string) string {
	msg := fmt.Sprintf("Moved %d frame(s) %s", result.MovedCount, what)
	if n := len(result.Failures); n > 0 {
		msg += fmt.Sprintf("; %d failed", n)
	}
	return msg
}
