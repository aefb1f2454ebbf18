package production

import (
	"context"
	"time"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/frameshop/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BatchService builds batches from orders and lists their frames
type BatchService struct {
	batches        production.BatchRepository
	frames         production.FrameRepository
	progress       production.ProgressRepository
	orders         production.OrderSource
	stages         StageCatalog
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            Clock
}

// NewBatchService creates a new BatchService
func NewBatchService(
	batches production.BatchRepository,
	frames production.FrameRepository,
	progress production.ProgressRepository,
	orders production.OrderSource,
	stages StageCatalog,
	txScope TransactionScope,
	logger *zap.Logger,
) *BatchService {
	return &BatchService{
		batches:  batches,
		frames:   frames,
		progress: progress,
		orders:   orders,
		stages:   stages,
		txScope:  txScope,
		logger:   logger,
		now:      time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *BatchService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetClock replaces the time source
func (s *BatchService) SetClock(now Clock) {
	s.now = now
}

// Create builds a batch from orders. The order items are aggregated into
// frames placed at the first work stage, each with an empty ledger entry.
func (s *BatchService) Create(ctx context.Context, req CreateBatchRequest, createdBy uuid.UUID) (_ *BatchResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "batch", "create", telemetry.SpanAttrUserID, createdBy)
	defer telemetry.EndSpan(span, &err)

	now := s.now()
	batch, err := production.NewBatch(req.Name, req.OrderIDs, createdBy, now)
	if err != nil {
		return nil, err
	}

	registry, err := s.stages.Registry(ctx)
	if err != nil {
		return nil, err
	}
	first, err := registry.FirstWorkStage()
	if err != nil {
		return nil, err
	}

	var items []production.OrderItem
	if len(batch.OrderIDs) > 0 {
		items, err = s.orders.FindItemsByOrderIDs(ctx, batch.OrderIDs)
		if err != nil {
			return nil, err
		}
	}
	frames := batch.MaterializeFrames(items, first.ID, now)

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Batches().Create(ctx, batch); err != nil {
			return err
		}
		if err := repos.Frames().CreateBatch(ctx, frames); err != nil {
			return err
		}
		for _, f := range frames {
			if err := repos.Progress().Upsert(ctx, production.NewStageProgress(f.ID, first.ID, now)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, collectEvents(batch)...)
	s.logger.Info("Batch created",
		zap.String("batch_id", batch.ID.String()),
		zap.String("name", batch.Name),
		zap.Int("orders", len(batch.OrderIDs)),
		zap.Int("frames", len(frames)),
	)

	values := make([]production.Frame, len(frames))
	for i, f := range frames {
		values[i] = *f
	}
	resp := ToBatchResponse(batch, values)
	return &resp, nil
}

// Get returns a batch with its frame summary
func (s *BatchService) Get(ctx context.Context, id uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	frames, err := s.frames.FindByBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBatchResponse(batch, frames)
	return &resp, nil
}

// List returns a page of batches. Frame summaries are not loaded.
func (s *BatchService) List(ctx context.Context, filter BatchListFilter) (*shared.Paginated[BatchResponse], error) {
	domainFilter := production.BatchFilter{
		Filter:   shared.DefaultFilter(),
		Status:   production.BatchStatus(filter.Status),
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
	}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.Status != "" && !domainFilter.Status.IsValid() {
		return nil, shared.NewValidationError("unknown batch status %q", filter.Status)
	}

	batches, total, err := s.batches.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	items := make([]BatchResponse, len(batches))
	for i := range batches {
		items[i] = ToBatchResponse(&batches[i], nil)
	}
	page := shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// Archive retires a batch. Archived batches reject every production write.
func (s *BatchService) Archive(ctx context.Context, id uuid.UUID) (_ *BatchResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "batch", "archive", telemetry.SpanAttrBatchID, id)
	defer telemetry.EndSpan(span, &err)

	batch, err := s.batches.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := batch.Archive(s.now()); err != nil {
		return nil, err
	}
	if err := s.batches.Save(ctx, batch); err != nil {
		return nil, err
	}

	s.logger.Info("Batch archived", zap.String("batch_id", id.String()), zap.String("name", batch.Name))
	frames, err := s.frames.FindByBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToBatchResponse(batch, frames)
	return &resp, nil
}

// ListFrames returns the frames of a batch with their current-stage progress,
// grouped by size. With stageID set only in-production frames at that stage
// are listed.
func (s *BatchService) ListFrames(ctx context.Context, batchID uuid.UUID, stageID *uuid.UUID) (*FramesResponse, error) {
	if _, err := s.batches.FindByID(ctx, batchID); err != nil {
		return nil, err
	}
	registry, err := s.stages.Registry(ctx)
	if err != nil {
		return nil, err
	}

	var frames []production.Frame
	if stageID != nil {
		if _, err := registry.ByID(*stageID); err != nil {
			return nil, err
		}
		frames, err = s.frames.FindByBatchAndStage(ctx, batchID, *stageID)
	} else {
		frames, err = s.frames.FindByBatch(ctx, batchID)
	}
	if err != nil {
		return nil, err
	}

	frameIDs := make([]uuid.UUID, len(frames))
	for i, f := range frames {
		frameIDs[i] = f.ID
	}
	entries, err := s.progress.FindByFrames(ctx, frameIDs)
	if err != nil {
		return nil, err
	}
	ledger := indexProgress(entries)

	resp := &FramesResponse{
		BatchID:    batchID,
		StageID:    stageID,
		Frames:     make([]FrameResponse, 0, len(frames)),
		SizeGroups: []SizeGroup{},
	}
	groupIndex := make(map[string]int)
	for i := range frames {
		f := &frames[i]
		var entry *production.StageProgress
		if e, ok := ledger[progressKey{f.ID, f.CurrentStageID}]; ok {
			entry = &e
		}
		stageName := ""
		if st, err := registry.ByID(f.CurrentStageID); err == nil {
			stageName = st.Name
		}
		view := ToFrameResponse(f, entry, stageName)
		resp.Frames = append(resp.Frames, view)
		resp.GrandTotalRequired += view.QtyRequired
		resp.GrandTotalCompleted += view.QtyCompleted

		gi, ok := groupIndex[f.Size]
		if !ok {
			gi = len(resp.SizeGroups)
			groupIndex[f.Size] = gi
			resp.SizeGroups = append(resp.SizeGroups, SizeGroup{Size: f.Size, Frames: []FrameResponse{}})
		}
		group := &resp.SizeGroups[gi]
		group.Frames = append(group.Frames, view)
		group.TotalRequired += view.QtyRequired
		group.TotalCompleted += view.QtyCompleted
	}
	return resp, nil
}
