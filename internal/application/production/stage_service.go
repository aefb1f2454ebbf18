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

// StageService manages the stage pipeline
type StageService struct {
	stageRepo production.StageRepository
	logger    *zap.Logger
	now       Clock
}

// NewStageService creates a new StageService
func NewStageService(stageRepo production.StageRepository, logger *zap.Logger) *StageService {
	return &StageService{
		stageRepo: stageRepo,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock replaces the time source
func (s *StageService) SetClock(now Clock) {
	s.now = now
}

// Registry loads the current pipeline
func (s *StageService) Registry(ctx context.Context) (*production.StageRegistry, error) {
	stages, err := s.stageRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return production.NewStageRegistry(stages)
}

// List returns every stage ordered by order index
func (s *StageService) List(ctx context.Context) ([]StageResponse, error) {
	registry, err := s.Registry(ctx)
	if err != nil {
		return nil, err
	}
	stages := registry.All()
	out := make([]StageResponse, len(stages))
	for i, st := range stages {
		out[i] = ToStageResponse(st, registry)
	}
	return out, nil
}

// Create adds a stage. Work stage orders must stay contiguous from 1, and the
// pipeline cannot change shape while frames are in production.
func (s *StageService) Create(ctx context.Context, req CreateStageRequest) (_ *StageResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stage", "create")
	defer telemetry.EndSpan(span, &err)

	stage, err := production.NewStage(req.Name, req.Order, req.Color)
	if err != nil {
		return nil, err
	}
	existing, err := s.stageRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	registry, err := s.checkPipeline(ctx, append(existing, *stage), "added")
	if err != nil {
		return nil, err
	}
	if err := s.stageRepo.Save(ctx, stage); err != nil {
		return nil, err
	}

	s.logger.Info("Stage created",
		zap.String("stage_id", stage.ID.String()),
		zap.String("name", stage.Name),
		zap.Int("order", stage.Order),
	)
	resp := ToStageResponse(*stage, registry)
	return &resp, nil
}

// Update renames, recolors or reorders a stage. Renames and recolors are
// always allowed; a reorder is a structural change.
func (s *StageService) Update(ctx context.Context, id uuid.UUID, req UpdateStageRequest) (_ *StageResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stage", "update", telemetry.SpanAttrStageID, id)
	defer telemetry.EndSpan(span, &err)

	stage, err := s.stageRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name, order, color := stage.Name, stage.Order, stage.Color
	if req.Name != nil {
		name = *req.Name
	}
	if req.Order != nil {
		order = *req.Order
	}
	if req.Color != nil {
		color = *req.Color
	}
	reordered := order != stage.Order
	if err := stage.Update(name, order, color, s.now()); err != nil {
		return nil, err
	}

	all, err := s.stageRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == stage.ID {
			all[i] = *stage
		}
	}
	var registry *production.StageRegistry
	if reordered {
		registry, err = s.checkPipeline(ctx, all, "reordered")
	} else {
		registry, err = production.NewStageRegistry(all)
	}
	if err != nil {
		return nil, err
	}
	if err := s.stageRepo.Save(ctx, stage); err != nil {
		return nil, err
	}

	s.logger.Info("Stage updated",
		zap.String("stage_id", stage.ID.String()),
		zap.String("name", stage.Name),
		zap.Int("order", stage.Order),
	)
	resp := ToStageResponse(*stage, registry)
	return &resp, nil
}

// Delete removes a stage that has no production history, provided the
// remaining pipeline stays contiguous
func (s *StageService) Delete(ctx context.Context, id uuid.UUID) (err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stage", "delete", telemetry.SpanAttrStageID, id)
	defer telemetry.EndSpan(span, &err)

	stage, err := s.stageRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	referenced, err := s.stageRepo.IsReferenced(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return shared.NewStateError("stage %q has production history and cannot be deleted", stage.Name)
	}

	all, err := s.stageRepo.FindAll(ctx)
	if err != nil {
		return err
	}
	remaining := make([]production.Stage, 0, len(all))
	for _, st := range all {
		if st.ID != id {
			remaining = append(remaining, st)
		}
	}
	if _, err := s.checkPipeline(ctx, remaining, "deleted"); err != nil {
		return err
	}
	if err := s.stageRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Stage deleted", zap.String("stage_id", id.String()), zap.String("name", stage.Name))
	return nil
}

// checkPipeline validates the stage set a structural change would leave
// behind. Frames in production keep the pipeline they started with.
func (s *StageService) checkPipeline(ctx context.Context, stages []production.Stage, action string) (*production.StageRegistry, error) {
	registry, err := production.NewStageRegistry(stages)
	if err != nil {
		return nil, err
	}
	if err := registry.CheckContiguous(); err != nil {
		return nil, err
	}
	busy, err := s.stageRepo.HasFramesInProduction(ctx)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, shared.NewStateError("stages cannot be %s while frames are in production", action)
	}
	return registry, nil
}

// EnsureDefaults seeds the default pipeline when no stages exist.
// It returns the number of stages created.
func (s *StageService) EnsureDefaults(ctx context.Context) (int, error) {
	existing, err := s.stageRepo.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	defaults := production.DefaultStages()
	for _, stage := range defaults {
		if err := s.stageRepo.Save(ctx, stage); err != nil {
			return 0, err
		}
	}
	s.logger.Info("Seeded default production stages", zap.Int("count", len(defaults)))
	return len(defaults), nil
}

var _ StageCatalog = (*StageService)(nil)
