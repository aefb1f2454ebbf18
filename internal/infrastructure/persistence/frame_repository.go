package persistence

import (
	"context"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/frameshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const frameInsertBatchSize = 100

// GormFrameRepository implements FrameRepository using GORM
type GormFrameRepository struct {
	db *gorm.DB
}

// NewGormFrameRepository creates a new GormFrameRepository
func NewGormFrameRepository(db *gorm.DB) *GormFrameRepository {
	return &GormFrameRepository{db: db}
}

// FindByID finds a frame by its ID
func (r *GormFrameRepository) FindByID(ctx context.Context, id uuid.UUID) (*production.Frame, error) {
	var model models.FrameModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "frame")
	}
	return model.ToDomain(), nil
}

// FindByBatch returns every frame of a batch in display order
func (r *GormFrameRepository) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]production.Frame, error) {
	return r.find(r.db.WithContext(ctx).Where("batch_id = ?", batchID))
}

// FindByBatchAndStage returns the in-production frames of a batch sitting at a stage
func (r *GormFrameRepository) FindByBatchAndStage(ctx context.Context, batchID, stageID uuid.UUID) ([]production.Frame, error) {
	return r.find(r.db.WithContext(ctx).
		Where("batch_id = ? AND current_stage_id = ? AND status = ?", batchID, stageID, production.FrameStatusInProduction))
}

func (r *GormFrameRepository) find(query *gorm.DB) ([]production.Frame, error) {
	var frameModels []models.FrameModel
	if err := query.Find(&frameModels).Error; err != nil {
		return nil, translateError(err, "frames")
	}
	frames := make([]production.Frame, len(frameModels))
	for i, m := range frameModels {
		frames[i] = *m.ToDomain()
	}
	production.SortFrames(frames)
	return frames, nil
}

// CreateBatch inserts the frames of a new batch
func (r *GormFrameRepository) CreateBatch(ctx context.Context, frames []*production.Frame) error {
	if len(frames) == 0 {
		return nil
	}
	frameModels := make([]*models.FrameModel, len(frames))
	for i, f := range frames {
		frameModels[i] = models.FrameModelFromDomain(f)
	}
	return translateError(r.db.WithContext(ctx).CreateInBatches(frameModels, frameInsertBatchSize).Error, "frame")
}

// Save updates a frame with optimistic locking. The aggregate has already
// bumped its version, so the stored row must hold Version-1.
func (r *GormFrameRepository) Save(ctx context.Context, frame *production.Frame) error {
	result := r.db.WithContext(ctx).
		Model(&models.FrameModel{}).
		Where("id = ? AND version = ?", frame.ID, frame.Version-1).
		Updates(map[string]interface{}{
			"current_stage_id": frame.CurrentStageID,
			"status":           string(frame.Status),
			"inventoried_at":   frame.InventoriedAt,
			"qty_good":         frame.QtyGood,
			"qty_rejected":     frame.QtyRejected,
			"version":          frame.Version,
			"updated_at":       frame.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "frame")
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormFrameRepository implements FrameRepository
var _ production.FrameRepository = (*GormFrameRepository)(nil)
