package persistence

import (
	"context"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProgressRepository implements ProgressRepository using GORM
type GormProgressRepository struct {
	db *gorm.DB
}

// NewGormProgressRepository creates a new GormProgressRepository
func NewGormProgressRepository(db *gorm.DB) *GormProgressRepository {
	return &GormProgressRepository{db: db}
}

// Find returns the ledger entry of a frame at a stage
func (r *GormProgressRepository) Find(ctx context.Context, frameID, stageID uuid.UUID) (*production.StageProgress, error) {
	var model models.StageProgressModel
	if err := r.db.WithContext(ctx).
		Where("frame_id = ? AND stage_id = ?", frameID, stageID).
		First(&model).Error; err != nil {
		return nil, translateError(err, "stage progress")
	}
	return model.ToDomain(), nil
}

// FindByFrames returns every ledger entry of the given frames
func (r *GormProgressRepository) FindByFrames(ctx context.Context, frameIDs []uuid.UUID) ([]production.StageProgress, error) {
	if len(frameIDs) == 0 {
		return []production.StageProgress{}, nil
	}
	var progressModels []models.StageProgressModel
	if err := r.db.WithContext(ctx).
		Where("frame_id IN ?", frameIDs).
		Find(&progressModels).Error; err != nil {
		return nil, translateError(err, "stage progress")
	}
	entries := make([]production.StageProgress, len(progressModels))
	for i, m := range progressModels {
		entries[i] = *m.ToDomain()
	}
	return entries, nil
}

// Upsert writes the entry keyed by (frame_id, stage_id)
func (r *GormProgressRepository) Upsert(ctx context.Context, progress *production.StageProgress) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "frame_id"}, {Name: "stage_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"qty_completed", "qty_rejected", "updated_by", "updated_at"}),
		}).
		Create(models.StageProgressModelFromDomain(progress)).Error
	return translateError(err, "stage progress")
}

// Ensure GormProgressRepository implements ProgressRepository
var _ production.ProgressRepository = (*GormProgressRepository)(nil)
