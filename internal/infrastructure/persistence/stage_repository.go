package persistence

import (
	"context"
	"errors"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/frameshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStageRepository implements StageRepository using GORM
type GormStageRepository struct {
	db *gorm.DB
}

// NewGormStageRepository creates a new GormStageRepository
func NewGormStageRepository(db *gorm.DB) *GormStageRepository {
	return &GormStageRepository{db: db}
}

// FindAll returns every stage ordered by order index
func (r *GormStageRepository) FindAll(ctx context.Context) ([]production.Stage, error) {
	var stageModels []models.StageModel
	if err := r.db.WithContext(ctx).Order("order_index ASC").Find(&stageModels).Error; err != nil {
		return nil, translateError(err, "stages")
	}
	stages := make([]production.Stage, len(stageModels))
	for i, m := range stageModels {
		stages[i] = *m.ToDomain()
	}
	return stages, nil
}

// FindByID finds a stage by its ID
func (r *GormStageRepository) FindByID(ctx context.Context, id uuid.UUID) (*production.Stage, error) {
	var model models.StageModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "stage")
	}
	return model.ToDomain(), nil
}

// Save creates or updates a stage. A taken order index is a conflict.
func (r *GormStageRepository) Save(ctx context.Context, stage *production.Stage) error {
	err := r.db.WithContext(ctx).Save(models.StageModelFromDomain(stage)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewConflictError("stage order %d is already in use", stage.Order)
	}
	return translateError(err, "stage")
}

// Delete deletes a stage
func (r *GormStageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.StageModel{}, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
		return shared.NewStateError("stage has production history and cannot be deleted")
	}
	if result.Error != nil {
		return translateError(result.Error, "stage")
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("stage")
	}
	return nil
}

// IsReferenced reports whether any frame, ledger entry, timer session or
// time log points at the stage. Each of them holds a foreign key to it.
func (r *GormStageRepository) IsReferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	checks := []struct {
		model    any
		column   string
		resource string
	}{
		{&models.FrameModel{}, "current_stage_id", "frames"},
		{&models.StageProgressModel{}, "stage_id", "stage progress"},
		{&models.TimerSessionModel{}, "stage_id", "timer sessions"},
		{&models.TimeLogModel{}, "stage_id", "time logs"},
	}
	for _, c := range checks {
		var count int64
		if err := r.db.WithContext(ctx).Model(c.model).
			Where(c.column+" = ?", id).
			Count(&count).Error; err != nil {
			return false, translateError(err, c.resource)
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

// HasFramesInProduction reports whether any frame is still in production
func (r *GormStageRepository) HasFramesInProduction(ctx context.Context) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.FrameModel{}).
		Where("status = ?", production.FrameStatusInProduction).
		Count(&count).Error; err != nil {
		return false, translateError(err, "frames")
	}
	return count > 0, nil
}

// Ensure GormStageRepository implements StageRepository
var _ production.StageRepository = (*GormStageRepository)(nil)
