package persistence

import (
	"context"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/frameshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTimeLogRepository implements TimeLogRepository using GORM
type GormTimeLogRepository struct {
	db *gorm.DB
}

// NewGormTimeLogRepository creates a new GormTimeLogRepository
func NewGormTimeLogRepository(db *gorm.DB) *GormTimeLogRepository {
	return &GormTimeLogRepository{db: db}
}

// FindByID finds a time log by its ID
func (r *GormTimeLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*production.TimeLogEntry, error) {
	var model models.TimeLogModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "time log")
	}
	return model.ToDomain(), nil
}

// FindAll returns the logs matching the filter, newest first
func (r *GormTimeLogRepository) FindAll(ctx context.Context, filter production.TimeLogFilter) ([]production.TimeLogEntry, error) {
	query := r.db.WithContext(ctx).Model(&models.TimeLogModel{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.StageID != nil {
		query = query.Where("stage_id = ?", *filter.StageID)
	}
	if filter.BatchID != nil {
		query = query.Where("batch_id = ?", *filter.BatchID)
	}
	if filter.From != nil {
		query = query.Where("completed_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("completed_at < ?", *filter.To)
	}

	var logModels []models.TimeLogModel
	if err := query.Order("completed_at DESC").Find(&logModels).Error; err != nil {
		return nil, translateError(err, "time logs")
	}
	entries := make([]production.TimeLogEntry, len(logModels))
	for i, m := range logModels {
		entries[i] = *m.ToDomain()
	}
	return entries, nil
}

// Create inserts a time log
func (r *GormTimeLogRepository) Create(ctx context.Context, entry *production.TimeLogEntry) error {
	return translateError(r.db.WithContext(ctx).Create(models.TimeLogModelFromDomain(entry)).Error, "time log")
}

// Save persists a correction
func (r *GormTimeLogRepository) Save(ctx context.Context, entry *production.TimeLogEntry) error {
	m := models.TimeLogModelFromDomain(entry)
	result := r.db.WithContext(ctx).
		Model(&models.TimeLogModel{}).
		Where("id = ?", entry.ID).
		Updates(map[string]interface{}{
			"duration_ms":          m.DurationMs,
			"items_processed":      m.ItemsProcessed,
			"items_rejected":       m.ItemsRejected,
			"edited_at":            m.EditedAt,
			"edited_by":            m.EditedBy,
			"original_duration_ms": m.OriginalDurationMs,
			"admin_notes":          m.AdminNotes,
		})
	if result.Error != nil {
		return translateError(result.Error, "time log")
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError("time log")
	}
	return nil
}

// Ensure GormTimeLogRepository implements TimeLogRepository
var _ production.TimeLogRepository = (*GormTimeLogRepository)(nil)
