package persistence

import (
	"context"
	"fmt"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/frameshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

func preloadOrders(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*production.Batch, error) {
	var model models.BatchModel
	if err := r.db.WithContext(ctx).
		Preload("Orders", preloadOrders).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err, "batch")
	}
	return model.ToDomain(), nil
}

// FindAll returns a page of batches and the total count
func (r *GormBatchRepository) FindAll(ctx context.Context, filter production.BatchFilter) ([]production.Batch, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.BatchModel{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "batches")
	}

	sortField := ValidateSortField(filter.OrderBy, BatchSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", sortField, sortOrder))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var batchModels []models.BatchModel
	if err := query.Preload("Orders", preloadOrders).Find(&batchModels).Error; err != nil {
		return nil, 0, translateError(err, "batches")
	}
	batches := make([]production.Batch, len(batchModels))
	for i, m := range batchModels {
		batches[i] = *m.ToDomain()
	}
	return batches, total, nil
}

// Create inserts a new batch together with its order links
func (r *GormBatchRepository) Create(ctx context.Context, batch *production.Batch) error {
	return translateError(r.db.WithContext(ctx).Create(models.BatchModelFromDomain(batch)).Error, "batch")
}

// Save updates the batch status with optimistic locking. The aggregate has
// already bumped its version, so the stored row must hold Version-1.
func (r *GormBatchRepository) Save(ctx context.Context, batch *production.Batch) error {
	result := r.db.WithContext(ctx).
		Model(&models.BatchModel{}).
		Where("id = ? AND version = ?", batch.ID, batch.Version-1).
		Updates(map[string]interface{}{
			"name":         batch.Name,
			"status":       string(batch.Status),
			"completed_at": batch.CompletedAt,
			"archived_at":  batch.ArchivedAt,
			"version":      batch.Version,
			"updated_at":   batch.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "batch")
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormBatchRepository implements BatchRepository
var _ production.BatchRepository = (*GormBatchRepository)(nil)
