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

// GormOrderSource reads order line items from the order_items table
type GormOrderSource struct {
	db *gorm.DB
}

// NewGormOrderSource creates a new GormOrderSource
func NewGormOrderSource(db *gorm.DB) *GormOrderSource {
	return &GormOrderSource{db: db}
}

// FindItemsByOrderIDs returns the line items of the given orders
func (r *GormOrderSource) FindItemsByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]production.OrderItem, error) {
	if len(orderIDs) == 0 {
		return []production.OrderItem{}, nil
	}
	var itemModels []models.OrderItemModel
	if err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("order_id ASC, sku ASC").
		Find(&itemModels).Error; err != nil {
		return nil, translateError(err, "order items")
	}
	items := make([]production.OrderItem, len(itemModels))
	for i, m := range itemModels {
		items[i] = m.ToDomain()
	}
	return items, nil
}

// GormUserDirectory resolves workers from the workers table
type GormUserDirectory struct {
	db *gorm.DB
}

// NewGormUserDirectory creates a new GormUserDirectory
func NewGormUserDirectory(db *gorm.DB) *GormUserDirectory {
	return &GormUserDirectory{db: db}
}

// FindWorkers returns the known workers among ids
func (r *GormUserDirectory) FindWorkers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]production.Worker, error) {
	workers := make(map[uuid.UUID]production.Worker, len(ids))
	if len(ids) == 0 {
		return workers, nil
	}
	var workerModels []models.WorkerModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&workerModels).Error; err != nil {
		return nil, translateError(err, "workers")
	}
	for _, m := range workerModels {
		workers[m.ID] = m.ToDomain()
	}
	return workers, nil
}

// GormInventoryHandoff records finished frames in inventory_receipts
type GormInventoryHandoff struct {
	db *gorm.DB
}

// NewGormInventoryHandoff creates a new GormInventoryHandoff
func NewGormInventoryHandoff(db *gorm.DB) *GormInventoryHandoff {
	return &GormInventoryHandoff{db: db}
}

// Receive stores a receipt. A frame can only be received once.
func (r *GormInventoryHandoff) Receive(ctx context.Context, receipt production.InventoryReceipt) error {
	err := r.db.WithContext(ctx).Create(models.InventoryReceiptModelFromDomain(receipt)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewConflictError("frame %s was already received into inventory", receipt.FrameID)
	}
	return translateError(err, "inventory receipt")
}

// FindByBatch returns the receipts of a batch
func (r *GormInventoryHandoff) FindByBatch(ctx context.Context, batchID uuid.UUID) ([]production.InventoryReceipt, error) {
	var receiptModels []models.InventoryReceiptModel
	if err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("received_at ASC").
		Find(&receiptModels).Error; err != nil {
		return nil, translateError(err, "inventory receipts")
	}
	receipts := make([]production.InventoryReceipt, len(receiptModels))
	for i, m := range receiptModels {
		receipts[i] = m.ToDomain()
	}
	return receipts, nil
}

var (
	_ production.OrderSource      = (*GormOrderSource)(nil)
	_ production.UserDirectory    = (*GormUserDirectory)(nil)
	_ production.InventoryHandoff = (*GormInventoryHandoff)(nil)
)
