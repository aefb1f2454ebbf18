package persistence

import (
	"context"

	appprod "github.com/frameshop/backend/internal/application/production"
	"github.com/frameshop/backend/internal/domain/production"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction. The transaction is rolled
// back when fn returns an error.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appprod.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories hands out repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Batches() production.BatchRepository {
	return NewGormBatchRepository(r.tx)
}

func (r *gormTransactionalRepositories) Frames() production.FrameRepository {
	return NewGormFrameRepository(r.tx)
}

func (r *gormTransactionalRepositories) Progress() production.ProgressRepository {
	return NewGormProgressRepository(r.tx)
}

func (r *gormTransactionalRepositories) Sessions() production.TimerSessionRepository {
	return NewGormTimerSessionRepository(r.tx)
}

func (r *gormTransactionalRepositories) TimeLogs() production.TimeLogRepository {
	return NewGormTimeLogRepository(r.tx)
}

func (r *gormTransactionalRepositories) Inventory() production.InventoryHandoff {
	return NewGormInventoryHandoff(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appprod.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appprod.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
