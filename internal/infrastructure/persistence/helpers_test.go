package persistence

import (
	"fmt"
	"testing"
	"time"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

// newTestDB opens an isolated in-memory sqlite database with the schema applied
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func seedStages(t *testing.T, db *gorm.DB) []production.Stage {
	t.Helper()
	repo := NewGormStageRepository(db)
	for _, s := range production.DefaultStages() {
		require.NoError(t, repo.Save(t.Context(), s))
	}
	stages, err := repo.FindAll(t.Context())
	require.NoError(t, err)
	return stages
}

func newTestBatch(t *testing.T, db *gorm.DB, orderIDs ...uuid.UUID) *production.Batch {
	t.Helper()
	if len(orderIDs) == 0 {
		orderIDs = []uuid.UUID{uuid.New()}
	}
	b, err := production.NewBatch("Batch "+uuid.NewString()[:6], orderIDs, uuid.New(), testNow)
	require.NoError(t, err)
	require.NoError(t, NewGormBatchRepository(db).Create(t.Context(), b))
	return b
}

func newTestFrames(t *testing.T, db *gorm.DB, batch *production.Batch, stageID uuid.UUID, skus ...string) []*production.Frame {
	t.Helper()
	items := make([]production.OrderItem, len(skus))
	for i, sku := range skus {
		items[i] = production.OrderItem{ID: uuid.New(), OrderID: batch.OrderIDs[0], SKU: sku, Quantity: 2}
	}
	frames := production.AggregateFrames(batch.ID, items, stageID, testNow)
	require.NoError(t, NewGormFrameRepository(db).CreateBatch(t.Context(), frames))
	return frames
}
