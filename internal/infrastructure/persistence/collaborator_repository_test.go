package persistence

import (
	"testing"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/frameshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormOrderSource_FindItemsByOrderIDs(t *testing.T) {
	db := newTestDB(t)
	source := NewGormOrderSource(db)
	order1, order2, other := uuid.New(), uuid.New(), uuid.New()

	for _, item := range []models.OrderItemModel{
		{ID: uuid.New(), OrderID: order1, SKU: "FR-1-S-RED", Quantity: 2, Price: decimal.NewFromInt(10)},
		{ID: uuid.New(), OrderID: order2, SKU: "FR-1-L-RED", Quantity: 1, Price: decimal.RequireFromString("12.50")},
		{ID: uuid.New(), OrderID: other, SKU: "FR-1-XL-RED", Quantity: 4},
	} {
		require.NoError(t, db.Create(&item).Error)
	}

	items, err := source.FindItemsByOrderIDs(t.Context(), []uuid.UUID{order1, order2})
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, item := range items {
		assert.NotEqual(t, other, item.OrderID)
		if item.OrderID == order2 {
			assert.True(t, decimal.RequireFromString("12.5").Equal(item.Price))
		}
	}

	items, err = source.FindItemsByOrderIDs(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGormUserDirectory_FindWorkers(t *testing.T) {
	db := newTestDB(t)
	directory := NewGormUserDirectory(db)

	known := models.WorkerModel{Name: "Dana", HourlyRate: decimal.NewFromInt(18), Active: true}
	known.ID = uuid.New()
	known.CreatedAt = testNow
	known.UpdatedAt = testNow
	require.NoError(t, db.Create(&known).Error)

	unknown := uuid.New()
	workers, err := directory.FindWorkers(t.Context(), []uuid.UUID{known.ID, unknown})
	require.NoError(t, err)
	require.Len(t, workers, 1)
	assert.Equal(t, "Dana", workers[known.ID].Name)
	assert.True(t, decimal.NewFromInt(18).Equal(workers[known.ID].HourlyRate))
	_, ok := workers[unknown]
	assert.False(t, ok)
}

func TestGormInventoryHandoff_Receive(t *testing.T) {
	db := newTestDB(t)
	handoff := NewGormInventoryHandoff(db)
	ctx := t.Context()
	batchID := uuid.New()

	receipt := production.InventoryReceipt{
		ID:          uuid.New(),
		FrameID:     uuid.New(),
		BatchID:     batchID,
		Size:        "S",
		Color:       "RED",
		QtyGood:     4,
		QtyRejected: 1,
		ReceivedBy:  uuid.New(),
		ReceivedAt:  testNow,
	}
	require.NoError(t, handoff.Receive(ctx, receipt))

	again := receipt
	again.ID = uuid.New()
	assert.ErrorIs(t, handoff.Receive(ctx, again), shared.ErrConflict)

	receipts, err := handoff.FindByBatch(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, receipts, 1)
	assert.Equal(t, 4, receipts[0].QtyGood)
	assert.Equal(t, 1, receipts[0].QtyRejected)
}
