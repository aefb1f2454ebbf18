package production

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(sku string, qty int) OrderItem {
	return OrderItem{ID: uuid.New(), OrderID: uuid.New(), SKU: sku, Quantity: qty}
}

func TestAggregateFrames(t *testing.T) {
	batchID := uuid.New()
	stageID := uuid.New()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("sums quantities of matching size and color", func(t *testing.T) {
		frames := AggregateFrames(batchID, []OrderItem{
			item("BWF-AD-1225-HS-W", 2),
			item("BWF-AD-1225-HS-W", 3),
		}, stageID, now)

		require.Len(t, frames, 1)
		f := frames[0]
		assert.Equal(t, "HS", f.Size)
		assert.Equal(t, "W", f.Color)
		assert.Equal(t, 5, f.QtyRequired)
		assert.Equal(t, batchID, f.BatchID)
		assert.Equal(t, stageID, f.CurrentStageID)
		assert.Equal(t, FrameStatusInProduction, f.Status)
		assert.NotEqual(t, uuid.Nil, f.ID)
	})

	t.Run("orders by size rank with unknown last", func(t *testing.T) {
		frames := AggregateFrames(batchID, []OrderItem{
			item("NOSKU", 1),
			item("BWF-XL-B", 1),
			item("BWF-S-W", 1),
		}, stageID, now)

		require.Len(t, frames, 3)
		assert.Equal(t, "S", frames[0].Size)
		assert.Equal(t, "XL", frames[1].Size)
		assert.Equal(t, UnknownAttribute, frames[2].Size)
		assert.Equal(t, UnknownAttribute, frames[2].Color)
	})

	t.Run("orders colors within a size", func(t *testing.T) {
		frames := AggregateFrames(batchID, []OrderItem{
			item("BWF-L-W", 1),
			item("BWF-L-B", 4),
			item("BWF-L-N", 2),
		}, stageID, now)

		require.Len(t, frames, 3)
		assert.Equal(t, []string{"B", "N", "W"}, []string{frames[0].Color, frames[1].Color, frames[2].Color})
		assert.Equal(t, 4, frames[0].QtyRequired)
	})

	t.Run("empty input yields no frames", func(t *testing.T) {
		assert.Empty(t, AggregateFrames(batchID, nil, stageID, now))
	})

	t.Run("skips non-positive quantities", func(t *testing.T) {
		frames := AggregateFrames(batchID, []OrderItem{
			item("BWF-S-W", 0),
			item("BWF-S-W", -2),
			item("BWF-L-W", 1),
		}, stageID, now)

		require.Len(t, frames, 1)
		assert.Equal(t, "L", frames[0].Size)
	})
}

func TestGroupOrderItems_CountsSources(t *testing.T) {
	groups := GroupOrderItems([]OrderItem{
		item("A-HS-W", 1),
		item("B-HS-W", 1),
		item("C-HX-W", 2),
	})

	require.Len(t, groups, 2)
	assert.Equal(t, 2, groups[0].SourceItems)
	assert.Equal(t, 2, groups[0].QtyRequired)
	assert.Equal(t, "HX", groups[1].Size)
}
