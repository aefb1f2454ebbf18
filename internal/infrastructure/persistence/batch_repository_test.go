package persistence

import (
	"testing"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormBatchRepository_CreateAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormBatchRepository(db)
	orderIDs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	batch := newTestBatch(t, db, orderIDs...)

	found, err := repo.FindByID(t.Context(), batch.ID)
	require.NoError(t, err)
	assert.Equal(t, batch.Name, found.Name)
	assert.Equal(t, orderIDs, found.OrderIDs, "order ids keep their position")
	assert.Equal(t, production.BatchStatusActive, found.Status)
	assert.Equal(t, 1, found.Version)
}

func TestGormBatchRepository_FindAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormBatchRepository(db)
	ctx := t.Context()

	for i := 0; i < 3; i++ {
		newTestBatch(t, db)
	}
	archived := newTestBatch(t, db)
	require.NoError(t, archived.Archive(testNow))
	require.NoError(t, repo.Save(ctx, archived))

	t.Run("paginates", func(t *testing.T) {
		batches, total, err := repo.FindAll(ctx, production.BatchFilter{
			Filter: shared.Filter{Page: 1, PageSize: 2},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		assert.Len(t, batches, 2)
	})

	t.Run("filters by status", func(t *testing.T) {
		batches, total, err := repo.FindAll(ctx, production.BatchFilter{
			Filter: shared.DefaultFilter(),
			Status: production.BatchStatusArchived,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, batches, 1)
		assert.Equal(t, archived.ID, batches[0].ID)
		assert.NotNil(t, batches[0].ArchivedAt)
	})

	t.Run("ignores unknown sort fields", func(t *testing.T) {
		_, total, err := repo.FindAll(ctx, production.BatchFilter{
			Filter:  shared.DefaultFilter(),
			OrderBy: "name; DROP TABLE batches",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
	})
}

func TestGormBatchRepository_Save_StaleVersion(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormBatchRepository(db)
	ctx := t.Context()
	batch := newTestBatch(t, db)

	stale, err := repo.FindByID(ctx, batch.ID)
	require.NoError(t, err)

	require.NoError(t, batch.Archive(testNow))
	require.NoError(t, repo.Save(ctx, batch))

	require.NoError(t, stale.Complete(testNow))
	err = repo.Save(ctx, stale)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}
