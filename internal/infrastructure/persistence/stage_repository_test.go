package persistence

import (
	"testing"
	"time"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStageRepository_FindAllOrdersByIndex(t *testing.T) {
	db := newTestDB(t)
	stages := seedStages(t, db)

	require.Len(t, stages, 5)
	for i, s := range stages {
		assert.Equal(t, i, s.Order)
	}
	assert.Equal(t, "Quality Check", stages[4].Name)
}

func TestGormStageRepository_Save(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStageRepository(db)
	ctx := t.Context()
	stages := seedStages(t, db)

	t.Run("updates an existing stage", func(t *testing.T) {
		s := stages[1]
		require.NoError(t, s.Update("Cut", s.Order, "#112233", testNow))
		require.NoError(t, repo.Save(ctx, &s))

		found, err := repo.FindByID(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cut", found.Name)
		assert.Equal(t, "#112233", found.Color)
	})

	t.Run("duplicate order is a conflict", func(t *testing.T) {
		dup, err := production.NewStage("Painting", 2, "")
		require.NoError(t, err)

		err = repo.Save(ctx, dup)
		assert.ErrorIs(t, err, shared.ErrConflict)
	})
}

func TestGormStageRepository_FindByID_NotFound(t *testing.T) {
	repo := NewGormStageRepository(newTestDB(t))

	_, err := repo.FindByID(t.Context(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormStageRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStageRepository(db)
	stages := seedStages(t, db)

	require.NoError(t, repo.Delete(t.Context(), stages[2].ID))
	assert.ErrorIs(t, repo.Delete(t.Context(), stages[2].ID), shared.ErrNotFound)
}

func TestGormStageRepository_IsReferenced(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStageRepository(db)
	ctx := t.Context()
	stages := seedStages(t, db)
	newStage, cutting, sanding, assembly, qc := stages[0], stages[1], stages[2], stages[3], stages[4]

	batch := newTestBatch(t, db)
	frames := newTestFrames(t, db, batch, cutting.ID, "FR-1-S-RED")

	session, err := production.StartTimerSession(uuid.New(), sanding.ID, nil, testNow)
	require.NoError(t, err)
	require.NoError(t, NewGormTimerSessionRepository(db).Create(ctx, session))

	createLog(t, NewGormTimeLogRepository(db), uuid.New(), assembly.ID, &batch.ID, testNow.Add(-time.Hour))
	require.NoError(t, NewGormProgressRepository(db).Upsert(ctx, production.NewStageProgress(frames[0].ID, qc.ID, testNow)))

	tests := []struct {
		name  string
		stage production.Stage
		want  bool
	}{
		{"frame sits at the stage", cutting, true},
		{"open session tracks the stage", sanding, true},
		{"time log recorded at the stage", assembly, true},
		{"ledger entry at the stage", qc, true},
		{"untouched stage", newStage, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			referenced, err := repo.IsReferenced(ctx, tt.stage.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, referenced)
		})
	}
}

func TestGormStageRepository_HasFramesInProduction(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStageRepository(db)
	stages := seedStages(t, db)

	busy, err := repo.HasFramesInProduction(t.Context())
	require.NoError(t, err)
	assert.False(t, busy)

	newTestFrames(t, db, newTestBatch(t, db), stages[1].ID, "FR-1-S-RED")

	busy, err = repo.HasFramesInProduction(t.Context())
	require.NoError(t, err)
	assert.True(t, busy)
}
