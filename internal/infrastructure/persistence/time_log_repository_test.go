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

func createLog(t *testing.T, repo *GormTimeLogRepository, user, stage uuid.UUID, batch *uuid.UUID, completedAt time.Time) *production.TimeLogEntry {
	t.Helper()
	entry, err := production.NewManualTimeLog(production.ManualTimeLog{
		UserID:         user,
		StageID:        stage,
		BatchID:        batch,
		Duration:       30 * time.Minute,
		ItemsProcessed: 6,
		CompletedAt:    completedAt,
	}, testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Create(t.Context(), entry))
	return entry
}

func TestGormTimeLogRepository_FindAllFilters(t *testing.T) {
	repo := NewGormTimeLogRepository(newTestDB(t))
	ctx := t.Context()
	alice, bob := uuid.New(), uuid.New()
	cutting, sanding := uuid.New(), uuid.New()
	batch := uuid.New()

	createLog(t, repo, alice, cutting, &batch, testNow.Add(-3*time.Hour))
	createLog(t, repo, alice, sanding, nil, testNow.Add(-2*time.Hour))
	latest := createLog(t, repo, bob, cutting, &batch, testNow.Add(-time.Hour))

	tests := []struct {
		name   string
		filter production.TimeLogFilter
		want   int
	}{
		{"no filter", production.TimeLogFilter{}, 3},
		{"by user", production.TimeLogFilter{UserID: &alice}, 2},
		{"by stage", production.TimeLogFilter{StageID: &cutting}, 2},
		{"by batch", production.TimeLogFilter{BatchID: &batch}, 2},
		{"by user and stage", production.TimeLogFilter{UserID: &alice, StageID: &sanding}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := repo.FindAll(ctx, tt.filter)
			require.NoError(t, err)
			assert.Len(t, entries, tt.want)
		})
	}

	t.Run("date range and newest first", func(t *testing.T) {
		from := testNow.Add(-150 * time.Minute)
		entries, err := repo.FindAll(ctx, production.TimeLogFilter{From: &from})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, latest.ID, entries[0].ID)
	})
}

func TestGormTimeLogRepository_SaveCorrection(t *testing.T) {
	repo := NewGormTimeLogRepository(newTestDB(t))
	ctx := t.Context()
	entry := createLog(t, repo, uuid.New(), uuid.New(), nil, testNow.Add(-time.Hour))

	d := 45 * time.Minute
	require.NoError(t, entry.Correct(production.Correction{
		Duration: &d,
		Notes:    "forgot to stop",
		EditorID: uuid.New(),
	}, testNow))
	require.NoError(t, repo.Save(ctx, entry))

	stored, err := repo.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, stored.Duration)
	require.NotNil(t, stored.OriginalDuration)
	assert.Equal(t, 30*time.Minute, *stored.OriginalDuration)
	assert.Equal(t, "forgot to stop", stored.AdminNotes)
	assert.NotNil(t, stored.EditedAt)
	assert.True(t, stored.ManualEntry)
}

func TestGormTimeLogRepository_NotFound(t *testing.T) {
	repo := NewGormTimeLogRepository(newTestDB(t))

	_, err := repo.FindByID(t.Context(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	missing := &production.TimeLogEntry{ID: uuid.New()}
	assert.ErrorIs(t, repo.Save(t.Context(), missing), shared.ErrNotFound)
}
