package production

import (
	"context"
	"sync"
	"testing"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressService_SetProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	batch := f.newBatch(t, map[string]int{"FR-1225-S-RED": 10})
	frame := f.frames(t, batch.ID)[0]
	worker := uuid.New()

	cmd := SetProgressCommand{BatchID: batch.ID, FrameID: frame.ID, UserID: worker, QtyCompleted: 4}

	t.Run("requires a running timer on the frame's stage", func(t *testing.T) {
		_, err := f.progressSvc.SetProgress(ctx, cmd)
		assert.ErrorIs(t, err, shared.ErrGate)

		_, err = f.timerSvc.Start(ctx, worker, f.stage("Sanding").ID, nil)
		require.NoError(t, err)
		_, err = f.progressSvc.SetProgress(ctx, cmd)
		assert.ErrorIs(t, err, shared.ErrGate, "timer on another stage")

		_, err = f.timerSvc.Stop(ctx, worker, f.stage("Sanding").ID, StopTimerRequest{})
		require.NoError(t, err)
		_, err = f.timerSvc.Start(ctx, worker, f.stage("Cutting").ID, nil)
		require.NoError(t, err)
		_, err = f.timerSvc.Pause(ctx, worker, f.stage("Cutting").ID)
		require.NoError(t, err)
		_, err = f.progressSvc.SetProgress(ctx, cmd)
		assert.ErrorIs(t, err, shared.ErrGate, "paused timer")

		_, err = f.timerSvc.Resume(ctx, worker, f.stage("Cutting").ID)
		require.NoError(t, err)
	})

	t.Run("overwrites the count", func(t *testing.T) {
		resp, err := f.progressSvc.SetProgress(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, 4, resp.QtyCompleted)
		assert.False(t, resp.IsComplete)

		again, err := f.progressSvc.SetProgress(ctx, cmd)
		require.NoError(t, err)
		assert.Equal(t, 4, again.QtyCompleted, "repeating a write is idempotent")

		lower := cmd
		lower.QtyCompleted = 2
		resp, err = f.progressSvc.SetProgress(ctx, lower)
		require.NoError(t, err)
		assert.Equal(t, 2, resp.QtyCompleted, "last write wins")

		full := cmd
		full.QtyCompleted = 10
		resp, err = f.progressSvc.SetProgress(ctx, full)
		require.NoError(t, err)
		assert.True(t, resp.IsComplete)
		assert.Len(t, f.publisher.GetEventsByType(production.EventTypeFrameProgressRecorded), 4)
	})

	t.Run("rejects out of range counts", func(t *testing.T) {
		over := cmd
		over.QtyCompleted = 11
		_, err := f.progressSvc.SetProgress(ctx, over)
		assert.ErrorIs(t, err, shared.ErrValidation)

		negative := cmd
		negative.QtyCompleted = -1
		_, err = f.progressSvc.SetProgress(ctx, negative)
		assert.ErrorIs(t, err, shared.ErrValidation)

		rejected := cmd
		rejected.QtyRejected = intPtr(1)
		_, err = f.progressSvc.SetProgress(ctx, rejected)
		assert.ErrorIs(t, err, shared.ErrValidation, "rejections belong to the final stage")

		entry, err := f.progress.Find(ctx, frame.ID, f.stage("Cutting").ID)
		require.NoError(t, err)
		assert.Equal(t, 10, entry.QtyCompleted, "failed writes leave the ledger untouched")
	})

	t.Run("frame of another batch", func(t *testing.T) {
		other := f.newBatch(t, map[string]int{"FR-1225-L-BLUE": 1})
		wrong := cmd
		wrong.BatchID = other.ID
		_, err := f.progressSvc.SetProgress(ctx, wrong)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("archived batch", func(t *testing.T) {
		_, err := f.batchSvc.Archive(ctx, batch.ID)
		require.NoError(t, err)
		_, err = f.progressSvc.SetProgress(ctx, cmd)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestProgressService_ConcurrentWritesKeepOneValue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	batch := f.newBatch(t, map[string]int{"FR-1225-XL-OAK": 20})
	frame := f.frames(t, batch.ID)[0]
	cutting := f.stage("Cutting").ID

	workers := make([]uuid.UUID, 5)
	for i := range workers {
		workers[i] = uuid.New()
		_, err := f.timerSvc.Start(ctx, workers[i], cutting, nil)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for i, worker := range workers {
		wg.Add(1)
		go func(qty int, worker uuid.UUID) {
			defer wg.Done()
			_, err := f.progressSvc.SetProgress(ctx, SetProgressCommand{
				BatchID: batch.ID, FrameID: frame.ID, UserID: worker, QtyCompleted: qty,
			})
			assert.NoError(t, err)
		}((i+1)*4, worker)
	}
	wg.Wait()

	entry, err := f.progress.Find(ctx, frame.ID, cutting)
	require.NoError(t, err)
	assert.Contains(t, []int{4, 8, 12, 16, 20}, entry.QtyCompleted)
	assert.Zero(t, entry.QtyRejected)
}
