package persistence

import (
	"errors"
	"testing"
	"time"

	appprod "github.com/frameshop/backend/internal/application/production"
	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope_CommitsStop(t *testing.T) {
	db := newTestDB(t)
	scope := NewGormTransactionScope(db)
	sessions := NewGormTimerSessionRepository(db)
	ctx := t.Context()

	s, err := production.StartTimerSession(uuid.New(), uuid.New(), nil, testNow)
	require.NoError(t, err)
	require.NoError(t, sessions.Create(ctx, s))

	entry, err := s.Stop(testNow.Add(30*time.Minute), 3, 0)
	require.NoError(t, err)

	err = scope.Execute(ctx, func(repos appprod.TransactionalRepositories) error {
		if err := repos.TimeLogs().Create(ctx, entry); err != nil {
			return err
		}
		return repos.Sessions().Delete(ctx, s.ID)
	})
	require.NoError(t, err)

	_, err = sessions.FindByUser(ctx, s.UserID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	stored, err := NewGormTimeLogRepository(db).FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Minute, stored.Duration)
}

func TestGormTransactionScope_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	scope := NewGormTransactionScope(db)
	ctx := t.Context()
	boom := errors.New("boom")

	batch, err := production.NewBatch("Rollback", []uuid.UUID{uuid.New()}, uuid.New(), testNow)
	require.NoError(t, err)

	err = scope.Execute(ctx, func(repos appprod.TransactionalRepositories) error {
		if err := repos.Batches().Create(ctx, batch); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = NewGormBatchRepository(db).FindByID(ctx, batch.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
