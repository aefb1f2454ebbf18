package production

import (
	"testing"
	"time"

	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestStageProgress_Record(t *testing.T) {
	user := uuid.New()
	now := time.Now()

	tests := []struct {
		name      string
		completed int
		rejected  *int
		tracks    bool
		wantErr   bool
	}{
		{"within bounds", 7, nil, false, false},
		{"complete", 10, nil, false, false},
		{"negative completed", -1, nil, false, true},
		{"above required", 11, nil, false, true},
		{"rejection at work stage", 5, intPtr(1), false, true},
		{"zero rejection at work stage", 5, intPtr(0), false, false},
		{"rejection at inspection", 5, intPtr(2), true, false},
		{"rejected above completed", 5, intPtr(6), true, true},
		{"negative rejected", 5, intPtr(-1), true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewStageProgress(uuid.New(), uuid.New(), now)
			err := p.Record(10, tt.completed, tt.rejected, tt.tracks, user, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrValidation)
				assert.Equal(t, 0, p.QtyCompleted, "rejected writes leave the entry untouched")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.completed, p.QtyCompleted)
			assert.GreaterOrEqual(t, p.QtyCompleted, p.QtyRejected)
			assert.Equal(t, &user, p.UpdatedBy)
		})
	}

	t.Run("nil rejected keeps current value but must stay within completed", func(t *testing.T) {
		p := NewStageProgress(uuid.New(), uuid.New(), now)
		require.NoError(t, p.Record(10, 8, intPtr(3), true, user, now))
		require.NoError(t, p.Record(10, 9, nil, true, user, now))
		assert.Equal(t, 3, p.QtyRejected)

		err := p.Record(10, 2, nil, true, user, now)
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Equal(t, 9, p.QtyCompleted)
	})

	t.Run("repeated write is idempotent", func(t *testing.T) {
		p := NewStageProgress(uuid.New(), uuid.New(), now)
		require.NoError(t, p.Record(10, 4, nil, false, user, now))
		require.NoError(t, p.Record(10, 4, nil, false, user, now))
		assert.Equal(t, 4, p.QtyCompleted)
	})
}

func TestRejectionRate(t *testing.T) {
	p := &StageProgress{QtyCompleted: 20, QtyRejected: 3}
	assert.InDelta(t, 0.15, p.RejectionRate(), 1e-9)
	assert.Equal(t, 17, p.GoodUnits())
	assert.Equal(t, 0.0, RejectionRate(0, 0))
}

func TestFrame_Lifecycle(t *testing.T) {
	r, stages := registry(t)
	user := uuid.New()
	now := time.Now()
	cutting, sanding, qc := stages[1], stages[2], stages[4]

	newTestFrame := func(required int) *Frame {
		return newFrame(uuid.New(), FrameGroup{Size: "HS", Color: "W", QtyRequired: required}, cutting.ID, now)
	}

	t.Run("advance requires completion", func(t *testing.T) {
		f := newTestFrame(10)
		p := NewStageProgress(f.ID, cutting.ID, now)
		require.NoError(t, f.RecordProgress(p, 9, nil, false, user, now))

		_, err := f.Advance(p, cutting, sanding, user, now)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.Equal(t, cutting.ID, f.CurrentStageID)
	})

	t.Run("advance starts a fresh ledger entry", func(t *testing.T) {
		f := newTestFrame(10)
		p := NewStageProgress(f.ID, cutting.ID, now)
		require.NoError(t, f.RecordProgress(p, 10, nil, false, user, now))

		next, err := f.Advance(p, cutting, sanding, user, now)
		require.NoError(t, err)
		assert.Equal(t, sanding.ID, f.CurrentStageID)
		assert.Equal(t, sanding.ID, next.StageID)
		assert.Equal(t, 0, next.QtyCompleted)
		assert.Equal(t, 2, f.Version)

		events := f.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, EventTypeFrameProgressRecorded, events[0].EventType())
		assert.Equal(t, EventTypeFrameMoved, events[1].EventType())

		// the old stage entry can no longer be written through the frame
		err = f.RecordProgress(p, 10, nil, false, user, now)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("advance rejects skipping", func(t *testing.T) {
		f := newTestFrame(1)
		p := NewStageProgress(f.ID, cutting.ID, now)
		require.NoError(t, f.RecordProgress(p, 1, nil, false, user, now))

		_, err := f.Advance(p, cutting, stages[3], user, now)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("move to inventory from terminal stage", func(t *testing.T) {
		f := newTestFrame(20)
		f.CurrentStageID = qc.ID
		p := NewStageProgress(f.ID, qc.ID, now)
		require.NoError(t, f.RecordProgress(p, 20, intPtr(3), r.TracksRejections(qc.ID), user, now))

		receipt, err := f.MoveToInventory(p, r.IsTerminal(qc.ID), user, now)
		require.NoError(t, err)
		assert.True(t, f.IsInInventory())
		assert.Equal(t, 17, receipt.QtyGood)
		assert.Equal(t, 3, receipt.QtyRejected)
		assert.Equal(t, f.ID, receipt.FrameID)

		_, err = f.Advance(p, qc, qc, user, now)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		_, err = f.MoveToInventory(p, true, user, now)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("move to inventory requires terminal stage and completed units", func(t *testing.T) {
		f := newTestFrame(5)
		p := NewStageProgress(f.ID, cutting.ID, now)
		require.NoError(t, f.RecordProgress(p, 5, nil, false, user, now))
		_, err := f.MoveToInventory(p, r.IsTerminal(cutting.ID), user, now)
		assert.ErrorIs(t, err, shared.ErrInvalidState)

		f.CurrentStageID = qc.ID
		empty := NewStageProgress(f.ID, qc.ID, now)
		_, err = f.MoveToInventory(empty, true, user, now)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		assert.False(t, f.IsInInventory())
	})
}
