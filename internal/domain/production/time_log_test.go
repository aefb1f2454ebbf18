package production

import (
	"testing"
	"time"

	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManualTimeLog(t *testing.T) {
	now := time.Date(2026, 3, 2, 17, 0, 0, 0, time.UTC)
	base := ManualTimeLog{
		UserID:         uuid.New(),
		StageID:        uuid.New(),
		Duration:       90 * time.Minute,
		ItemsProcessed: 30,
		CompletedAt:    now.Add(-time.Hour),
		Notes:          "forgot to start timer",
		EnteredBy:      uuid.New(),
	}

	t.Run("valid entry", func(t *testing.T) {
		e, err := NewManualTimeLog(base, now)
		require.NoError(t, err)
		assert.True(t, e.ManualEntry)
		assert.Nil(t, e.SessionID)
		assert.InDelta(t, 20.0, e.ItemsPerHour(), 1e-9)
	})

	t.Run("defaults completed_at to now", func(t *testing.T) {
		m := base
		m.CompletedAt = time.Time{}
		e, err := NewManualTimeLog(m, now)
		require.NoError(t, err)
		assert.Equal(t, now, e.CompletedAt)
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		for name, mutate := range map[string]func(*ManualTimeLog){
			"negative duration": func(m *ManualTimeLog) { m.Duration = -time.Minute },
			"too long":          func(m *ManualTimeLog) { m.Duration = 25 * time.Hour },
			"future":            func(m *ManualTimeLog) { m.CompletedAt = now.Add(time.Minute) },
			"rejected > items":  func(m *ManualTimeLog) { m.ItemsRejected = 31 },
			"missing stage":     func(m *ManualTimeLog) { m.StageID = uuid.Nil },
		} {
			t.Run(name, func(t *testing.T) {
				m := base
				mutate(&m)
				_, err := NewManualTimeLog(m, now)
				assert.ErrorIs(t, err, shared.ErrValidation)
			})
		}
	})
}

func TestTimeLogEntry_Correct(t *testing.T) {
	now := time.Now()
	e := &TimeLogEntry{ID: uuid.New(), Duration: 8 * time.Hour, ItemsProcessed: 10}
	editor := uuid.New()

	d1 := 2 * time.Hour
	require.NoError(t, e.Correct(Correction{Duration: &d1, Notes: "left timer running", EditorID: editor}, now))
	assert.Equal(t, d1, e.Duration)
	require.NotNil(t, e.OriginalDuration)
	assert.Equal(t, 8*time.Hour, *e.OriginalDuration)
	assert.Equal(t, &editor, e.EditedBy)
	assert.Equal(t, now, *e.EditedAt)

	d2 := 3 * time.Hour
	require.NoError(t, e.Correct(Correction{Duration: &d2, Notes: "second pass", EditorID: editor}, now))
	assert.Equal(t, 8*time.Hour, *e.OriginalDuration, "first original duration is preserved")

	err := e.Correct(Correction{Duration: &d2, EditorID: editor}, now)
	assert.ErrorIs(t, err, shared.ErrValidation)

	bad := 5
	err = e.Correct(Correction{ItemsRejected: &bad, Notes: "x", EditorID: editor}, now)
	assert.NoError(t, err)
	tooMany := 11
	err = e.Correct(Correction{ItemsRejected: &tooMany, Notes: "x", EditorID: editor}, now)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestLaborCostAndRates(t *testing.T) {
	rate := decimal.NewFromInt(24)
	assert.True(t, decimal.NewFromInt(36).Equal(LaborCost(90*time.Minute, rate)))
	assert.True(t, LaborCost(0, rate).IsZero())
	assert.Equal(t, 0.0, ItemsPerHour(10, 0))
	assert.InDelta(t, 6.0, ItemsPerHour(3, 30*time.Minute), 1e-9)
}
