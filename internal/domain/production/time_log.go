package production

import (
	"strings"
	"time"

	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxLoggedDuration bounds manual entries and corrections
const MaxLoggedDuration = 24 * time.Hour

// TimeLogEntry is a closed interval of work. Entries are immutable except
// for authorized corrections, which keep the first original duration.
type TimeLogEntry struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	StageID          uuid.UUID
	BatchID          *uuid.UUID
	SessionID        *uuid.UUID
	Duration         time.Duration
	ItemsProcessed   int
	ItemsRejected    int
	CompletedAt      time.Time
	ManualEntry      bool
	EditedAt         *time.Time
	EditedBy         *uuid.UUID
	OriginalDuration *time.Duration
	AdminNotes       string
	CreatedAt        time.Time
}

// ManualTimeLog holds the fields of a manually entered time log
type ManualTimeLog struct {
	UserID         uuid.UUID
	StageID        uuid.UUID
	BatchID        *uuid.UUID
	Duration       time.Duration
	ItemsProcessed int
	ItemsRejected  int
	CompletedAt    time.Time
	Notes          string
	EnteredBy      uuid.UUID
}

// NewManualTimeLog creates an entry that did not come from a timer
func NewManualTimeLog(m ManualTimeLog, now time.Time) (*TimeLogEntry, error) {
	if m.UserID == uuid.Nil {
		return nil, shared.NewValidationError("user id is required")
	}
	if m.StageID == uuid.Nil {
		return nil, shared.NewValidationError("stage id is required")
	}
	if err := validateLogged(m.Duration, m.ItemsProcessed, m.ItemsRejected); err != nil {
		return nil, err
	}
	completedAt := m.CompletedAt
	if completedAt.IsZero() {
		completedAt = now
	}
	if completedAt.After(now) {
		return nil, shared.NewValidationError("completed_at cannot be in the future")
	}
	e := &TimeLogEntry{
		ID:             uuid.New(),
		UserID:         m.UserID,
		StageID:        m.StageID,
		BatchID:        m.BatchID,
		Duration:       m.Duration,
		ItemsProcessed: m.ItemsProcessed,
		ItemsRejected:  m.ItemsRejected,
		CompletedAt:    completedAt,
		ManualEntry:    true,
		AdminNotes:     strings.TrimSpace(m.Notes),
		CreatedAt:      now,
	}
	if m.EnteredBy != uuid.Nil {
		by := m.EnteredBy
		e.EditedBy = &by
	}
	return e, nil
}

func validateLogged(d time.Duration, processed, rejected int) error {
	if d < 0 {
		return shared.NewValidationError("duration cannot be negative")
	}
	if d > MaxLoggedDuration {
		return shared.NewValidationError("duration cannot exceed %s", MaxLoggedDuration)
	}
	if processed < 0 {
		return shared.NewValidationError("items_processed cannot be negative")
	}
	if rejected < 0 || rejected > processed {
		return shared.NewValidationError("items_rejected must be between 0 and items_processed")
	}
	return nil
}

// Correction is an authorized edit of a time log. Nil fields are unchanged.
type Correction struct {
	Duration       *time.Duration
	ItemsProcessed *int
	ItemsRejected  *int
	Notes          string
	EditorID       uuid.UUID
}

// Correct applies an edit, preserving the duration recorded before the first edit
func (e *TimeLogEntry) Correct(c Correction, now time.Time) error {
	if c.EditorID == uuid.Nil {
		return shared.NewValidationError("editor id is required")
	}
	if strings.TrimSpace(c.Notes) == "" {
		return shared.NewValidationError("a correction requires admin notes")
	}
	duration, processed, rejected := e.Duration, e.ItemsProcessed, e.ItemsRejected
	if c.Duration != nil {
		duration = *c.Duration
	}
	if c.ItemsProcessed != nil {
		processed = *c.ItemsProcessed
	}
	if c.ItemsRejected != nil {
		rejected = *c.ItemsRejected
	}
	if err := validateLogged(duration, processed, rejected); err != nil {
		return err
	}

	if e.OriginalDuration == nil {
		original := e.Duration
		e.OriginalDuration = &original
	}
	e.Duration = duration
	e.ItemsProcessed = processed
	e.ItemsRejected = rejected
	e.AdminNotes = strings.TrimSpace(c.Notes)
	editor := c.EditorID
	e.EditedBy = &editor
	e.EditedAt = &now
	return nil
}

// DurationMinutes returns the duration in fractional minutes
func (e *TimeLogEntry) DurationMinutes() float64 {
	return e.Duration.Minutes()
}

// ItemsPerHour returns processed items per hour, 0 for a zero duration
func (e *TimeLogEntry) ItemsPerHour() float64 {
	return ItemsPerHour(e.ItemsProcessed, e.Duration)
}

// ItemsPerHour returns items / hours, 0 when d is not positive
func ItemsPerHour(items int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(items) / d.Hours()
}

// LaborCost prices a duration at an hourly rate
func LaborCost(d time.Duration, hourlyRate decimal.Decimal) decimal.Decimal {
	if d <= 0 {
		return decimal.Zero
	}
	hours := decimal.NewFromInt(int64(d / time.Millisecond)).Div(decimal.NewFromInt(int64(time.Hour / time.Millisecond)))
	return hours.Mul(hourlyRate)
}
