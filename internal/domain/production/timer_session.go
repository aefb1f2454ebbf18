package production

import (
	"time"

	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TimerState is the derived state of a worker's timer
type TimerState string

const (
	TimerStateNone    TimerState = "NONE"
	TimerStateRunning TimerState = "RUNNING"
	TimerStatePaused  TimerState = "PAUSED"
)

// IdleTimeoutNote is the admin note of a time log closed by the idle sweeper
const IdleTimeoutNote = "auto-closed: idle timeout"

// TimerSession is a worker's open interval of work against one stage.
// A worker has at most one open session system-wide.
type TimerSession struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	StageID        uuid.UUID
	BatchID        *uuid.UUID
	StartedAt      time.Time
	IsPaused       bool
	Accumulated    time.Duration
	LastActivityAt time.Time
	CreatedAt      time.Time
}

// StartTimerSession opens a running session anchored at now
func StartTimerSession(userID, stageID uuid.UUID, batchID *uuid.UUID, now time.Time) (*TimerSession, error) {
	if userID == uuid.Nil {
		return nil, shared.NewValidationError("user id is required")
	}
	if stageID == uuid.Nil {
		return nil, shared.NewValidationError("stage id is required")
	}
	return &TimerSession{
		ID:             uuid.New(),
		UserID:         userID,
		StageID:        stageID,
		BatchID:        batchID,
		StartedAt:      now,
		LastActivityAt: now,
		CreatedAt:      now,
	}, nil
}

// State returns RUNNING or PAUSED
func (s *TimerSession) State() TimerState {
	if s.IsPaused {
		return TimerStatePaused
	}
	return TimerStateRunning
}

// Elapsed is the total tracked time as of now. It is a pure function of the
// session fields and now.
func (s *TimerSession) Elapsed(now time.Time) time.Duration {
	return ElapsedAt(s.StartedAt, s.IsPaused, s.Accumulated, now)
}

// ElapsedAt computes accumulated + (now - startedAt) while running
func ElapsedAt(startedAt time.Time, isPaused bool, accumulated time.Duration, now time.Time) time.Duration {
	if isPaused {
		return accumulated
	}
	run := now.Sub(startedAt)
	if run < 0 {
		run = 0
	}
	return accumulated + run
}

// Pause freezes the running segment into Accumulated
func (s *TimerSession) Pause(now time.Time) error {
	if s.IsPaused {
		return shared.NewStateError("timer is already paused")
	}
	s.Accumulated = s.Elapsed(now)
	s.IsPaused = true
	s.LastActivityAt = now
	return nil
}

// Resume starts a new running segment anchored at now
func (s *TimerSession) Resume(now time.Time) error {
	if !s.IsPaused {
		return shared.NewStateError("timer is not paused")
	}
	s.StartedAt = now
	s.IsPaused = false
	s.LastActivityAt = now
	return nil
}

// Touch records activity against the session
func (s *TimerSession) Touch(now time.Time) {
	if now.After(s.LastActivityAt) {
		s.LastActivityAt = now
	}
}

// IsIdle reports whether the session saw no activity for longer than timeout.
// A zero timeout disables expiry.
func (s *TimerSession) IsIdle(now time.Time, timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	return now.Sub(s.LastActivityAt) > timeout
}

// Stop closes the session into an immutable time log entry
func (s *TimerSession) Stop(now time.Time, itemsProcessed, itemsRejected int) (*TimeLogEntry, error) {
	if itemsProcessed < 0 {
		return nil, shared.NewValidationError("items_processed cannot be negative")
	}
	if itemsRejected < 0 {
		return nil, shared.NewValidationError("items_rejected cannot be negative")
	}
	if itemsRejected > itemsProcessed {
		return nil, shared.NewValidationError("items_rejected %d exceeds items_processed %d", itemsRejected, itemsProcessed)
	}
	return s.closeAt(s.Elapsed(now), now, itemsProcessed, itemsRejected, ""), nil
}

// Expire closes an idle session, crediting work only up to the last activity
func (s *TimerSession) Expire(now time.Time) *TimeLogEntry {
	credit := s.Accumulated
	if !s.IsPaused && s.LastActivityAt.After(s.StartedAt) {
		credit += s.LastActivityAt.Sub(s.StartedAt)
	}
	return s.closeAt(credit, now, 0, 0, IdleTimeoutNote)
}

func (s *TimerSession) closeAt(duration time.Duration, now time.Time, processed, rejected int, notes string) *TimeLogEntry {
	sessionID := s.ID
	return &TimeLogEntry{
		ID:             uuid.New(),
		UserID:         s.UserID,
		StageID:        s.StageID,
		BatchID:        s.BatchID,
		SessionID:      &sessionID,
		Duration:       duration,
		ItemsProcessed: processed,
		ItemsRejected:  rejected,
		CompletedAt:    now,
		AdminNotes:     notes,
		CreatedAt:      now,
	}
}
