package production

import (
	"context"
	"time"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/frameshop/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TimeLogService lists, enters and corrects time logs
type TimeLogService struct {
	timeLogs production.TimeLogRepository
	batches  production.BatchRepository
	stages   StageCatalog
	logger   *zap.Logger
	now      Clock
}

// NewTimeLogService creates a new TimeLogService
func NewTimeLogService(
	timeLogs production.TimeLogRepository,
	batches production.BatchRepository,
	stages StageCatalog,
	logger *zap.Logger,
) *TimeLogService {
	return &TimeLogService{
		timeLogs: timeLogs,
		batches:  batches,
		stages:   stages,
		logger:   logger,
		now:      time.Now,
	}
}

// SetClock replaces the time source
func (s *TimeLogService) SetClock(now Clock) {
	s.now = now
}

// List returns time logs matching the filter, newest first
func (s *TimeLogService) List(ctx context.Context, filter TimeLogListFilter) ([]TimeLogResponse, error) {
	entries, err := s.timeLogs.FindAll(ctx, production.TimeLogFilter{
		UserID:  filter.UserID,
		StageID: filter.StageID,
		BatchID: filter.BatchID,
		From:    filter.From,
		To:      filter.To,
	})
	if err != nil {
		return nil, err
	}
	out := make([]TimeLogResponse, len(entries))
	for i := range entries {
		out[i] = ToTimeLogResponse(&entries[i])
	}
	return out, nil
}

// CreateManual records work that was not tracked by a timer
func (s *TimeLogService) CreateManual(ctx context.Context, req CreateTimeLogRequest, enteredBy uuid.UUID) (_ *TimeLogResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "time_log", "create_manual",
		telemetry.SpanAttrUserID, req.UserID, telemetry.SpanAttrStageID, req.StageID)
	defer telemetry.EndSpan(span, &err)

	registry, err := s.stages.Registry(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := registry.ByID(req.StageID); err != nil {
		return nil, err
	}
	if req.BatchID != nil {
		if _, err := s.batches.FindByID(ctx, *req.BatchID); err != nil {
			return nil, err
		}
	}

	duration, err := minutesToDuration(req.DurationMinutes)
	if err != nil {
		return nil, err
	}
	manual := production.ManualTimeLog{
		UserID:         req.UserID,
		StageID:        req.StageID,
		BatchID:        req.BatchID,
		Duration:       duration,
		ItemsProcessed: req.ItemsProcessed,
		ItemsRejected:  req.ItemsRejected,
		Notes:          req.Notes,
		EnteredBy:      enteredBy,
	}
	if req.CompletedAt != nil {
		manual.CompletedAt = *req.CompletedAt
	}
	entry, err := production.NewManualTimeLog(manual, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.timeLogs.Create(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Manual time log created",
		zap.String("log_id", entry.ID.String()),
		zap.String("user_id", entry.UserID.String()),
		zap.String("entered_by", enteredBy.String()),
		zap.Duration("duration", entry.Duration),
	)
	resp := ToTimeLogResponse(entry)
	return &resp, nil
}

// Correct applies an authorized edit. The duration before the first edit is
// kept for audit.
func (s *TimeLogService) Correct(ctx context.Context, id uuid.UUID, req CorrectTimeLogRequest, editorID uuid.UUID) (_ *TimeLogResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "time_log", "correct", telemetry.SpanAttrUserID, editorID)
	defer telemetry.EndSpan(span, &err)

	entry, err := s.timeLogs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	correction := production.Correction{
		ItemsProcessed: req.ItemsProcessed,
		ItemsRejected:  req.ItemsRejected,
		Notes:          req.AdminNotes,
		EditorID:       editorID,
	}
	if req.DurationMinutes != nil {
		d, err := minutesToDuration(*req.DurationMinutes)
		if err != nil {
			return nil, err
		}
		correction.Duration = &d
	}
	if err := entry.Correct(correction, s.now()); err != nil {
		return nil, err
	}
	if err := s.timeLogs.Save(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Time log corrected",
		zap.String("log_id", entry.ID.String()),
		zap.String("editor_id", editorID.String()),
		zap.Duration("duration", entry.Duration),
	)
	resp := ToTimeLogResponse(entry)
	return &resp, nil
}

// minutesToDuration rejects values past MaxLoggedDuration before converting
func minutesToDuration(minutes float64) (time.Duration, error) {
	if minutes > production.MaxLoggedDuration.Minutes() {
		return 0, shared.NewValidationError("duration cannot exceed %s", production.MaxLoggedDuration)
	}
	return time.Duration(minutes * float64(time.Minute)).Round(time.Second), nil
}
