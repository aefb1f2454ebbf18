package production

import (
	"context"
	"errors"
	"time"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/frameshop/backend/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TimerService runs the per-worker timer state machine. All transitions of
// one worker are serialized on the worker's timer lock.
type TimerService struct {
	sessions       production.TimerSessionRepository
	batches        production.BatchRepository
	stages         StageCatalog
	users          production.UserDirectory
	txScope        TransactionScope
	locker         Locker
	idleTimeout    time.Duration
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            Clock
}

// NewTimerService creates a new TimerService
func NewTimerService(
	sessions production.TimerSessionRepository,
	batches production.BatchRepository,
	stages StageCatalog,
	users production.UserDirectory,
	txScope TransactionScope,
	locker Locker,
	logger *zap.Logger,
) *TimerService {
	return &TimerService{
		sessions: sessions,
		batches:  batches,
		stages:   stages,
		users:    users,
		txScope:  txScope,
		locker:   locker,
		logger:   logger,
		now:      time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *TimerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetIdleTimeout sets how long a session may go without activity before it
// is closed. Zero disables expiry.
func (s *TimerService) SetIdleTimeout(timeout time.Duration) {
	s.idleTimeout = timeout
}

// SetClock replaces the time source
func (s *TimerService) SetClock(now Clock) {
	s.now = now
}

func (s *TimerService) lock(ctx context.Context, userID uuid.UUID) (func(), error) {
	return s.locker.Lock(ctx, timerLockKey(userID))
}

// openSession returns the worker's open session. A session past the idle
// timeout is closed first and reported as TIMER_EXPIRED. The caller holds
// the worker's timer lock.
func (s *TimerService) openSession(ctx context.Context, userID uuid.UUID) (*production.TimerSession, error) {
	session, err := s.sessions.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, production.NewNoTimerError()
		}
		return nil, err
	}
	if session.IsIdle(s.now(), s.idleTimeout) {
		lastActivity := session.LastActivityAt
		if _, err := s.expire(ctx, session); err != nil {
			return nil, err
		}
		return nil, production.NewSessionExpiredError(lastActivity)
	}
	return session, nil
}

// sessionOnStage returns the worker's open session, which must track stageID
func (s *TimerService) sessionOnStage(ctx context.Context, userID, stageID uuid.UUID) (*production.TimerSession, error) {
	session, err := s.openSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if stageID != uuid.Nil && session.StageID != stageID {
		return nil, shared.NewNotFoundError("active timer on this stage")
	}
	return session, nil
}

func (s *TimerService) stageName(ctx context.Context, stageID uuid.UUID) string {
	registry, err := s.stages.Registry(ctx)
	if err != nil {
		return ""
	}
	stage, err := registry.ByID(stageID)
	if err != nil {
		return ""
	}
	return stage.Name
}

// Start opens a running timer for the worker on a work stage. A worker with
// any open session, running or paused, gets a CONFLICT.
func (s *TimerService) Start(ctx context.Context, userID, stageID uuid.UUID, batchID *uuid.UUID) (_ *TimerResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "timer", "start",
		telemetry.SpanAttrUserID, userID, telemetry.SpanAttrStageID, stageID)
	defer telemetry.EndSpan(span, &err)

	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	registry, err := s.stages.Registry(ctx)
	if err != nil {
		return nil, err
	}
	stage, err := registry.ByID(stageID)
	if err != nil {
		return nil, err
	}
	if !stage.IsWorkStage() {
		return nil, shared.NewValidationError("stage %q does not take timers", stage.Name)
	}
	if batchID != nil {
		if _, err := loadWritableBatch(ctx, s.batches, *batchID); err != nil {
			return nil, err
		}
	}

	existing, err := s.openSession(ctx, userID)
	switch {
	case err == nil:
		current := s.stageName(ctx, existing.StageID)
		return nil, shared.NewConflictError("you already have an active timer on stage %q; stop it first", current)
	case errors.Is(err, shared.ErrNotFound), errors.Is(err, shared.ErrExpired):
	default:
		return nil, err
	}

	now := s.now()
	session, err := production.StartTimerSession(userID, stage.ID, batchID, now)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, production.NewTimerEvent(production.EventTypeTimerStarted, session, now))
	s.logger.Info("Timer started",
		zap.String("user_id", userID.String()),
		zap.String("stage", stage.Name),
		zap.String("session_id", session.ID.String()),
	)
	resp := ToTimerResponse(session, stage.Name, now)
	return &resp, nil
}

// Pause freezes the worker's running timer on the stage
func (s *TimerService) Pause(ctx context.Context, userID, stageID uuid.UUID) (_ *TimerResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "timer", "pause",
		telemetry.SpanAttrUserID, userID, telemetry.SpanAttrStageID, stageID)
	defer telemetry.EndSpan(span, &err)

	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.sessionOnStage(ctx, userID, stageID)
	if err != nil {
		return nil, err
	}
	if session.IsPaused {
		return nil, shared.NewNotFoundError("running timer")
	}

	now := s.now()
	if err := session.Pause(now); err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, production.NewTimerEvent(production.EventTypeTimerPaused, session, now))
	s.logger.Info("Timer paused",
		zap.String("user_id", userID.String()),
		zap.Duration("accumulated", session.Accumulated),
	)
	resp := ToTimerResponse(session, s.stageName(ctx, session.StageID), now)
	return &resp, nil
}

// Resume restarts the worker's paused timer on the stage
func (s *TimerService) Resume(ctx context.Context, userID, stageID uuid.UUID) (_ *TimerResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "timer", "resume",
		telemetry.SpanAttrUserID, userID, telemetry.SpanAttrStageID, stageID)
	defer telemetry.EndSpan(span, &err)

	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.sessionOnStage(ctx, userID, stageID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := session.Resume(now); err != nil {
		return nil, err
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, production.NewTimerEvent(production.EventTypeTimerResumed, session, now))
	s.logger.Info("Timer resumed", zap.String("user_id", userID.String()))
	resp := ToTimerResponse(session, s.stageName(ctx, session.StageID), now)
	return &resp, nil
}

// Stop closes the worker's timer into a time log. The log insert and the
// session delete commit together, so a second stop finds no session.
func (s *TimerService) Stop(ctx context.Context, userID, stageID uuid.UUID, req StopTimerRequest) (_ *TimeLogResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "timer", "stop",
		telemetry.SpanAttrUserID, userID, telemetry.SpanAttrStageID, stageID)
	defer telemetry.EndSpan(span, &err)

	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	session, err := s.sessionOnStage(ctx, userID, stageID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entry, err := session.Stop(now, req.ItemsProcessed, req.ItemsRejected)
	if err != nil {
		return nil, err
	}
	if err := s.close(ctx, session, entry); err != nil {
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, production.NewTimerClosedEvent(production.EventTypeTimerStopped, session, entry))
	s.logger.Info("Timer stopped",
		zap.String("user_id", userID.String()),
		zap.String("log_id", entry.ID.String()),
		zap.Duration("duration", entry.Duration),
		zap.Int("items_processed", entry.ItemsProcessed),
	)
	resp := ToTimeLogResponse(entry)
	return &resp, nil
}

func (s *TimerService) close(ctx context.Context, session *production.TimerSession, entry *production.TimeLogEntry) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.TimeLogs().Create(ctx, entry); err != nil {
			return err
		}
		return repos.Sessions().Delete(ctx, session.ID)
	})
}

func (s *TimerService) expire(ctx context.Context, session *production.TimerSession) (*production.TimeLogEntry, error) {
	entry := session.Expire(s.now())
	if err := s.close(ctx, session, entry); err != nil {
		return nil, err
	}
	publishEvents(ctx, s.eventPublisher, production.NewTimerClosedEvent(production.EventTypeTimerExpired, session, entry))
	s.logger.Warn("Idle timer closed",
		zap.String("user_id", session.UserID.String()),
		zap.String("session_id", session.ID.String()),
		zap.Time("last_activity_at", session.LastActivityAt),
		zap.Duration("credited", entry.Duration),
	)
	return entry, nil
}

// MyTimer returns a snapshot of the worker's timer. A worker without an open
// session gets the NONE state rather than an error.
func (s *TimerService) MyTimer(ctx context.Context, userID uuid.UUID) (*TimerResponse, error) {
	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()
	session, err := s.openSession(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) || errors.Is(err, shared.ErrExpired) {
			resp := NoTimerResponse(userID, now)
			return &resp, nil
		}
		return nil, err
	}
	resp := ToTimerResponse(session, s.stageName(ctx, session.StageID), now)
	return &resp, nil
}

// ActiveWorkers groups open sessions by stage. Every work stage is present,
// with an empty list when nobody is on it.
func (s *TimerService) ActiveWorkers(ctx context.Context) (map[uuid.UUID][]ActiveWorkerResponse, error) {
	registry, err := s.stages.Registry(ctx)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	userIDs := make([]uuid.UUID, 0, len(sessions))
	for _, session := range sessions {
		userIDs = append(userIDs, session.UserID)
	}
	workers, err := s.users.FindWorkers(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := make(map[uuid.UUID][]ActiveWorkerResponse)
	for _, stage := range registry.WorkerStages() {
		result[stage.ID] = []ActiveWorkerResponse{}
	}
	for _, session := range sessions {
		if session.IsIdle(now, s.idleTimeout) {
			continue
		}
		result[session.StageID] = append(result[session.StageID], ActiveWorkerResponse{
			UserID:             session.UserID,
			UserName:           workers[session.UserID].Name,
			BatchID:            session.BatchID,
			StartedAt:          session.StartedAt,
			IsPaused:           session.IsPaused,
			AccumulatedMinutes: round2(session.Accumulated.Minutes()),
			ElapsedSeconds:     int64(session.Elapsed(now).Seconds()),
		})
	}
	return result, nil
}

// RequireRunningTimer passes when the worker has a running, unpaused timer on
// stage and records the activity against the session
func (s *TimerService) RequireRunningTimer(ctx context.Context, userID uuid.UUID, stage production.Stage) error {
	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	session, err := s.openSession(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return production.NewGateRequiredError(stage.Name)
		}
		return err
	}
	if session.IsPaused || session.StageID != stage.ID {
		s.logger.Debug("Timer gate refused",
			zap.String("user_id", userID.String()),
			zap.String("stage", stage.Name),
			zap.Bool("paused", session.IsPaused),
		)
		return production.NewGateRequiredError(stage.Name)
	}

	session.Touch(s.now())
	return s.sessions.Update(ctx, session)
}

// OpenSessionCount returns the number of open sessions
func (s *TimerService) OpenSessionCount(ctx context.Context) (int64, error) {
	sessions, err := s.sessions.FindAll(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(sessions)), nil
}

// ExpireIdleSessions closes every session idle for longer than the idle
// timeout and returns how many were closed
func (s *TimerService) ExpireIdleSessions(ctx context.Context) (int, error) {
	if s.idleTimeout <= 0 {
		return 0, nil
	}
	idle, err := s.sessions.FindIdle(ctx, s.now().Add(-s.idleTimeout))
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, candidate := range idle {
		closed, err := s.expireIfIdle(ctx, candidate.UserID, candidate.ID)
		if err != nil {
			s.logger.Error("Failed to close idle timer",
				zap.String("session_id", candidate.ID.String()),
				zap.Error(err),
			)
			continue
		}
		if closed {
			expired++
		}
	}
	return expired, nil
}

// expireIfIdle rechecks the session under the worker's lock, since activity
// may have arrived after the idle query
func (s *TimerService) expireIfIdle(ctx context.Context, userID, sessionID uuid.UUID) (bool, error) {
	unlock, err := s.lock(ctx, userID)
	if err != nil {
		return false, err
	}
	defer unlock()

	session, err := s.sessions.FindByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if session.ID != sessionID || !session.IsIdle(s.now(), s.idleTimeout) {
		return false, nil
	}
	if _, err := s.expire(ctx, session); err != nil {
		return false, err
	}
	return true, nil
}

var _ Gatekeeper = (*TimerService)(nil)
