package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/frameshop/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTimerSessionRepository implements TimerSessionRepository using GORM
type GormTimerSessionRepository struct {
	db *gorm.DB
}

// NewGormTimerSessionRepository creates a new GormTimerSessionRepository
func NewGormTimerSessionRepository(db *gorm.DB) *GormTimerSessionRepository {
	return &GormTimerSessionRepository{db: db}
}

// FindByUser returns the worker's open session
func (r *GormTimerSessionRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*production.TimerSession, error) {
	var model models.TimerSessionModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error; err != nil {
		return nil, translateError(err, "timer session")
	}
	return model.ToDomain(), nil
}

// FindAll returns every open session, oldest first
func (r *GormTimerSessionRepository) FindAll(ctx context.Context) ([]production.TimerSession, error) {
	return r.find(r.db.WithContext(ctx).Order("started_at ASC"))
}

// FindIdle returns sessions whose last activity is before cutoff
func (r *GormTimerSessionRepository) FindIdle(ctx context.Context, cutoff time.Time) ([]production.TimerSession, error) {
	return r.find(r.db.WithContext(ctx).Where("last_activity_at < ?", cutoff).Order("last_activity_at ASC"))
}

func (r *GormTimerSessionRepository) find(query *gorm.DB) ([]production.TimerSession, error) {
	var sessionModels []models.TimerSessionModel
	if err := query.Find(&sessionModels).Error; err != nil {
		return nil, translateError(err, "timer sessions")
	}
	sessions := make([]production.TimerSession, len(sessionModels))
	for i, m := range sessionModels {
		sessions[i] = *m.ToDomain()
	}
	return sessions, nil
}

// Create inserts a session. The unique user index turns a second open
// session into a conflict.
func (r *GormTimerSessionRepository) Create(ctx context.Context, session *production.TimerSession) error {
	err := r.db.WithContext(ctx).Create(models.TimerSessionModelFromDomain(session)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewConflictError("worker already has an active timer")
	}
	return translateError(err, "timer session")
}

// Update persists pause, resume and activity changes
func (r *GormTimerSessionRepository) Update(ctx context.Context, session *production.TimerSession) error {
	result := r.db.WithContext(ctx).
		Model(&models.TimerSessionModel{}).
		Where("id = ?", session.ID).
		Updates(map[string]interface{}{
			"started_at":       session.StartedAt,
			"is_paused":        session.IsPaused,
			"accumulated_ms":   session.Accumulated.Milliseconds(),
			"last_activity_at": session.LastActivityAt,
		})
	if result.Error != nil {
		return translateError(result.Error, "timer session")
	}
	if result.RowsAffected == 0 {
		return production.NewNoTimerError()
	}
	return nil
}

// Delete removes a closed session. A session already closed elsewhere is
// reported as not found so the caller does not log it twice.
func (r *GormTimerSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.TimerSessionModel{}, "id = ?", id)
	if result.Error != nil {
		return translateError(result.Error, "timer session")
	}
	if result.RowsAffected == 0 {
		return production.NewNoTimerError()
	}
	return nil
}

// Ensure GormTimerSessionRepository implements TimerSessionRepository
var _ production.TimerSessionRepository = (*GormTimerSessionRepository)(nil)
