package production

import (
	"time"

	"github.com/frameshop/backend/internal/domain/shared"
)

// NewNoTimerError reports that the worker has no open timer session
func NewNoTimerError() *shared.DomainError {
	return shared.NewNotFoundError("active timer")
}

// NewGateRequiredError reports that a stage write needs an active timer
// on that stage
func NewGateRequiredError(stageName string) *shared.DomainError {
	return shared.NewGateError("an active, running timer on stage %q is required", stageName)
}

// NewSessionExpiredError reports a session closed by the idle timeout
func NewSessionExpiredError(lastActivity time.Time) *shared.DomainError {
	return shared.NewExpiredError("timer was idle since %s and has been closed", lastActivity.UTC().Format(time.RFC3339))
}

// NewFrameNotFoundError reports a missing frame within a batch
func NewFrameNotFoundError() *shared.DomainError {
	return shared.NewNotFoundError("frame")
}
