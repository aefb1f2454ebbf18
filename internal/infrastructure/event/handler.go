package event

import (
	"context"

	"github.com/frameshop/backend/internal/domain/shared"
	"github.com/frameshop/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// HandlerFunc adapts a function to shared.EventHandler
type HandlerFunc struct {
	types []string
	fn    func(ctx context.Context, event shared.DomainEvent) error
}

// NewHandlerFunc creates a handler for the given event types
func NewHandlerFunc(fn func(ctx context.Context, event shared.DomainEvent) error, eventTypes ...string) *HandlerFunc {
	return &HandlerFunc{types: eventTypes, fn: fn}
}

func (h *HandlerFunc) Handle(ctx context.Context, event shared.DomainEvent) error {
	return h.fn(ctx, event)
}

func (h *HandlerFunc) EventTypes() []string {
	return h.types
}

// AuditLogHandler writes every production event to the log
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an AuditLogHandler
func NewAuditLogHandler(log *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: log.Named("audit")}
}

func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	logger.For(ctx, h.logger).Info("domain event",
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// EventTypes returns nil: the audit log receives every event
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

var (
	_ shared.EventHandler = (*HandlerFunc)(nil)
	_ shared.EventHandler = (*AuditLogHandler)(nil)
)
