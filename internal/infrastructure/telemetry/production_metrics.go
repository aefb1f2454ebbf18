package telemetry

import (
	"context"
	"errors"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/frameshop/backend/internal/domain/shared"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// OpenTimerCounter reports the number of open timer sessions
type OpenTimerCounter func(ctx context.Context) (int64, error)

// ProductionMetrics turns production domain events into metrics. It is
// subscribed to the event bus for all event types.
type ProductionMetrics struct {
	logger *zap.Logger

	timerTransitions *Counter
	workLogged       *Histogram
	itemsProcessed   *Counter
	itemsRejected    *Counter
	progressWrites   *Counter
	frameMoves       *Counter
	inventoryUnits   *Counter
	batchesCreated   *Counter
}

// NewProductionMetrics registers the production instruments on meter.
// openTimers may be nil; when set it backs an observable gauge.
func NewProductionMetrics(meter metric.Meter, openTimers OpenTimerCounter, logger *zap.Logger) (*ProductionMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &ProductionMetrics{logger: logger}

	var err error
	if m.timerTransitions, err = NewCounter(meter, "frameshop_timer_transitions_total",
		"Timer state changes by event type", "{transitions}"); err != nil {
		return nil, err
	}
	if m.workLogged, err = NewHistogram(meter, HistogramOpts{
		Name:        "frameshop_work_logged_hours",
		Description: "Hours credited per closed timer session",
		Unit:        "h",
		Boundaries:  WorkSessionBuckets,
	}); err != nil {
		return nil, err
	}
	if m.itemsProcessed, err = NewCounter(meter, "frameshop_items_processed_total",
		"Items reported when timers stop", "{items}"); err != nil {
		return nil, err
	}
	if m.itemsRejected, err = NewCounter(meter, "frameshop_items_rejected_total",
		"Rejected items reported when timers stop", "{items}"); err != nil {
		return nil, err
	}
	if m.progressWrites, err = NewCounter(meter, "frameshop_progress_writes_total",
		"Progress ledger writes", "{writes}"); err != nil {
		return nil, err
	}
	if m.frameMoves, err = NewCounter(meter, "frameshop_frame_moves_total",
		"Frames advanced to a next stage", "{frames}"); err != nil {
		return nil, err
	}
	if m.inventoryUnits, err = NewCounter(meter, "frameshop_inventory_units_total",
		"Good units handed to inventory", "{units}"); err != nil {
		return nil, err
	}
	if m.batchesCreated, err = NewCounter(meter, "frameshop_batches_created_total",
		"Production batches created", "{batches}"); err != nil {
		return nil, err
	}

	if openTimers != nil {
		_, err = meter.Int64ObservableGauge("frameshop_open_timers",
			metric.WithDescription("Open timer sessions"),
			metric.WithUnit("{sessions}"),
			metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
				n, err := openTimers(ctx)
				if err != nil {
					logger.Warn("failed to count open timers", zap.Error(err))
					return nil
				}
				o.Observe(n)
				return nil
			}),
		)
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Handle records the metrics of one domain event
func (m *ProductionMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *production.TimerEvent:
		m.timerTransitions.Inc(ctx, AttrEventType.String(e.EventType()))
	case *production.TimerClosedEvent:
		m.timerTransitions.Inc(ctx, AttrEventType.String(e.EventType()))
		stage := AttrStageID.String(e.StageID.String())
		m.workLogged.Record(ctx, e.Duration.Hours(), stage)
		m.itemsProcessed.Add(ctx, int64(e.ItemsProcessed), stage)
		m.itemsRejected.Add(ctx, int64(e.ItemsRejected), stage)
	case *production.FrameProgressRecordedEvent:
		m.progressWrites.Inc(ctx, AttrStageID.String(e.StageID.String()))
	case *production.FrameMovedEvent:
		m.frameMoves.Inc(ctx, AttrStageID.String(e.ToStageID.String()))
	case *production.FrameMovedToInventoryEvent:
		m.inventoryUnits.Add(ctx, int64(e.QtyGood))
	case *production.BatchCreatedEvent:
		m.batchesCreated.Inc(ctx)
	}
	return nil
}

// EventTypes returns nil so the handler receives every event
func (m *ProductionMetrics) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*ProductionMetrics)(nil)
