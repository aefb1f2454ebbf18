package production

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderSource supplies order line items. It is read-only to production.
type OrderSource interface {
	FindItemsByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]OrderItem, error)
}

// Worker is a user as seen by production: display name and hourly rate
type Worker struct {
	ID         uuid.UUID
	Name       string
	HourlyRate decimal.Decimal
}

// UserDirectory resolves workers. Unknown ids are omitted from the result.
type UserDirectory interface {
	FindWorkers(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Worker, error)
}

// InventoryReceipt is a finished frame handed over to stock
type InventoryReceipt struct {
	ID          uuid.UUID
	FrameID     uuid.UUID
	BatchID     uuid.UUID
	Size        string
	Color       string
	QtyGood     int
	QtyRejected int
	ReceivedBy  uuid.UUID
	ReceivedAt  time.Time
}

// InventoryHandoff accepts finished frames
type InventoryHandoff interface {
	Receive(ctx context.Context, receipt InventoryReceipt) error
}
