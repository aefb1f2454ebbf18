package models

import (
	"time"

	"github.com/frameshop/backend/internal/domain/production"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItemModel is a line item owned by the order system. Production only
// reads it.
type OrderItemModel struct {
	ID       uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU      string          `gorm:"column:sku;type:varchar(100);not null"`
	Name     string          `gorm:"type:varchar(200);not null;default:''"`
	Quantity int             `gorm:"not null"`
	Price    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain OrderItem
func (m *OrderItemModel) ToDomain() production.OrderItem {
	return production.OrderItem{
		ID:       m.ID,
		OrderID:  m.OrderID,
		SKU:      m.SKU,
		Name:     m.Name,
		Quantity: m.Quantity,
		Price:    m.Price,
	}
}

// WorkerModel is a shop-floor user with an hourly rate
type WorkerModel struct {
	BaseModel
	Name       string          `gorm:"type:varchar(200);not null"`
	HourlyRate decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Active     bool            `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (WorkerModel) TableName() string {
	return "workers"
}

// ToDomain converts the persistence model to a domain Worker
func (m *WorkerModel) ToDomain() production.Worker {
	return production.Worker{
		ID:         m.ID,
		Name:       m.Name,
		HourlyRate: m.HourlyRate,
	}
}

// InventoryReceiptModel records a finished frame handed over to stock
type InventoryReceiptModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	FrameID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	BatchID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Size        string    `gorm:"type:varchar(50);not null"`
	Color       string    `gorm:"type:varchar(50);not null"`
	QtyGood     int       `gorm:"not null"`
	QtyRejected int       `gorm:"not null;default:0"`
	ReceivedBy  uuid.UUID `gorm:"type:uuid;not null"`
	ReceivedAt  time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InventoryReceiptModel) TableName() string {
	return "inventory_receipts"
}

// ToDomain converts the persistence model to a domain InventoryReceipt
func (m *InventoryReceiptModel) ToDomain() production.InventoryReceipt {
	return production.InventoryReceipt{
		ID:          m.ID,
		FrameID:     m.FrameID,
		BatchID:     m.BatchID,
		Size:        m.Size,
		Color:       m.Color,
		QtyGood:     m.QtyGood,
		QtyRejected: m.QtyRejected,
		ReceivedBy:  m.ReceivedBy,
		ReceivedAt:  m.ReceivedAt,
	}
}

// InventoryReceiptModelFromDomain creates a new persistence model from a domain InventoryReceipt
func InventoryReceiptModelFromDomain(r production.InventoryReceipt) *InventoryReceiptModel {
	return &InventoryReceiptModel{
		ID:          r.ID,
		FrameID:     r.FrameID,
		BatchID:     r.BatchID,
		Size:        r.Size,
		Color:       r.Color,
		QtyGood:     r.QtyGood,
		QtyRejected: r.QtyRejected,
		ReceivedBy:  r.ReceivedBy,
		ReceivedAt:  r.ReceivedAt,
	}
}

// All returns every model in dependency order for AutoMigrate
func All() []any {
	return []any{
		&StageModel{},
		&BatchModel{},
		&BatchOrderModel{},
		&FrameModel{},
		&StageProgressModel{},
		&TimerSessionModel{},
		&TimeLogModel{},
		&OrderItemModel{},
		&WorkerModel{},
		&InventoryReceiptModel{},
	}
}
