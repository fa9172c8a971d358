package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
)

// Delivery tracks fulfillment of a paid order. There is at most one per order.
type Delivery struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID     uuid.UUID            `gorm:"column:order_id;type:uuid;not null;uniqueIndex" json:"order_id"`
	Status      enums.DeliveryStatus `gorm:"column:status;type:delivery_status;not null" json:"status"`
	ScheduledAt *time.Time           `gorm:"column:scheduled_at" json:"scheduled_at,omitempty"`
	DeliveredAt *time.Time           `gorm:"column:delivered_at" json:"delivered_at,omitempty"`
	Notes       *string              `gorm:"column:notes" json:"notes,omitempty"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Delivery) TableName() string { return "deliveries" }
