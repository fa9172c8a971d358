package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
)

// Order is a storefront purchase. Orders are placed elsewhere and only
// transitioned by the back office and payment webhooks.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReferenceCode   string            `gorm:"column:reference_code;not null;uniqueIndex" json:"reference_code"`
	PaymentID       *string           `gorm:"column:payment_id;uniqueIndex" json:"payment_id,omitempty"`
	CustomerName    string            `gorm:"column:customer_name;not null" json:"customer_name"`
	CustomerEmail   string            `gorm:"column:customer_email;not null" json:"customer_email"`
	CustomerPhone   *string           `gorm:"column:customer_phone" json:"customer_phone,omitempty"`
	ShippingAddress *string           `gorm:"column:shipping_address" json:"shipping_address,omitempty"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	Status          enums.OrderStatus `gorm:"column:status;type:order_status;not null" json:"status"`
	PaidAt          *time.Time        `gorm:"column:paid_at" json:"paid_at,omitempty"`
	Notes           *string           `gorm:"column:notes" json:"notes,omitempty"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }
