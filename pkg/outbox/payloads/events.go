package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
)

// OrderPaidEvent is emitted when a payment confirmation settles an order.
type OrderPaidEvent struct {
	OrderID       uuid.UUID       `json:"order_id"`
	ReferenceCode string          `json:"reference_code"`
	PaymentID     string          `json:"payment_id,omitempty"`
	Total         decimal.Decimal `json:"total"`
	ProductIDs    []uuid.UUID     `json:"product_ids"`
	DeliveryID    uuid.UUID       `json:"delivery_id"`
	PaidAt        time.Time       `json:"paid_at"`
}

// OrderCancelledEvent is emitted when a failed payment releases a pending order.
type OrderCancelledEvent struct {
	OrderID       uuid.UUID   `json:"order_id"`
	ReferenceCode string      `json:"reference_code"`
	Reason        string      `json:"reason,omitempty"`
	ProductIDs    []uuid.UUID `json:"product_ids"`
	CancelledAt   time.Time   `json:"cancelled_at"`
}

// OrderRefundedEvent is emitted when the gateway reports a refund.
type OrderRefundedEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	ReferenceCode string    `json:"reference_code"`
	PaymentID     string    `json:"payment_id,omitempty"`
	RefundedAt    time.Time `json:"refunded_at"`
}

// OrderStatusChangedEvent records a back-office order transition.
type OrderStatusChangedEvent struct {
	OrderID uuid.UUID         `json:"order_id"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
}

// DeliveryStatusChangedEvent records a back-office delivery transition.
type DeliveryStatusChangedEvent struct {
	DeliveryID uuid.UUID            `json:"delivery_id"`
	OrderID    uuid.UUID            `json:"order_id"`
	From       enums.DeliveryStatus `json:"from"`
	To         enums.DeliveryStatus `json:"to"`
}

// ProductStatusChangedEvent records a back-office product transition.
type ProductStatusChangedEvent struct {
	ProductID uuid.UUID           `json:"product_id"`
	From      enums.ProductStatus `json:"from"`
	To        enums.ProductStatus `json:"to"`
}
