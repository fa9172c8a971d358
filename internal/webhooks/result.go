package webhooks

import "github.com/google/uuid"

// ResultStatus is the outcome tag returned to the HTTP layer.
type ResultStatus string

const (
	ResultProcessed ResultStatus = "processed"
	ResultDuplicate ResultStatus = "duplicate"
	ResultIgnored   ResultStatus = "ignored"
	ResultSkipped   ResultStatus = "skipped"
)

const (
	messageDuplicate = "Event already processed"
	messageIgnored   = "Event type not handled"

	reasonAlreadyPaid     = "Order already paid"
	reasonAlreadyRefunded = "Order already refunded"
	reasonOrderNotFound   = "Order not found"
	reasonNotPending      = "Order not pending"
)

// Result is what Dispatch reports for one envelope. Result holds the
// handler-specific body and is also persisted on the webhook event row.
type Result struct {
	Status  ResultStatus `json:"status"`
	Message string       `json:"message,omitempty"`
	Result  any          `json:"result,omitempty"`
}

// FulfillmentResult is returned when a confirmed payment settles an order.
type FulfillmentResult struct {
	OrderID         uuid.UUID `json:"order_id"`
	ProductsUpdated int64     `json:"products_updated"`
	DeliveryID      uuid.UUID `json:"delivery_id"`
}

// OrderStatusResult is returned when a handler moves an order to a new status.
type OrderStatusResult struct {
	OrderID uuid.UUID `json:"order_id"`
	Status  string    `json:"status"`
}

// SkipResult is returned when a handler decides no mutation applies.
type SkipResult struct {
	OrderID *uuid.UUID   `json:"order_id,omitempty"`
	Status  ResultStatus `json:"status"`
	Reason  string       `json:"reason"`
}

func skipped(orderID *uuid.UUID, reason string) Result {
	return Result{
		Status: ResultSkipped,
		Result: SkipResult{OrderID: orderID, Status: ResultSkipped, Reason: reason},
	}
}
