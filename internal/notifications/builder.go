package notifications

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
)

// OrderRef is the order context embedded in notification data.
type OrderRef struct {
	OrderID       uuid.UUID        `json:"order_id"`
	ReferenceCode string           `json:"reference_code"`
	Total         *decimal.Decimal `json:"total,omitempty"`
	Reason        string           `json:"reason,omitempty"`
	DeliveryID    *uuid.UUID       `json:"delivery_id,omitempty"`
}

// PaymentReceived builds the notification raised when an order is paid.
func PaymentReceived(order *models.Order, deliveryID uuid.UUID) (*models.Notification, error) {
	total := order.Total
	return build(
		enums.NotificationTypePaymentReceived,
		"Payment received",
		fmt.Sprintf("Order %s was paid by %s (total %s).", order.ReferenceCode, order.CustomerName, total.StringFixed(2)),
		OrderRef{OrderID: order.ID, ReferenceCode: order.ReferenceCode, Total: &total, DeliveryID: &deliveryID},
	)
}

// PaymentFailed builds the notification raised when a pending order is cancelled by a failed payment.
func PaymentFailed(order *models.Order, reason string) (*models.Notification, error) {
	message := fmt.Sprintf("Payment for order %s failed; the order was cancelled.", order.ReferenceCode)
	if reason != "" {
		message = fmt.Sprintf("Payment for order %s failed (%s); the order was cancelled.", order.ReferenceCode, reason)
	}
	return build(
		enums.NotificationTypePaymentFailed,
		"Payment failed",
		message,
		OrderRef{OrderID: order.ID, ReferenceCode: order.ReferenceCode, Reason: reason},
	)
}

// PaymentRefunded builds the notification raised when the gateway refunds an order.
func PaymentRefunded(order *models.Order) (*models.Notification, error) {
	return build(
		enums.NotificationTypePaymentRefunded,
		"Payment refunded",
		fmt.Sprintf("Order %s was refunded.", order.ReferenceCode),
		OrderRef{OrderID: order.ID, ReferenceCode: order.ReferenceCode},
	)
}

// DeliveryUpdate builds the notification raised when a delivery reaches a final state.
func DeliveryUpdate(delivery *models.Delivery) (*models.Notification, error) {
	deliveryID := delivery.ID
	return build(
		enums.NotificationTypeDeliveryUpdate,
		"Delivery update",
		fmt.Sprintf("Delivery for order %s is now %s.", delivery.OrderID, delivery.Status),
		OrderRef{OrderID: delivery.OrderID, DeliveryID: &deliveryID},
	)
}

func build(kind enums.NotificationType, title, message string, data any) (*models.Notification, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode notification data: %w", err)
	}
	return &models.Notification{
		ID:      uuid.New(),
		Type:    kind,
		Title:   title,
		Message: message,
		Data:    payload,
	}, nil
}
