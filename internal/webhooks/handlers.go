package webhooks

import (
	"context"
	"encoding/json"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/thriftdrop-backend/internal/notifications"
	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/thriftdrop-backend/pkg/errors"
	"github.com/angelmondragon/thriftdrop-backend/pkg/outbox"
	"github.com/angelmondragon/thriftdrop-backend/pkg/outbox/payloads"
)

const actorSource = "payment_webhook"

type handlerFunc func(ctx context.Context, tx *gorm.DB, data json.RawMessage) (Result, error)

type handlerKind string

const (
	handlerPaymentConfirmed handlerKind = "payment_confirmed"
	handlerPaymentFailed    handlerKind = "payment_failed"
	handlerPaymentRefunded  handlerKind = "payment_refunded"
)

// eventHandlers maps every accepted gateway event type to its handler.
var eventHandlers = map[string]handlerKind{
	"payment.confirmed": handlerPaymentConfirmed,
	"payment.approved":  handlerPaymentConfirmed,
	"payment.succeeded": handlerPaymentConfirmed,
	"payment.completed": handlerPaymentConfirmed,

	"payment.failed":   handlerPaymentFailed,
	"payment.declined": handlerPaymentFailed,
	"payment.rejected": handlerPaymentFailed,

	"payment.refunded": handlerPaymentRefunded,
	"refund.completed": handlerPaymentRefunded,
}

// HandlesEventType reports whether eventType routes to a handler.
func HandlesEventType(eventType string) bool {
	_, ok := eventHandlers[normalizeEventType(eventType)]
	return ok
}

func normalizeEventType(eventType string) string {
	return strings.ToLower(strings.TrimSpace(eventType))
}

const unknownEventType = "unknown"

// eventTypeLabel keeps metric label cardinality bounded by the routing table.
func eventTypeLabel(eventType string) string {
	normalized := normalizeEventType(eventType)
	if _, ok := eventHandlers[normalized]; !ok {
		return unknownEventType
	}
	return normalized
}

func (s *Service) route(eventType string) (handlerKind, handlerFunc, bool) {
	kind, ok := eventHandlers[normalizeEventType(eventType)]
	if !ok {
		return "", nil, false
	}
	switch kind {
	case handlerPaymentConfirmed:
		return kind, s.handlePaymentConfirmed, true
	case handlerPaymentFailed:
		return kind, s.handlePaymentFailed, true
	case handlerPaymentRefunded:
		return kind, s.handlePaymentRefunded, true
	default:
		return "", nil, false
	}
}

// handlePaymentConfirmed settles a pending order: the order becomes paid, its
// products are sold, and a pending delivery plus a notification are created.
func (s *Service) handlePaymentConfirmed(ctx context.Context, tx *gorm.DB, raw json.RawMessage) (Result, error) {
	data, err := decodeData[PaymentConfirmedData](raw)
	if err != nil {
		return Result{}, err
	}

	orderRepo := s.orders.WithTx(tx)
	order, err := orderRepo.ResolveForPayment(ctx, data.PaymentID, data.OrderReference)
	if err != nil {
		return Result{}, err
	}
	if order == nil {
		return Result{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found for confirmed payment").
			WithDetails(map[string]any{
				"payment_id":      data.PaymentID,
				"order_reference": data.OrderReference,
			})
	}
	if order.Status == enums.OrderStatusPaid {
		return skipped(&order.ID, reasonAlreadyPaid), nil
	}

	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithOrderID(ctx, order.ID.String())
		if data.Amount != nil && !data.Amount.Equal(order.Total) {
			s.logg.Warn(s.logg.WithFields(logCtx, map[string]any{
				"amount": data.Amount.StringFixed(2),
				"total":  order.Total.StringFixed(2),
			}), "payment amount differs from order total")
		}
	}

	paidAt := s.now().UTC()
	if err := orderRepo.MarkPaid(ctx, order.ID, data.PaymentID, paidAt); err != nil {
		return Result{}, err
	}
	order.Status = enums.OrderStatusPaid
	order.PaidAt = &paidAt
	if order.PaymentID == nil && data.PaymentID != "" {
		paymentID := data.PaymentID
		order.PaymentID = &paymentID
	}

	productIDs, err := orderRepo.ProductIDs(ctx, order.ID)
	if err != nil {
		return Result{}, err
	}
	updated, err := s.products.WithTx(tx).BulkUpdateStatus(ctx, productIDs, enums.ProductStatusSold)
	if err != nil {
		return Result{}, err
	}

	delivery, err := s.deliveries.WithTx(tx).Create(ctx, &models.Delivery{
		OrderID: order.ID,
		Status:  enums.DeliveryStatusPending,
	})
	if err != nil {
		return Result{}, err
	}

	if err := s.notify(ctx, tx, func() (*models.Notification, error) {
		return notifications.PaymentReceived(order, delivery.ID)
	}); err != nil {
		return Result{}, err
	}

	paymentID := data.PaymentID
	if paymentID == "" && order.PaymentID != nil {
		paymentID = *order.PaymentID
	}
	if err := s.emit(ctx, tx, enums.EventOrderPaid, order, payloads.OrderPaidEvent{
		OrderID:       order.ID,
		ReferenceCode: order.ReferenceCode,
		PaymentID:     paymentID,
		Total:         order.Total,
		ProductIDs:    productIDs,
		DeliveryID:    delivery.ID,
		PaidAt:        paidAt,
	}); err != nil {
		return Result{}, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithField(logCtx, "products_updated", updated), "order paid")
	}
	return Result{
		Status: ResultProcessed,
		Result: FulfillmentResult{
			OrderID:         order.ID,
			ProductsUpdated: updated,
			DeliveryID:      delivery.ID,
		},
	}, nil
}

// handlePaymentFailed cancels a still-pending order and releases its products.
// Unknown or already settled orders are skipped.
func (s *Service) handlePaymentFailed(ctx context.Context, tx *gorm.DB, raw json.RawMessage) (Result, error) {
	data, err := decodeData[PaymentFailedData](raw)
	if err != nil {
		return Result{}, err
	}

	orderRepo := s.orders.WithTx(tx)
	order, err := orderRepo.ResolveForPayment(ctx, data.PaymentID, data.OrderReference)
	if err != nil {
		return Result{}, err
	}
	if order == nil {
		return skipped(nil, reasonOrderNotFound), nil
	}
	if order.Status != enums.OrderStatusPending {
		return skipped(&order.ID, reasonNotPending), nil
	}

	productIDs, err := orderRepo.ProductIDs(ctx, order.ID)
	if err != nil {
		return Result{}, err
	}
	if _, err := s.products.WithTx(tx).BulkUpdateStatus(ctx, productIDs, enums.ProductStatusAvailable); err != nil {
		return Result{}, err
	}
	if err := orderRepo.UpdateStatus(ctx, order.ID, enums.OrderStatusCancelled); err != nil {
		return Result{}, err
	}
	order.Status = enums.OrderStatusCancelled

	if err := s.notify(ctx, tx, func() (*models.Notification, error) {
		return notifications.PaymentFailed(order, data.Reason)
	}); err != nil {
		return Result{}, err
	}

	if err := s.emit(ctx, tx, enums.EventOrderCancelled, order, payloads.OrderCancelledEvent{
		OrderID:       order.ID,
		ReferenceCode: order.ReferenceCode,
		Reason:        data.Reason,
		ProductIDs:    productIDs,
		CancelledAt:   s.now().UTC(),
	}); err != nil {
		return Result{}, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, order.ID.String()), "order cancelled after failed payment")
	}
	return Result{
		Status: ResultProcessed,
		Result: OrderStatusResult{OrderID: order.ID, Status: string(enums.OrderStatusCancelled)},
	}, nil
}

// handlePaymentRefunded marks the order refunded regardless of its current status.
func (s *Service) handlePaymentRefunded(ctx context.Context, tx *gorm.DB, raw json.RawMessage) (Result, error) {
	data, err := decodeData[PaymentRefundedData](raw)
	if err != nil {
		return Result{}, err
	}

	orderRepo := s.orders.WithTx(tx)
	order, err := orderRepo.ResolveForPayment(ctx, data.PaymentID, data.OrderReference)
	if err != nil {
		return Result{}, err
	}
	if order == nil {
		return skipped(nil, reasonOrderNotFound), nil
	}
	if order.Status == enums.OrderStatusRefunded {
		return skipped(&order.ID, reasonAlreadyRefunded), nil
	}

	if err := orderRepo.UpdateStatus(ctx, order.ID, enums.OrderStatusRefunded); err != nil {
		return Result{}, err
	}
	order.Status = enums.OrderStatusRefunded

	if err := s.notify(ctx, tx, func() (*models.Notification, error) {
		return notifications.PaymentRefunded(order)
	}); err != nil {
		return Result{}, err
	}

	paymentID := data.PaymentID
	if paymentID == "" && order.PaymentID != nil {
		paymentID = *order.PaymentID
	}
	if err := s.emit(ctx, tx, enums.EventOrderRefunded, order, payloads.OrderRefundedEvent{
		OrderID:       order.ID,
		ReferenceCode: order.ReferenceCode,
		PaymentID:     paymentID,
		RefundedAt:    s.now().UTC(),
	}); err != nil {
		return Result{}, err
	}

	return Result{
		Status: ResultProcessed,
		Result: OrderStatusResult{OrderID: order.ID, Status: string(enums.OrderStatusRefunded)},
	}, nil
}

func (s *Service) notify(ctx context.Context, tx *gorm.DB, build func() (*models.Notification, error)) error {
	notification, err := build()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build notification")
	}
	if err := s.notifications.WithTx(tx).Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, order *models.Order, data any) error {
	event := outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{Source: actorSource},
		OccurredAt:    s.now().UTC(),
		Data:          data,
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit "+string(eventType))
	}
	return nil
}
