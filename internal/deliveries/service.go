package deliveries

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/thriftdrop-backend/internal/notifications"
	"github.com/angelmondragon/thriftdrop-backend/pkg/db/models"
	"github.com/angelmondragon/thriftdrop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/thriftdrop-backend/pkg/errors"
	"github.com/angelmondragon/thriftdrop-backend/pkg/logger"
	"github.com/angelmondragon/thriftdrop-backend/pkg/outbox"
	"github.com/angelmondragon/thriftdrop-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes back-office delivery transitions.
type Service interface {
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Delivery, error)
}

type UpdateStatusInput struct {
	DeliveryID  uuid.UUID
	Status      enums.DeliveryStatus
	ScheduledAt *time.Time
	Notes       *string
	ActorUserID uuid.UUID
	ActorRole   enums.AdminRole
}

type ServiceParams struct {
	Repository    Repository
	Notifications notifications.Repository
	TxRunner      txRunner
	Outbox        outbox.Emitter
	Logger        *logger.Logger
	Now           func() time.Time
}

type service struct {
	repo          Repository
	notifications notifications.Repository
	tx            txRunner
	outbox        outbox.Emitter
	logg          *logger.Logger
	now           func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("deliveries repository required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:          params.Repository,
		notifications: params.Notifications,
		tx:            params.TxRunner,
		outbox:        params.Outbox,
		logg:          params.Logger,
		now:           now,
	}, nil
}

// UpdateStatus checks the transition table, stamps scheduled_at/delivered_at
// and raises a delivery_update notification on delivered or failed.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Delivery, error) {
	if input.DeliveryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery id required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "invalid delivery status %q", input.Status)
	}

	var updated *models.Delivery
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		delivery, err := repo.FindByID(ctx, input.DeliveryID)
		if err != nil {
			return err
		}
		if delivery.Status == input.Status {
			updated = delivery
			return nil
		}
		from := delivery.Status
		if !CanTransition(from, input.Status) {
			return pkgerrors.Newf(pkgerrors.CodeStateConflict, "delivery cannot move from %s to %s", from, input.Status).
				WithDetails(map[string]any{
					"from":    from,
					"to":      input.Status,
					"allowed": AllowedTransitions(from),
				})
		}

		now := s.now().UTC()
		change := StatusChange{Status: input.Status, Notes: input.Notes, UpdatedAt: now}
		switch input.Status {
		case enums.DeliveryStatusScheduled:
			scheduled := now
			if input.ScheduledAt != nil {
				scheduled = input.ScheduledAt.UTC()
			}
			change.ScheduledAt = &scheduled
		case enums.DeliveryStatusDelivered:
			change.DeliveredAt = &now
		}
		if err := repo.ApplyStatus(ctx, delivery.ID, change); err != nil {
			return err
		}

		delivery.Status = input.Status
		delivery.UpdatedAt = now
		if change.ScheduledAt != nil {
			delivery.ScheduledAt = change.ScheduledAt
		}
		if change.DeliveredAt != nil {
			delivery.DeliveredAt = change.DeliveredAt
		}
		if input.Notes != nil {
			delivery.Notes = input.Notes
		}

		if input.Status == enums.DeliveryStatusDelivered || input.Status == enums.DeliveryStatusFailed {
			notification, err := notifications.DeliveryUpdate(delivery)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build delivery notification")
			}
			if err := s.notifications.WithTx(tx).Create(ctx, notification); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery notification")
			}
		}

		var actor *outbox.ActorRef
		if input.ActorUserID != uuid.Nil {
			id := input.ActorUserID
			actor = &outbox.ActorRef{AdminID: &id, Role: string(input.ActorRole), Source: "admin"}
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDeliveryStatusChanged,
			AggregateType: enums.AggregateDelivery,
			AggregateID:   delivery.ID,
			Actor:         actor,
			OccurredAt:    now,
			Data: payloads.DeliveryStatusChangedEvent{
				DeliveryID: delivery.ID,
				OrderID:    delivery.OrderID,
				From:       from,
				To:         input.Status,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit delivery status event")
		}
		updated = delivery
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, updated.OrderID.String())
		s.logg.Info(s.logg.WithFields(logCtx, map[string]any{
			"delivery_id": updated.ID.String(),
			"status":      updated.Status,
		}), "delivery status updated")
	}
	return updated, nil
}
